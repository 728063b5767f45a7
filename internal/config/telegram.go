package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/samber/lo"
	"github.com/sandevgo/samara/pkg/log"
)

type TelegramConfig struct {
	Token string `env:"TELEGRAM_TOKEN,required,notEmpty" secret:"true"`
	// AllowedChats limits the bot to these chat IDs. Empty means every chat.
	AllowedChats []int64 `env:"TELEGRAM_ALLOWED_CHATS" envSeparator:","`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}

func (c TelegramConfig) GetTelegramToken() string {
	return c.Token
}

func (c TelegramConfig) IsChatAllowed(chatID int64) bool {
	if len(c.AllowedChats) == 0 {
		return true
	}
	return lo.Contains(c.AllowedChats, chatID)
}
