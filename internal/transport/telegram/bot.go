package telegram

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/samara/internal/config"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Handler interface {
	HandleMessage(ctx context.Context, in core.InboundMessage) (string, error)
	HandleEdit(ctx context.Context, in core.InboundMessage) (string, error)
	Self() core.Subject
}

type Bot struct {
	bot     *tele.Bot
	cfg     *config.TelegramConfig
	handler Handler
	router  core.CmdRouter
	sender  *sender
	conv    converter
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	handler Handler,
	router core.CmdRouter,
	resolver Resolver,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		cfg:     cfg,
		handler: handler,
		router:  router,
		sender:  newSender(b),
		conv: converter{
			me:       b.Me,
			self:     handler.Self(),
			resolver: resolver,
		},
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow listed chats
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Chat() == nil || !cfg.IsChatAllowed(c.Chat().ID) {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)
	b.Handle(tele.OnEdited, bot.handleEdit)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("username", b.bot.Me.Username).Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	in := b.conv.inbound(c.Message())

	if out, ok := b.router.Execute(ctx, in); ok {
		return b.sender.sendMarkdown(ctx, c.Chat(), c.Message(), out)
	}

	if in.Addressed {
		_ = c.Notify(tele.Typing)
	}
	return b.reply(ctx, c, b.handler.HandleMessage, in)
}

func (b *Bot) handleEdit(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	return b.reply(ctx, c, b.handler.HandleEdit, b.conv.inbound(c.Message()))
}

func (b *Bot) reply(
	ctx context.Context,
	c tele.Context,
	handle func(context.Context, core.InboundMessage) (string, error),
	in core.InboundMessage,
) error {
	logger := log.FromCtx(ctx)

	out, err := handle(ctx, in)
	if err != nil {
		logger.Error().Err(err).Str("id", in.ID).Msg("message handling failed")
	}
	if out == "" {
		return nil
	}
	return b.sender.sendMarkdown(ctx, c.Chat(), c.Message(), out)
}
