package telegram

import (
	"context"
	"strings"

	"github.com/sandevgo/samara/pkg/conv"
	"github.com/sandevgo/samara/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const maxTelegramMsgLen = 4000 // Safety margin below 4096

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// sendMarkdown converts Markdown to Telegram HTML and sends it in chunks,
// the first one as a reply to the original message. When Telegram rejects
// the HTML, the chunk is resent as plain text.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, replyTo *tele.Message, md string) error {
	logger := log.FromCtx(ctx)
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	if html == "" {
		return nil
	}

	for i, chunk := range splitHTML(html, maxTelegramMsgLen) {
		opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
		if i == 0 {
			opts.ReplyTo = replyTo
		}

		if _, err := s.bot.Send(to, chunk, opts); err != nil {
			logger.Warn().Err(err).Int("chunk", i).Msg("html rejected, sending plain text")

			opts.ParseMode = tele.ModeDefault
			plain := conv.MarkdownToPlainText([]byte(chunk))
			if _, err := s.bot.Send(to, plain, opts); err != nil {
				logger.Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
				return err
			}
		}
	}
	return nil
}

// splitHTML splits text into chunks respecting Telegram's limit.
// It tries to split at newlines to preserve formatting.
func splitHTML(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		cut := maxLen
		// Try to find a good break point (newline) in the second half of the chunk
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}
