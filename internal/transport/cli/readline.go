package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/sandevgo/samara/internal/config"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/conv"
	"github.com/sandevgo/samara/pkg/log"
	"github.com/sandevgo/samara/pkg/srv"
)

type Handler interface {
	HandleMessage(ctx context.Context, in core.InboundMessage) (string, error)
	Self() core.Subject
}

type Resolver interface {
	Resolve(name string) (core.Subject, bool)
}

type ReadLine struct {
	rl      *readline.Instance
	session *session
}

func NewReadLine(handler Handler, router core.CmdRouter, resolver Resolver, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	user := os.Getenv("USER")
	if user == "" {
		user = "you"
	}
	channel := "console"
	if len(cfg.MonitoredChannels) > 0 {
		channel = cfg.MonitoredChannels[0]
	}

	s := newSession(handler, router, resolver, user, channel)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		rl:      rl,
		session: s,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("ReadLine chat started. Type 'exit' to quit, '/as <name>' to switch speaker.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return srv.ErrQuit
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return srv.ErrQuit
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return srv.ErrQuit
		}
		if line == "" {
			continue
		}

		if out := r.session.handleLine(ctx, line); out != "" {
			fmt.Fprintf(r.rl.Stdout(), "%s\n", conv.MarkdownToPlainText([]byte(out)))
		}
		r.rl.SetPrompt(r.session.prompt())
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}

// session is the console conversation state: who is speaking and where.
type session struct {
	handler  Handler
	router   core.CmdRouter
	resolver Resolver

	speaker core.Subject
	channel string
	seq     int
	now     func() time.Time
}

func newSession(handler Handler, router core.CmdRouter, resolver Resolver, speaker, channel string) *session {
	return &session{
		handler:  handler,
		router:   router,
		resolver: resolver,
		speaker:  consoleSubject(speaker),
		channel:  channel,
		now:      time.Now,
	}
}

func consoleSubject(name string) core.Subject {
	return core.Subject{ID: "cli:" + strings.ToLower(name), Name: name}
}

func (s *session) prompt() string {
	return fmt.Sprintf("%s@%s> ", s.speaker.Name, s.channel)
}

func (s *session) handleLine(ctx context.Context, line string) string {
	if name, ok := strings.CutPrefix(line, "/as "); ok {
		s.speaker = consoleSubject(strings.TrimSpace(name))
		return fmt.Sprintf("now speaking as %s", s.speaker.Name)
	}
	if name, ok := strings.CutPrefix(line, "/channel "); ok {
		s.channel = strings.TrimSpace(name)
		return fmt.Sprintf("now in #%s", s.channel)
	}

	in := s.inbound(line)

	if s.router != nil {
		if out, ok := s.router.Execute(ctx, in); ok {
			return out
		}
	}

	out, err := s.handler.HandleMessage(ctx, in)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("message handling failed")
	}
	return out
}

// inbound builds a chat event. The bot is addressed when its name appears in
// the line. Words starting with @ are resolved as mentions.
func (s *session) inbound(line string) core.InboundMessage {
	s.seq++
	self := s.handler.Self()

	in := core.InboundMessage{
		ChatMessage: core.ChatMessage{
			ID:        fmt.Sprintf("cli-%d-%d", s.now().Unix(), s.seq),
			Content:   line,
			Author:    s.speaker,
			Channel:   s.channel,
			Timestamp: s.now(),
		},
		Addressed: strings.Contains(strings.ToLower(line), strings.ToLower(self.Name)),
	}

	for _, word := range strings.Fields(line) {
		name, ok := strings.CutPrefix(strings.Trim(word, ".,!?;:"), "@")
		if !ok || name == "" {
			continue
		}
		if strings.EqualFold(name, self.Name) {
			in.Mentions = append(in.Mentions, self)
			continue
		}
		if s.resolver == nil {
			continue
		}
		if found, ok := s.resolver.Resolve(name); ok {
			in.Mentions = append(in.Mentions, found)
		}
	}

	return in
}
