package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/service/memory"
	"github.com/sandevgo/samara/pkg/log"
)

// ApologyReply is sent when an addressed message could not be answered.
const ApologyReply = "Something went wrong in my train of thought. I'll answer once my mind clears up."

var errEmptyReply = errors.New("model returned an empty reply")

type Indexer interface {
	Enqueue(ctx context.Context, doc core.Document)
}

type Agent struct {
	// one chat event is processed at a time
	mu sync.Mutex

	self      core.Subject
	ai        core.AIProvider
	mem       *memory.Memory
	assembler *memory.Assembler
	prompter  *memory.Prompter
	extractor *memory.Extractor
	indexer   Indexer

	now func() time.Time
}

// NewAgent wires the memory pipeline. A nil extractor disables fact and
// relationship extraction.
func NewAgent(
	self core.Subject,
	ai core.AIProvider,
	mem *memory.Memory,
	assembler *memory.Assembler,
	prompter *memory.Prompter,
	extractor *memory.Extractor,
	indexer Indexer,
) *Agent {
	return &Agent{
		self:      self,
		ai:        ai,
		mem:       mem,
		assembler: assembler,
		prompter:  prompter,
		extractor: extractor,
		indexer:   indexer,
		now:       time.Now,
	}
}

func (a *Agent) Self() core.Subject {
	return a.self
}

// HandleMessage records the message in every memory layer and, when the bot
// is addressed, produces a reply. On failure the reply is ApologyReply and the
// cause is returned alongside it.
func (a *Agent) HandleMessage(ctx context.Context, in core.InboundMessage) (string, error) {
	if in.FromBot || in.Author.ID == a.self.ID {
		return "", nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.process(ctx, in)
}

// HandleEdit reprocesses an edited message when its content changed.
func (a *Agent) HandleEdit(ctx context.Context, in core.InboundMessage) (string, error) {
	if in.FromBot || in.Author.ID == a.self.ID {
		return "", nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if prev, ok := a.mem.Ledger.Find(in.ID); ok && prev.Content == in.Content {
		log.FromCtx(ctx).Debug().Str("id", in.ID).Msg("edit without content change, skipping")
		return "", nil
	}

	in.Edited = true
	return a.process(ctx, in)
}

// HandleDelete only logs. Deleted messages stay in memory.
func (a *Agent) HandleDelete(ctx context.Context, channel, id string) {
	log.FromCtx(ctx).Info().Str("channel", channel).Str("id", id).Msg("message deleted")
}

func (a *Agent) process(ctx context.Context, in core.InboundMessage) (string, error) {
	if in.Timestamp.IsZero() {
		in.Timestamp = a.now()
	}

	logger := log.FromCtx(ctx).With().
		Str("channel", in.Channel).
		Str("author", in.Author.Name).
		Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Bool("addressed", in.Addressed).Bool("edited", in.Edited).Msg("message received")

	a.remember(ctx, in)

	if !in.Addressed {
		return "", nil
	}

	reply, err := a.respond(ctx, in.ChatMessage)
	if err != nil {
		logger.Error().Err(err).Msg("failed to answer message")
		return ApologyReply, err
	}
	return reply, nil
}

// remember writes the message into the ledger, the interaction cache, the
// fact and relationship stores and the similarity index. Every step is
// independent and failures are only logged.
func (a *Agent) remember(ctx context.Context, in core.InboundMessage) {
	logger := log.FromCtx(ctx)
	msg := in.ChatMessage

	for _, s := range append([]core.Subject{msg.Author}, msg.Mentions...) {
		if s.ID == a.self.ID {
			continue
		}
		if err := a.mem.Directory.Observe(ctx, s, msg.Timestamp); err != nil {
			logger.Error().Err(err).Str("subject", s.Name).Msg("failed to record participant")
		}
	}

	if err := a.mem.Ledger.Append(ctx, msg); err != nil {
		logger.Error().Err(err).Msg("failed to save message")
	}

	for _, target := range msg.Mentions {
		a.track(ctx, msg.Author, target, core.KindMention, msg)
	}
	if in.ReplyTo != nil {
		a.track(ctx, msg.Author, *in.ReplyTo, core.KindReply, msg)
	}

	if a.extractor != nil {
		a.extractor.Process(ctx, msg)
	}

	if a.indexer != nil {
		a.indexer.Enqueue(ctx, memory.MessageDocument(msg, "message", in.ReplyTo))
	}
}

// track records an exchange between two users. Exchanges with the bot are
// recorded when it responds.
func (a *Agent) track(ctx context.Context, from, to core.Subject, kind core.InteractionKind, msg core.ChatMessage) {
	if to.ID == "" || to.ID == from.ID || to.ID == a.self.ID {
		return
	}
	if err := a.mem.Interactions.Track(ctx, from, to, kind, msg.Content, msg.Timestamp); err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("kind", string(kind)).Msg("failed to track interaction")
	}
}

func (a *Agent) respond(ctx context.Context, msg core.ChatMessage) (string, error) {
	logger := log.FromCtx(ctx)

	bundle := a.assembler.Build(ctx, msg)
	history := a.prompter.Build(ctx, bundle)

	resp, err := a.ai.Chat(ctx, history)
	if err != nil {
		return "", fmt.Errorf("ai chat error: %w", err)
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", errEmptyReply
	}

	reply := core.ChatMessage{
		ID:        uuid.NewString(),
		Content:   content,
		Author:    a.self,
		Channel:   msg.Channel,
		Timestamp: a.now(),
	}

	if err := a.mem.Ledger.Append(ctx, reply); err != nil {
		logger.Error().Err(err).Msg("failed to save reply")
	}
	if err := a.mem.Interactions.Track(ctx, a.self, msg.Author, core.KindResponse, content, reply.Timestamp); err != nil {
		logger.Error().Err(err).Msg("failed to track response")
	}
	if err := a.mem.Conversations.Save(ctx, msg.Author, msg.Content, content, msg.Channel, reply.Timestamp); err != nil {
		logger.Error().Err(err).Msg("failed to save conversation")
	}

	if a.indexer != nil {
		author := msg.Author
		a.indexer.Enqueue(ctx, memory.MessageDocument(reply, "response", &author))
	}

	logger.Info().Int("length", len(content)).Msg("reply ready")
	return content, nil
}
