package memory

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/storage/jsonfile"
	"github.com/sandevgo/samara/pkg/log"
)

const (
	LedgerFile        = "recent_messages.json"
	FactsFile         = "facts.json"
	RelationshipsFile = "relationships.json"
	InteractionsFile  = "interactions.json"
	ParticipantsFile  = "participants.json"
	ConversationsFile = "memories.json"
)

// Memory groups the stores that make up the agent's memory. The stores are
// created once at startup and shared by handle.
type Memory struct {
	Ledger        *Ledger
	Facts         *FactStore
	Relationships *RelationshipStore
	Interactions  *InteractionCache
	Directory     *Directory
	Conversations *ConversationStore
}

// Open creates the stores backed by JSON files in dataDir. Nothing is read
// until Load is called.
func Open(dataDir string, cfg core.MemoryConfig) *Memory {
	path := func(name string) string { return filepath.Join(dataDir, name) }

	return &Memory{
		Ledger:        NewLedger(jsonfile.New[[]core.ChatMessage](path(LedgerFile)), cfg.LedgerLimit),
		Facts:         NewFactStore(jsonfile.New[map[string][]string](path(FactsFile))),
		Relationships: NewRelationshipStore(jsonfile.New[map[string]core.Relationship](path(RelationshipsFile))),
		Interactions:  NewInteractionCache(jsonfile.New[map[string]storedInteraction](path(InteractionsFile)), cfg.InteractionLimit),
		Directory:     NewDirectory(jsonfile.New[map[string]core.Participant](path(ParticipantsFile))),
		Conversations: NewConversationStore(jsonfile.New[map[string][]core.Conversation](path(ConversationsFile)), cfg.ConversationLimit),
	}
}

// Load reads every store. A store that fails to load starts empty and the
// error is returned after the others were attempted.
func (m *Memory) Load(ctx context.Context) error {
	logger := log.FromCtx(ctx)

	var errs []error
	for _, l := range []interface{ Load(context.Context) error }{
		m.Ledger, m.Facts, m.Relationships, m.Interactions, m.Directory, m.Conversations,
	} {
		if err := l.Load(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to load memory store")
			errs = append(errs, err)
		}
	}

	stats := m.Stats()
	logger.Info().
		Int("messages", stats.Messages).
		Int("facts", stats.Facts).
		Int("relationships", stats.Relationships).
		Int("interactions", stats.Interactions).
		Int("participants", stats.Participants).
		Int("conversations", stats.Conversations).
		Msg("memory loaded")

	for _, subject := range m.Facts.Subjects() {
		name := subject
		if s, ok := m.Directory.Get(subject); ok {
			name = s.Name
		}
		logger.Debug().Str("subject", name).Int("facts", len(m.Facts.GetFacts(subject))).Msg("known subject")
	}

	return errors.Join(errs...)
}

type Stats struct {
	Messages      int
	Facts         int
	Relationships int
	Interactions  int
	Participants  int
	Conversations int
}

func (m *Memory) Stats() Stats {
	return Stats{
		Messages:      m.Ledger.Len(),
		Facts:         m.Facts.Count(),
		Relationships: m.Relationships.Count(),
		Interactions:  m.Interactions.Len(),
		Participants:  len(m.Directory.All()),
		Conversations: m.Conversations.Count(),
	}
}

// HasInteracted answers whether the bot has dealt with someone by that name.
// Sources are checked in priority order: interaction targets, ledger authors,
// known participants that have facts, then past conversations. Matching is a case-insensitive
// substring test in both directions, and the first hit wins.
func (m *Memory) HasInteracted(name string) core.InteractionLookup {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if lowered == "" {
		return core.InteractionLookup{}
	}

	if in, ok := m.Interactions.FindByTarget(lowered); ok {
		target := in.Target
		return core.InteractionLookup{Found: true, Interaction: &in, Subject: &target}
	}

	for _, msg := range m.Ledger.All() {
		if fuzzyEqual(msg.Author.Name, lowered) {
			author := msg.Author
			return core.InteractionLookup{Found: true, Message: &msg, Subject: &author}
		}
	}

	for _, id := range m.Facts.Subjects() {
		s, ok := m.Directory.Get(id)
		if !ok {
			continue
		}
		if fuzzyEqual(s.Name, lowered) || fuzzyEqual(s.Tag, lowered) {
			return core.InteractionLookup{Found: true, Subject: &s}
		}
	}

	if conv, ok := m.Conversations.FindBySubjectName(lowered); ok {
		s := conv.Subject
		return core.InteractionLookup{Found: true, Conversation: &conv, Subject: &s}
	}

	return core.InteractionLookup{}
}
