package memory

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
)

const (
	searchLimit         = 30
	sameAuthorCap       = 5
	sameChannelCap      = 10
	externalCap         = 15
	perNameCap          = 5
	profileMessagesCap  = 3
	channelHistoryCap   = 10
	conversationsCap    = 5
	defaultSearchBudget = 10 * time.Second
)

var channelTriggers = []string{
	"quienes escribieron", "quiénes escribieron", "ultimo que hablaron",
	"último que hablaron", "primer mensaje", "primera conversación", "recuerdas",
	"who wrote", "who posted", "last time they talked", "first message",
	"first conversation", "do you remember",
}

// Channels named like "canal-impostor" can be referred to by the part after
// the prefix.
var channelPrefixes = []string{"canal-", "channel-", "canal_", "channel_"}

// Assembler builds the ContextBundle for an addressed message.
type Assembler struct {
	mem       *Memory
	search    core.SimilaritySearch
	names     *NameExtractor
	monitored []string
	timeout   time.Duration
	now       func() time.Time
}

// NewAssembler wires the assembler. search may be nil, in which case the
// external matches section stays empty.
func NewAssembler(mem *Memory, search core.SimilaritySearch, names *NameExtractor, cfg core.MemoryConfig) *Assembler {
	timeout := cfg.SearchTimeout
	if timeout <= 0 {
		timeout = defaultSearchBudget
	}
	return &Assembler{
		mem:       mem,
		search:    search,
		names:     names,
		monitored: lo.Map(cfg.MonitoredChannels, func(c string, _ int) string { return strings.ToLower(strings.TrimSpace(c)) }),
		timeout:   timeout,
		now:       time.Now,
	}
}

func (a *Assembler) Build(ctx context.Context, msg core.ChatMessage) core.ContextBundle {
	logger := log.FromCtx(ctx)
	lowered := msg.Lower()
	now := a.now()

	bundle := core.ContextBundle{
		Message:             msg,
		AuthorFacts:         a.mem.Facts.GetFacts(msg.Author.ID),
		AuthorRelationships: a.mem.Relationships.ForSubject(msg.Author.ID),
		ExternalMatches:     a.externalMatches(ctx, msg),
		Conversations:       a.mem.Conversations.Recent(msg.Author.ID, conversationsCap),
	}

	bundle.Intent = DetectIntent(lowered)
	bundle.CandidateNames = a.names.Extract(lowered, bundle.Intent)

	history := lo.Filter(a.mem.Ledger.All(), func(m core.ChatMessage, _ int) bool {
		return !sameMessage(m, msg)
	})

	if len(bundle.CandidateNames) > 0 {
		seen := map[string]struct{}{}
		for _, name := range bundle.CandidateNames {
			bundle.RecentMessages = append(bundle.RecentMessages, Rank(history, name, perNameCap, now)...)

			for _, s := range a.mem.Directory.Match(name) {
				if _, dup := seen[s.ID]; dup {
					continue
				}
				seen[s.ID] = struct{}{}

				profile := core.SubjectProfile{
					Subject:        s,
					Facts:          a.mem.Facts.GetFacts(s.ID),
					RecentMessages: a.mem.Ledger.ByAuthor(s.ID, profileMessagesCap),
				}
				if len(profile.Facts) > 0 || len(profile.RecentMessages) > 0 {
					bundle.Profiles = append(bundle.Profiles, profile)
				}
			}
		}
	} else {
		bundle.RecentMessages = Rank(history, msg.Content, DefaultRankLimit, now)
	}

	bundle.ChannelHistory = a.channelHistory(lowered)

	if bundle.Intent.AboutInteractions {
		for _, name := range bundle.CandidateNames {
			bundle.Interactions = append(bundle.Interactions, core.InteractionCheck{
				Name:   name,
				Result: a.mem.HasInteracted(name),
			})
		}
	}

	logger.Debug().
		Strs("names", bundle.CandidateNames).
		Int("author_facts", len(bundle.AuthorFacts)).
		Int("external", len(bundle.ExternalMatches)).
		Int("recent", len(bundle.RecentMessages)).
		Int("profiles", len(bundle.Profiles)).
		Int("conversations", len(bundle.Conversations)).
		Int("interactions", len(bundle.Interactions)).
		Bool("channel_history", bundle.ChannelHistory != nil).
		Msg("context assembled")

	return bundle
}

// externalMatches keeps up to five hits by the same author followed by up to
// ten from the same channel whose text is not already present.
func (a *Assembler) externalMatches(ctx context.Context, msg core.ChatMessage) []core.Document {
	if a.search == nil || strings.TrimSpace(msg.Content) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	docs, err := a.search.Search(ctx, msg.Content, searchLimit)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("similarity search failed, continuing without it")
		return nil
	}

	byAuthor := lo.Filter(docs, func(d core.Document, _ int) bool {
		return d.Metadata.AuthorID == msg.Author.ID
	})
	merged := take(byAuthor, sameAuthorCap)

	byChannel := take(lo.Filter(docs, func(d core.Document, _ int) bool {
		return d.Metadata.Channel == msg.Channel
	}), sameChannelCap)

	for _, d := range byChannel {
		if lo.ContainsBy(merged, func(m core.Document) bool { return m.Text == d.Text }) {
			continue
		}
		merged = append(merged, d)
	}

	return take(merged, externalCap)
}

// namedChannel returns the first monitored channel mentioned in the text,
// either by its full name or by its short alias.
func (a *Assembler) namedChannel(lowered string) (string, bool) {
	for _, c := range a.monitored {
		if c != "" && strings.Contains(lowered, c) {
			return c, true
		}
	}
	for _, c := range a.monitored {
		if alias, ok := channelAlias(c); ok && strings.Contains(lowered, alias) {
			return alias, true
		}
	}
	return "", false
}

func channelAlias(name string) (string, bool) {
	for _, prefix := range channelPrefixes {
		if alias, ok := strings.CutPrefix(name, prefix); ok && alias != "" {
			return alias, true
		}
	}
	return "", false
}

func (a *Assembler) channelHistory(lowered string) *core.ChannelHistory {
	named, ok := a.namedChannel(lowered)
	if !ok && !containsAny(lowered, channelTriggers) {
		return nil
	}

	filter := a.monitored
	if ok {
		filter = []string{named}
	}

	messages := a.mem.Ledger.ByChannel(filter, channelHistoryCap)
	authors := lo.Uniq(lo.Map(messages, func(m core.ChatMessage, _ int) string {
		return m.Author.Name
	}))

	return &core.ChannelHistory{
		Channel:  named,
		Messages: messages,
		Authors:  authors,
	}
}

func sameMessage(a, b core.ChatMessage) bool {
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID && a.Channel == b.Channel
	}
	return a.Author.ID == b.Author.ID && a.Content == b.Content && a.Timestamp.Equal(b.Timestamp)
}

func take[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
