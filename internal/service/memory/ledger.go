package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
)

const DefaultLedgerLimit = 200

// Ledger keeps the most recent chat messages, newest first.
// Once full, the oldest inserted message is dropped regardless of its timestamp.
type Ledger struct {
	file  snapshot[[]core.ChatMessage]
	limit int

	mu       sync.RWMutex
	messages []core.ChatMessage
}

func NewLedger(file snapshot[[]core.ChatMessage], limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultLedgerLimit
	}
	return &Ledger{
		file:  file,
		limit: limit,
	}
}

// Load replaces the in-memory state with the persisted one.
func (l *Ledger) Load(ctx context.Context) error {
	messages, err := l.file.Load(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if len(messages) > l.limit {
		messages = messages[:l.limit]
	}

	l.mu.Lock()
	l.messages = messages
	l.mu.Unlock()
	return nil
}

// Append records msg at the head and persists the ledger.
// A message without content is ignored.
func (l *Ledger) Append(ctx context.Context, msg core.ChatMessage) error {
	if strings.TrimSpace(msg.Content) == "" {
		log.FromCtx(ctx).Debug().Str("author", msg.Author.Name).Msg("skipping empty message")
		return nil
	}

	l.mu.Lock()
	next := make([]core.ChatMessage, 0, min(len(l.messages)+1, l.limit))
	next = append(next, msg)
	next = append(next, l.messages...)
	if len(next) > l.limit {
		next = next[:l.limit]
	}
	l.messages = next
	l.mu.Unlock()

	if err := l.file.Save(ctx, next); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

// All returns a copy of the ledger, most recent first.
func (l *Ledger) All() []core.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.messages)
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Find returns the latest recorded version of the message with the given
// platform ID. Edits append a new version.
func (l *Ledger) Find(id string) (core.ChatMessage, bool) {
	if id == "" {
		return core.ChatMessage{}, false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, m := range l.messages {
		if m.ID == id {
			return m, true
		}
	}
	return core.ChatMessage{}, false
}

// ByAuthor returns up to n messages written by subjectID, newest timestamp first.
func (l *Ledger) ByAuthor(subjectID string, n int) []core.ChatMessage {
	out := l.filter(func(m core.ChatMessage) bool { return m.Author.ID == subjectID })
	return newestFirst(out, n)
}

// ByChannel returns up to n messages whose channel contains any of the names,
// newest timestamp first. No names matches every channel.
func (l *Ledger) ByChannel(names []string, n int) []core.ChatMessage {
	out := l.filter(func(m core.ChatMessage) bool {
		if len(names) == 0 {
			return true
		}
		channel := strings.ToLower(m.Channel)
		for _, name := range names {
			if name != "" && strings.Contains(channel, strings.ToLower(name)) {
				return true
			}
		}
		return false
	})
	return newestFirst(out, n)
}

func (l *Ledger) filter(keep func(core.ChatMessage) bool) []core.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []core.ChatMessage
	for _, m := range l.messages {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func newestFirst(messages []core.ChatMessage, n int) []core.ChatMessage {
	slices.SortStableFunc(messages, func(a, b core.ChatMessage) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if n > 0 && len(messages) > n {
		messages = messages[:n]
	}
	return messages
}
