package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/samara/internal/core"
)

const DefaultConversationLimit = 20

// ConversationStore keeps the last exchanges the bot answered, per subject.
// Each list is ordered oldest first and trimmed to the limit.
type ConversationStore struct {
	file  snapshot[map[string][]core.Conversation]
	limit int

	mu    sync.RWMutex
	convs map[string][]core.Conversation
}

func NewConversationStore(file snapshot[map[string][]core.Conversation], limit int) *ConversationStore {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	return &ConversationStore{
		file:  file,
		limit: limit,
		convs: make(map[string][]core.Conversation),
	}
}

func (s *ConversationStore) Load(ctx context.Context) error {
	stored, err := s.file.Load(ctx)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}

	convs := make(map[string][]core.Conversation, len(stored))
	for id, list := range stored {
		if len(list) > s.limit {
			list = list[len(list)-s.limit:]
		}
		convs[id] = list
	}

	s.mu.Lock()
	s.convs = convs
	s.mu.Unlock()
	return nil
}

// Save records one answered message from subject and persists the store.
func (s *ConversationStore) Save(ctx context.Context, subject core.Subject, content, response, channel string, at time.Time) error {
	if subject.ID == "" || strings.TrimSpace(response) == "" {
		return nil
	}

	s.mu.Lock()
	list := append(s.convs[subject.ID], core.Conversation{
		Subject:   subject,
		Content:   content,
		Response:  response,
		Channel:   channel,
		Timestamp: at,
	})
	if len(list) > s.limit {
		list = list[len(list)-s.limit:]
	}
	s.convs[subject.ID] = list
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.file.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist conversations: %w", err)
	}
	return nil
}

// Recent returns up to n exchanges with the subject, newest first.
func (s *ConversationStore) Recent(subjectID string, n int) []core.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.convs[subjectID]
	if n <= 0 || n > len(list) {
		n = len(list)
	}

	out := make([]core.Conversation, 0, n)
	for i := len(list) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, list[i])
	}
	return out
}

// FindBySubjectName returns the newest exchange with a subject whose name or
// tag matches lowered in either direction.
func (s *ConversationStore) FindBySubjectName(lowered string) (core.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  core.Conversation
		found bool
	)
	for _, list := range s.convs {
		if len(list) == 0 {
			continue
		}
		last := list[len(list)-1]
		if !fuzzyEqual(last.Subject.Name, lowered) && !fuzzyEqual(last.Subject.Tag, lowered) {
			continue
		}
		if !found || last.Timestamp.After(best.Timestamp) {
			best, found = last, true
		}
	}
	return best, found
}

func (s *ConversationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, list := range s.convs {
		total += len(list)
	}
	return total
}

func (s *ConversationStore) snapshotLocked() map[string][]core.Conversation {
	out := make(map[string][]core.Conversation, len(s.convs))
	for id, list := range s.convs {
		out[id] = append([]core.Conversation(nil), list...)
	}
	return out
}
