package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sandevgo/samara/internal/core"
)

// RelationshipStore keeps one relationship per unordered subject pair.
// A later save for the same pair replaces the earlier one.
type RelationshipStore struct {
	file snapshot[map[string]core.Relationship]

	mu    sync.RWMutex
	items map[string]core.Relationship
}

func NewRelationshipStore(file snapshot[map[string]core.Relationship]) *RelationshipStore {
	return &RelationshipStore{
		file:  file,
		items: make(map[string]core.Relationship),
	}
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (s *RelationshipStore) Load(ctx context.Context) error {
	stored, err := s.file.Load(ctx)
	if err != nil {
		return fmt.Errorf("load relationships: %w", err)
	}
	if stored == nil {
		stored = make(map[string]core.Relationship)
	}

	s.mu.Lock()
	s.items = stored
	s.mu.Unlock()
	return nil
}

func (s *RelationshipStore) SaveRelationship(ctx context.Context, a, b string, rel core.Relationship) error {
	if a == "" || b == "" || a == b {
		return fmt.Errorf("relationship needs two distinct subjects")
	}
	rel.SubjectA, rel.SubjectB = a, b
	rel.Type = strings.TrimSpace(rel.Type)

	s.mu.Lock()
	s.items[pairKey(a, b)] = rel
	snap := make(map[string]core.Relationship, len(s.items))
	for k, v := range s.items {
		snap[k] = v
	}
	s.mu.Unlock()

	if err := s.file.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist relationships: %w", err)
	}
	return nil
}

func (s *RelationshipStore) GetRelationship(a, b string) (core.Relationship, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rel, ok := s.items[pairKey(a, b)]
	return rel, ok
}

// ForSubject returns every relationship involving subjectID, newest first.
func (s *RelationshipStore) ForSubject(subjectID string) []core.Relationship {
	s.mu.RLock()
	var out []core.Relationship
	for _, rel := range s.items {
		if rel.Involves(subjectID) {
			out = append(out, rel)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(x, y core.Relationship) int {
		if c := y.Timestamp.Compare(x.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(pairKey(x.SubjectA, x.SubjectB), pairKey(y.SubjectA, y.SubjectB))
	})
	return out
}

func (s *RelationshipStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
