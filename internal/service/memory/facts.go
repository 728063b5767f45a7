package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sandevgo/samara/internal/core"
)

// FactStore keeps a deduplicated, insertion-ordered set of facts per subject.
type FactStore struct {
	file snapshot[map[string][]string]

	mu    sync.RWMutex
	facts map[string][]string
}

func NewFactStore(file snapshot[map[string][]string]) *FactStore {
	return &FactStore{
		file:  file,
		facts: make(map[string][]string),
	}
}

func (s *FactStore) Load(ctx context.Context) error {
	stored, err := s.file.Load(ctx)
	if err != nil {
		return fmt.Errorf("load facts: %w", err)
	}

	facts := make(map[string][]string, len(stored))
	for subject, list := range stored {
		facts[subject] = dedupe(list)
	}

	s.mu.Lock()
	s.facts = facts
	s.mu.Unlock()
	return nil
}

// SaveFact normalizes v and adds it to the subject's set. The store is
// persisted even when the fact was already present. It returns the stored form.
func (s *FactStore) SaveFact(ctx context.Context, subjectID string, v core.FactValue) (string, error) {
	fact := core.NormalizeFact(v)
	if subjectID == "" || fact == "" {
		return "", nil
	}

	s.mu.Lock()
	if !slices.Contains(s.facts[subjectID], fact) {
		s.facts[subjectID] = append(s.facts[subjectID], fact)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.file.Save(ctx, snap); err != nil {
		return fact, fmt.Errorf("persist facts: %w", err)
	}
	return fact, nil
}

// GetFacts returns the subject's facts in insertion order, deduplicated again.
func (s *FactStore) GetFacts(subjectID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dedupe(s.facts[subjectID])
}

// Subjects lists the subjects that have at least one fact.
func (s *FactStore) Subjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.facts))
	for subject, list := range s.facts {
		if len(list) > 0 {
			out = append(out, subject)
		}
	}
	slices.Sort(out)
	return out
}

// Count returns the total number of stored facts.
func (s *FactStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, list := range s.facts {
		n += len(list)
	}
	return n
}

func (s *FactStore) snapshotLocked() map[string][]string {
	out := make(map[string][]string, len(s.facts))
	for subject, list := range s.facts {
		out[subject] = slices.Clone(list)
	}
	return out
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, item := range list {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
