package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/samara/internal/core"
)

// Directory remembers every chat identity seen so far. Chat platforms do not
// let a bot enumerate group members, so name lookups go through here.
type Directory struct {
	file snapshot[map[string]core.Participant]

	mu     sync.RWMutex
	people map[string]core.Participant
}

func NewDirectory(file snapshot[map[string]core.Participant]) *Directory {
	return &Directory{
		file:   file,
		people: make(map[string]core.Participant),
	}
}

func (d *Directory) Load(ctx context.Context) error {
	stored, err := d.file.Load(ctx)
	if err != nil {
		return fmt.Errorf("load participants: %w", err)
	}
	if stored == nil {
		stored = make(map[string]core.Participant)
	}

	d.mu.Lock()
	d.people = stored
	d.mu.Unlock()
	return nil
}

// Observe records a sighting. The file is rewritten only when the identity is
// new or its name or tag changed.
func (d *Directory) Observe(ctx context.Context, s core.Subject, at time.Time) error {
	if s.ID == "" {
		return nil
	}

	d.mu.Lock()
	prev, known := d.people[s.ID]
	if s.Name == "" {
		s.Name = prev.Name
	}
	if s.Tag == "" {
		s.Tag = prev.Tag
	}
	changed := !known || prev.Subject != s
	d.people[s.ID] = core.Participant{Subject: s, LastSeen: at}

	var snap map[string]core.Participant
	if changed {
		snap = make(map[string]core.Participant, len(d.people))
		for k, v := range d.people {
			snap[k] = v
		}
	}
	d.mu.Unlock()

	if !changed {
		return nil
	}
	if err := d.file.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist participants: %w", err)
	}
	return nil
}

func (d *Directory) Get(id string) (core.Subject, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.people[id]
	return p.Subject, ok
}

// Match returns participants whose name or tag contains the lowercased
// candidate, ordered by ID.
func (d *Directory) Match(candidate string) []core.Subject {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	if candidate == "" {
		return nil
	}

	return d.collect(func(s core.Subject) bool {
		return containsFold(s.Name, candidate) || containsFold(s.Tag, candidate)
	})
}

// Resolve finds the first participant whose name contains the given name or
// is contained in it.
func (d *Directory) Resolve(name string) (core.Subject, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return core.Subject{}, false
	}

	found := d.collect(func(s core.Subject) bool {
		return fuzzyEqual(s.Name, name) || fuzzyEqual(s.Tag, name)
	})
	if len(found) == 0 {
		return core.Subject{}, false
	}
	return found[0], true
}

func (d *Directory) All() []core.Subject {
	return d.collect(func(core.Subject) bool { return true })
}

func (d *Directory) collect(keep func(core.Subject) bool) []core.Subject {
	d.mu.RLock()
	var out []core.Subject
	for _, p := range d.people {
		if keep(p.Subject) {
			out = append(out, p.Subject)
		}
	}
	d.mu.RUnlock()

	slices.SortFunc(out, func(a, b core.Subject) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func containsFold(s, lowerSub string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerSub)
}

// fuzzyEqual matches when either side contains the other, case-insensitively.
func fuzzyEqual(s, lowerOther string) bool {
	if s == "" || lowerOther == "" {
		return false
	}
	ls := strings.ToLower(s)
	return strings.Contains(ls, lowerOther) || strings.Contains(lowerOther, ls)
}
