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

const DefaultInteractionLimit = 100

// Seq is the first insertion of the pair and fixes its iteration order.
// Touch is bumped on every write and breaks eviction ties.
type storedInteraction struct {
	core.Interaction
	Seq   uint64 `json:"seq"`
	Touch uint64 `json:"touch,omitempty"`
}

// InteractionCache holds the latest interaction per ordered subject pair.
// Past the limit, the entry with the oldest timestamp is evicted; equal
// timestamps fall back to the least recently written. Overwriting a pair
// keeps its original position.
type InteractionCache struct {
	file  snapshot[map[string]storedInteraction]
	limit int

	mu      sync.RWMutex
	entries map[string]storedInteraction
	seq     uint64
}

func NewInteractionCache(file snapshot[map[string]storedInteraction], limit int) *InteractionCache {
	if limit <= 0 {
		limit = DefaultInteractionLimit
	}
	return &InteractionCache{
		file:    file,
		limit:   limit,
		entries: make(map[string]storedInteraction),
	}
}

func orderedKey(a, b string) string {
	return a + "|" + b
}

func (c *InteractionCache) Load(ctx context.Context) error {
	stored, err := c.file.Load(ctx)
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}
	if stored == nil {
		stored = make(map[string]storedInteraction)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = stored
	c.seq = 0
	for _, e := range stored {
		c.seq = max(c.seq, e.Seq, e.Touch)
	}
	for len(c.entries) > c.limit {
		c.evictOldestLocked()
	}
	return nil
}

// Record stores one interaction under the ordered key (a, b) and persists.
func (c *InteractionCache) Record(ctx context.Context, a, b string, in core.Interaction) error {
	c.mu.Lock()
	c.putLocked(orderedKey(a, b), in)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	return c.persist(ctx, snap)
}

// Track records an exchange from one subject to another together with its
// mirrored received_ copy.
func (c *InteractionCache) Track(ctx context.Context, from, to core.Subject, kind core.InteractionKind, content string, at time.Time) error {
	c.mu.Lock()
	c.putLocked(orderedKey(from.ID, to.ID), core.Interaction{
		Subject:   from,
		Target:    to,
		Kind:      kind,
		Content:   content,
		Timestamp: at,
	})
	c.putLocked(orderedKey(to.ID, from.ID), core.Interaction{
		Subject:   to,
		Target:    from,
		Kind:      kind.Received(),
		Content:   content,
		Timestamp: at,
	})
	snap := c.snapshotLocked()
	c.mu.Unlock()

	return c.persist(ctx, snap)
}

func (c *InteractionCache) Get(a, b string) (core.Interaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[orderedKey(a, b)]
	return e.Interaction, ok
}

func (c *InteractionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// All returns the entries in insertion order.
func (c *InteractionCache) All() []core.Interaction {
	c.mu.RLock()
	entries := make([]storedInteraction, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	slices.SortFunc(entries, func(a, b storedInteraction) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})

	out := make([]core.Interaction, len(entries))
	for i, e := range entries {
		out[i] = e.Interaction
	}
	return out
}

// FindByTarget returns the first entry, in insertion order, whose target name
// contains name or is contained in it.
func (c *InteractionCache) FindByTarget(name string) (core.Interaction, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return core.Interaction{}, false
	}
	for _, in := range c.All() {
		if fuzzyEqual(in.Target.Name, name) {
			return in, true
		}
	}
	return core.Interaction{}, false
}

func (c *InteractionCache) putLocked(key string, in core.Interaction) {
	c.seq++
	stored := storedInteraction{Interaction: in, Seq: c.seq, Touch: c.seq}
	if prev, ok := c.entries[key]; ok {
		stored.Seq = prev.Seq
	}
	c.entries[key] = stored
	for len(c.entries) > c.limit {
		c.evictOldestLocked()
	}
}

func (c *InteractionCache) evictOldestLocked() {
	var (
		oldestKey string
		oldest    storedInteraction
		found     bool
	)
	for k, e := range c.entries {
		if !found ||
			e.Timestamp.Before(oldest.Timestamp) ||
			(e.Timestamp.Equal(oldest.Timestamp) && e.lastWrite() < oldest.lastWrite()) {
			oldestKey, oldest, found = k, e, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

// Entries persisted before Touch existed fall back to Seq.
func (e storedInteraction) lastWrite() uint64 {
	return max(e.Seq, e.Touch)
}

func (c *InteractionCache) snapshotLocked() map[string]storedInteraction {
	out := make(map[string]storedInteraction, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

func (c *InteractionCache) persist(ctx context.Context, snap map[string]storedInteraction) error {
	if err := c.file.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist interactions: %w", err)
	}
	return nil
}
