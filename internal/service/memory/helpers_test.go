package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/samara/internal/core"
)

// memSnapshot is an in-memory stand-in for a JSON file.
type memSnapshot[T any] struct {
	mu    sync.Mutex
	value T
	saves int
	err   error
}

func (m *memSnapshot[T]) Load(ctx context.Context) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

func (m *memSnapshot[T]) Save(ctx context.Context, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.value = v
	return nil
}

func (m *memSnapshot[T]) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func subject(id, name string) core.Subject {
	return core.Subject{ID: id, Name: name, Tag: name + "#0001"}
}

func chatMsg(author core.Subject, channel, content string, at time.Time) core.ChatMessage {
	return core.ChatMessage{
		Content:   content,
		Author:    author,
		Channel:   channel,
		Timestamp: at,
	}
}

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	return Open(t.TempDir(), core.MemoryConfig{})
}

func numbered(prefix string, i int) string {
	return fmt.Sprintf("%s-%03d", prefix, i)
}
