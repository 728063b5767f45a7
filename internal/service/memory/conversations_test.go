package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/storage/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationStore_RecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(&memSnapshot[map[string][]core.Conversation]{}, 0)
	alice := subject("u1", "Alice")

	for i := range 3 {
		at := baseTime.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, alice, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), "chat-general", at))
	}

	got := store.Recent("u1", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "q2", got[0].Content)
	assert.Equal(t, "a2", got[0].Response)
	assert.Equal(t, "q1", got[1].Content)

	assert.Len(t, store.Recent("u1", 0), 3)
	assert.Empty(t, store.Recent("u2", 5))
}

func TestConversationStore_TrimsPerSubject(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(&memSnapshot[map[string][]core.Conversation]{}, 2)
	alice := subject("u1", "Alice")
	bob := subject("u2", "Bob")

	for i := range 4 {
		require.NoError(t, store.Save(ctx, alice, fmt.Sprintf("q%d", i), "ok", "chat-general", baseTime.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, store.Save(ctx, bob, "hola", "hey", "chat-general", baseTime))

	got := store.Recent("u1", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "q3", got[0].Content)
	assert.Equal(t, "q2", got[1].Content)
	assert.Equal(t, 3, store.Count())
}

func TestConversationStore_IgnoresEmpty(t *testing.T) {
	ctx := context.Background()
	file := &memSnapshot[map[string][]core.Conversation]{}
	store := NewConversationStore(file, 0)

	require.NoError(t, store.Save(ctx, core.Subject{Name: "ghost"}, "hi", "hello", "chat-general", baseTime))
	require.NoError(t, store.Save(ctx, subject("u1", "Alice"), "hi", "  ", "chat-general", baseTime))

	assert.Equal(t, 0, store.Count())
	assert.Equal(t, 0, file.Saves())
}

func TestConversationStore_FindBySubjectName(t *testing.T) {
	ctx := context.Background()
	store := NewConversationStore(&memSnapshot[map[string][]core.Conversation]{}, 0)

	require.NoError(t, store.Save(ctx, subject("u1", "MariaJose"), "hola", "hey", "chat-general", baseTime))
	require.NoError(t, store.Save(ctx, subject("u2", "Maria"), "buenas", "qué tal", "chat-general", baseTime.Add(time.Hour)))

	tests := []struct {
		name     string
		query    string
		expected string
		found    bool
	}{
		{name: "newest of several matches", query: "maria", expected: "u2", found: true},
		{name: "longer query contains name", query: "mariajose", expected: "u2", found: true},
		{name: "no match", query: "pedro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, ok := store.FindBySubjectName(tt.query)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, conv.Subject.ID)
			}
		})
	}
}

func TestConversationStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), ConversationsFile)

	store := NewConversationStore(jsonfile.New[map[string][]core.Conversation](path), 5)
	require.NoError(t, store.Save(ctx, subject("u1", "Alice"), "remember my cat?", "Misu, right?", "chat-general", baseTime))

	reloaded := NewConversationStore(jsonfile.New[map[string][]core.Conversation](path), 5)
	require.NoError(t, reloaded.Load(ctx))

	got := reloaded.Recent("u1", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "Misu, right?", got[0].Response)
	assert.Equal(t, "chat-general", got[0].Channel)
	assert.True(t, baseTime.Equal(got[0].Timestamp))
}
