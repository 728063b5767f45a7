package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/storage/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_BoundedAt200(t *testing.T) {
	ctx := context.Background()
	file := &memSnapshot[[]core.ChatMessage]{}
	ledger := NewLedger(file, DefaultLedgerLimit)
	alice := subject("1", "alice")

	for i := 0; i < 201; i++ {
		require.NoError(t, ledger.Append(ctx, chatMsg(alice, "general", numbered("msg", i), baseTime.Add(time.Duration(i)*time.Minute))))
	}

	all := ledger.All()
	require.Len(t, all, 200)
	assert.Equal(t, "msg-200", all[0].Content, "newest first")
	assert.Equal(t, "msg-001", all[len(all)-1].Content, "first message evicted")
	assert.Len(t, file.value, 200)
	assert.Equal(t, 201, file.Saves(), "persisted on every append")
}

func TestLedger_EvictsByInsertionNotTimestamp(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(&memSnapshot[[]core.ChatMessage]{}, 3)
	bob := subject("2", "bob")

	require.NoError(t, ledger.Append(ctx, chatMsg(bob, "general", "first", baseTime)))
	require.NoError(t, ledger.Append(ctx, chatMsg(bob, "general", "second", baseTime.Add(time.Hour))))
	require.NoError(t, ledger.Append(ctx, chatMsg(bob, "general", "third", baseTime.Add(2*time.Hour))))
	// Older timestamp but newest insertion.
	require.NoError(t, ledger.Append(ctx, chatMsg(bob, "general", "late", baseTime.Add(-24*time.Hour))))

	contents := make([]string, 0, 3)
	for _, m := range ledger.All() {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"late", "third", "second"}, contents)
}

func TestLedger_SkipsEmptyContent(t *testing.T) {
	ctx := context.Background()
	file := &memSnapshot[[]core.ChatMessage]{}
	ledger := NewLedger(file, 10)

	require.NoError(t, ledger.Append(ctx, chatMsg(subject("1", "alice"), "general", "   ", baseTime)))

	assert.Equal(t, 0, ledger.Len())
	assert.Equal(t, 0, file.Saves())
}

func TestLedger_PersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	file := &memSnapshot[[]core.ChatMessage]{err: errors.New("disk full")}
	ledger := NewLedger(file, 10)

	err := ledger.Append(ctx, chatMsg(subject("1", "alice"), "general", "hello", baseTime))

	assert.Error(t, err)
	assert.Equal(t, 1, ledger.Len())
}

func TestLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), LedgerFile)
	alice := subject("1", "alice")

	ledger := NewLedger(jsonfile.New[[]core.ChatMessage](path), 50)
	msg := chatMsg(alice, "general", "hola a todos", baseTime)
	msg.ID = "42"
	msg.Mentions = []core.Subject{subject("2", "bob")}
	require.NoError(t, ledger.Append(ctx, msg))
	require.NoError(t, ledger.Append(ctx, chatMsg(alice, "random", "second", baseTime.Add(time.Minute))))

	reloaded := NewLedger(jsonfile.New[[]core.ChatMessage](path), 50)
	require.NoError(t, reloaded.Load(ctx))

	assert.Equal(t, ledger.All(), reloaded.All())
}

func TestLedger_Lookups(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(&memSnapshot[[]core.ChatMessage]{}, 50)
	alice, bob := subject("1", "alice"), subject("2", "bob")

	m1 := chatMsg(alice, "chat-general", "one", baseTime)
	m1.ID = "m1"
	require.NoError(t, ledger.Append(ctx, m1))
	require.NoError(t, ledger.Append(ctx, chatMsg(bob, "canal-impostor", "two", baseTime.Add(time.Minute))))
	require.NoError(t, ledger.Append(ctx, chatMsg(alice, "canal-impostor", "three", baseTime.Add(2*time.Minute))))
	require.NoError(t, ledger.Append(ctx, chatMsg(alice, "random", "four", baseTime.Add(3*time.Minute))))

	t.Run("find by id", func(t *testing.T) {
		got, ok := ledger.Find("m1")
		require.True(t, ok)
		assert.Equal(t, "one", got.Content)

		_, ok = ledger.Find("")
		assert.False(t, ok)
	})

	t.Run("by author", func(t *testing.T) {
		got := ledger.ByAuthor("1", 2)
		require.Len(t, got, 2)
		assert.Equal(t, "four", got[0].Content)
		assert.Equal(t, "three", got[1].Content)
	})

	t.Run("by channel substring", func(t *testing.T) {
		got := ledger.ByChannel([]string{"impostor"}, 10)
		require.Len(t, got, 2)
		assert.Equal(t, "three", got[0].Content)
	})

	t.Run("no channel filter", func(t *testing.T) {
		assert.Len(t, ledger.ByChannel(nil, 3), 3)
	})
}

func TestLedger_FindReturnsLatestVersion(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(&memSnapshot[[]core.ChatMessage]{}, 50)
	alice := subject("1", "alice")

	for i, content := range []string{"first version", "second version", "third version"} {
		m := chatMsg(alice, "chat-general", content, baseTime.Add(time.Duration(i)*time.Minute))
		m.ID = "m1"
		require.NoError(t, ledger.Append(ctx, m))
		require.NoError(t, ledger.Append(ctx, chatMsg(alice, "chat-general", "filler", baseTime)))
	}

	got, ok := ledger.Find("m1")
	require.True(t, ok)
	assert.Equal(t, "third version", got.Content)
}
