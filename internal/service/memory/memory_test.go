package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/samara/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_HasInteracted(t *testing.T) {
	ctx := context.Background()
	mem := newTestMemory(t)
	bot := subject("bot", "samara")
	pedro, lucia, marta := subject("1", "pedro"), subject("2", "lucia"), subject("3", "marta")

	require.NoError(t, mem.Interactions.Track(ctx, bot, pedro, core.KindReply, "claro", baseTime))
	require.NoError(t, mem.Ledger.Append(ctx, chatMsg(pedro, "g", "from pedro", baseTime)))
	require.NoError(t, mem.Ledger.Append(ctx, chatMsg(lucia, "g", "from lucia", baseTime)))
	require.NoError(t, mem.Directory.Observe(ctx, marta, baseTime))
	_, err := mem.Facts.SaveFact(ctx, marta.ID, core.PlainFact("Sings"))
	require.NoError(t, err)
	require.NoError(t, mem.Conversations.Save(ctx, subject("4", "ramiro"), "te acuerdas?", "claro", "g", baseTime))

	t.Run("interaction wins over ledger", func(t *testing.T) {
		r := mem.HasInteracted("Pedro")
		require.True(t, r.Found)
		require.NotNil(t, r.Interaction)
		assert.Nil(t, r.Message)
		assert.Equal(t, pedro.ID, r.Subject.ID)
	})

	t.Run("ledger author", func(t *testing.T) {
		r := mem.HasInteracted("luc")
		require.True(t, r.Found)
		require.NotNil(t, r.Message)
		assert.Equal(t, "from lucia", r.Message.Content)
	})

	t.Run("known participant with facts", func(t *testing.T) {
		r := mem.HasInteracted("marta")
		require.True(t, r.Found)
		assert.Nil(t, r.Interaction)
		assert.Nil(t, r.Message)
		assert.Equal(t, marta.ID, r.Subject.ID)
	})

	t.Run("past conversation", func(t *testing.T) {
		r := mem.HasInteracted("Ramiro")
		require.True(t, r.Found)
		require.NotNil(t, r.Conversation)
		assert.Equal(t, "claro", r.Conversation.Response)
		assert.Equal(t, "4", r.Subject.ID)
	})

	t.Run("unknown and empty", func(t *testing.T) {
		assert.False(t, mem.HasInteracted("zorro").Found)
		assert.False(t, mem.HasInteracted("  ").Found)
	})
}

func TestMemory_LoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := core.MemoryConfig{LedgerLimit: 10, InteractionLimit: 10}

	mem := Open(dir, cfg)
	ana, luis := subject("1", "ana"), subject("2", "luis")
	require.NoError(t, mem.Directory.Observe(ctx, ana, baseTime))
	require.NoError(t, mem.Ledger.Append(ctx, chatMsg(ana, "g", "hola", baseTime)))
	_, err := mem.Facts.SaveFact(ctx, ana.ID, core.PlainFact("Runs"))
	require.NoError(t, err)
	require.NoError(t, mem.Relationships.SaveRelationship(ctx, ana.ID, luis.ID, core.Relationship{Type: "siblings", Timestamp: baseTime}))
	require.NoError(t, mem.Interactions.Track(ctx, ana, luis, core.KindMention, "@luis", baseTime))
	require.NoError(t, mem.Conversations.Save(ctx, ana, "hola", "hola ana", "g", baseTime))

	reopened := Open(dir, cfg)
	require.NoError(t, reopened.Load(ctx))

	assert.Equal(t, Stats{Messages: 1, Facts: 1, Relationships: 1, Interactions: 2, Participants: 1, Conversations: 1}, reopened.Stats())
	assert.Equal(t, []string{"Runs"}, reopened.Facts.GetFacts(ana.ID))
	in, ok := reopened.Interactions.Get(ana.ID, luis.ID)
	require.True(t, ok)
	assert.Equal(t, core.KindMention, in.Kind)
	assert.True(t, in.Timestamp.Equal(baseTime))
}

func TestMemory_LoadCorruptStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FactsFile), []byte("{not json"), 0o644))

	mem := Open(dir, core.MemoryConfig{})
	require.NoError(t, mem.Ledger.Append(ctx, chatMsg(subject("1", "ana"), "g", "still works", baseTime.Add(time.Minute))))

	err := mem.Load(ctx)
	assert.Error(t, err)
	assert.Zero(t, mem.Facts.Count())
	assert.Equal(t, 1, mem.Ledger.Len(), "other stores still load")
}
