package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/service/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSwitcher struct {
	model string
	err   error
}

func (f *fakeSwitcher) GetModel() string { return f.model }

func (f *fakeSwitcher) SetModel(ctx context.Context, model string) error {
	if f.err != nil {
		return f.err
	}
	f.model = model
	return nil
}

var (
	alice = core.Subject{ID: "u1", Name: "alice", Tag: "alice#0001"}
	bob   = core.Subject{ID: "u2", Name: "bob", Tag: "bob#0001"}
	when  = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
)

func from(author core.Subject, content string) core.InboundMessage {
	return core.InboundMessage{ChatMessage: core.ChatMessage{Content: content, Author: author, Channel: "chat-general"}}
}

func seededMemory(t *testing.T) *memory.Memory {
	t.Helper()
	ctx := context.Background()
	mem := memory.Open(t.TempDir(), core.MemoryConfig{})

	require.NoError(t, mem.Directory.Observe(ctx, alice, when))
	require.NoError(t, mem.Directory.Observe(ctx, bob, when))
	_, err := mem.Facts.SaveFact(ctx, "u2", core.PlainFact("Plays the cello"))
	require.NoError(t, err)
	require.NoError(t, mem.Relationships.SaveRelationship(ctx, "u1", "u2", core.Relationship{
		SubjectA: "u1", SubjectB: "u2", Type: "friends", Timestamp: when,
	}))
	require.NoError(t, mem.Ledger.Append(ctx, core.ChatMessage{Content: "hi", Author: alice, Channel: "chat-general", Timestamp: when}))
	return mem
}

func TestRouter_Execute(t *testing.T) {
	mem := seededMemory(t)
	router := New(NewCommands("openrouter", &fakeSwitcher{model: "gemma"}, mem))

	tests := []struct {
		name     string
		input    string
		handled  bool
		contains []string
		author   core.Subject
	}{
		{name: "plain text", input: "hello there", handled: false},
		{name: "unknown", input: "/dance", handled: true, contains: []string{"Unknown command: /dance"}},
		{name: "bot suffix", input: "/memory@samara_bot", handled: true, contains: []string{"Messages", "`1`"}},
		{name: "own facts", input: "/facts", author: alice, handled: true, contains: []string{"Facts about alice#0001", "friends with bob#0001"}},
		{name: "facts by name", input: "/facts bob", handled: true, contains: []string{"Plays the cello", "friends with alice#0001"}},
		{name: "unknown person", input: "/facts zoe", handled: true, contains: []string{`I don't know anyone called "zoe"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			author := tt.author
			if author.ID == "" {
				author = bob
			}
			out, handled := router.Execute(context.Background(), from(author, tt.input))
			assert.Equal(t, tt.handled, handled)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
		})
	}
}

func TestFactsCommand_NothingKnown(t *testing.T) {
	mem := memory.Open(t.TempDir(), core.MemoryConfig{})
	out, err := NewFactsCommand(mem).Execute(context.Background(), from(alice, "/facts"), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing known about alice#0001 yet")
}

func TestModelCommand(t *testing.T) {
	ctx := context.Background()
	sw := &fakeSwitcher{model: "gemma"}
	cmd := NewModelCommand("openrouter", sw)

	out, err := cmd.Execute(ctx, from(alice, "/model"), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "**Model**  ›  `gemma`")
	assert.Contains(t, out, "/model [model]")

	out, err = cmd.Execute(ctx, from(alice, "/model gpt-4o"), []string{"gpt-4o"})
	require.NoError(t, err)
	assert.Contains(t, out, "Model changed to: `openrouter/gpt-4o`")

	sw.err = errors.New("unknown model")
	router := New([]core.Command{cmd})
	out, handled := router.Execute(ctx, from(alice, "/model nope"))
	assert.True(t, handled)
	assert.Equal(t, "Error: failed to set model: unknown model", out)
	assert.Equal(t, "gpt-4o", sw.model)
}

func TestRouter_ListCommandsSorted(t *testing.T) {
	router := New(NewCommands("openai", &fakeSwitcher{}, memory.Open(t.TempDir(), core.MemoryConfig{})))
	var names []string
	for _, c := range router.ListCommands() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"facts", "memory", "model"}, names)
}
