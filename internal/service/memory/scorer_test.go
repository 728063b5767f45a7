package memory

import (
	"testing"
	"time"

	"github.com/sandevgo/samara/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		query    string
		expected []string
	}{
		{query: "quien es maria", expected: []string{"maria"}},
		{query: "qué dijo pedro sobre el partido", expected: []string{"pedro", "partido"}},
		{query: "who is the last one", expected: nil},
		{query: "tell me about dragons", expected: []string{"dragons"}},
		{query: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.expected, Keywords(tt.query))
		})
	}
}

func TestScore(t *testing.T) {
	now := baseTime
	old := now.Add(-30 * 24 * time.Hour)

	tests := []struct {
		name     string
		msg      core.ChatMessage
		query    string
		expected int
	}{
		{
			name:     "exact author beats everything",
			msg:      chatMsg(subject("1", "Maria"), "general", "hello", old),
			query:    "maria",
			expected: 20 + 8, // exact author + keyword in author
		},
		{
			name:     "author contains query",
			msg:      chatMsg(subject("1", "mariajose"), "general", "hello", old),
			query:    "maria",
			expected: 15 + 8,
		},
		{
			name:     "content contains query",
			msg:      chatMsg(subject("1", "pedro"), "general", "I saw maria today", old),
			query:    "maria",
			expected: 10 + 5,
		},
		{
			name:     "recency bonus today",
			msg:      chatMsg(subject("1", "pedro"), "general", "nothing related", now.Add(-time.Hour)),
			query:    "maria",
			expected: 5,
		},
		{
			name:     "recency bonus decays per day",
			msg:      chatMsg(subject("1", "pedro"), "general", "nothing related", now.Add(-49*time.Hour)),
			query:    "maria",
			expected: 3,
		},
		{
			name:     "future timestamp gets the full bonus only",
			msg:      chatMsg(subject("1", "pedro"), "general", "nothing related", now.Add(time.Hour)),
			query:    "maria",
			expected: 5,
		},
		{
			name:     "nothing matches",
			msg:      chatMsg(subject("1", "pedro"), "general", "nothing related", old),
			query:    "maria",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.msg, tt.query, Keywords(tt.query), now)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, Score(tt.msg, tt.query, Keywords(tt.query), now), "deterministic")
		})
	}
}

func TestScore_MatchOrdering(t *testing.T) {
	old := baseTime.Add(-60 * 24 * time.Hour)
	// A query that is not a keyword isolates the three match kinds.
	query := "ana"

	exact := Score(chatMsg(subject("1", "ana"), "g", "x", old), query, nil, baseTime)
	contains := Score(chatMsg(subject("1", "anabel"), "g", "x", old), query, nil, baseTime)
	content := Score(chatMsg(subject("1", "bob"), "g", "hi ana", old), query, nil, baseTime)

	assert.Equal(t, 20, exact)
	assert.Equal(t, 15, contains)
	assert.Equal(t, 10, content)
}

func TestRank_MariaScenario(t *testing.T) {
	maria := subject("1", "Maria")
	msgs := []core.ChatMessage{
		chatMsg(subject("2", "pedro"), "general", "buenos días", baseTime.Add(-time.Hour)),
		chatMsg(maria, "general", "hello", baseTime.Add(-time.Hour)),
	}

	ranked := Rank(msgs, "maria", 10, baseTime)

	require.NotEmpty(t, ranked)
	assert.Equal(t, "Maria", ranked[0].Author.Name)
	assert.GreaterOrEqual(t, Score(ranked[0], "maria", Keywords("maria"), baseTime), 25)
}

func TestRank_FiltersSortsAndCaps(t *testing.T) {
	old := baseTime.Add(-60 * 24 * time.Hour)
	// Scores: 0, 10, 15, 10, 20.
	msgs := []core.ChatMessage{
		chatMsg(subject("1", "bob"), "g", "unrelated", old),
		chatMsg(subject("2", "bob"), "g", "talking about ana", old),
		chatMsg(subject("3", "anabel"), "g", "x", old),
		chatMsg(subject("4", "bob"), "g", "ana again", old),
		chatMsg(subject("5", "ana"), "g", "x", old),
	}

	ranked := Rank(msgs, "ana", 3, baseTime)

	require.Len(t, ranked, 3)
	assert.Equal(t, "5", ranked[0].Author.ID)
	assert.Equal(t, "3", ranked[1].Author.ID)
	assert.Equal(t, "2", ranked[2].Author.ID, "ties keep input order")

	all := Rank(msgs, "ana", 10, baseTime)
	assert.Len(t, all, 4, "zero scores dropped")
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t,
			Score(all[i-1], "ana", nil, baseTime),
			Score(all[i], "ana", nil, baseTime))
	}
}

func TestRank_DefaultLimit(t *testing.T) {
	var msgs []core.ChatMessage
	for i := 0; i < 25; i++ {
		msgs = append(msgs, chatMsg(subject("1", "bob"), "g", "recent", baseTime))
	}
	assert.Len(t, Rank(msgs, "anything", 0, baseTime), DefaultRankLimit)
}
