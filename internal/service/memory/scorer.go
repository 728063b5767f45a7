package memory

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/samara/internal/core"
)

const (
	DefaultRankLimit = 10

	scoreExactAuthor    = 20
	scoreAuthorContains = 15
	scoreContentQuery   = 10
	scoreKeywordContent = 5
	scoreKeywordAuthor  = 8
	maxRecencyBonus     = 5
)

// queryStopWords are interrogatives and chat filler that never name anyone.
var queryStopWords = stopSet(
	// es
	"quien", "quién", "como", "cómo", "cuando", "cuándo", "donde", "dónde",
	"porque", "porqué", "cual", "cuál", "que", "qué", "cuanto", "cuánto",
	"para", "sobre", "conoces", "sabes", "dime", "háblame", "cuéntame",
	"fue", "esta", "está", "dijo", "escribió", "habló", "ultimo", "último",
	"mensaje", "mensajes", "canal", "chat",
	// en
	"what", "when", "where", "which", "whom", "whose", "about", "know",
	"tell", "said", "says", "wrote", "talk", "talked", "last", "first",
	"message", "messages", "channel", "does", "have", "with", "from",
	"there", "that", "this", "they", "remember",
)

func stopSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Keywords returns the words of the lowercased query longer than three
// characters that are not stop words.
func Keywords(normalizedQuery string) []string {
	var out []string
	for _, word := range strings.Fields(normalizedQuery) {
		if utf8.RuneCountInString(word) <= 3 {
			continue
		}
		if _, stop := queryStopWords[word]; stop {
			continue
		}
		out = append(out, word)
	}
	return out
}

// Score rates how relevant msg is to the query. It is a pure function of its
// inputs; now is passed in so results are reproducible.
func Score(msg core.ChatMessage, normalizedQuery string, keywords []string, now time.Time) int {
	author := strings.ToLower(msg.Author.Name)
	content := strings.ToLower(msg.Content)

	score := 0
	switch {
	case normalizedQuery != "" && author == normalizedQuery:
		score += scoreExactAuthor
	case normalizedQuery != "" && strings.Contains(author, normalizedQuery):
		score += scoreAuthorContains
	}

	if normalizedQuery != "" && strings.Contains(content, normalizedQuery) {
		score += scoreContentQuery
	}

	for _, kw := range keywords {
		if strings.Contains(content, kw) {
			score += scoreKeywordContent
		}
		if strings.Contains(author, kw) {
			score += scoreKeywordAuthor
		}
	}

	age := now.Sub(msg.Timestamp)
	if age < 0 {
		age = 0
	}
	days := int(age / (24 * time.Hour))
	score += max(0, maxRecencyBonus-days)

	return score
}

type scored struct {
	msg   core.ChatMessage
	score int
}

// Rank scores every message against query, drops non-positive scores and
// returns at most limit messages by descending score. Ties keep input order.
func Rank(messages []core.ChatMessage, query string, limit int, now time.Time) []core.ChatMessage {
	if limit <= 0 {
		limit = DefaultRankLimit
	}
	normalized := strings.ToLower(strings.TrimSpace(query))
	keywords := Keywords(normalized)

	candidates := make([]scored, 0, len(messages))
	for _, m := range messages {
		if s := Score(m, normalized, keywords, now); s > 0 {
			candidates = append(candidates, scored{msg: m, score: s})
		}
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		return b.score - a.score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]core.ChatMessage, len(candidates))
	for i, c := range candidates {
		out[i] = c.msg
	}
	return out
}
