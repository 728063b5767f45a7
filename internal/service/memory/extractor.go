package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/log"
)

const (
	minExtractLength   = 10
	plainConfidence    = 0.9
	typedConfidence    = 0.9
	opaqueConfidence   = 0.5
	defaultExtractTime = 30 * time.Second
)

var (
	quotedPattern = regexp.MustCompile(`"([^"]*)"`)
	objectPattern = regexp.MustCompile(`\{[^{}]*\}`)
)

const factSystemPrompt = "You extract personal facts from chat messages. Reply ONLY with a JSON array."

const relationSystemPrompt = "You extract relationships between people from chat messages. Reply ONLY with a JSON array."

func buildFactPrompt(author, content string) string {
	return fmt.Sprintf(`Analyze the message below and extract any personal facts about its author (%s).
Look for: real name, age, location or country, job, hobbies and interests, favourite food,
films, series or games, relationships with other people, conversations they mention having
with someone, and any other relevant personal detail.

Message: %q

Return ONLY a JSON array of short, self-contained strings. Return [] when there are none.
Example: ["Is a software developer", "Lives in Mexico", "Plays Genshin Impact"]`, author, content)
}

func buildRelationPrompt(author, content string) string {
	return fmt.Sprintf(`Analyze the message below, written by %s, and detect relationships between people
it mentions: friendship, family, romantic, work and similar.

Message: %q

Return ONLY a JSON array of objects with the fields:
- "person1": first person's name
- "person2": second person's name
- "type": relationship type (friends, family, partner, coworkers, ...)
Return [] when there are none.`, author, content)
}

// Extractor turns free-form messages into facts and relationships with the
// help of the language model. Malformed model output degrades to partial or
// empty results, never to an error.
type Extractor struct {
	ai      core.AIProvider
	mem     *Memory
	timeout time.Duration
}

func NewExtractor(ai core.AIProvider, mem *Memory, timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = defaultExtractTime
	}
	return &Extractor{
		ai:      ai,
		mem:     mem,
		timeout: timeout,
	}
}

// Process extracts from msg and writes the results into the fact and
// relationship stores.
func (e *Extractor) Process(ctx context.Context, msg core.ChatMessage) {
	if utf8.RuneCountInString(strings.TrimSpace(msg.Content)) < minExtractLength {
		return
	}
	logger := log.FromCtx(ctx)

	for _, fact := range e.ExtractFacts(ctx, msg) {
		stored, err := e.mem.Facts.SaveFact(ctx, msg.Author.ID, fact.Value)
		if err != nil {
			logger.Error().Err(err).Msg("failed to save fact")
			continue
		}
		if stored != "" {
			logger.Debug().Str("subject", msg.Author.Name).Float64("confidence", fact.Confidence).Msg("fact extracted")
		}
	}

	for _, rel := range e.DetectRelationships(ctx, msg) {
		e.register(ctx, rel, msg)
	}
}

func (e *Extractor) ExtractFacts(ctx context.Context, msg core.ChatMessage) []core.Fact {
	content, ok := e.ask(ctx, factSystemPrompt, buildFactPrompt(msg.Author.Name, msg.Content))
	if !ok {
		return nil
	}

	facts := parseFactResponse(msg.Author.ID, content)
	log.FromCtx(ctx).Debug().Int("count", len(facts)).Msg("facts parsed")
	return facts
}

type relationCandidate struct {
	Person1 string
	Person2 string
	Type    string
}

func (e *Extractor) DetectRelationships(ctx context.Context, msg core.ChatMessage) []relationCandidate {
	content, ok := e.ask(ctx, relationSystemPrompt, buildRelationPrompt(msg.Author.Name, msg.Content))
	if !ok {
		return nil
	}
	return parseRelationResponse(content)
}

// register saves a detected relationship when both people resolve to known
// participants, and records it as a fact on each side.
func (e *Extractor) register(ctx context.Context, rel relationCandidate, msg core.ChatMessage) {
	logger := log.FromCtx(ctx)

	a, okA := e.mem.Directory.Resolve(rel.Person1)
	b, okB := e.mem.Directory.Resolve(rel.Person2)
	if !okA || !okB || a.ID == b.ID {
		logger.Debug().Str("person1", rel.Person1).Str("person2", rel.Person2).Msg("relationship participants not resolved")
		return
	}

	err := e.mem.Relationships.SaveRelationship(ctx, a.ID, b.ID, core.Relationship{
		Type:          rel.Type,
		Source:        "message",
		SourceContent: msg.Content,
		Timestamp:     msg.Timestamp,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to save relationship")
	}

	for _, pair := range [][2]core.Subject{{a, b}, {b, a}} {
		fact := core.PlainFact(fmt.Sprintf("Has a %q relationship with %s", rel.Type, pair[1].Name))
		if _, err := e.mem.Facts.SaveFact(ctx, pair[0].ID, fact); err != nil {
			logger.Error().Err(err).Msg("failed to save relationship fact")
		}
	}

	logger.Info().Str("a", a.Name).Str("b", b.Name).Str("type", rel.Type).Msg("relationship recorded")
}

func (e *Extractor) ask(ctx context.Context, system, prompt string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: system},
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("extraction call failed")
		return "", false
	}
	return resp.Content, true
}

// parseFactResponse reads a JSON array of facts. When the array does not
// parse, quoted substrings are recovered as plain facts.
func parseFactResponse(subject, content string) []core.Fact {
	jsonStr := extractJSONArray(content)
	if jsonStr == "" {
		jsonStr = content
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		var facts []core.Fact
		for _, m := range quotedPattern.FindAllStringSubmatch(jsonStr, -1) {
			if strings.TrimSpace(m[1]) == "" {
				continue
			}
			facts = append(facts, core.Fact{Subject: subject, Value: core.PlainFact(m[1]), Confidence: plainConfidence})
		}
		return facts
	}

	facts := make([]core.Fact, 0, len(raw))
	for _, item := range raw {
		value := core.ParseFactValue(item)
		confidence := opaqueConfidence
		switch value.(type) {
		case core.PlainFact:
			confidence = plainConfidence
		case core.TypedFact:
			confidence = typedConfidence
		}
		if c, ok := explicitConfidence(item); ok {
			confidence = c
		}
		facts = append(facts, core.Fact{Subject: subject, Value: value, Confidence: confidence})
	}
	return facts
}

func explicitConfidence(raw json.RawMessage) (float64, bool) {
	var obj struct {
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Confidence == nil {
		return 0, false
	}
	c := *obj.Confidence
	return min(max(c, 0), 1), true
}

// parseRelationResponse accepts English and Spanish field names. A broken
// array is recovered object by object.
func parseRelationResponse(content string) []relationCandidate {
	var objects []json.RawMessage
	if jsonStr := extractJSONArray(content); jsonStr != "" {
		if err := json.Unmarshal([]byte(jsonStr), &objects); err != nil {
			objects = nil
			for _, m := range objectPattern.FindAllString(jsonStr, -1) {
				objects = append(objects, json.RawMessage(m))
			}
		}
	}

	var out []relationCandidate
	for _, raw := range objects {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		rel := relationCandidate{
			Person1: firstString(fields, "person1", "persona1"),
			Person2: firstString(fields, "person2", "persona2"),
			Type:    firstString(fields, "type", "tipo"),
		}
		if rel.Person1 == "" || rel.Person2 == "" || rel.Type == "" {
			continue
		}
		out = append(out, rel)
	}
	return out
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content[start:], "]")
	if end == -1 {
		return ""
	}

	return content[start : start+end+1]
}
