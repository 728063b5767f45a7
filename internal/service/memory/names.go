package memory

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandevgo/samara/internal/core"
)

const maxFallbackNames = 2

var (
	personTriggers = []string{
		"quien es", "quién es", "conoces a", "sabes quien", "sabes quién",
		"donde esta", "dónde está", "hablado con", "has hablado con", "recuerdas a",
		"who is", "who's", "do you know", "where is", "talked to", "talked with",
		"spoken to", "spoken with", "do you remember",
	}
	interactionTriggers = []string{
		"has hablado con", "hablaste con", "has conversado con", "conversaste con",
		"have you talked", "did you talk", "have you spoken", "did you speak",
		"have you chatted", "did you chat",
	}
	messageTriggers = []string{
		"que dijo", "qué dijo", "que has leido", "qué has leído", "que has visto",
		"qué has visto", "de quienes", "de quién", "ultimo que hablaron",
		"último que hablaron", "primer mensaje", "primera conversación", "recuerdas",
		"what did", "what have you read", "what have you seen", "last message",
		"first message", "first conversation", "remember", "who wrote",
	}
)

const nameGroup = `([\p{L}\p{N}_]+)`

// namePatterns are tried in order; the first capture wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:quien|quién) es @?` + nameGroup),
	regexp.MustCompile(`(?i)(?:conoces a|sabes (?:quien|quién) es) @?` + nameGroup),
	regexp.MustCompile(`(?i)(?:donde|dónde) (?:esta|está|fue) @?` + nameGroup),
	regexp.MustCompile(`(?i)(?:que|qué) (?:dijo|escribió|habló) @?` + nameGroup),
	regexp.MustCompile(`(?i)(?:ultimo|último) (?:mensaje|mensajes) de @?` + nameGroup),
	regexp.MustCompile(`(?i)(?:has hablado|hablaste|has conversado|conversaste) con @?` + nameGroup),
	regexp.MustCompile(`(?i)(?:who is|who's) @?` + nameGroup),
	regexp.MustCompile(`(?i)do you (?:know|remember) @?` + nameGroup),
	regexp.MustCompile(`(?i)where (?:is|was) @?` + nameGroup),
	regexp.MustCompile(`(?i)what did @?` + nameGroup + ` (?:say|write|post)`),
	regexp.MustCompile(`(?i)last messages? (?:from|of|by) @?` + nameGroup),
	regexp.MustCompile(`(?i)(?:have you|did you) (?:talked|talk|spoken|speak|chatted|chat) (?:to|with) @?` + nameGroup),
}

var nameStopWords = stopSet(
	"quien", "quién", "como", "cómo", "cuando", "cuándo", "donde", "dónde",
	"porque", "porqué", "cual", "cuál", "que", "qué", "cuanto", "cuánto",
	"para", "sobre", "conoces", "sabes", "dime", "háblame", "cuéntame",
	"canal", "chat", "mensaje", "mensajes", "leído", "visto",
	"ultimo", "último", "hablaron", "dijeron", "has", "con", "hablado",
	"conversado", "interactuado", "recuerdas",
	"what", "when", "where", "which", "whom", "whose", "about", "know",
	"tell", "said", "says", "wrote", "talk", "talked", "spoken", "chatted",
	"last", "first", "message", "messages", "channel", "does", "have",
	"with", "from", "there", "that", "this", "they", "remember", "ever",
	"anyone", "someone", "conversation",
	"the", "you", "him", "her", "them", "his", "your", "our", "it",
	"el", "la", "los", "las", "un", "una",
)

// DetectIntent classifies a lowercased message by fixed trigger phrases.
func DetectIntent(lowered string) core.Intent {
	return core.Intent{
		AboutPerson:       containsAny(lowered, personTriggers),
		AboutMessages:     containsAny(lowered, messageTriggers),
		AboutInteractions: containsAny(lowered, interactionTriggers),
	}
}

// NameExtractor pulls candidate person names out of a question.
type NameExtractor struct {
	ignore map[string]struct{}
}

// NewNameExtractor returns an extractor that never yields any of the ignored
// words, typically the bot's own name.
func NewNameExtractor(ignore ...string) *NameExtractor {
	set := make(map[string]struct{}, len(ignore))
	for _, w := range ignore {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &NameExtractor{ignore: set}
}

// Extract returns lowercased candidate names. Nothing is extracted unless
// some intent flag is set.
func (e *NameExtractor) Extract(lowered string, intent core.Intent) []string {
	if !intent.Any() {
		return nil
	}

	for _, p := range namePatterns {
		m := p.FindStringSubmatch(lowered)
		if len(m) < 2 || m[1] == "" {
			continue
		}
		candidate := strings.ToLower(m[1])
		if e.skip(candidate) {
			continue
		}
		return []string{candidate}
	}

	var names []string
	for _, word := range strings.Fields(lowered) {
		word = strings.ToLower(trimWord(word))
		if utf8.RuneCountInString(word) <= 3 || e.skip(word) {
			continue
		}
		names = append(names, word)
		if len(names) == maxFallbackNames {
			break
		}
	}
	return names
}

func (e *NameExtractor) skip(word string) bool {
	if _, ok := nameStopWords[word]; ok {
		return true
	}
	_, ok := e.ignore[word]
	return ok
}

func trimWord(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
