package memory

import (
	"testing"

	"github.com/sandevgo/samara/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestDetectIntent(t *testing.T) {
	tests := []struct {
		text     string
		expected core.Intent
	}{
		{text: "quién es maria?", expected: core.Intent{AboutPerson: true}},
		{text: "has hablado con pedro?", expected: core.Intent{AboutPerson: true, AboutInteractions: true}},
		{text: "qué dijo juan ayer", expected: core.Intent{AboutMessages: true}},
		{text: "who is maria", expected: core.Intent{AboutPerson: true}},
		{text: "have you talked to bob?", expected: core.Intent{AboutPerson: true, AboutInteractions: true}},
		{text: "what did carla say about the trip", expected: core.Intent{AboutMessages: true}},
		{text: "hola, qué tal el día", expected: core.Intent{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectIntent(tt.text))
		})
	}
}

func TestNameExtractor_Extract(t *testing.T) {
	extractor := NewNameExtractor("samara")

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "no intent yields nothing", text: "hola maria y pedro", expected: nil},
		{name: "spanish who is", text: "quién es maria?", expected: []string{"maria"}},
		{name: "spanish do you know", text: "conoces a @Pedro", expected: []string{"pedro"}},
		{name: "spanish talked with", text: "has hablado con lucía?", expected: []string{"lucía"}},
		{name: "spanish what did", text: "qué dijo carla ayer", expected: []string{"carla"}},
		{name: "english who is", text: "who is maria?", expected: []string{"maria"}},
		{name: "english talked to", text: "have you talked to bob_99 lately", expected: []string{"bob_99"}},
		{name: "english what did", text: "what did carla say yesterday", expected: []string{"carla"}},
		{name: "english last message", text: "do you remember the last message from ana", expected: []string{"ana"}},
		{
			name:     "fallback words, capped at two",
			text:     "recuerdas cuando @samara vio a gabriela, roberto y marisol",
			expected: []string{"gabriela", "roberto"},
		},
		{name: "fallback skips stop words", text: "recuerdas el mensaje", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractor.Extract(tt.text, DetectIntent(tt.text)))
		})
	}
}
