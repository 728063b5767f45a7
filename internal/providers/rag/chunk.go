package rag

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

type Chunk struct {
	Text      string
	TokenSize int
	Index     int
}

type ChunkerConfig struct {
	MaxTokens     int
	OverlapTokens int
}

// MessageChunkerConfig keeps chunks well below the input limit of the
// embedding models in use. Most chat messages fit in a single chunk.
func MessageChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxTokens:     512,
		OverlapTokens: 64,
	}
}

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		var err error
		tk, err = tiktoken.GetEncoding(encodingName)
		if err != nil {
			panic("failed to load tiktoken: " + err.Error())
		}
	})
	return tk
}

// CountTokens returns the cl100k_base token count of text.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(getTokenizer().Encode(text, nil, nil))
}

type chunkBuilder struct {
	chunks []Chunk
	buf    []string
	tokens int
}

func (b *chunkBuilder) emit(text string, tokens int) {
	b.chunks = append(b.chunks, Chunk{
		Text:      strings.TrimSpace(text),
		TokenSize: tokens,
		Index:     len(b.chunks),
	})
}

func (b *chunkBuilder) flush() {
	if len(b.buf) == 0 {
		return
	}
	b.emit(strings.Join(b.buf, " "), b.tokens)
	b.buf, b.tokens = nil, 0
}

// ChunkText splits text on sentence boundaries into chunks of at most
// cfg.MaxTokens. Consecutive chunks repeat the trailing sentences of the
// previous one up to cfg.OverlapTokens. A sentence longer than the limit is
// cut on token boundaries without overlap.
func ChunkText(text string, cfg ChunkerConfig) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)
	b := &chunkBuilder{}

	for i, sentence := range sentences {
		n := CountTokens(sentence)

		if n > cfg.MaxTokens {
			b.flush()
			for _, piece := range splitByTokens(sentence, cfg.MaxTokens) {
				b.emit(piece.Text, piece.TokenSize)
			}
			continue
		}

		if b.tokens+n > cfg.MaxTokens && len(b.buf) > 0 {
			b.flush()
			if overlap := overlapBefore(sentences, i, cfg.OverlapTokens); len(overlap) > 0 {
				b.buf = overlap
				b.tokens = CountTokens(strings.Join(overlap, " "))
			}
		}

		b.buf = append(b.buf, sentence)
		b.tokens += n
	}
	b.flush()

	return b.chunks
}

func splitByTokens(text string, maxTokens int) []Chunk {
	enc := getTokenizer()
	tokens := enc.Encode(text, nil, nil)

	var out []Chunk
	for start := 0; start < len(tokens); start += maxTokens {
		end := min(start+maxTokens, len(tokens))
		out = append(out, Chunk{
			Text:      enc.Decode(tokens[start:end]),
			TokenSize: end - start,
		})
	}
	return out
}

// overlapBefore collects whole sentences preceding idx until target tokens
// are reached.
func overlapBefore(sentences []string, idx, target int) []string {
	var out []string
	tokens := 0
	for i := idx - 1; i >= 0 && tokens < target; i-- {
		out = append([]string{sentences[i]}, out...)
		tokens += CountTokens(sentences[i])
	}
	return out
}

var sentenceEnders = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true, '．': true, '…': true,
}

// splitSentences breaks text into paragraphs, then sentences. A terminator
// ends a sentence only when followed by whitespace, the end of the paragraph
// or a CJK character.
func splitSentences(text string) []string {
	var sentences []string

	for _, para := range splitParagraphs(text) {
		runes := []rune(para)
		start := 0
		for i, r := range runes {
			if !sentenceEnders[r] {
				continue
			}
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) && !isCJK(runes[i+1]) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) == 0 {
		return []string{text}
	}
	return sentences
}

// splitParagraphs splits on blank lines and joins soft-wrapped lines.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
