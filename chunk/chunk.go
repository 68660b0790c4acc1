// Package chunk splits long-form text into overlapping, bounded-size pieces
// suitable for embedding and keyword indexing. Splits happen on sentence or
// paragraph boundaries, never mid-sentence, so each chunk stays independently
// meaningful.
package chunk

import (
	"strings"
	"unicode"
)

// Chunk is one bounded slice of a source document. StartPos and EndPos are
// approximate character offsets into the original text; they drift slightly
// where source whitespace was collapsed during splitting.
type Chunk struct {
	Text        string
	ChunkNumber int // 1-based position within the parent document
	TotalChunks int
	StartPos    int
	EndPos      int
}

// Method selects the boundary type used to split text into atomic units.
type Method string

const (
	// MethodSentence splits on sentence-terminating punctuation.
	MethodSentence Method = "sentence"
	// MethodParagraph splits on blank lines.
	MethodParagraph Method = "paragraph"
)

// Default chunking parameters, tuned for embedding models with a context
// window around 512 tokens.
const (
	DefaultMaxTokens     = 512
	DefaultOverlapTokens = 100
)

// EstimateTokens approximates the token count of text using the heuristic
// ~4 characters = 1 token. It is deliberately not a real tokenizer.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// SplitSentences splits text on runs of whitespace that directly follow
// sentence-terminating punctuation (. ! ?). Each sentence keeps its
// terminator. Pieces are trimmed and empty pieces are dropped.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	prev := rune(0)
	for i, r := range text {
		if unicode.IsSpace(r) && isSentenceEnd(prev) {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				sentences = append(sentences, s)
			}
			start = i
		}
		prev = r
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// SplitParagraphs splits text on blank lines. Pieces are trimmed and empty
// pieces are dropped.
func SplitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
