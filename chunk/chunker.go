package chunk

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunker splits text into chunks under a fixed token budget with a fixed
// overlap carried between consecutive chunks. A Chunker is immutable after
// construction and safe for concurrent use.
type Chunker struct {
	maxTokens     int
	overlapTokens int
	method        Method
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMaxTokens sets the per-chunk token budget.
// Default is DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) error {
		if n <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidMaxTokens, n)
		}
		c.maxTokens = n
		return nil
	}
}

// WithOverlapTokens sets how many tokens of trailing context are carried
// into the next chunk. Zero disables overlap.
// Default is DefaultOverlapTokens.
func WithOverlapTokens(n int) Option {
	return func(c *Chunker) error {
		if n < 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidOverlap, n)
		}
		c.overlapTokens = n
		return nil
	}
}

// WithMethod sets the boundary type used to split text.
// Default is MethodSentence.
func WithMethod(m Method) Option {
	return func(c *Chunker) error {
		if m != MethodSentence && m != MethodParagraph {
			return fmt.Errorf("%w: %q", ErrUnknownMethod, m)
		}
		c.method = m
		return nil
	}
}

// New creates a Chunker. Parameter validation happens here, so Chunk itself
// never fails.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxTokens:     DefaultMaxTokens,
		overlapTokens: DefaultOverlapTokens,
		method:        MethodSentence,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.overlapTokens > c.maxTokens {
		return nil, fmt.Errorf("%w: overlap %d exceeds max %d", ErrInvalidOverlap, c.overlapTokens, c.maxTokens)
	}

	return c, nil
}

// Split chunks text in one call, validating all parameters first.
func Split(text string, maxTokens, overlapTokens int, method Method) ([]Chunk, error) {
	c, err := New(
		WithMaxTokens(maxTokens),
		WithOverlapTokens(overlapTokens),
		WithMethod(method),
	)
	if err != nil {
		return nil, err
	}
	return c.Chunk(text), nil
}

// Chunk splits text into an ordered sequence of chunks. Empty or
// whitespace-only text produces an empty sequence, not an error.
//
// Atomic units (sentences or paragraphs) accumulate greedily into a running
// chunk. When adding the next unit would exceed the token budget and the
// running chunk is non-empty, the chunk closes and the next one is seeded
// with a trailing slice of it sized to the overlap budget, trimmed back to a
// sentence boundary when one exists. A single unit larger than the whole
// budget is emitted as its own chunk rather than split mid-sentence.
func (c *Chunker) Chunk(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var units []string
	if c.method == MethodParagraph {
		units = SplitParagraphs(text)
	} else {
		units = SplitSentences(text)
	}

	if len(units) == 0 {
		return []Chunk{{
			Text:        strings.TrimSpace(text),
			ChunkNumber: 1,
			TotalChunks: 1,
			StartPos:    0,
			EndPos:      len(text),
		}}
	}

	type span struct {
		text  string
		start int
		end   int
	}

	var (
		spans         []span
		current       string
		currentTokens int
		start         int
	)

	for _, unit := range units {
		unitTokens := EstimateTokens(unit)

		if currentTokens+unitTokens > c.maxTokens && current != "" {
			spans = append(spans, span{
				text:  strings.TrimSpace(current),
				start: start,
				end:   start + len(current),
			})

			overlap := ""
			if c.overlapTokens > 0 {
				overlap = overlapTail(current, c.overlapTokens)
			}

			start = max(0, start+len(current)-len(overlap))
			current = overlap
			currentTokens = EstimateTokens(overlap)
		}

		current += unit + " "
		currentTokens += unitTokens
	}

	if strings.TrimSpace(current) != "" {
		spans = append(spans, span{
			text:  strings.TrimSpace(current),
			start: start,
			end:   start + len(current),
		})
	}

	chunks := make([]Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = Chunk{
			Text:        s.text,
			ChunkNumber: i + 1,
			TotalChunks: len(spans),
			StartPos:    s.start,
			EndPos:      s.end,
		}
	}
	return chunks
}

// overlapTail returns a trailing slice of text approximating targetTokens,
// aligned forward to the first sentence start inside the slice, falling back
// to the first word start. Only a slice with no whitespace at all comes back
// unaligned.
func overlapTail(text string, targetTokens int) string {
	targetChars := targetTokens * 4
	if len(text) <= targetChars {
		return text
	}

	cut := len(text) - targetChars
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	tail := text[cut:]

	if i := sentenceStart(tail); i > 0 {
		return tail[i:]
	}
	if i := strings.IndexFunc(tail, unicode.IsSpace); i >= 0 {
		if s := strings.TrimLeftFunc(tail[i:], unicode.IsSpace); s != "" {
			return s
		}
	}
	return tail
}

// sentenceStart returns the byte offset of the first sentence start strictly
// inside s, or -1 when no terminator-plus-whitespace boundary is followed by
// further content.
func sentenceStart(s string) int {
	prev := rune(0)
	for i, r := range s {
		if unicode.IsSpace(r) && isSentenceEnd(prev) {
			j := i
			for j < len(s) {
				r2, size := utf8.DecodeRuneInString(s[j:])
				if !unicode.IsSpace(r2) {
					return j
				}
				j += size
			}
			return -1
		}
		prev = r
	}
	return -1
}
