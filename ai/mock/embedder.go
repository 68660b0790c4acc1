package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder is a test double for ai.Embedder. Behavior is injectable
// through the function fields; with none set, every call derives a unit
// vector deterministically from the input text, so equal texts always embed
// identically across runs.
type MockEmbedder struct {
	// EmbedTextFunc, when set, replaces the default EmbedText behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc, when set, replaces the default EmbedTexts behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	callCount int
}

// mockDim is the default embedding width, matching small sentence-embedding
// models.
const mockDim = 384

// NewMockEmbedder creates a mock embedder with the deterministic defaults.
// It returns the concrete type so tests can reach the function fields and
// CallCount.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText embeds one text.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return textVector(text), nil
}

// EmbedTexts embeds a batch, one vector per input.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = textVector(text)
	}
	return out, nil
}

// CallCount returns how many times either embed method ran.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// textVector derives a unit vector from text: a 64-bit FNV hash of the text
// seeds an xorshift generator whose outputs fill the components before the
// vector is scaled to unit length. Components stay non-negative so any two
// texts land within cosine distance 1 of each other, the way real sentence
// embeddings cluster in a narrow cone.
func textVector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64() | 1 // xorshift must not start at zero

	v := make([]float32, mockDim)
	var sumSquares float64
	for i := range v {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		x := float64(state>>40) / float64(1<<24)
		v[i] = float32(x)
		sumSquares += x * x
	}

	if sumSquares > 0 {
		inv := float32(1 / math.Sqrt(sumSquares))
		for i := range v {
			v[i] *= inv
		}
	}
	return v
}
