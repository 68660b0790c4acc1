package ai

import (
	"context"

	"github.com/poiesic/fixit/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryAnalyzer classifies support queries and extracts structured entities.
// Implementations must be thread-safe for concurrent use.
type QueryAnalyzer interface {
	// AnalyzeQuery determines the intent of a query and extracts the entities
	// it mentions: appliance type, brand, part type, model number, and issue
	// keywords. Intent labels the analyzer does not recognize map to
	// core.IntentGeneralQuestion.
	// Returns an error if the analysis fails.
	AnalyzeQuery(ctx context.Context, query string) (*core.QueryAnalysis, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and QueryAnalyzer instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// QueryAnalyzer returns the query analysis service.
	// The returned QueryAnalyzer is safe for concurrent use.
	QueryAnalyzer() QueryAnalyzer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
