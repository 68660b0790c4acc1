package reindex

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
)

// BatchProcessor handles embedding generation for batches of documents.
type BatchProcessor struct {
	repo           storage.DocumentRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.DocumentRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of documents and writes them back.
// Vectors are normalized after embedding to ensure compatibility with cosine
// similarity.
func (bp *BatchProcessor) Process(ctx context.Context, docs []*core.Document) error {
	if len(docs) == 0 {
		return nil
	}

	// Extract text content
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	retry := Backoff{Attempts: bp.maxRetries, Base: bp.retryBaseDelay}
	err := retry.Do(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(docs), len(embeddings))
	}

	// Normalize vectors and assign to documents
	for i := range docs {
		docs[i].Vector = toUnit(embeddings[i])
	}

	// Write documents back
	if err := bp.repo.PutDocuments(ctx, docs...); err != nil {
		return fmt.Errorf("failed to update documents: %w", err)
	}

	return nil
}

// toUnit scales v to unit length without mutating it, accumulating in
// float64 so high-dimensional vectors keep their precision. A zero vector
// has no direction and comes back all zeros.
func toUnit(v []float32) []float32 {
	out := make([]float32, len(v))

	var ss float64
	for _, x := range v {
		ss += float64(x) * float64(x)
	}
	if ss == 0 {
		return out
	}

	inv := 1 / math.Sqrt(ss)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
