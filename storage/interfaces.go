package storage

import (
	"context"

	"github.com/poiesic/fixit/core"
)

// DocumentRepository provides operations for managing the document corpus.
// Implementations must be thread-safe.
type DocumentRepository interface {
	// PutDocuments upserts one or more documents. Each document is
	// validated; InsertedAt is set when zero and UpdatedAt is always set.
	// Existing documents with the same collection and id are overwritten.
	PutDocuments(ctx context.Context, docs ...*core.Document) error

	// GetDocument retrieves a single document.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, collection core.Collection, id string) (*core.Document, error)

	// GetDocuments retrieves multiple documents by id.
	// Returns only the documents that exist (no error for missing ids).
	GetDocuments(ctx context.Context, collection core.Collection, ids ...string) ([]*core.Document, error)

	// ScanCollection streams every document in a collection through fn in
	// key order. A non-nil error from fn stops the scan and is returned.
	ScanCollection(ctx context.Context, collection core.Collection, fn func(*core.Document) error) error

	// DeleteDocuments removes documents by id.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, collection core.Collection, ids ...string) error

	// DeleteCollection removes every document in a collection and returns
	// how many were deleted.
	DeleteCollection(ctx context.Context, collection core.Collection) (int, error)

	// Count reports the number of documents in a collection.
	Count(ctx context.Context, collection core.Collection) (int, error)

	// Fingerprints returns the content fingerprint of every document in a
	// collection, keyed by document id, without decoding full records.
	Fingerprints(ctx context.Context, collection core.Collection) (map[string]core.Fingerprint, error)

	// FindSimilar scans a collection for documents whose stored embedding
	// is close to vector, in cosine distance (0 identical, 2 opposite).
	// Documents without an embedding or not matching the equality filter
	// are skipped. Returns matches with distance <= maxDistance ordered by
	// distance ascending, up to limit results.
	FindSimilar(ctx context.Context, collection core.Collection, vector []float32, maxDistance float64, limit int, filter core.Filter) ([]*core.SimilarityMatch, error)
}

// CheckpointRepository provides operations for batch-processor checkpoints.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type,
	// stamping UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)
}
