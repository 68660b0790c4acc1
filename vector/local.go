package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
)

// DefaultMaxDistance keeps every candidate; 2 is the far edge of cosine space.
const DefaultMaxDistance = 2.0

// Local is a Searcher that embeds the query text and brute-force scans one
// stored collection for the nearest embeddings. There is no separate index
// state to maintain: reads always see the latest stored vectors, which is
// enough for catalog-sized collections.
type Local struct {
	repo        storage.DocumentRepository
	embedder    ai.Embedder
	collection  core.Collection
	maxDistance float64
	logger      *slog.Logger
}

// LocalOption configures a Local searcher.
type LocalOption func(*Local) error

// WithMaxDistance caps how far (cosine distance, [0, 2]) a candidate may be
// from the query before it is dropped.
// Default is DefaultMaxDistance.
func WithMaxDistance(d float64) LocalOption {
	return func(l *Local) error {
		if d < 0 || d > 2 {
			return fmt.Errorf("%w: got %v", ErrInvalidMaxDistance, d)
		}
		l.maxDistance = d
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) LocalOption {
	return func(l *Local) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLocal creates a brute-force vector searcher over one collection.
func NewLocal(repo storage.DocumentRepository, embedder ai.Embedder, collection core.Collection, opts ...LocalOption) (*Local, error) {
	if repo == nil {
		return nil, ErrNilRepository
	}
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if collection == "" {
		return nil, ErrEmptyCollection
	}

	l := &Local{
		repo:        repo,
		embedder:    embedder,
		collection:  collection,
		maxDistance: DefaultMaxDistance,
		logger:      slog.Default().With("component", "vector-local", "collection", string(collection)),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// Collection reports which collection this searcher scans.
func (l *Local) Collection() core.Collection {
	return l.collection
}

// Search embeds the query and returns the nearest stored documents ordered
// by ascending distance. The filter is an equality match over document
// metadata; a nil filter matches everything.
func (l *Local) Search(ctx context.Context, query string, topK int, filter core.Filter) ([]Candidate, error) {
	if topK <= 0 {
		return []Candidate{}, nil
	}

	embedding, err := l.embedder.EmbedText(ctx, query)
	if err != nil {
		l.logger.Error("failed to embed query", "err", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embedding) == 0 {
		l.logger.Warn("embedder returned empty vector, no candidates")
		return []Candidate{}, nil
	}

	matches, err := l.repo.FindSimilar(ctx, l.collection, embedding, l.maxDistance, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", l.collection, err)
	}

	candidates := make([]Candidate, len(matches))
	for i, m := range matches {
		candidates[i] = Candidate{
			Id:       m.Document.Id,
			Distance: m.Distance,
			Metadata: m.Document.Metadata.Clone(),
		}
	}

	l.logger.Debug("vector scan complete", "query_len", len(query), "candidates", len(candidates))
	return candidates, nil
}
