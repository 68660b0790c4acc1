package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/hybrid"
	"github.com/poiesic/fixit/vector"
)

// DefaultTopK is the result count used when a query leaves TopK zero.
const DefaultTopK = 5

// Appliance types the catalog covers. Canonically lowercase, like every
// other filterable attribute.
const (
	ApplianceRefrigerator = "refrigerator"
	ApplianceDishwasher   = "dishwasher"
)

// Source labels which corpus produced a hit.
type Source string

const (
	// SourcePartsCatalog marks hits from the parts collections.
	SourcePartsCatalog Source = "parts_catalog"
	// SourceRepairGuide marks hits from the repair guides collection.
	SourceRepairGuide Source = "repair_guide"
	// SourceBlogArticle marks hits from the chunked article collection.
	SourceBlogArticle Source = "blog_article"
)

// Hit is one retrieved candidate. Relevance is the final ranking score in
// [0,1]. VectorScore and KeywordScore carry the per-path scores when the hit
// went through the hybrid merge; Origin reports which path(s) found it
// (always core.OriginVector for pure vector retrieval).
type Hit struct {
	Id           string
	Collection   core.Collection
	Source       Source
	Relevance    float64
	VectorScore  float64
	KeywordScore float64
	Origin       core.Origin
	Metadata     core.Metadata
}

// Hybrid is the combined keyword+vector search path over one collection.
// *hybrid.Searcher satisfies it.
type Hybrid interface {
	Search(ctx context.Context, query string, topK int, filter core.Filter) (*hybrid.Result, error)
}

// Option configures a retriever.
type Option func(*options) error

type options struct {
	logger *slog.Logger
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// resolveTopK coerces a query's TopK: zero means the default, negative is a
// caller error.
func resolveTopK(topK int) (int, error) {
	if topK < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}
	if topK == 0 {
		return DefaultTopK, nil
	}
	return topK, nil
}

// normalize canonicalizes a filterable attribute: trimmed and lowercase, so
// caller input matches the seeded catalog metadata.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// sortHits orders hits by relevance descending. The sort is stable so equal
// scores keep their source order.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Relevance > hits[j].Relevance
	})
}

// truncate caps hits at topK after sorting.
func truncate(hits []Hit, topK int) []Hit {
	if len(hits) > topK {
		return hits[:topK]
	}
	return hits
}

// source pairs a collection with the vector searcher scanning it.
type source struct {
	collection core.Collection
	searcher   vector.Searcher
}

// partsPair bundles the two catalog searchers and selects which to query by
// appliance type. An empty appliance type selects both.
type partsPair struct {
	refrigerator vector.Searcher
	dishwasher   vector.Searcher
}

func (p partsPair) pick(applianceType string) ([]source, error) {
	switch applianceType {
	case "":
		return []source{
			{core.CollectionPartsRefrigerator, p.refrigerator},
			{core.CollectionPartsDishwasher, p.dishwasher},
		}, nil
	case ApplianceRefrigerator:
		return []source{{core.CollectionPartsRefrigerator, p.refrigerator}}, nil
	case ApplianceDishwasher:
		return []source{{core.CollectionPartsDishwasher, p.dishwasher}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownApplianceType, applianceType)
	}
}

// searchParts queries the selected catalog collections and converts matches
// to hits. Per-collection failures are logged and skipped; only every
// collection failing is an error.
func (p partsPair) searchParts(ctx context.Context, logger *slog.Logger, sources []source, query string, topK int, filter core.Filter) ([]Hit, bool, error) {
	var (
		hits []Hit
		errs []error
	)
	for _, src := range sources {
		cands, err := src.searcher.Search(ctx, query, topK, filter)
		if err != nil {
			logger.Error("parts collection search failed", "collection", src.collection, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.collection, err))
			continue
		}
		for _, c := range cands {
			hits = append(hits, Hit{
				Id:         c.Id,
				Collection: src.collection,
				Source:     SourcePartsCatalog,
				Relevance:  vector.CosineSimilarity(c.Distance),
				Origin:     core.OriginVector,
				Metadata:   c.Metadata,
			})
		}
	}
	if len(errs) == len(sources) {
		return nil, false, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
	}
	return hits, len(errs) > 0, nil
}

// repairPath is the hybrid search over repair guides with a vector-only
// fallback over the same collection.
type repairPath struct {
	hybrid   Hybrid
	fallback vector.Searcher
}

// search runs the hybrid path and converts merged results to hits. When the
// hybrid path errors it retries vector-only, reporting the outcome as
// degraded. videoBoost multiplies the relevance of guides carrying a video
// tutorial, clamped to 1.0.
func (r repairPath) search(ctx context.Context, logger *slog.Logger, query string, topK int, filter core.Filter, videoBoost bool) ([]Hit, bool, error) {
	res, err := r.hybrid.Search(ctx, query, topK, filter)
	if err == nil {
		hits := make([]Hit, 0, len(res.Results))
		for _, m := range res.Results {
			hits = append(hits, Hit{
				Id:           m.Id,
				Collection:   core.CollectionRepairSymptoms,
				Source:       SourceRepairGuide,
				Relevance:    boostVideo(m.HybridScore, m.Metadata, videoBoost),
				VectorScore:  m.VectorScore,
				KeywordScore: m.KeywordScore,
				Origin:       m.Origin,
				Metadata:     m.Metadata,
			})
		}
		return hits, res.Degraded, nil
	}

	logger.Warn("hybrid repair search failed, retrying vector-only", "err", err)

	cands, ferr := r.fallback.Search(ctx, query, topK, filter)
	if ferr != nil {
		return nil, false, errors.Join(err, ferr)
	}
	hits := make([]Hit, 0, len(cands))
	for _, c := range cands {
		hits = append(hits, Hit{
			Id:         c.Id,
			Collection: core.CollectionRepairSymptoms,
			Source:     SourceRepairGuide,
			Relevance:  boostVideo(vector.CosineSimilarity(c.Distance), c.Metadata, videoBoost),
			Origin:     core.OriginVector,
			Metadata:   c.Metadata,
		})
	}
	return hits, true, nil
}

// boostVideo lifts the relevance of guides that carry a video tutorial,
// clamped to 1.0.
func boostVideo(relevance float64, meta core.Metadata, enabled bool) float64 {
	if enabled && meta.Bool("has_video") {
		return min(relevance*hybrid.DefaultBoostFactor, 1.0)
	}
	return relevance
}

// blogHits converts article chunk candidates to hits.
func blogHits(cands []vector.Candidate) []Hit {
	hits := make([]Hit, 0, len(cands))
	for _, c := range cands {
		hits = append(hits, Hit{
			Id:         c.Id,
			Collection: core.CollectionBlogArticles,
			Source:     SourceBlogArticle,
			Relevance:  vector.CosineSimilarity(c.Distance),
			Origin:     core.OriginVector,
			Metadata:   c.Metadata,
		})
	}
	return hits
}
