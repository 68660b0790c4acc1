package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/vector"
)

// Near-exact catalog matches contribute installation time estimates; a
// looser match would attach another part's timings.
const (
	partEstimateLimit    = 3
	partEstimateDistance = 1.0
)

// InstallationQuery are the parameters for an installation guide search.
// At least one of PartName or PartNumber must be set.
type InstallationQuery struct {
	// PartNumber is a catalog or manufacturer part number.
	PartNumber string
	// PartName names the part, e.g. "water dispenser". Preferred over
	// PartNumber when both are set.
	PartName string
	// ApplianceType narrows to one appliance; empty matches any.
	ApplianceType string
	// TopK is the result count; zero means DefaultTopK.
	TopK int
}

// InstallationResults is the ranked outcome of an installation guide search.
// Query reports the search text actually used.
type InstallationResults struct {
	PartNumber string
	PartName   string
	Query      string
	Total      int
	Degraded   bool
	Hits       []Hit
}

// Installation retrieves replacement guides for a named part using hybrid
// search over the repair guides, restricted to replacement-type guides.
// Article chunks and near-exact catalog matches (for time estimates)
// supplement the guides.
type Installation struct {
	repairPath
	partsPair
	blogs  vector.Searcher
	logger *slog.Logger
}

// NewInstallation creates an installation retriever. repairs is the hybrid
// path over the repair guides, fallback the vector-only path over the same
// collection, blogs the article chunk searcher, refrigerator and dishwasher
// the catalog searchers consulted for installation time estimates.
func NewInstallation(repairs Hybrid, fallback, blogs, refrigerator, dishwasher vector.Searcher, opts ...Option) (*Installation, error) {
	if repairs == nil {
		return nil, ErrHybridSearcherRequired
	}
	if fallback == nil {
		return nil, ErrRepairSearcherRequired
	}
	if blogs == nil {
		return nil, ErrBlogSearcherRequired
	}
	if refrigerator == nil || dishwasher == nil {
		return nil, ErrPartsSearcherRequired
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return &Installation{
		repairPath: repairPath{hybrid: repairs, fallback: fallback},
		partsPair:  partsPair{refrigerator: refrigerator, dishwasher: dishwasher},
		blogs:      blogs,
		logger:     o.logger.With("retriever", "installation"),
	}, nil
}

// Retrieve searches the repair guides for replacement instructions covering
// the named part, ranked by hybrid relevance. A failed source degrades the
// result; every source failing is an error.
func (ins *Installation) Retrieve(ctx context.Context, q InstallationQuery) (*InstallationResults, error) {
	topK, err := resolveTopK(q.TopK)
	if err != nil {
		return nil, err
	}

	part := strings.TrimSpace(q.PartName)
	if part == "" {
		part = strings.TrimSpace(q.PartNumber)
	}
	if part == "" {
		return nil, fmt.Errorf("%w: part name or part number required", ErrEmptyQuery)
	}
	searchQuery := "install " + part

	appliance := normalize(q.ApplianceType)
	sources, err := ins.pick(appliance)
	if err != nil {
		return nil, err
	}

	// Replacement guides only; diagnostic test guides don't help here.
	filter := core.Filter{"repair_guide_type": "replacement"}
	if appliance != "" {
		filter["appliance_type"] = appliance
	}

	var (
		hits     []Hit
		degraded bool
		failures []error
		failed   int
	)

	repairHits, repairsDegraded, repairErr := ins.search(ctx, ins.logger, searchQuery, topK, filter, false)
	if repairErr != nil {
		ins.logger.Error("replacement guide search failed", "part", part, "err", repairErr)
		degraded = true
		failed++
		failures = append(failures, repairErr)
	} else {
		degraded = degraded || repairsDegraded
		hits = append(hits, repairHits...)
	}

	blogCands, blogErr := ins.searchBlogs(ctx, searchQuery, topK/2)
	if blogErr != nil {
		ins.logger.Error("article search failed", "part", part, "err", blogErr)
		degraded = true
		failed++
		failures = append(failures, blogErr)
	} else {
		hits = append(hits, blogCands...)
	}

	partHits, partsDegraded, partsErr := ins.searchPartEstimates(ctx, sources, part)
	if partsErr != nil {
		ins.logger.Error("catalog estimate search failed", "part", part, "err", partsErr)
		degraded = true
		failed++
		failures = append(failures, partsErr)
	} else {
		degraded = degraded || partsDegraded
		hits = append(hits, partHits...)
	}

	if failed == 3 {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(failures...))
	}

	sortHits(hits)
	total := len(hits)

	ins.logger.Debug("installation guides retrieved",
		"part", part, "total", total, "degraded", degraded)

	return &InstallationResults{
		PartNumber: strings.TrimSpace(q.PartNumber),
		PartName:   strings.TrimSpace(q.PartName),
		Query:      searchQuery,
		Total:      total,
		Degraded:   degraded,
		Hits:       truncate(hits, topK),
	}, nil
}

// searchBlogs pulls article chunks about installing the part. Articles are
// not topic-filtered: installation walkthroughs appear across categories.
func (ins *Installation) searchBlogs(ctx context.Context, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	cands, err := ins.blogs.Search(ctx, query, topK, nil)
	if err != nil {
		return nil, err
	}
	return blogHits(cands), nil
}

// searchPartEstimates finds near-exact catalog matches for the part, whose
// metadata carries installation type and average installation time.
func (ins *Installation) searchPartEstimates(ctx context.Context, sources []source, part string) ([]Hit, bool, error) {
	var (
		hits []Hit
		errs []error
	)
	for _, src := range sources {
		cands, err := src.searcher.Search(ctx, part, partEstimateLimit, nil)
		if err != nil {
			ins.logger.Error("parts collection search failed", "collection", src.collection, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.collection, err))
			continue
		}
		for _, c := range cands {
			if c.Distance >= partEstimateDistance {
				continue
			}
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
		return nil, false, errors.Join(errs...)
	}
	return hits, len(errs) > 0, nil
}
