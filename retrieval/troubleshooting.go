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

// TroubleshootingQuery are the parameters for a repair diagnosis search.
type TroubleshootingQuery struct {
	// Issue describes the problem, e.g. "water leaking from bottom" or an
	// error code. Required.
	Issue string
	// ApplianceType narrows to one appliance; empty matches any.
	ApplianceType string
	// Difficulty filters guides by skill level ("easy", "medium", "hard");
	// empty matches any.
	Difficulty string
	// DisableVideoBoost turns off the relevance lift for guides carrying a
	// video tutorial. The zero value keeps the boost on.
	DisableVideoBoost bool
	// TopK is the result count; zero means DefaultTopK.
	TopK int
}

// TroubleshootingResults is the ranked outcome of a diagnosis search.
type TroubleshootingResults struct {
	Issue    string
	Total    int
	Degraded bool
	Hits     []Hit
}

// Troubleshooting diagnoses appliance problems over the repair guides using
// hybrid search, so exact symptom phrases and error codes rank alongside
// semantically similar issues. Long-form article chunks supplement the
// guides at half the requested depth.
type Troubleshooting struct {
	repairPath
	blogs  vector.Searcher
	logger *slog.Logger
}

// NewTroubleshooting creates a troubleshooting retriever. repairs is the
// hybrid path over the repair guides, fallback the vector-only path over the
// same collection, blogs the article chunk searcher.
func NewTroubleshooting(repairs Hybrid, fallback, blogs vector.Searcher, opts ...Option) (*Troubleshooting, error) {
	if repairs == nil {
		return nil, ErrHybridSearcherRequired
	}
	if fallback == nil {
		return nil, ErrRepairSearcherRequired
	}
	if blogs == nil {
		return nil, ErrBlogSearcherRequired
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return &Troubleshooting{
		repairPath: repairPath{hybrid: repairs, fallback: fallback},
		blogs:      blogs,
		logger:     o.logger.With("retriever", "troubleshooting"),
	}, nil
}

// Retrieve searches the repair guides for the described issue and returns
// guides ranked by hybrid relevance, supplemented with article chunks. A
// failed source degrades the result; every source failing is an error.
func (t *Troubleshooting) Retrieve(ctx context.Context, q TroubleshootingQuery) (*TroubleshootingResults, error) {
	topK, err := resolveTopK(q.TopK)
	if err != nil {
		return nil, err
	}

	issue := strings.TrimSpace(q.Issue)
	if issue == "" {
		return nil, fmt.Errorf("%w: issue description required", ErrEmptyQuery)
	}

	appliance := normalize(q.ApplianceType)
	if appliance != "" && appliance != ApplianceRefrigerator && appliance != ApplianceDishwasher {
		return nil, fmt.Errorf("%w: %q", ErrUnknownApplianceType, appliance)
	}

	filter := core.Filter{}
	if appliance != "" {
		filter["appliance_type"] = appliance
	}
	if difficulty := normalize(q.Difficulty); difficulty != "" {
		filter["difficulty"] = difficulty
	}
	if len(filter) == 0 {
		filter = nil
	}

	var (
		hits     []Hit
		degraded bool
		failures []error
	)

	repairHits, repairsDegraded, repairErr := t.search(ctx, t.logger, issue, topK, filter, !q.DisableVideoBoost)
	if repairErr != nil {
		t.logger.Error("repair guide search failed", "issue", issue, "err", repairErr)
		degraded = true
		failures = append(failures, repairErr)
	} else {
		degraded = degraded || repairsDegraded
		hits = append(hits, repairHits...)
	}

	blogCands, blogErr := t.searchBlogs(ctx, issue, topK/2, appliance)
	if blogErr != nil {
		t.logger.Error("article search failed", "issue", issue, "err", blogErr)
		degraded = true
		failures = append(failures, blogErr)
	} else {
		hits = append(hits, blogCands...)
	}

	if repairErr != nil && blogErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(failures...))
	}

	sortHits(hits)
	total := len(hits)

	t.logger.Debug("troubleshooting guides retrieved",
		"issue", issue, "total", total, "degraded", degraded)

	return &TroubleshootingResults{
		Issue:    issue,
		Total:    total,
		Degraded: degraded,
		Hits:     truncate(hits, topK),
	}, nil
}

// searchBlogs pulls article chunks related to the issue. The repair topic
// filter applies only when no appliance type narrows the query.
func (t *Troubleshooting) searchBlogs(ctx context.Context, issue string, topK int, appliance string) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	var filter core.Filter
	if appliance == "" {
		filter = core.Filter{"topic_category": "repair"}
	}

	cands, err := t.blogs.Search(ctx, issue, topK, filter)
	if err != nil {
		return nil, err
	}
	return blogHits(cands), nil
}
