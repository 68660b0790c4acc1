package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/vector"
)

// PartQuery are the parameters for a parts catalog search.
type PartQuery struct {
	// Query is the free-text part description, e.g. "water dispenser".
	Query string
	// ApplianceType narrows the search to one catalog; empty searches both.
	ApplianceType string
	// Brand filters to one manufacturer; empty matches any.
	Brand string
	// InStockOnly drops parts that are not currently orderable.
	InStockOnly bool
	// TopK is the result count; zero means DefaultTopK.
	TopK int
}

// PartResults is the ranked outcome of a catalog search. Total counts every
// candidate seen before truncation to TopK.
type PartResults struct {
	Query    string
	Total    int
	Degraded bool
	Hits     []Hit
}

// PartSearch finds catalog parts by description using pure vector search
// over the parts collections.
type PartSearch struct {
	partsPair
	logger *slog.Logger
}

// NewPartSearch creates a parts retriever over the two catalog searchers.
func NewPartSearch(refrigerator, dishwasher vector.Searcher, opts ...Option) (*PartSearch, error) {
	if refrigerator == nil || dishwasher == nil {
		return nil, ErrPartsSearcherRequired
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return &PartSearch{
		partsPair: partsPair{refrigerator: refrigerator, dishwasher: dishwasher},
		logger:    o.logger.With("retriever", "parts"),
	}, nil
}

// Retrieve searches the selected catalog collections and returns parts
// ranked by similarity to the query. A failed collection degrades the
// result; every collection failing is an error.
func (p *PartSearch) Retrieve(ctx context.Context, q PartQuery) (*PartResults, error) {
	topK, err := resolveTopK(q.TopK)
	if err != nil {
		return nil, err
	}

	sources, err := p.pick(normalize(q.ApplianceType))
	if err != nil {
		return nil, err
	}

	filter := core.Filter{}
	if brand := normalize(q.Brand); brand != "" {
		filter["brand"] = brand
	}
	if q.InStockOnly {
		filter["stock_status"] = "in_stock"
	}
	if len(filter) == 0 {
		filter = nil
	}

	hits, degraded, err := p.searchParts(ctx, p.logger, sources, q.Query, topK, filter)
	if err != nil {
		return nil, err
	}

	sortHits(hits)
	total := len(hits)

	p.logger.Debug("parts retrieved", "query", q.Query, "total", total, "degraded", degraded)

	return &PartResults{
		Query:    q.Query,
		Total:    total,
		Degraded: degraded,
		Hits:     truncate(hits, topK),
	}, nil
}
