package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/vector"
)

// CompatibilityQuery are the parameters for a part compatibility check.
// At least one of Query, ModelNumber, PartType, or ApplianceType must be set.
type CompatibilityQuery struct {
	// ModelNumber is the appliance model to fit, e.g. "RS25J500DSG".
	ModelNumber string
	// PartType narrows to one part category, e.g. "water_dispenser".
	PartType string
	// ApplianceType narrows the search to one catalog; empty searches both.
	ApplianceType string
	// Query overrides the composed search text when set.
	Query string
	// TopK is the result count; zero means DefaultTopK.
	TopK int
}

// CompatibilityResults is the ranked outcome of a compatibility check.
// Query reports the search text actually used.
type CompatibilityResults struct {
	ModelNumber string
	PartType    string
	Query       string
	Total       int
	Degraded    bool
	Hits        []Hit
}

// Compatibility finds parts that fit a given appliance model, searching the
// catalog with a query composed from the model number and part type.
type Compatibility struct {
	partsPair
	logger *slog.Logger
}

// NewCompatibility creates a compatibility retriever over the two catalog
// searchers.
func NewCompatibility(refrigerator, dishwasher vector.Searcher, opts ...Option) (*Compatibility, error) {
	if refrigerator == nil || dishwasher == nil {
		return nil, ErrPartsSearcherRequired
	}

	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	return &Compatibility{
		partsPair: partsPair{refrigerator: refrigerator, dishwasher: dishwasher},
		logger:    o.logger.With("retriever", "compatibility"),
	}, nil
}

// Retrieve searches the selected catalog collections for parts compatible
// with the query's model. When PartType is set it is applied as a metadata
// filter as well as folded into the search text.
func (c *Compatibility) Retrieve(ctx context.Context, q CompatibilityQuery) (*CompatibilityResults, error) {
	topK, err := resolveTopK(q.TopK)
	if err != nil {
		return nil, err
	}

	model := strings.ToUpper(strings.TrimSpace(q.ModelNumber))
	partType := normalize(q.PartType)
	appliance := normalize(q.ApplianceType)

	sources, err := c.pick(appliance)
	if err != nil {
		return nil, err
	}

	searchQuery, err := composeCompatibilityQuery(q.Query, partType, model, appliance)
	if err != nil {
		return nil, err
	}

	var filter core.Filter
	if partType != "" {
		filter = core.Filter{"part_type": partType}
	}

	hits, degraded, err := c.searchParts(ctx, c.logger, sources, searchQuery, topK, filter)
	if err != nil {
		return nil, err
	}

	sortHits(hits)
	total := len(hits)

	c.logger.Debug("compatible parts retrieved",
		"model", model, "part_type", partType, "total", total, "degraded", degraded)

	return &CompatibilityResults{
		ModelNumber: model,
		PartType:    partType,
		Query:       searchQuery,
		Total:       total,
		Degraded:    degraded,
		Hits:        truncate(hits, topK),
	}, nil
}

// composeCompatibilityQuery builds the search text from whichever attributes
// the query carries. The part type's canonical underscores become spaces so
// the text reads like catalog prose.
func composeCompatibilityQuery(query, partType, model, appliance string) (string, error) {
	if q := strings.TrimSpace(query); q != "" {
		return q, nil
	}

	name := strings.ReplaceAll(partType, "_", " ")
	target := model
	if target == "" {
		target = appliance
	}

	switch {
	case name != "" && target != "":
		return name + " for " + target, nil
	case name != "":
		return name, nil
	case target != "":
		return "parts for " + target, nil
	default:
		return "", fmt.Errorf("%w: compatibility needs a model number, part type, appliance type, or query", ErrEmptyQuery)
	}
}
