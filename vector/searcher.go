// Package vector defines the nearest-neighbor search boundary and the fixed
// distance-to-similarity conversion used everywhere above it.
package vector

import (
	"context"

	"github.com/poiesic/fixit/core"
)

// Candidate is one nearest-neighbor hit as a vector index reports it: a raw
// distance, not yet a similarity.
type Candidate struct {
	Id       string
	Distance float64
	Metadata core.Metadata
}

// Searcher is the vector index boundary. Implementations embed the query,
// run nearest-neighbor search, and return candidates ordered by ascending
// distance. The filter is an equality match over candidate metadata; a nil
// filter matches everything.
type Searcher interface {
	Search(ctx context.Context, query string, topK int, filter core.Filter) ([]Candidate, error)
}

// CosineSimilarity converts a cosine distance to a similarity in [0, 1].
//
// The backing index stores normalized embeddings in cosine space, where
// distance ranges over [0, 2]: 0 for identical direction, 1 for orthogonal,
// 2 for opposite. The conversion is therefore 1 - distance/2, clamped
// against float drift at the boundaries. Every consumer of vector scores
// relies on this one formula; mixing conversions silently breaks the
// hybrid weighting contract.
func CosineSimilarity(distance float64) float64 {
	s := 1 - distance/2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Similarities maps raw candidates into scored candidates using
// CosineSimilarity. Ordering is preserved.
func Similarities(candidates []Candidate) []core.ScoredCandidate {
	out := make([]core.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = core.ScoredCandidate{
			Id:       c.Id,
			Score:    CosineSimilarity(c.Distance),
			Metadata: c.Metadata,
		}
	}
	return out
}
