package hybrid

import (
	"sort"

	"github.com/poiesic/fixit/core"
)

// Default path weights. They favor semantic matches slightly while keeping
// exact-term hits competitive; callers choose their own scale per retriever.
const (
	DefaultVectorWeight  = 0.6
	DefaultKeywordWeight = 0.4
)

// DefaultBoostFactor is the conventional multiplier for results carrying a
// richer resource, such as an instructional video.
const DefaultBoostFactor = 1.2

// Weights are the per-path multipliers applied to normalized scores. They
// need not sum to 1; the merger never rescales them.
type Weights struct {
	Vector  float64
	Keyword float64
}

// DefaultWeights returns the standard vector-leaning weight pair.
func DefaultWeights() Weights {
	return Weights{Vector: DefaultVectorWeight, Keyword: DefaultKeywordWeight}
}

func (w Weights) validate() error {
	if w.Vector < 0 || w.Keyword < 0 {
		return ErrInvalidWeight
	}
	return nil
}

// BoostView is the typed view of a candidate that a boost policy ranks on.
// Callers construct it from metadata they understand; the merger itself
// never inspects metadata keys.
type BoostView struct {
	HasVideo bool
}

// BoostViewFunc builds a BoostView from one candidate's metadata.
type BoostViewFunc func(core.Metadata) BoostView

// Boost is an optional relevance policy: results whose view reports a video
// get their hybrid score multiplied by Factor, clamped to 1.0, before the
// final sort.
type Boost struct {
	View   BoostViewFunc
	Factor float64
}

// Merge combines the two candidate sets for one query into a single ranked
// list. Keyword scores are normalized by the batch maximum; vector scores
// are expected in [0, 1] already. Every id present in either input appears
// exactly once, tagged with its origin, and absent paths score 0. The
// returned list is complete: truncation to a caller's top-k happens above.
//
// Ordering is hybrid score descending; ties prefer results found by both
// paths, then higher vector score, then ascending id.
func Merge(vectorCands, keywordCands []core.ScoredCandidate, weights Weights, boost *Boost) []core.HybridResult {
	merged := make(map[string]*core.HybridResult, len(vectorCands)+len(keywordCands))

	for _, c := range vectorCands {
		merged[c.Id] = &core.HybridResult{
			Id:          c.Id,
			VectorScore: clamp01(c.Score),
			Origin:      core.OriginVector,
			Metadata:    c.Metadata,
		}
	}

	maxKeyword := 0.0
	for _, c := range keywordCands {
		if c.Score > maxKeyword {
			maxKeyword = c.Score
		}
	}

	for _, c := range keywordCands {
		score := 0.0
		if maxKeyword > 0 {
			score = clamp01(c.Score / maxKeyword)
		}

		if r, ok := merged[c.Id]; ok {
			r.KeywordScore = score
			r.Origin = core.OriginBoth
			r.Metadata = richer(r.Metadata, c.Metadata)
			continue
		}
		merged[c.Id] = &core.HybridResult{
			Id:           c.Id,
			KeywordScore: score,
			Origin:       core.OriginKeyword,
			Metadata:     c.Metadata,
		}
	}

	results := make([]core.HybridResult, 0, len(merged))
	for _, r := range merged {
		r.HybridScore = r.VectorScore*weights.Vector + r.KeywordScore*weights.Keyword

		if boost != nil && boost.View != nil && boost.View(r.Metadata).HasVideo {
			r.HybridScore = min(r.HybridScore*boost.Factor, 1.0)
		}
		r.HybridScore = clamp01(r.HybridScore)

		results = append(results, *r)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.HybridScore != b.HybridScore {
			return a.HybridScore > b.HybridScore
		}
		if (a.Origin == core.OriginBoth) != (b.Origin == core.OriginBoth) {
			return a.Origin == core.OriginBoth
		}
		if a.VectorScore != b.VectorScore {
			return a.VectorScore > b.VectorScore
		}
		return a.Id < b.Id
	})

	return results
}

// richer picks the metadata map carrying more keys, preferring the vector
// side on a tie.
func richer(vectorSide, keywordSide core.Metadata) core.Metadata {
	if len(keywordSide) > len(vectorSide) {
		return keywordSide
	}
	return vectorSide
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
