package bm25

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/poiesic/fixit/core"
)

// Default term saturation and length normalization parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// Scorer ranks documents by keyword relevance to a free-text query.
//
// A Scorer is safe for concurrent use. Index builds a complete replacement
// index off to the side and swaps it in atomically, so Score calls never
// observe a half-built index; calls already in progress finish against the
// snapshot they loaded.
type Scorer struct {
	k1 float64
	b  float64

	index atomic.Pointer[index]
}

// index is one immutable corpus snapshot.
type index struct {
	docs     []docEntry
	postings map[string][]posting
	avgdl    float64
}

type docEntry struct {
	id       string
	length   int // token count
	metadata core.Metadata
}

// posting records one term occurrence count, addressed by position in
// index.docs so insertion order is preserved for tie-breaking.
type posting struct {
	doc  int
	freq int
}

// Option configures a Scorer.
type Option func(*Scorer) error

// WithK1 sets the term-frequency saturation parameter.
// Default is DefaultK1.
func WithK1(k1 float64) Option {
	return func(s *Scorer) error {
		if k1 < 0 || math.IsNaN(k1) {
			return fmt.Errorf("%w: got %v", ErrInvalidK1, k1)
		}
		s.k1 = k1
		return nil
	}
}

// WithB sets the document-length normalization parameter.
// Default is DefaultB.
func WithB(b float64) Option {
	return func(s *Scorer) error {
		if b < 0 || b > 1 || math.IsNaN(b) {
			return fmt.Errorf("%w: got %v", ErrInvalidB, b)
		}
		s.b = b
		return nil
	}
}

// New creates a Scorer with no index. Score returns ErrNotIndexed until the
// first Index call.
func New(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		k1: DefaultK1,
		b:  DefaultB,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Tokenize lowercases text and splits it on whitespace. There is no
// stemming and no stopword removal: exact part numbers, error codes, and
// model identifiers must survive tokenization intact.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Index replaces the scorer's corpus with docs, recomputing document
// frequencies and the average document length over exactly this batch.
// There is no incremental update. An empty batch is valid and produces an
// index that matches nothing.
func (s *Scorer) Index(docs []core.IndexedDocument) error {
	idx := &index{
		docs:     make([]docEntry, 0, len(docs)),
		postings: make(map[string][]posting),
	}

	seen := make(map[string]struct{}, len(docs))
	totalLength := 0

	for i, doc := range docs {
		if _, dup := seen[doc.Id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateDocumentId, doc.Id)
		}
		seen[doc.Id] = struct{}{}

		terms := Tokenize(doc.Text)
		idx.docs = append(idx.docs, docEntry{
			id:       doc.Id,
			length:   len(terms),
			metadata: doc.Metadata,
		})
		totalLength += len(terms)

		freqs := make(map[string]int, len(terms))
		for _, t := range terms {
			freqs[t]++
		}
		for t, f := range freqs {
			idx.postings[t] = append(idx.postings[t], posting{doc: i, freq: f})
		}
	}

	if len(idx.docs) > 0 {
		idx.avgdl = float64(totalLength) / float64(len(idx.docs))
	}

	s.index.Store(idx)
	return nil
}

// Score ranks the indexed corpus against query and returns up to topK
// candidates with positive scores, ordered by score descending. Equal scores
// keep index insertion order. Documents sharing no term with the query are
// excluded rather than returned with a zero score.
//
// An empty query, an empty corpus, or topK of zero all produce an empty
// result and no error. Calling Score before Index is a programming error and
// returns ErrNotIndexed.
//
// Returned candidates share the metadata maps supplied at Index; callers
// must not mutate them.
func (s *Scorer) Score(query string, topK int) ([]core.ScoredCandidate, error) {
	if topK < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}

	idx := s.index.Load()
	if idx == nil {
		return nil, ErrNotIndexed
	}

	terms := Tokenize(query)
	if topK == 0 || len(terms) == 0 || len(idx.docs) == 0 {
		return nil, nil
	}

	n := float64(len(idx.docs))
	scores := make([]float64, len(idx.docs))

	for _, t := range terms {
		plist := idx.postings[t]
		if len(plist) == 0 {
			continue
		}

		nt := float64(len(plist))
		idf := math.Log((n-nt+0.5)/(nt+0.5) + 1)

		for _, p := range plist {
			f := float64(p.freq)
			norm := 1 - s.b + s.b*float64(idx.docs[p.doc].length)/idx.avgdl
			scores[p.doc] += idf * f * (s.k1 + 1) / (f + s.k1*norm)
		}
	}

	matched := make([]int, 0, len(idx.docs))
	for i, sc := range scores {
		if sc > 0 {
			matched = append(matched, i)
		}
	}

	sort.Slice(matched, func(a, b int) bool {
		if scores[matched[a]] != scores[matched[b]] {
			return scores[matched[a]] > scores[matched[b]]
		}
		return matched[a] < matched[b]
	})

	if len(matched) > topK {
		matched = matched[:topK]
	}

	out := make([]core.ScoredCandidate, len(matched))
	for i, d := range matched {
		out[i] = core.ScoredCandidate{
			Id:       idx.docs[d].id,
			Score:    scores[d],
			Metadata: idx.docs[d].metadata,
		}
	}
	return out, nil
}

// Indexed reports whether Index has been called at least once.
func (s *Scorer) Indexed() bool {
	return s.index.Load() != nil
}

// DocumentCount returns the size of the current corpus snapshot, zero when
// nothing has been indexed.
func (s *Scorer) DocumentCount() int {
	idx := s.index.Load()
	if idx == nil {
		return 0
	}
	return len(idx.docs)
}
