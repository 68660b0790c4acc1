package hybrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/vector"
)

// Defaults for the vector path bound and the query cache.
const (
	DefaultVectorTimeout = 5 * time.Second
	DefaultCacheSize     = 512
	DefaultCacheTTL      = 5 * time.Minute
)

// KeywordScorer is the lexical side of a hybrid search.
type KeywordScorer interface {
	Score(query string, topK int) ([]core.ScoredCandidate, error)
}

// Path names one retrieval path for degradation reporting.
type Path string

const (
	PathVector  Path = "vector"
	PathKeyword Path = "keyword"
)

// Result is one merged search outcome. Degraded is set when a single path
// failed and the ranking was built from the survivor; FailedPaths names the
// failures in vector-then-keyword order.
type Result struct {
	Results     []core.HybridResult
	Degraded    bool
	FailedPaths []Path
}

// Searcher runs the keyword scorer and the vector index concurrently over
// one query and merges their rankings. Safe for concurrent use.
type Searcher struct {
	vector  vector.Searcher
	keyword KeywordScorer
	weights Weights
	boost   *Boost
	logger  *slog.Logger

	vectorTimeout time.Duration

	cacheSize int
	cacheTTL  time.Duration
	cache     *expirable.LRU[string, cacheEntry]
}

type cacheEntry struct {
	results []core.HybridResult
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights sets the per-path score weights.
// Default is DefaultWeights().
func WithWeights(w Weights) Option {
	return func(s *Searcher) error {
		if err := w.validate(); err != nil {
			return err
		}
		s.weights = w
		return nil
	}
}

// WithBoost attaches a boost policy applied during merging.
func WithBoost(view BoostViewFunc, factor float64) Option {
	return func(s *Searcher) error {
		if factor <= 0 {
			return fmt.Errorf("%w: got %v", ErrInvalidBoostFactor, factor)
		}
		if view == nil {
			s.boost = nil
			return nil
		}
		s.boost = &Boost{View: view, Factor: factor}
		return nil
	}
}

// WithVectorTimeout bounds how long the vector path may run before the
// search degrades to keyword-only.
// Default is DefaultVectorTimeout.
func WithVectorTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d <= 0 {
			return fmt.Errorf("%w: got %v", ErrInvalidTimeout, d)
		}
		s.vectorTimeout = d
		return nil
	}
}

// WithCache sizes the query result cache.
// Default is DefaultCacheSize entries held for DefaultCacheTTL.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Searcher) error {
		if size <= 0 || ttl <= 0 {
			return errors.New("cache size and ttl must be positive")
		}
		s.cacheSize = size
		s.cacheTTL = ttl
		return nil
	}
}

// WithoutCache disables result caching entirely.
func WithoutCache() Option {
	return func(s *Searcher) error {
		s.cacheSize = 0
		return nil
	}
}

// NewSearcher creates a hybrid searcher over the two retrieval paths.
func NewSearcher(vs vector.Searcher, ks KeywordScorer, opts ...Option) (*Searcher, error) {
	if vs == nil {
		return nil, ErrVectorSearcherRequired
	}
	if ks == nil {
		return nil, ErrKeywordScorerRequired
	}

	s := &Searcher{
		vector:        vs,
		keyword:       ks,
		weights:       DefaultWeights(),
		logger:        slog.Default(),
		vectorTimeout: DefaultVectorTimeout,
		cacheSize:     DefaultCacheSize,
		cacheTTL:      DefaultCacheTTL,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.cacheSize > 0 {
		s.cache = expirable.NewLRU[string, cacheEntry](s.cacheSize, nil, s.cacheTTL)
	}

	return s, nil
}

// Search runs both retrieval paths for query and returns the merged ranking.
// See SearchWithMonitor.
func (s *Searcher) Search(ctx context.Context, query string, topK int, filter core.Filter) (*Result, error) {
	return s.search(ctx, query, topK, filter, s.weights, nil)
}

// SearchWeighted runs one search under caller-supplied weights instead of
// the configured pair, for callers tuning the lexical/semantic balance per
// query. Weighted rankings never come from or enter the cache.
func (s *Searcher) SearchWeighted(ctx context.Context, query string, topK int, filter core.Filter, weights Weights) (*Result, error) {
	if err := weights.validate(); err != nil {
		return nil, err
	}
	return s.search(ctx, query, topK, filter, weights, nil)
}

// SearchWithMonitor runs both retrieval paths concurrently, merges their
// candidates, and returns up to topK results. The monitor receives callbacks
// at each stage.
//
// The vector path runs under a bounded timeout. If one path fails the search
// degrades to the surviving path, reported through the result's Degraded and
// FailedPaths fields and a warning log. Only when both paths fail does
// Search return an error. Cancellation of the caller's context abandons the
// whole query.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, topK int, filter core.Filter, monitor SearchMonitor) (*Result, error) {
	return s.search(ctx, query, topK, filter, s.weights, monitor)
}

func (s *Searcher) search(ctx context.Context, query string, topK int, filter core.Filter, weights Weights, monitor SearchMonitor) (*Result, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if topK < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}

	monitor.Start(query)

	if topK == 0 {
		monitor.Finish(nil)
		return &Result{}, nil
	}

	// Cached rankings only serve the configured weight pair.
	cacheable := s.cache != nil && weights == s.weights

	key := cacheKey(query, topK, filter)
	if cacheable {
		if entry, ok := s.cache.Get(key); ok {
			results := copyResults(entry.results)
			monitor.Finish(results)
			return &Result{Results: results}, nil
		}
	}

	// Overfetch per path so merging by id has slack before truncation.
	fetch := topK * 2

	var (
		wg     sync.WaitGroup
		vCands []vector.Candidate
		vErr   error
		kCands []core.ScoredCandidate
		kErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vctx, cancel := context.WithTimeout(ctx, s.vectorTimeout)
		defer cancel()
		vCands, vErr = s.vector.Search(vctx, query, fetch, filter)
	}()
	go func() {
		defer wg.Done()
		kCands, kErr = s.keyword.Score(query, fetch)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if vErr != nil && kErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllPathsFailed, errors.Join(vErr, kErr))
	}

	res := &Result{}

	var vScored []core.ScoredCandidate
	if vErr != nil {
		s.logger.Warn("vector path failed, degrading to keyword-only search", "query", query, "err", vErr)
		monitor.PathFailed(PathVector, vErr)
		res.Degraded = true
		res.FailedPaths = append(res.FailedPaths, PathVector)
	} else {
		vScored = vector.Similarities(vCands)
		monitor.AfterVectorSearch(candidateIds(vScored))
	}

	if kErr != nil {
		s.logger.Warn("keyword path failed, degrading to vector-only search", "query", query, "err", kErr)
		monitor.PathFailed(PathKeyword, kErr)
		res.Degraded = true
		res.FailedPaths = append(res.FailedPaths, PathKeyword)
	} else {
		kCands = filterCandidates(kCands, filter)
		monitor.AfterKeywordSearch(candidateIds(kCands))
	}

	results := Merge(vScored, kCands, weights, s.boost)
	if len(results) > topK {
		results = results[:topK]
	}
	res.Results = results

	if cacheable && !res.Degraded {
		s.cache.Add(key, cacheEntry{results: copyResults(results)})
	}

	monitor.Finish(results)
	return res, nil
}

// InvalidateCache drops every cached ranking. Call it whenever the
// underlying indexes swap to a new generation.
func (s *Searcher) InvalidateCache() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// CacheLen reports how many rankings are currently cached.
func (s *Searcher) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// filterCandidates applies the equality filter to the keyword path, which
// scores the whole corpus and cannot filter at the source the way the
// vector index does.
func filterCandidates(cands []core.ScoredCandidate, filter core.Filter) []core.ScoredCandidate {
	if len(filter) == 0 {
		return cands
	}
	out := make([]core.ScoredCandidate, 0, len(cands))
	for _, c := range cands {
		if c.Metadata.Matches(filter) {
			out = append(out, c)
		}
	}
	return out
}

func candidateIds(cands []core.ScoredCandidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.Id
	}
	return ids
}

// copyResults deep-copies rankings crossing the cache boundary so callers
// can never mutate a cached entry.
func copyResults(in []core.HybridResult) []core.HybridResult {
	out := make([]core.HybridResult, len(in))
	for i, r := range in {
		r.Metadata = r.Metadata.Clone()
		out[i] = r
	}
	return out
}

func cacheKey(query string, topK int, filter core.Filter) string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%d|", topK)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s&", k, filter[k])
	}
	b.WriteByte('|')
	b.WriteString(query)
	return b.String()
}
