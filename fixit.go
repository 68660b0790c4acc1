// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package fixit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/ai/openai"
	"github.com/poiesic/fixit/bm25"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/hybrid"
	"github.com/poiesic/fixit/ingestion"
	"github.com/poiesic/fixit/retrieval"
	"github.com/poiesic/fixit/storage"
	"github.com/poiesic/fixit/storage/badger"
	"github.com/poiesic/fixit/vector"
)

// ErrUnknownCollection is returned when a search names a collection the
// engine does not carry.
var ErrUnknownCollection = errors.New("unknown collection")

// repairWeights weigh the lexical path up to par with the vector path for
// the repair guides, so exact symptom phrases and error codes rank alongside
// semantic matches.
var repairWeights = hybrid.Weights{Vector: 0.5, Keyword: 0.5}

// Engine wires storage, the AI provider, and the per-collection search
// stack (lexical scorer, vector searcher, hybrid searcher) behind one
// handle, and exposes the domain retrievers built on top of them.
type Engine struct {
	backend     *badger.Backend
	documents   storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	provider    ai.AIProvider

	scorers   map[core.Collection]*bm25.Scorer
	searchers map[core.Collection]*hybrid.Searcher
	vectors   map[core.Collection]*vector.Local

	parts           *retrieval.PartSearch
	compatibility   *retrieval.Compatibility
	troubleshooting *retrieval.Troubleshooting
	installation    *retrieval.Installation
	analyzer        *retrieval.FallbackAnalyzer

	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithAIConfig sets the configuration for the default OpenAI-compatible
// provider. Ignored when WithProvider is set.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider instead of constructing one
// from config. The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps storage in memory instead of on disk; the data
// directory is ignored. For tests and ephemeral runs.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// New opens an engine over the data directory. Lexical indexes start empty;
// call RefreshIndexes once documents exist to enable the keyword path.
func New(dataDir string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(dataDir, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents := badger.NewDocumentRepository(backend)
	checkpoints := badger.NewCheckpointRepository(backend)

	// AI provider: injected, or built from config
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	e := &Engine{
		backend:     backend,
		documents:   documents,
		checkpoints: checkpoints,
		provider:    provider,
		scorers:     make(map[core.Collection]*bm25.Scorer),
		searchers:   make(map[core.Collection]*hybrid.Searcher),
		vectors:     make(map[core.Collection]*vector.Local),
		logger:      options.logger,
	}

	if err := e.buildSearchStack(); err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return e, nil
}

// buildSearchStack constructs the scorer, vector searcher, and hybrid
// searcher for every collection, then the retrievers over them.
func (e *Engine) buildSearchStack() error {
	for _, collection := range core.DefaultCollections() {
		scorer, err := bm25.New()
		if err != nil {
			return err
		}

		local, err := vector.NewLocal(e.documents, e.provider.Embedder(), collection,
			vector.WithLogger(e.logger))
		if err != nil {
			return err
		}

		weights := hybrid.DefaultWeights()
		if collection == core.CollectionRepairSymptoms {
			weights = repairWeights
		}
		searcher, err := hybrid.NewSearcher(local, scorer,
			hybrid.WithWeights(weights),
			hybrid.WithLogger(e.logger))
		if err != nil {
			return err
		}

		e.scorers[collection] = scorer
		e.vectors[collection] = local
		e.searchers[collection] = searcher
	}

	retrieverOpts := []retrieval.Option{retrieval.WithLogger(e.logger)}

	parts, err := retrieval.NewPartSearch(
		e.vectors[core.CollectionPartsRefrigerator],
		e.vectors[core.CollectionPartsDishwasher],
		retrieverOpts...)
	if err != nil {
		return err
	}

	compatibility, err := retrieval.NewCompatibility(
		e.vectors[core.CollectionPartsRefrigerator],
		e.vectors[core.CollectionPartsDishwasher],
		retrieverOpts...)
	if err != nil {
		return err
	}

	troubleshooting, err := retrieval.NewTroubleshooting(
		e.searchers[core.CollectionRepairSymptoms],
		e.vectors[core.CollectionRepairSymptoms],
		e.vectors[core.CollectionBlogArticles],
		retrieverOpts...)
	if err != nil {
		return err
	}

	installation, err := retrieval.NewInstallation(
		e.searchers[core.CollectionRepairSymptoms],
		e.vectors[core.CollectionRepairSymptoms],
		e.vectors[core.CollectionBlogArticles],
		e.vectors[core.CollectionPartsRefrigerator],
		e.vectors[core.CollectionPartsDishwasher],
		retrieverOpts...)
	if err != nil {
		return err
	}

	analyzer, err := retrieval.NewFallbackAnalyzer(e.provider.QueryAnalyzer(), retrieverOpts...)
	if err != nil {
		return err
	}

	e.parts = parts
	e.compatibility = compatibility
	e.troubleshooting = troubleshooting
	e.installation = installation
	e.analyzer = analyzer

	return nil
}

// RefreshIndexes rebuilds every collection's lexical index from storage and
// drops cached rankings. Searches keep serving the previous index until its
// collection's swap; call after seeding or re-embedding.
func (e *Engine) RefreshIndexes(ctx context.Context) error {
	for _, collection := range core.DefaultCollections() {
		if err := e.refreshCollection(ctx, collection); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) refreshCollection(ctx context.Context, collection core.Collection) error {
	var docs []core.IndexedDocument
	err := e.documents.ScanCollection(ctx, collection, func(doc *core.Document) error {
		docs = append(docs, doc.Indexed())
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", collection, err)
	}

	if err := e.scorers[collection].Index(docs); err != nil {
		return fmt.Errorf("index %s: %w", collection, err)
	}
	e.searchers[collection].InvalidateCache()

	e.logger.Info("lexical index rebuilt", "collection", collection, "documents", len(docs))
	return nil
}

// Search runs a hybrid query against one collection.
func (e *Engine) Search(ctx context.Context, collection core.Collection, query string, topK int, filter core.Filter) (*hybrid.Result, error) {
	searcher, err := e.Searcher(collection)
	if err != nil {
		return nil, err
	}
	return searcher.Search(ctx, query, topK, filter)
}

// Searcher returns the hybrid searcher for one collection.
func (e *Engine) Searcher(collection core.Collection) (*hybrid.Searcher, error) {
	searcher, ok := e.searchers[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return searcher, nil
}

// CollectionStats is one collection's footprint.
type CollectionStats struct {
	// Documents is the stored document count.
	Documents int
	// Indexed is the lexical index entry count from the last refresh.
	Indexed int
}

// Stats reports every collection's footprint.
func (e *Engine) Stats(ctx context.Context) (map[core.Collection]CollectionStats, error) {
	stats := make(map[core.Collection]CollectionStats, len(e.scorers))
	for _, collection := range core.DefaultCollections() {
		count, err := e.documents.Count(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", collection, err)
		}
		stats[collection] = CollectionStats{
			Documents: count,
			Indexed:   e.scorers[collection].DocumentCount(),
		}
	}
	return stats, nil
}

func (e *Engine) Close() error {
	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Documents() storage.DocumentRepository {
	return e.documents
}

func (e *Engine) Checkpoints() storage.CheckpointRepository {
	return e.checkpoints
}

func (e *Engine) Provider() ai.AIProvider {
	return e.provider
}

// Parts is the catalog search retriever.
func (e *Engine) Parts() *retrieval.PartSearch {
	return e.parts
}

// Compatibility is the model-fit retriever.
func (e *Engine) Compatibility() *retrieval.Compatibility {
	return e.compatibility
}

// Troubleshooting is the symptom diagnosis retriever.
func (e *Engine) Troubleshooting() *retrieval.Troubleshooting {
	return e.troubleshooting
}

// Installation is the replacement guide retriever.
func (e *Engine) Installation() *retrieval.Installation {
	return e.installation
}

// Analyzer is the query analyzer, falling back to keyword dictionaries when
// the model path fails.
func (e *Engine) Analyzer() *retrieval.FallbackAnalyzer {
	return e.analyzer
}

func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(e.documents, e.checkpoints, e.provider, opts...)
}
