package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/chunk"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
)

// DefaultBatchSize is how many documents are embedded per worker task.
const DefaultBatchSize = 32

// Pipeline orchestrates the ingestion and enrichment of corpus documents.
// Documents are written to storage synchronously, so they are searchable by
// keyword as soon as Ingest returns; embeddings are generated concurrently
// on a worker pool afterwards.
type Pipeline struct {
	documents     storage.DocumentRepository
	checkpoints   storage.CheckpointRepository
	embeddingPool *ants.Pool
	embeddingProc processor
	batchSize     int
	wg            sync.WaitGroup
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.embeddingPool = embeddingPool
		return nil
	}
}

// WithBatchSize sets how many documents each embedding task covers.
// Default is DefaultBatchSize, with a minimum of 1.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	checkpoints storage.CheckpointRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		documents:     documents,
		checkpoints:   checkpoints,
		embeddingPool: embeddingPool,
		batchSize:     DefaultBatchSize,
		logger:        slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create the processor after options are applied (so it gets final config)
	embeddingProc, err := newEmbeddingProcessor(documents, checkpoints, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// Source is one logical unit of corpus content to ingest: a catalog entry,
// an article, a repair guide. Id must be stable across reseeds so unchanged
// content can be detected and skipped.
type Source struct {
	Id       string
	Text     string
	Metadata core.Metadata
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	// Policy controls chunking. The zero value stores each source whole.
	Policy ChunkPolicy

	// Metadata is attached to every document in the batch. Per-source
	// metadata wins on conflicting keys.
	Metadata core.Metadata

	// Timestamp overrides the insertion time (uses current time if zero).
	Timestamp time.Time
}

// IngestStats reports what one Ingest call did.
type IngestStats struct {
	Stored  int // documents written (new or changed content)
	Skipped int // documents whose fingerprint matched the stored copy
	Dropped int // sources empty or below the policy's size floor
}

// Ingest converts sources into documents per the chunk policy, stores them,
// and queues the new or changed ones for embedding. Sources whose content
// fingerprint matches the stored document are skipped entirely. Errors
// during async embedding are logged but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, collection core.Collection, sources []Source, opts *IngestOptions) (IngestStats, error) {
	var stats IngestStats
	if opts == nil {
		opts = &IngestOptions{}
	}
	if len(sources) == 0 {
		return stats, nil
	}

	docs, dropped, err := p.buildDocuments(collection, sources, opts)
	if err != nil {
		return stats, err
	}
	stats.Dropped = dropped

	stored, err := p.documents.Fingerprints(ctx, collection)
	if err != nil {
		return stats, err
	}

	changed := make([]*core.Document, 0, len(docs))
	for _, doc := range docs {
		if fp, ok := stored[doc.Id]; ok && fp == doc.Fingerprint {
			stats.Skipped++
			continue
		}
		changed = append(changed, doc)
	}

	if len(changed) == 0 {
		p.logger.Debug("no changed documents", "collection", collection, "skipped", stats.Skipped)
		return stats, nil
	}

	// Store immediately so documents are keyword-searchable before their
	// embeddings exist.
	if err := p.documents.PutDocuments(ctx, changed...); err != nil {
		return stats, err
	}
	stats.Stored = len(changed)

	ids := make([]string, len(changed))
	for i, doc := range changed {
		ids[i] = doc.Id
	}
	slices.Sort(ids)

	// Submit for async processing
	for batch := range slices.Chunk(ids, p.batchSize) {
		p.wg.Add(1)
		err := p.embeddingPool.Submit(func() {
			defer p.wg.Done()
			if err := p.embeddingProc.process(context.Background(), collection, batch...); err != nil {
				p.logger.Error("error processing embeddings", "collection", collection, "err", err)
				return
			}
			if err := p.embeddingProc.checkpoint(context.Background(), collection); err != nil {
				p.logger.Error("error applying embedding checkpoint", "collection", collection, "err", err)
			}
		})
		if err != nil {
			p.wg.Done()
			return stats, err
		}
	}

	p.logger.Info("ingested sources",
		"collection", collection,
		"stored", stats.Stored,
		"skipped", stats.Skipped,
		"dropped", stats.Dropped)

	return stats, nil
}

// buildDocuments converts sources into documents per the chunk policy.
// Chunked documents get stable "<source id>_chunk_<n>" ids so reseeding an
// unchanged source produces identical fingerprints.
func (p *Pipeline) buildDocuments(collection core.Collection, sources []Source, opts *IngestOptions) ([]*core.Document, int, error) {
	policy := opts.Policy.normalized()

	var chunker *chunk.Chunker
	if policy.Split {
		var err error
		chunker, err = chunk.New(
			chunk.WithMaxTokens(policy.MaxTokens),
			chunk.WithOverlapTokens(policy.OverlapTokens),
		)
		if err != nil {
			return nil, 0, err
		}
	}

	var docs []*core.Document
	dropped := 0
	for _, src := range sources {
		text := strings.TrimSpace(src.Text)
		if text == "" {
			dropped++
			continue
		}
		if policy.MinTokens > 0 && chunk.EstimateTokens(text) < policy.MinTokens {
			dropped++
			continue
		}

		metadata := mergeMetadata(opts.Metadata, src.Metadata)

		if chunker == nil {
			docs = append(docs, newDocument(collection, src.Id, text, metadata, opts.Timestamp))
			continue
		}

		for _, piece := range chunker.Chunk(text) {
			meta := metadata.Clone()
			if meta == nil {
				meta = core.Metadata{}
			}
			meta["chunk_number"] = strconv.Itoa(piece.ChunkNumber)
			meta["total_chunks"] = strconv.Itoa(piece.TotalChunks)

			id := fmt.Sprintf("%s_chunk_%d", src.Id, piece.ChunkNumber)
			docs = append(docs, newDocument(collection, id, piece.Text, meta, opts.Timestamp))
		}
	}

	return docs, dropped, nil
}

func newDocument(collection core.Collection, id, text string, metadata core.Metadata, ts time.Time) *core.Document {
	return &core.Document{
		Id:          id,
		Collection:  collection,
		Text:        text,
		Metadata:    metadata,
		Fingerprint: core.FingerprintFromContent(text),
		InsertedAt:  ts, // zero means storage stamps the current time
	}
}

// mergeMetadata overlays per-source attributes on batch-wide defaults.
func mergeMetadata(base, overlay core.Metadata) core.Metadata {
	if base == nil {
		return overlay.Clone()
	}
	merged := base.Clone()
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// Wait blocks until all queued embedding work has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release releases the embedding worker pool. Call Wait first if queued
// work must finish. The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
