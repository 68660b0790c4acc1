package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
)

// embeddingProcessor generates embeddings for stored documents.
type embeddingProcessor struct {
	documents   storage.DocumentRepository
	checkpoints storage.CheckpointRepository
	embedder    ai.Embedder
	logger      *slog.Logger

	mu   sync.Mutex
	last map[core.Collection]string // highest id embedded per collection
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(documents storage.DocumentRepository, checkpoints storage.CheckpointRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if documents == nil {
		return nil, fmt.Errorf("document repository required")
	}
	if checkpoints == nil {
		return nil, fmt.Errorf("checkpoint repository required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		documents:   documents,
		checkpoints: checkpoints,
		embedder:    embedder,
		logger:      logger.With("processor", "embeddings"),
		last:        make(map[core.Collection]string),
	}, nil
}

// process generates and stores embeddings for the identified documents.
// Documents deleted since they were queued are skipped.
func (ep *embeddingProcessor) process(ctx context.Context, collection core.Collection, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	ep.logger.Info("processing documents for embeddings", "collection", collection, "documents", len(ids))

	// Sort first so checkpointing works correctly
	slices.Sort(ids)

	docs, err := ep.documents.GetDocuments(ctx, collection, ids...)
	if err != nil {
		ep.logger.Error("error retrieving documents", "err", err)
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	ep.logger.Debug("generating embeddings for documents", "documents", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(docs) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(docs), len(embeddings))
	}

	for i := range embeddings {
		docs[i].Vector = embeddings[i]
	}

	if err := ep.documents.PutDocuments(ctx, docs...); err != nil {
		return err
	}

	// GetDocuments preserves request order, so the last document carries
	// the highest id of the batch.
	highest := docs[len(docs)-1].Id
	ep.mu.Lock()
	if highest > ep.last[collection] {
		ep.last[collection] = highest
	}
	ep.mu.Unlock()

	return nil
}

// checkpoint persists the highest embedded document id for the collection.
func (ep *embeddingProcessor) checkpoint(ctx context.Context, collection core.Collection) error {
	ep.mu.Lock()
	last := ep.last[collection]
	ep.mu.Unlock()

	if last == "" {
		return nil
	}

	return ep.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType:   embeddingCheckpoint(collection),
		LastProcessedId: last,
	})
}

// embeddingCheckpoint names the checkpoint slot tracking a collection's
// embedding progress.
func embeddingCheckpoint(collection core.Collection) string {
	return "embedding:" + string(collection)
}
