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


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
)

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of documents to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer orchestrates the re-embedding of every stored document, which is
// needed after switching embedding models.
type Reindexer struct {
	repo        storage.DocumentRepository
	embedder    ai.Embedder
	collections []core.Collection
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *DocumentIterator
}

// NewReindexer creates a new reindexer over the given collections (nil means
// every default collection).
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(repo storage.DocumentRepository, embedder ai.Embedder, collections []core.Collection, config *Config, progress io.Writer) *Reindexer {
	if len(collections) == 0 {
		collections = core.DefaultCollections()
	}
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewDocumentIterator(repo, collections, config.BatchSize)

	return &Reindexer{
		repo:        repo,
		embedder:    embedder,
		collections: collections,
		config:      config,
		progress:    progress,
		processor:   processor,
		iterator:    iterator,
	}
}

// Run executes the reindexing operation.
// Every document in the configured collections is re-embedded with the
// configured embedder. Progress is reported to the configured writer.
func (r *Reindexer) Run(ctx context.Context) error {
	// First, count total documents
	totalDocuments := 0
	for _, collection := range r.collections {
		n, err := r.repo.Count(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to count %s: %w", collection, err)
		}
		totalDocuments += n
	}

	if totalDocuments == 0 {
		fmt.Fprintf(r.progress, "No documents found (0 documents)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d documents (batch size: %d)\n",
		totalDocuments, r.config.BatchSize)

	// Initialize progress tracker
	tracker := NewProgress(r.progress, totalDocuments, r.config.ReportInterval)
	tracker.Begin()

	// Process all documents in batches
	err := r.iterator.ForEach(ctx, func(docs []*core.Document) error {
		// Process this batch
		if err := r.processor.Process(ctx, docs); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		// Update progress
		tracker.Add(len(docs))

		return nil
	})

	if err != nil {
		return err
	}

	// Finish progress tracking
	tracker.Done()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d documents in %v (%.1f documents/sec)\n",
		totalDocuments, elapsed.Round(time.Second), float64(totalDocuments)/elapsed.Seconds())

	return nil
}
