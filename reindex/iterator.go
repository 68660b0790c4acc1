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

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
)

const (
	// DefaultBatchSize is the default number of documents to process in each batch
	DefaultBatchSize = 100
)

// DocumentIterator iterates over the documents of one or more collections
// in batches. Batches never mix collections.
type DocumentIterator struct {
	repo        storage.DocumentRepository
	collections []core.Collection
	batchSize   int
}

// NewDocumentIterator creates a new document iterator.
// collections: collections to walk, in order (nil means every default collection)
// batchSize: number of documents per batch (must be > 0)
func NewDocumentIterator(repo storage.DocumentRepository, collections []core.Collection, batchSize int) *DocumentIterator {
	if len(collections) == 0 {
		collections = core.DefaultCollections()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &DocumentIterator{
		repo:        repo,
		collections: collections,
		batchSize:   batchSize,
	}
}

// ForEach iterates over all documents, calling fn for each batch.
// Iteration stops on first error from fn or when all documents are processed.
// Context cancellation is checked between batches.
func (it *DocumentIterator) ForEach(ctx context.Context, fn func([]*core.Document) error) error {
	// Check context before starting
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for _, collection := range it.collections {
		var docs []*core.Document
		err := it.repo.ScanCollection(ctx, collection, func(doc *core.Document) error {
			docs = append(docs, doc)
			return nil
		})
		if err != nil {
			return err
		}

		// Process documents in batches of batchSize
		for i := 0; i < len(docs); i += it.batchSize {
			end := min(i+it.batchSize, len(docs))

			// Call user function with batch
			if err := fn(docs[i:end]); err != nil {
				return err
			}

			// Check context after each batch
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}

	return nil
}
