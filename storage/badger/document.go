package badger

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository on the backend.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{backend: backend}
}

// PutDocuments upserts one or more documents.
func (r *DocumentRepository) PutDocuments(ctx context.Context, docs ...*core.Document) error {
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if doc.InsertedAt.IsZero() {
				doc.InsertedAt = now
			}
			doc.UpdatedAt = now

			key := makeDocumentKey(doc.Collection, doc.Id)
			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}

			// Keep the fingerprint index in step with the record so
			// change detection never decodes full documents.
			fpKey := makeFingerprintKey(doc.Collection, doc.Id)
			if err := tx.Set(fpKey, storage.MarshalFingerprint(doc.Fingerprint)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by collection and id.
func (r *DocumentRepository) GetDocument(ctx context.Context, collection core.Collection, id string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(collection, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by id, skipping missing ones.
func (r *DocumentRepository) GetDocuments(ctx context.Context, collection core.Collection, ids ...string) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(collection, id))
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ScanCollection streams every document in a collection through fn.
func (r *DocumentRepository) ScanCollection(ctx context.Context, collection core.Collection, fn func(*core.Document) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// DeleteDocuments removes documents and their fingerprint index entries.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, collection core.Collection, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeDocumentKey(collection, id)
			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeFingerprintKey(collection, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteCollection removes every document in a collection.
func (r *DocumentRepository) DeleteCollection(ctx context.Context, collection core.Collection) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		keys := collectKeys(tx, makeDocumentPrefix(collection))
		count = len(keys)
		keys = append(keys, collectKeys(tx, makeFingerprintPrefix(collection))...)

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return count, nil
}

// Count reports the number of documents in a collection.
func (r *DocumentRepository) Count(ctx context.Context, collection core.Collection) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Fingerprints returns the stored content fingerprints for a collection.
func (r *DocumentRepository) Fingerprints(ctx context.Context, collection core.Collection) (map[string]core.Fingerprint, error) {
	result := make(map[string]core.Fingerprint)
	prefix := makeFingerprintPrefix(collection)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			id := idFromKey(item.Key(), prefix)
			err := item.Value(func(val []byte) error {
				fp, err := storage.UnmarshalFingerprint(val)
				if err != nil {
					return err
				}
				result[id] = fp
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindSimilar scans a collection for documents close to the query vector.
func (r *DocumentRepository) FindSimilar(ctx context.Context, collection core.Collection, vector []float32, maxDistance float64, limit int, filter core.Filter) ([]*core.SimilarityMatch, error) {
	var results []*core.SimilarityMatch

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}

			// Skip documents the pipeline has not embedded yet.
			if len(doc.Vector) == 0 {
				continue
			}
			if !doc.Metadata.Matches(filter) {
				continue
			}

			distance := cosineDistance(vector, doc.Vector)
			if distance <= maxDistance {
				results = append(results, &core.SimilarityMatch{
					Document: doc,
					Distance: distance,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by distance ascending
	slices.SortFunc(results, func(a, b *core.SimilarityMatch) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// readDocument reads a document from the transaction.
// Returns nil, nil when the key does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// collectKeys gathers every key under a prefix so deletion never mutates
// the iterator's view.
func collectKeys(tx *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys
}

// cosineDistance computes 1 - cos(a, b), ranging 0 (identical direction)
// to 2 (opposite). Incomparable vectors (dimension mismatch, zero
// magnitude) count as maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return 1 - cos
}
