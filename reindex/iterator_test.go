package reindex

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
	"github.com/poiesic/fixit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) storage.DocumentRepository {
	t.Helper()

	repo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return repo
}

func addTestDocuments(t *testing.T, repo storage.DocumentRepository, collection core.Collection, n int) []string {
	t.Helper()
	ctx := context.Background()

	ids := make([]string, n)
	docs := make([]*core.Document, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("%s-%03d", collection, i+1)
		docs[i] = &core.Document{
			Id:         ids[i],
			Collection: collection,
			Text:       fmt.Sprintf("part description %d", i+1),
		}
	}
	require.NoError(t, repo.PutDocuments(ctx, docs...))
	return ids
}

func TestDocumentIterator_Basic(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	addTestDocuments(t, repo, core.CollectionPartsRefrigerator, 3)

	// Iterate all documents
	iter := NewDocumentIterator(repo, []core.Collection{core.CollectionPartsRefrigerator}, 2)
	count := 0
	var ids []string

	err := iter.ForEach(ctx, func(docs []*core.Document) error {
		count += len(docs)
		for _, d := range docs {
			ids = append(ids, d.Id)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, count, "should iterate all 3 documents")
	assert.Len(t, ids, 3, "should have 3 ids")
}

func TestDocumentIterator_BatchSizes(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	addTestDocuments(t, repo, core.CollectionPartsRefrigerator, 10)

	tests := []struct {
		name          string
		batchSize     int
		expectedBatch int
	}{
		{"batch size 1", 1, 10},
		{"batch size 3", 3, 4}, // 3+3+3+1
		{"batch size 5", 5, 2}, // 5+5
		{"batch size 10", 10, 1},
		{"batch size 100", 100, 1}, // All in one batch
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iter := NewDocumentIterator(repo, []core.Collection{core.CollectionPartsRefrigerator}, tt.batchSize)
			batchCount := 0
			totalDocuments := 0

			err := iter.ForEach(ctx, func(docs []*core.Document) error {
				batchCount++
				totalDocuments += len(docs)
				assert.LessOrEqual(t, len(docs), tt.batchSize, "batch should not exceed batchSize")
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedBatch, batchCount, "batch count")
			assert.Equal(t, 10, totalDocuments, "total documents")
		})
	}
}

func TestDocumentIterator_EmptyDatabase(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	iter := NewDocumentIterator(repo, nil, 10)
	called := false

	err := iter.ForEach(ctx, func(docs []*core.Document) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called, "callback should not be called for empty database")
}

func TestDocumentIterator_ErrorHandling(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	addTestDocuments(t, repo, core.CollectionPartsRefrigerator, 2)

	iter := NewDocumentIterator(repo, []core.Collection{core.CollectionPartsRefrigerator}, 1)
	called := 0

	expectedErr := assert.AnError
	err := iter.ForEach(ctx, func(docs []*core.Document) error {
		called++
		if called == 1 {
			return expectedErr
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, expectedErr, err, "should return callback error")
	assert.Equal(t, 1, called, "should stop on first error")
}

func TestDocumentIterator_ContextCancellation(t *testing.T) {
	repo := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())

	addTestDocuments(t, repo, core.CollectionPartsRefrigerator, 5)

	iter := NewDocumentIterator(repo, []core.Collection{core.CollectionPartsRefrigerator}, 1)
	called := 0

	err := iter.ForEach(ctx, func(docs []*core.Document) error {
		called++
		if called == 2 {
			cancel()
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, called, "should process until context canceled")
}

func TestDocumentIterator_CollectionBoundaries(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	addTestDocuments(t, repo, core.CollectionPartsRefrigerator, 2)
	addTestDocuments(t, repo, core.CollectionPartsDishwasher, 2)

	// Batch size larger than either collection: batches still never mix
	iter := NewDocumentIterator(repo, []core.Collection{
		core.CollectionPartsRefrigerator,
		core.CollectionPartsDishwasher,
	}, 10)

	var batches [][]*core.Document
	err := iter.ForEach(ctx, func(docs []*core.Document) error {
		batches = append(batches, docs)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, batches, 2, "one batch per collection")

	for _, doc := range batches[0] {
		assert.Equal(t, core.CollectionPartsRefrigerator, doc.Collection)
	}
	for _, doc := range batches[1] {
		assert.Equal(t, core.CollectionPartsDishwasher, doc.Collection)
	}
}

func TestDocumentIterator_DefaultCollections(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	addTestDocuments(t, repo, core.CollectionRepairSymptoms, 1)
	addTestDocuments(t, repo, core.CollectionBlogArticles, 1)

	iter := NewDocumentIterator(repo, nil, 10)
	count := 0

	err := iter.ForEach(ctx, func(docs []*core.Document) error {
		count += len(docs)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, count, "nil collections should cover every default collection")
}

func TestDocumentIterator_InvalidBatchSize(t *testing.T) {
	repo := setupTestDB(t)

	// Zero batch size should be handled gracefully
	iter := NewDocumentIterator(repo, nil, 0)
	assert.Greater(t, iter.batchSize, 0, "should use default batch size for invalid input")

	// Negative batch size
	iter = NewDocumentIterator(repo, nil, -10)
	assert.Greater(t, iter.batchSize, 0, "should use default batch size for negative input")
}
