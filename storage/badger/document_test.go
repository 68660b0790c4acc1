package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/storage"
)

func newTestRepos(t *testing.T) (storage.DocumentRepository, storage.CheckpointRepository) {
	t.Helper()
	docs, checkpoints, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return docs, checkpoints
}

func partDoc(id, text string, vector []float32, metadata core.Metadata) *core.Document {
	return &core.Document{
		Id:          id,
		Collection:  core.CollectionPartsRefrigerator,
		Text:        text,
		Vector:      vector,
		Metadata:    metadata,
		Fingerprint: core.FingerprintFromContent(text),
	}
}

func TestPutAndGetDocument(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	doc := partDoc("part-1", "Door gasket for refrigerator", []float32{0.1, 0.2}, core.Metadata{"brand": "lg"})
	require.NoError(t, docs.PutDocuments(ctx, doc))

	got, err := docs.GetDocument(ctx, core.CollectionPartsRefrigerator, "part-1")
	require.NoError(t, err)
	assert.Equal(t, "part-1", got.Id)
	assert.Equal(t, "Door gasket for refrigerator", got.Text)
	assert.Equal(t, []float32{0.1, 0.2}, got.Vector)
	assert.Equal(t, "lg", got.Metadata["brand"])
	assert.Equal(t, doc.Fingerprint, got.Fingerprint)
	assert.False(t, got.InsertedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestGetDocument_NotFound(t *testing.T) {
	docs, _ := newTestRepos(t)

	_, err := docs.GetDocument(context.Background(), core.CollectionPartsRefrigerator, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPutDocuments_Invalid(t *testing.T) {
	docs, _ := newTestRepos(t)

	err := docs.PutDocuments(context.Background(), &core.Document{Collection: core.CollectionPartsRefrigerator})
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestPutDocuments_Overwrites(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, docs.PutDocuments(ctx, partDoc("part-1", "old text", nil, nil)))
	require.NoError(t, docs.PutDocuments(ctx, partDoc("part-1", "new text", nil, nil)))

	got, err := docs.GetDocument(ctx, core.CollectionPartsRefrigerator, "part-1")
	require.NoError(t, err)
	assert.Equal(t, "new text", got.Text)

	count, err := docs.Count(ctx, core.CollectionPartsRefrigerator)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetDocuments_SkipsMissing(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, docs.PutDocuments(ctx,
		partDoc("part-1", "one", nil, nil),
		partDoc("part-2", "two", nil, nil),
	))

	got, err := docs.GetDocuments(ctx, core.CollectionPartsRefrigerator, "part-1", "missing", "part-2")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "part-1", got[0].Id)
	assert.Equal(t, "part-2", got[1].Id)
}

func TestScanCollection(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, docs.PutDocuments(ctx,
		partDoc("part-1", "one", nil, nil),
		partDoc("part-2", "two", nil, nil),
		partDoc("part-3", "three", nil, nil),
	))

	// Another collection must not leak into the scan.
	require.NoError(t, docs.PutDocuments(ctx, &core.Document{
		Id:         "blog-1",
		Collection: core.CollectionBlogArticles,
		Text:       "article",
	}))

	var seen []string
	err := docs.ScanCollection(ctx, core.CollectionPartsRefrigerator, func(doc *core.Document) error {
		seen = append(seen, doc.Id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"part-1", "part-2", "part-3"}, seen)
}

func TestScanCollection_StopsOnError(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, docs.PutDocuments(ctx,
		partDoc("part-1", "one", nil, nil),
		partDoc("part-2", "two", nil, nil),
	))

	calls := 0
	err := docs.ScanCollection(ctx, core.CollectionPartsRefrigerator, func(doc *core.Document) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
}

func TestDeleteDocuments(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, docs.PutDocuments(ctx,
		partDoc("part-1", "one", nil, nil),
		partDoc("part-2", "two", nil, nil),
	))

	require.NoError(t, docs.DeleteDocuments(ctx, core.CollectionPartsRefrigerator, "part-1"))

	_, err := docs.GetDocument(ctx, core.CollectionPartsRefrigerator, "part-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Fingerprint index entry goes with the record.
	fps, err := docs.Fingerprints(ctx, core.CollectionPartsRefrigerator)
	require.NoError(t, err)
	assert.NotContains(t, fps, "part-1")
	assert.Contains(t, fps, "part-2")
}

func TestDeleteDocuments_NotFound(t *testing.T) {
	docs, _ := newTestRepos(t)

	err := docs.DeleteDocuments(context.Background(), core.CollectionPartsRefrigerator, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteCollection(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, docs.PutDocuments(ctx,
		partDoc("part-1", "one", nil, nil),
		partDoc("part-2", "two", nil, nil),
		partDoc("part-3", "three", nil, nil),
	))

	deleted, err := docs.DeleteCollection(ctx, core.CollectionPartsRefrigerator)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)

	count, err := docs.Count(ctx, core.CollectionPartsRefrigerator)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	fps, err := docs.Fingerprints(ctx, core.CollectionPartsRefrigerator)
	require.NoError(t, err)
	assert.Empty(t, fps)
}

func TestDeleteCollection_Empty(t *testing.T) {
	docs, _ := newTestRepos(t)

	deleted, err := docs.DeleteCollection(context.Background(), core.CollectionPartsDishwasher)
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
}

func TestCount(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	count, err := docs.Count(ctx, core.CollectionPartsRefrigerator)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, docs.PutDocuments(ctx,
		partDoc("part-1", "one", nil, nil),
		partDoc("part-2", "two", nil, nil),
	))

	count, err = docs.Count(ctx, core.CollectionPartsRefrigerator)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFingerprints(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	one := partDoc("part-1", "one", nil, nil)
	two := partDoc("part-2", "two", nil, nil)
	require.NoError(t, docs.PutDocuments(ctx, one, two))

	fps, err := docs.Fingerprints(ctx, core.CollectionPartsRefrigerator)
	require.NoError(t, err)
	require.Len(t, fps, 2)
	assert.Equal(t, one.Fingerprint, fps["part-1"])
	assert.Equal(t, two.Fingerprint, fps["part-2"])
}

func TestFindSimilar(t *testing.T) {
	docs, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, docs.PutDocuments(ctx,
		partDoc("near", "near", []float32{1, 0, 0}, core.Metadata{"brand": "lg"}),
		partDoc("mid", "mid", []float32{0.7, 0.7, 0}, core.Metadata{"brand": "samsung"}),
		partDoc("far", "far", []float32{0, 0, 1}, core.Metadata{"brand": "lg"}),
		partDoc("unembedded", "pending", nil, core.Metadata{"brand": "lg"}),
	))

	query := []float32{1, 0, 0}

	t.Run("ordered by distance ascending", func(t *testing.T) {
		matches, err := docs.FindSimilar(ctx, core.CollectionPartsRefrigerator, query, 2, 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "near", matches[0].Document.Id)
		assert.Equal(t, "mid", matches[1].Document.Id)
		assert.Equal(t, "far", matches[2].Document.Id)
		for i := 0; i < len(matches)-1; i++ {
			assert.LessOrEqual(t, matches[i].Distance, matches[i+1].Distance)
		}
	})

	t.Run("skips documents without embeddings", func(t *testing.T) {
		matches, err := docs.FindSimilar(ctx, core.CollectionPartsRefrigerator, query, 2, 10, nil)
		require.NoError(t, err)
		for _, m := range matches {
			assert.NotEqual(t, "unembedded", m.Document.Id)
		}
	})

	t.Run("max distance cuts far candidates", func(t *testing.T) {
		matches, err := docs.FindSimilar(ctx, core.CollectionPartsRefrigerator, query, 0.5, 10, nil)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "near", matches[0].Document.Id)
	})

	t.Run("limit truncates", func(t *testing.T) {
		matches, err := docs.FindSimilar(ctx, core.CollectionPartsRefrigerator, query, 2, 1, nil)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "near", matches[0].Document.Id)
	})

	t.Run("filter applies before ranking", func(t *testing.T) {
		matches, err := docs.FindSimilar(ctx, core.CollectionPartsRefrigerator, query, 2, 10, core.Filter{"brand": "lg"})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "near", matches[0].Document.Id)
		assert.Equal(t, "far", matches[1].Document.Id)
	})

	t.Run("empty collection", func(t *testing.T) {
		matches, err := docs.FindSimilar(ctx, core.CollectionPartsDishwasher, query, 2, 10, nil)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{0, 1, 0},
			expected: 1,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: 2,
		},
		{
			name:     "scale invariant",
			a:        []float32{1, 0},
			b:        []float32{5, 0},
			expected: 0,
		},
		{
			name:     "dimension mismatch is maximally distant",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0},
			expected: 2,
		},
		{
			name:     "zero vector is maximally distant",
			a:        []float32{0, 0},
			b:        []float32{1, 0},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, cosineDistance(tt.a, tt.b), 0.0001)
		})
	}
}

func TestCheckpointRepository(t *testing.T) {
	_, checkpoints := newTestRepos(t)
	ctx := context.Background()

	t.Run("load missing returns nil", func(t *testing.T) {
		cp, err := checkpoints.LoadCheckpoint(ctx, "embedding")
		require.NoError(t, err)
		assert.Nil(t, cp)
	})

	t.Run("save and load", func(t *testing.T) {
		err := checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
			ProcessorType:   "embedding",
			LastProcessedId: "part-42",
		})
		require.NoError(t, err)

		cp, err := checkpoints.LoadCheckpoint(ctx, "embedding")
		require.NoError(t, err)
		require.NotNil(t, cp)
		assert.Equal(t, "embedding", cp.ProcessorType)
		assert.Equal(t, "part-42", cp.LastProcessedId)
		assert.False(t, cp.UpdatedAt.IsZero())
	})

	t.Run("save overwrites", func(t *testing.T) {
		err := checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
			ProcessorType:   "embedding",
			LastProcessedId: "part-99",
		})
		require.NoError(t, err)

		cp, err := checkpoints.LoadCheckpoint(ctx, "embedding")
		require.NoError(t, err)
		require.NotNil(t, cp)
		assert.Equal(t, "part-99", cp.LastProcessedId)
	})
}
