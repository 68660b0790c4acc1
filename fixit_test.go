package fixit

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/fixit/ai/mock"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/hybrid"
	"github.com/poiesic/fixit/ingestion"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New("", WithInMemory(),
		WithProvider(mock.NewMockProvider()),
		WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func ingestTestDocs(t *testing.T, e *Engine, collection core.Collection, sources ...ingestion.Source) {
	t.Helper()
	pipeline, err := e.NewIngestionPipeline(ingestion.WithLogger(quietLogger()))
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Ingest(context.Background(), collection, sources, nil)
	require.NoError(t, err)
	pipeline.Wait()
}

func TestNewEngine(t *testing.T) {
	t.Run("create new engine", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "fixit_db")
		e, err := New(tmpDir,
			WithProvider(mock.NewMockProvider()),
			WithLogger(quietLogger()))
		require.NoError(t, err)
		require.NotNil(t, e)
		defer e.Close()

		assert.NotNil(t, e.Documents())
		assert.NotNil(t, e.Checkpoints())
		assert.NotNil(t, e.Provider())
		assert.NotNil(t, e.Parts())
		assert.NotNil(t, e.Compatibility())
		assert.NotNil(t, e.Troubleshooting())
		assert.NotNil(t, e.Installation())
		assert.NotNil(t, e.Analyzer())

		for _, collection := range core.DefaultCollections() {
			searcher, err := e.Searcher(collection)
			require.NoError(t, err)
			assert.NotNil(t, searcher)
		}
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// A file where the data directory should be
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		e, err := New(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, e)
	})
}

func TestEngine_Close(t *testing.T) {
	e, err := New(t.TempDir(),
		WithProvider(mock.NewMockProvider()),
		WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.NoError(t, e.Close())
}

func TestEngine_FactoryMethods(t *testing.T) {
	e := newTestEngine(t)

	pipeline, err := e.NewIngestionPipeline()
	require.NoError(t, err)
	require.NotNil(t, pipeline)
	pipeline.Release()
}

func TestEngine_Searcher_UnknownCollection(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Searcher(core.Collection("socks"))
	assert.ErrorIs(t, err, ErrUnknownCollection)

	_, err = e.Search(context.Background(), core.Collection("socks"), "query", 5, nil)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestEngine_SearchFlow(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	ingestTestDocs(t, e, core.CollectionRepairSymptoms,
		ingestion.Source{
			Id:       "guide-1",
			Text:     "Ice maker making loud grinding noise",
			Metadata: core.Metadata{"appliance_type": "refrigerator"},
		},
		ingestion.Source{
			Id:   "guide-2",
			Text: "Dishwasher door latch will not close",
		},
	)
	require.NoError(t, e.RefreshIndexes(ctx))

	res, err := e.Search(ctx, core.CollectionRepairSymptoms, "ice maker noise", 5, nil)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.False(t, res.Degraded)
	require.Len(t, res.Results, 2)

	byId := make(map[string]core.HybridResult, len(res.Results))
	for _, r := range res.Results {
		byId[r.Id] = r
	}
	require.Contains(t, byId, "guide-1")
	// guide-1 shares query terms, so both paths found it
	assert.Equal(t, core.OriginBoth, byId["guide-1"].Origin)
	assert.Positive(t, byId["guide-1"].KeywordScore)
}

func TestEngine_RefreshIndexes_EnablesKeywordPath(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	ingestTestDocs(t, e, core.CollectionRepairSymptoms,
		ingestion.Source{Id: "guide-1", Text: "Freezer not freezing food"},
	)

	// Lexical index not built yet: keyword path fails, search degrades
	res, err := e.Search(ctx, core.CollectionRepairSymptoms, "freezer not freezing", 5, nil)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Contains(t, res.FailedPaths, hybrid.PathKeyword)

	require.NoError(t, e.RefreshIndexes(ctx))

	res, err = e.Search(ctx, core.CollectionRepairSymptoms, "freezer not freezing", 5, nil)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	require.NotEmpty(t, res.Results)
	assert.Equal(t, "guide-1", res.Results[0].Id)
}

func TestEngine_Stats(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	ingestTestDocs(t, e, core.CollectionPartsRefrigerator,
		ingestion.Source{Id: "p1", Text: "Door shelf bin"},
		ingestion.Source{Id: "p2", Text: "Ice maker assembly"},
	)
	require.NoError(t, e.RefreshIndexes(ctx))

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, len(core.DefaultCollections()))

	fridge := stats[core.CollectionPartsRefrigerator]
	assert.Equal(t, 2, fridge.Documents)
	assert.Equal(t, 2, fridge.Indexed)

	dish := stats[core.CollectionPartsDishwasher]
	assert.Zero(t, dish.Documents)
	assert.Zero(t, dish.Indexed)
}