package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/fixit"
	"github.com/poiesic/fixit/ai"
	"github.com/poiesic/fixit/ai/mock"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/ingestion"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*Server, *fixit.Engine) {
	t.Helper()
	return newTestServerWithProvider(t, mock.NewMockProvider())
}

func newTestServerWithProvider(t *testing.T, provider ai.AIProvider) (*Server, *fixit.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine, err := fixit.New("", fixit.WithInMemory(),
		fixit.WithProvider(provider),
		fixit.WithLogger(quietLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	srv, err := NewServer(engine, ":0", WithLogger(quietLogger()))
	require.NoError(t, err)
	return srv, engine
}

func ingestDocs(t *testing.T, engine *fixit.Engine, collection core.Collection, sources ...ingestion.Source) {
	t.Helper()
	pipeline, err := engine.NewIngestionPipeline(ingestion.WithLogger(quietLogger()))
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.Ingest(context.Background(), collection, sources, nil)
	require.NoError(t, err)
	pipeline.Wait()
}

// seedCorpus loads a small cross-collection corpus and rebuilds the lexical
// indexes, mirroring the seed-then-refresh startup flow.
func seedCorpus(t *testing.T, engine *fixit.Engine) {
	t.Helper()

	ingestDocs(t, engine, core.CollectionPartsRefrigerator,
		ingestion.Source{
			Id:   "ps11752778",
			Text: "Refrigerator Door Shelf Bin. Replacement bin for the fresh food door. Brand: Whirlpool",
			Metadata: core.Metadata{
				"source":         "parts_catalog",
				"appliance_type": "refrigerator",
				"brand":          "whirlpool",
				"part_type":      "door_shelf_bin",
				"stock_status":   "in_stock",
				"price":          "36.08",
			},
		},
		ingestion.Source{
			Id:   "ps12364199",
			Text: "Refrigerator Ice Maker Assembly. Complete ice maker unit with motor module. Brand: GE",
			Metadata: core.Metadata{
				"source":         "parts_catalog",
				"appliance_type": "refrigerator",
				"brand":          "ge",
				"part_type":      "ice_maker",
				"stock_status":   "out_of_stock",
			},
		},
	)

	ingestDocs(t, engine, core.CollectionPartsDishwasher,
		ingestion.Source{
			Id:   "ps8260087",
			Text: "Dishwasher Lower Spray Arm. Spins to spray water across the lower rack. Brand: Bosch",
			Metadata: core.Metadata{
				"source":         "parts_catalog",
				"appliance_type": "dishwasher",
				"brand":          "bosch",
				"part_type":      "spray_arm",
				"stock_status":   "in_stock",
			},
		},
	)

	ingestDocs(t, engine, core.CollectionRepairSymptoms,
		ingestion.Source{
			Id:   "warm_part_1",
			Text: "Symptom: Refrigerator too warm. Part: Evaporator Fan Motor. Description: Circulates cold air from the freezer into the fresh food section.",
			Metadata: core.Metadata{
				"source":         "repair_guide",
				"appliance_type": "refrigerator",
				"symptom_name":   "Refrigerator too warm",
				"difficulty":     "easy",
				"part_name":      "Evaporator Fan Motor",
				"has_video":      "true",
			},
		},
		ingestion.Source{
			Id:   "warm_part_1_guide_1",
			Text: "Replacing the evaporator fan motor: unplug the refrigerator, remove the rear freezer panel, swap the motor, and reconnect the harness.",
			Metadata: core.Metadata{
				"source":            "repair_guide",
				"appliance_type":    "refrigerator",
				"repair_guide_type": "replacement",
				"part_name":         "Evaporator Fan Motor",
				"has_video":         "false",
			},
		},
	)

	ingestDocs(t, engine, core.CollectionBlogArticles,
		ingestion.Source{
			Id:   "b1_chunk_1",
			Text: "How to clean refrigerator condenser coils. Dusty coils make the compressor work harder and raise energy use.",
			Metadata: core.Metadata{
				"source":       "blog_article",
				"title":        "How to Clean Condenser Coils",
				"chunk_number": "1",
			},
		},
	)

	require.NoError(t, engine.RefreshIndexes(context.Background()))
}

func do(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func hitIds(hits []hitPayload) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.Id
	}
	return ids
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res map[string]string
	decode(t, rec, &res)
	assert.Equal(t, "ok", res["status"])
}

func TestRequestIdEchoed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "trace-42")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "trace-42", rec.Header().Get("X-Request-Id"))
}

func TestGzipResponses(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	defer zr.Close()

	var res map[string]string
	require.NoError(t, json.NewDecoder(zr).Decode(&res))
	assert.Equal(t, "ok", res["status"])
}

func TestPartsSearchEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seedCorpus(t, engine)

	t.Run("by appliance", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/parts/search", map[string]any{
			"query":          "door shelf bin",
			"appliance_type": "refrigerator",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res retrieverResponse
		decode(t, rec, &res)
		assert.Equal(t, "door shelf bin", res.Query)
		assert.False(t, res.Degraded)
		assert.Contains(t, hitIds(res.Hits), "ps11752778")
		for _, h := range res.Hits {
			assert.Equal(t, "parts_refrigerator", h.Collection)
			assert.Equal(t, "parts_catalog", h.Source)
		}
	})

	t.Run("in stock only", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/parts/search", map[string]any{
			"query":          "ice maker",
			"appliance_type": "refrigerator",
			"in_stock_only":  true,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res retrieverResponse
		decode(t, rec, &res)
		ids := hitIds(res.Hits)
		assert.Contains(t, ids, "ps11752778")
		assert.NotContains(t, ids, "ps12364199")
	})

	t.Run("brand filter", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/parts/search", map[string]any{
			"query": "ice maker",
			"brand": "GE",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res retrieverResponse
		decode(t, rec, &res)
		require.Len(t, res.Hits, 1)
		assert.Equal(t, "ps12364199", res.Hits[0].Id)
	})

	t.Run("missing query", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/parts/search", map[string]any{
			"appliance_type": "refrigerator",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown appliance", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/parts/search", map[string]any{
			"query":          "heating element",
			"appliance_type": "toaster",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var res map[string]string
		decode(t, rec, &res)
		assert.Contains(t, res["error"], "unknown appliance type")
	})
}

func TestCompatibilityEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seedCorpus(t, engine)

	t.Run("by model number", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/compatibility", map[string]any{
			"model_number":   "WDT780SAEM1",
			"appliance_type": "dishwasher",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res compatibilityResponse
		decode(t, rec, &res)
		assert.Equal(t, "WDT780SAEM1", res.ModelNumber)
		assert.Equal(t, "parts for WDT780SAEM1", res.Query)
		assert.Contains(t, hitIds(res.Hits), "ps8260087")
	})

	t.Run("part type filter", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/compatibility", map[string]any{
			"part_type": "Spray Arm",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res compatibilityResponse
		decode(t, rec, &res)
		assert.Equal(t, "spray_arm", res.PartType)
		require.Len(t, res.Hits, 1)
		assert.Equal(t, "ps8260087", res.Hits[0].Id)
	})

	t.Run("nothing to search", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/compatibility", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTroubleshootEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seedCorpus(t, engine)

	t.Run("diagnoses issue", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/troubleshoot", map[string]any{
			"issue":          "refrigerator too warm",
			"appliance_type": "refrigerator",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res retrieverResponse
		decode(t, rec, &res)
		assert.Equal(t, "refrigerator too warm", res.Query)
		assert.False(t, res.Degraded)
		assert.Contains(t, hitIds(res.Hits), "warm_part_1")
	})

	t.Run("missing issue", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/troubleshoot", map[string]any{
			"appliance_type": "refrigerator",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestInstallationEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seedCorpus(t, engine)

	t.Run("finds replacement guide", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/installation", map[string]any{
			"part_name":      "evaporator fan motor",
			"appliance_type": "refrigerator",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res installationResponse
		decode(t, rec, &res)
		assert.Equal(t, "evaporator fan motor", res.PartName)
		assert.Equal(t, "install evaporator fan motor", res.Query)
		assert.Contains(t, hitIds(res.Hits), "warm_part_1_guide_1")
		// the diagnostic base entry is not a replacement guide
		assert.NotContains(t, hitIds(res.Hits), "warm_part_1")
	})

	t.Run("missing part", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/installation", map[string]any{
			"appliance_type": "refrigerator",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSearchEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seedCorpus(t, engine)

	t.Run("hybrid search", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{
			"collection": "repair_symptoms",
			"query":      "evaporator fan motor",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res searchResponse
		decode(t, rec, &res)
		assert.Equal(t, "repair_symptoms", res.Collection)
		assert.False(t, res.Degraded)
		require.NotEmpty(t, res.Results)

		var ids []string
		for _, r := range res.Results {
			ids = append(ids, r.Id)
			assert.Greater(t, r.HybridScore, 0.0)
		}
		assert.Contains(t, ids, "warm_part_1")
	})

	t.Run("metadata filter", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{
			"collection": "repair_symptoms",
			"query":      "evaporator fan motor",
			"filter":     map[string]string{"repair_guide_type": "replacement"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res searchResponse
		decode(t, rec, &res)
		require.Len(t, res.Results, 1)
		assert.Equal(t, "warm_part_1_guide_1", res.Results[0].Id)
	})

	t.Run("per-call weights", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{
			"collection": "repair_symptoms",
			"query":      "evaporator fan motor",
			"weights":    map[string]float64{"vector": 0.1, "keyword": 0.9},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res searchResponse
		decode(t, rec, &res)
		assert.NotEmpty(t, res.Results)
	})

	t.Run("negative weights", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{
			"collection": "repair_symptoms",
			"query":      "fan",
			"weights":    map[string]float64{"vector": -1, "keyword": 1},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var res map[string]string
		decode(t, rec, &res)
		assert.Contains(t, res["error"], "weights")
	})

	t.Run("unknown collection", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{
			"collection": "socks",
			"query":      "fan",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/search", map[string]any{
			"collection": "repair_symptoms",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCollectionsEndpoint(t *testing.T) {
	srv, engine := newTestServer(t)
	seedCorpus(t, engine)

	rec := do(t, srv.Handler(), http.MethodGet, "/v1/collections", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Collections []collectionPayload `json:"collections"`
	}
	decode(t, rec, &res)
	require.Len(t, res.Collections, len(core.DefaultCollections()))

	byName := make(map[string]collectionPayload, len(res.Collections))
	for _, c := range res.Collections {
		byName[c.Collection] = c
	}
	assert.Equal(t, 2, byName["parts_refrigerator"].Documents)
	assert.Equal(t, 2, byName["parts_refrigerator"].Indexed)
	assert.Equal(t, 2, byName["repair_symptoms"].Documents)
	assert.Equal(t, 1, byName["blogs_articles"].Documents)
}

func TestQueryEndpoint_RoutesByIntent(t *testing.T) {
	srv, engine := newTestServer(t)
	seedCorpus(t, engine)

	t.Run("product search", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/query", map[string]any{
			"query": "I need a new door shelf bin for my fridge",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res queryResponse
		decode(t, rec, &res)
		assert.Equal(t, "product_search", res.Intent)
		assert.Equal(t, "refrigerator", res.Entities.ApplianceType)
		assert.NotEmpty(t, res.SessionId)
		assert.Contains(t, hitIds(res.Results), "ps11752778")
	})

	t.Run("troubleshooting", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/query", map[string]any{
			"query": "my fridge is making a loud noise",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res queryResponse
		decode(t, rec, &res)
		assert.Equal(t, "troubleshooting", res.Intent)
		assert.Contains(t, hitIds(res.Results), "warm_part_1")
	})

	t.Run("installation", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/query", map[string]any{
			"query": "how to replace the evaporator fan motor",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res queryResponse
		decode(t, rec, &res)
		assert.Equal(t, "installation_guide", res.Intent)
		assert.Contains(t, hitIds(res.Results), "warm_part_1_guide_1")
	})

	t.Run("compatibility", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/query", map[string]any{
			"query": "will part PS11752778 fit my dishwasher",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res queryResponse
		decode(t, rec, &res)
		assert.Equal(t, "compatibility_check", res.Intent)
		assert.Equal(t, "PS11752778", res.Entities.ModelNumber)
		assert.Contains(t, hitIds(res.Results), "ps8260087")
	})

	t.Run("general question", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodPost, "/v1/query", map[string]any{
			"query": "why do condenser coils collect dust",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var res queryResponse
		decode(t, rec, &res)
		assert.Equal(t, "general_question", res.Intent)
		require.NotEmpty(t, res.Results)
		assert.Equal(t, "b1_chunk_1", res.Results[0].Id)
		assert.Equal(t, "blogs_articles", res.Results[0].Collection)
		assert.Equal(t, "blog_article", res.Results[0].Source)
	})
}

func TestQueryEndpoint_SessionCarriesContext(t *testing.T) {
	srv, engine := newTestServer(t)
	seedCorpus(t, engine)

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/query", map[string]any{
		"query": "my fridge is leaking water",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var first queryResponse
	decode(t, rec, &first)
	require.Equal(t, "troubleshooting", first.Intent)
	require.Equal(t, "refrigerator", first.Entities.ApplianceType)
	_, err := uuid.Parse(first.SessionId)
	require.NoError(t, err)

	// the follow-up never names the appliance; the session supplies it
	rec = do(t, srv.Handler(), http.MethodPost, "/v1/query", map[string]any{
		"query":      "how do I install a new evaporator fan motor",
		"session_id": first.SessionId,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var second queryResponse
	decode(t, rec, &second)
	assert.Equal(t, first.SessionId, second.SessionId)
	assert.Equal(t, "installation_guide", second.Intent)
	assert.Equal(t, "refrigerator", second.Entities.ApplianceType)
}

func TestQueryEndpoint_BadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/query", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPartsSearchEndpoint_AllSourcesFailed(t *testing.T) {
	embedder := &mock.MockEmbedder{
		EmbedTextFunc: func(context.Context, string) ([]float32, error) {
			return nil, errors.New("embedder offline")
		},
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockQueryAnalyzer())
	srv, _ := newTestServerWithProvider(t, provider)

	rec := do(t, srv.Handler(), http.MethodPost, "/v1/parts/search", map[string]any{
		"query": "door shelf bin",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
