package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/retrieval"
)

type queryRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionId string `json:"session_id"`
	TopK      int    `json:"top_k"`
}

type entitiesPayload struct {
	ApplianceType string   `json:"appliance_type,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	PartType      string   `json:"part_type,omitempty"`
	ModelNumber   string   `json:"model_number,omitempty"`
	IssueKeywords []string `json:"issue_keywords,omitempty"`
	Installation  bool     `json:"installation,omitempty"`
	Comparison    bool     `json:"comparison,omitempty"`
}

type queryResponse struct {
	SessionId  string          `json:"session_id"`
	Intent     string          `json:"intent"`
	Confidence float64         `json:"confidence"`
	Entities   entitiesPayload `json:"entities"`
	Total      int             `json:"total"`
	Degraded   bool            `json:"degraded"`
	Results    []hitPayload    `json:"results"`
}

// query classifies a free-text support question, enriches it with session
// context, and dispatches it to the retriever matching its intent. The turn
// is remembered afterwards so follow-ups can omit what was already said.
func (s *Server) query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()

	sessionId := req.SessionId
	if sessionId == "" {
		sessionId = uuid.NewString()
	}

	analysis, err := s.engine.Analyzer().AnalyzeQuery(ctx, req.Query)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if session := s.sessions.Get(sessionId); session != nil {
		session.Enrich(analysis)
	}

	routed, err := s.route(ctx, req.Query, req.TopK, analysis)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.sessions.Remember(sessionId, Turn{
		Query:    req.Query,
		Intent:   analysis.Intent,
		Entities: analysis.Entities,
		At:       time.Now(),
	})

	c.JSON(http.StatusOK, queryResponse{
		SessionId:  sessionId,
		Intent:     string(analysis.Intent),
		Confidence: analysis.Confidence,
		Entities: entitiesPayload{
			ApplianceType: analysis.Entities.ApplianceType,
			Brand:         analysis.Entities.Brand,
			PartType:      analysis.Entities.PartType,
			ModelNumber:   analysis.Entities.ModelNumber,
			IssueKeywords: analysis.Entities.IssueKeywords,
			Installation:  analysis.Entities.Installation,
			Comparison:    analysis.Entities.Comparison,
		},
		Total:    routed.total,
		Degraded: routed.degraded,
		Results:  routed.hits,
	})
}

type routedResults struct {
	total    int
	degraded bool
	hits     []hitPayload
}

// route dispatches an analyzed query to the retriever matching its intent.
// General questions search the article corpus directly.
func (s *Server) route(ctx context.Context, query string, topK int, analysis *core.QueryAnalysis) (*routedResults, error) {
	entities := analysis.Entities

	switch analysis.Intent {
	case core.IntentProductSearch:
		res, err := s.engine.Parts().Retrieve(ctx, retrieval.PartQuery{
			Query:         query,
			ApplianceType: entities.ApplianceType,
			Brand:         entities.Brand,
			TopK:          topK,
		})
		if err != nil {
			return nil, err
		}
		return &routedResults{total: res.Total, degraded: res.Degraded, hits: toHitPayloads(res.Hits)}, nil

	case core.IntentCompatibilityCheck:
		q := retrieval.CompatibilityQuery{
			ModelNumber:   entities.ModelNumber,
			PartType:      entities.PartType,
			ApplianceType: entities.ApplianceType,
			TopK:          topK,
		}
		if entities.ModelNumber == "" && entities.PartType == "" && entities.ApplianceType == "" {
			// nothing to compose a catalog query from; search the raw text
			q.Query = query
		}
		res, err := s.engine.Compatibility().Retrieve(ctx, q)
		if err != nil {
			return nil, err
		}
		return &routedResults{total: res.Total, degraded: res.Degraded, hits: toHitPayloads(res.Hits)}, nil

	case core.IntentTroubleshooting:
		res, err := s.engine.Troubleshooting().Retrieve(ctx, retrieval.TroubleshootingQuery{
			Issue:         query,
			ApplianceType: entities.ApplianceType,
			TopK:          topK,
		})
		if err != nil {
			return nil, err
		}
		return &routedResults{total: res.Total, degraded: res.Degraded, hits: toHitPayloads(res.Hits)}, nil

	case core.IntentInstallationGuide:
		partName := strings.ReplaceAll(entities.PartType, "_", " ")
		if partName == "" {
			partName = query
		}
		res, err := s.engine.Installation().Retrieve(ctx, retrieval.InstallationQuery{
			PartName:      partName,
			ApplianceType: entities.ApplianceType,
			TopK:          topK,
		})
		if err != nil {
			return nil, err
		}
		return &routedResults{total: res.Total, degraded: res.Degraded, hits: toHitPayloads(res.Hits)}, nil

	default:
		if topK <= 0 {
			topK = retrieval.DefaultTopK
		}
		res, err := s.engine.Search(ctx, core.CollectionBlogArticles, query, topK, nil)
		if err != nil {
			return nil, err
		}
		hits := make([]hitPayload, len(res.Results))
		for i, r := range res.Results {
			hits[i] = hitPayload{
				Id:           r.Id,
				Collection:   string(core.CollectionBlogArticles),
				Source:       string(retrieval.SourceBlogArticle),
				Relevance:    r.HybridScore,
				VectorScore:  r.VectorScore,
				KeywordScore: r.KeywordScore,
				Origin:       string(r.Origin),
				Metadata:     r.Metadata,
			}
		}
		return &routedResults{total: len(res.Results), degraded: res.Degraded, hits: hits}, nil
	}
}
