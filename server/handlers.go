package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/fixit"
	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/hybrid"
	"github.com/poiesic/fixit/retrieval"
)

// hitPayload is the wire form of one retrieved candidate.
type hitPayload struct {
	Id           string        `json:"id"`
	Collection   string        `json:"collection"`
	Source       string        `json:"source"`
	Relevance    float64       `json:"relevance"`
	VectorScore  float64       `json:"vector_score,omitempty"`
	KeywordScore float64       `json:"keyword_score,omitempty"`
	Origin       string        `json:"origin,omitempty"`
	Metadata     core.Metadata `json:"metadata,omitempty"`
}

func toHitPayloads(hits []retrieval.Hit) []hitPayload {
	out := make([]hitPayload, len(hits))
	for i, h := range hits {
		out[i] = hitPayload{
			Id:           h.Id,
			Collection:   string(h.Collection),
			Source:       string(h.Source),
			Relevance:    h.Relevance,
			VectorScore:  h.VectorScore,
			KeywordScore: h.KeywordScore,
			Origin:       string(h.Origin),
			Metadata:     h.Metadata,
		}
	}
	return out
}

// respondError maps retrieval errors to HTTP statuses. Bad input is the
// caller's fault; everything else is ours.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, retrieval.ErrEmptyQuery),
		errors.Is(err, retrieval.ErrUnknownApplianceType),
		errors.Is(err, retrieval.ErrInvalidTopK),
		errors.Is(err, hybrid.ErrInvalidTopK),
		errors.Is(err, hybrid.ErrInvalidWeight),
		errors.Is(err, fixit.ErrUnknownCollection):
		status = http.StatusBadRequest
	case errors.Is(err, retrieval.ErrAllSourcesFailed),
		errors.Is(err, hybrid.ErrAllPathsFailed):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"err", err,
			"path", c.Request.URL.Path,
			"request_id", c.GetString("request_id"))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type partsSearchRequest struct {
	Query         string `json:"query" binding:"required"`
	ApplianceType string `json:"appliance_type"`
	Brand         string `json:"brand"`
	InStockOnly   bool   `json:"in_stock_only"`
	TopK          int    `json:"top_k"`
}

type retrieverResponse struct {
	Query    string       `json:"query"`
	Total    int          `json:"total"`
	Degraded bool         `json:"degraded"`
	Hits     []hitPayload `json:"hits"`
}

func (s *Server) partsSearch(c *gin.Context) {
	var req partsSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.engine.Parts().Retrieve(c.Request.Context(), retrieval.PartQuery{
		Query:         req.Query,
		ApplianceType: req.ApplianceType,
		Brand:         req.Brand,
		InStockOnly:   req.InStockOnly,
		TopK:          req.TopK,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, retrieverResponse{
		Query:    res.Query,
		Total:    res.Total,
		Degraded: res.Degraded,
		Hits:     toHitPayloads(res.Hits),
	})
}

type compatibilityRequest struct {
	ModelNumber   string `json:"model_number"`
	PartType      string `json:"part_type"`
	ApplianceType string `json:"appliance_type"`
	Query         string `json:"query"`
	TopK          int    `json:"top_k"`
}

type compatibilityResponse struct {
	ModelNumber string       `json:"model_number,omitempty"`
	PartType    string       `json:"part_type,omitempty"`
	Query       string       `json:"query"`
	Total       int          `json:"total"`
	Degraded    bool         `json:"degraded"`
	Hits        []hitPayload `json:"hits"`
}

func (s *Server) compatibility(c *gin.Context) {
	var req compatibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.engine.Compatibility().Retrieve(c.Request.Context(), retrieval.CompatibilityQuery{
		ModelNumber:   req.ModelNumber,
		PartType:      req.PartType,
		ApplianceType: req.ApplianceType,
		Query:         req.Query,
		TopK:          req.TopK,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, compatibilityResponse{
		ModelNumber: res.ModelNumber,
		PartType:    res.PartType,
		Query:       res.Query,
		Total:       res.Total,
		Degraded:    res.Degraded,
		Hits:        toHitPayloads(res.Hits),
	})
}

type troubleshootRequest struct {
	Issue             string `json:"issue" binding:"required"`
	ApplianceType     string `json:"appliance_type"`
	Difficulty        string `json:"difficulty"`
	DisableVideoBoost bool   `json:"disable_video_boost"`
	TopK              int    `json:"top_k"`
}

func (s *Server) troubleshoot(c *gin.Context) {
	var req troubleshootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.engine.Troubleshooting().Retrieve(c.Request.Context(), retrieval.TroubleshootingQuery{
		Issue:             req.Issue,
		ApplianceType:     req.ApplianceType,
		Difficulty:        req.Difficulty,
		DisableVideoBoost: req.DisableVideoBoost,
		TopK:              req.TopK,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, retrieverResponse{
		Query:    res.Issue,
		Total:    res.Total,
		Degraded: res.Degraded,
		Hits:     toHitPayloads(res.Hits),
	})
}

type installationRequest struct {
	PartNumber    string `json:"part_number"`
	PartName      string `json:"part_name"`
	ApplianceType string `json:"appliance_type"`
	TopK          int    `json:"top_k"`
}

type installationResponse struct {
	PartNumber string       `json:"part_number,omitempty"`
	PartName   string       `json:"part_name,omitempty"`
	Query      string       `json:"query"`
	Total      int          `json:"total"`
	Degraded   bool         `json:"degraded"`
	Hits       []hitPayload `json:"hits"`
}

func (s *Server) installation(c *gin.Context) {
	var req installationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.engine.Installation().Retrieve(c.Request.Context(), retrieval.InstallationQuery{
		PartNumber:    req.PartNumber,
		PartName:      req.PartName,
		ApplianceType: req.ApplianceType,
		TopK:          req.TopK,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, installationResponse{
		PartNumber: res.PartNumber,
		PartName:   res.PartName,
		Query:      res.Query,
		Total:      res.Total,
		Degraded:   res.Degraded,
		Hits:       toHitPayloads(res.Hits),
	})
}

type searchRequest struct {
	Collection string            `json:"collection" binding:"required"`
	Query      string            `json:"query" binding:"required"`
	TopK       int               `json:"top_k"`
	Filter     map[string]string `json:"filter"`
	Weights    *weightsPayload   `json:"weights"`
}

type weightsPayload struct {
	Vector  float64 `json:"vector"`
	Keyword float64 `json:"keyword"`
}

type searchResponse struct {
	Collection  string             `json:"collection"`
	Query       string             `json:"query"`
	Degraded    bool               `json:"degraded"`
	FailedPaths []hybrid.Path      `json:"failed_paths,omitempty"`
	Results     []searchHitPayload `json:"results"`
}

type searchHitPayload struct {
	Id           string        `json:"id"`
	VectorScore  float64       `json:"vector_score"`
	KeywordScore float64       `json:"keyword_score"`
	HybridScore  float64       `json:"hybrid_score"`
	Origin       string        `json:"origin"`
	Metadata     core.Metadata `json:"metadata,omitempty"`
}

// search runs a raw hybrid query against one collection, with optional
// per-call weights and a metadata equality filter.
func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.TopK == 0 {
		req.TopK = retrieval.DefaultTopK
	}

	searcher, err := s.engine.Searcher(core.Collection(req.Collection))
	if err != nil {
		s.respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	filter := core.Filter(req.Filter)

	var res *hybrid.Result
	if req.Weights != nil {
		res, err = searcher.SearchWeighted(ctx, req.Query, req.TopK, filter, hybrid.Weights{
			Vector:  req.Weights.Vector,
			Keyword: req.Weights.Keyword,
		})
	} else {
		res, err = searcher.Search(ctx, req.Query, req.TopK, filter)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	results := make([]searchHitPayload, len(res.Results))
	for i, r := range res.Results {
		results[i] = searchHitPayload{
			Id:           r.Id,
			VectorScore:  r.VectorScore,
			KeywordScore: r.KeywordScore,
			HybridScore:  r.HybridScore,
			Origin:       string(r.Origin),
			Metadata:     r.Metadata,
		}
	}

	c.JSON(http.StatusOK, searchResponse{
		Collection:  req.Collection,
		Query:       req.Query,
		Degraded:    res.Degraded,
		FailedPaths: res.FailedPaths,
		Results:     results,
	})
}

type collectionPayload struct {
	Collection string `json:"collection"`
	Documents  int    `json:"documents"`
	Indexed    int    `json:"indexed"`
}

func (s *Server) collections(c *gin.Context) {
	stats, err := s.engine.Stats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	payload := make([]collectionPayload, 0, len(stats))
	for _, collection := range core.DefaultCollections() {
		st := stats[collection]
		payload = append(payload, collectionPayload{
			Collection: string(collection),
			Documents:  st.Documents,
			Indexed:    st.Indexed,
		})
	}
	c.JSON(http.StatusOK, gin.H{"collections": payload})
}
