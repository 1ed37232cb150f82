package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/cleaner"
	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/segmenters"
)

// healthCheck handles GET /healthz
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: Version})
}

// listStrategies handles GET /v1/strategies
func (s *Server) listStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, StrategiesResponse{Strategies: chunkers.SupportedStrategies()})
}

// cleanDocument handles POST /v1/clean
func (s *Server) cleanDocument(c *gin.Context) {
	var req CleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(errors.ErrCodeValidation)})
		return
	}

	opts := req.Options
	if opts == nil {
		opts = &s.config.Cleaning
	}

	cleaned, result := cleaner.Clean(req.Text, opts)
	c.JSON(http.StatusOK, newCleanResponse(cleaned, result))
}

// chunkDocument handles POST /v1/chunk
func (s *Server) chunkDocument(c *gin.Context) {
	var req ChunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: string(errors.ErrCodeValidation)})
		return
	}

	cfg := chunkers.DefaultChunkConfigFor(req.Strategy)
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, cfg); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid config: " + err.Error(), Code: string(errors.ErrCodeValidation)})
			return
		}
	}

	text := req.Text
	var cleaning *CleanResponse
	if req.Clean {
		opts := req.CleanOptions
		if opts == nil {
			opts = &s.config.Cleaning
		}
		var result *cleaner.Result
		text, result = cleaner.Clean(text, opts)
		cleaning = newCleanResponse(text, result)
	}

	orchestrator, err := s.buildOrchestrator(cfg)
	if err != nil {
		s.respondError(c, err)
		return
	}

	start := time.Now()
	chunks, err := orchestrator.Chunk(c.Request.Context(), text, req.Strategy, cfg)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := ChunkResponse{
		Chunks:   chunks,
		Stats:    chunkers.CalculateStats(chunks, len(text), time.Since(start)),
		Cleaning: cleaning,
	}

	if req.Index {
		if s.index == nil || !s.config.IndexingEnabled {
			s.respondError(c, errors.NewValidationError("indexing is not enabled on this server"))
			return
		}
		if err := s.index.IndexChunks(c.Request.Context(), chunks); err != nil {
			s.respondError(c, err)
			return
		}
		resp.Indexed = len(chunks)
	}

	c.JSON(http.StatusOK, resp)
}

// buildOrchestrator assembles a chunking orchestrator for the effective
// config. Segmenters are sized per request.
func (s *Server) buildOrchestrator(cfg *chunkers.ChunkConfig) (*chunkers.Orchestrator, error) {
	opts := []chunkers.Option{chunkers.WithLogger(s.logger)}

	tokenSeg, err := segmenters.NewTokenSegmenter(cfg.ChunkSize, cfg.OverlapSize)
	if err != nil {
		return nil, err
	}
	opts = append(opts, chunkers.WithTokenSegmenter(tokenSeg))

	if s.provider != nil {
		semanticSeg, err := segmenters.NewSemanticSegmenter(s.provider, cfg.SemanticThreshold, cfg.ChunkSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts,
			chunkers.WithSemanticSegmenter(semanticSeg),
			chunkers.WithEmbeddingProvider(s.provider),
		)
	}

	return chunkers.NewOrchestrator(opts...), nil
}

// respondError maps pipeline errors to HTTP statuses
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := string(errors.ErrCodeInternal)

	switch {
	case errors.IsInsufficientContent(err):
		status = http.StatusUnprocessableEntity
		code = string(errors.ErrCodeInsufficientContent)
	case errors.HasCode(err, errors.ErrCodeValidation), errors.HasCode(err, errors.ErrCodeConfigInvalid):
		status = http.StatusBadRequest
		code = string(errors.ErrCodeValidation)
	case errors.IsEmbeddingFailure(err):
		status = http.StatusBadGateway
		code = string(errors.ErrCodeEmbeddingFailure)
	case errors.HasCode(err, errors.ErrCodeConnectionFailed):
		status = http.StatusServiceUnavailable
		code = string(errors.ErrCodeConnectionFailed)
	}

	s.logger.Error("request failed", err, map[string]interface{}{
		"status":     status,
		"request_id": c.GetString("request_id"),
	})

	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}
