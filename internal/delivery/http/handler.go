package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schemascope/backend/internal/domain"
	"github.com/schemascope/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysis *usecase.AnalysisService
}

// NewHandler creates a new HTTP handler
func NewHandler(analysis *usecase.AnalysisService) *Handler {
	return &Handler{analysis: analysis}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "schemascope-backend",
		"version": "1.0.0",
	})
}

// Analyze runs a full competitor schema analysis for a page and keyword.
func (h *Handler) Analyze(c *gin.Context) {
	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "url and keyword are required",
		})
		return
	}

	report, err := h.analysis.Run(c.Request.Context(), req, nil)
	if err != nil {
		status, message := statusForError(err)
		log.Printf("analysis failed for %s: %v", req.URL, err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, report)
}

// extractRequest is the body for the standalone extraction endpoint.
type extractRequest struct {
	URL string `json:"url" binding:"required"`
}

// ExtractSchema fetches a single page and returns its JSON-LD types.
func (h *Handler) ExtractSchema(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "url is required",
		})
		return
	}

	schemas, err := h.analysis.ExtractOnly(c.Request.Context(), req.URL)
	if err != nil {
		status, message := statusForError(err)
		log.Printf("extraction failed for %s: %v", req.URL, err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     req.URL,
		"schemas": schemas,
	})
}

// statusForError maps pipeline errors onto HTTP status codes.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredential), errors.Is(err, domain.ErrMissingCredential):
		return http.StatusUnauthorized, "upstream credential rejected"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "upstream rate limit exceeded, try again later"
	case errors.Is(err, domain.ErrFetchFailed):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
