package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/giftlens/backend/internal/domain"
	"github.com/giftlens/backend/internal/infrastructure/linkcheck"
	"github.com/giftlens/backend/internal/usecase"
	"github.com/rs/zerolog/log"
)

const (
	serviceName    = "giftlens-backend"
	serviceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	recommendations *usecase.RecommendationService
}

// NewHandler creates a new HTTP handler. A nil service makes the
// recommendation endpoints answer 503.
func NewHandler(recommendations *usecase.RecommendationService) *Handler {
	return &Handler{recommendations: recommendations}
}

// CleanupRequest is the body of POST /api/v1/curation/cleanup
type CleanupRequest struct {
	ProductGifts []domain.Gift    `json:"product_gifts"`
	Inventory    []domain.Product `json:"inventory"`
	RecCount     int              `json:"rec_count"`
}

// MaterialsRequest is the body of POST /api/v1/curation/materials
type MaterialsRequest struct {
	Materials []domain.MaterialItem `json:"materials"`
	Inventory []domain.Product      `json:"inventory"`
	BadURLs   []string              `json:"bad_urls"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// CreateRecommendation runs the recommendation pipeline for a recipient profile
func (h *Handler) CreateRecommendation(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var profile domain.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	rec, err := h.recommendations.Recommend(c.Request.Context(), &profile)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetRecommendation returns a persisted recommendation by id
func (h *Handler) GetRecommendation(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	rec, err := h.recommendations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ListRecommendations returns the most recent recommendations
func (h *Handler) ListRecommendations(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 100"})
			return
		}
		limit = n
	}

	recs, err := h.recommendations.Recent(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recs, "count": len(recs)})
}

// CleanupGifts runs the diversity enforcer over caller-supplied gifts and inventory
func (h *Handler) CleanupGifts(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if req.RecCount <= 0 {
		h.respondError(c, fmt.Errorf("%w: rec_count must be a positive integer", domain.ErrInvalidRequest))
		return
	}

	result := h.recommendations.Cleanup(req.ProductGifts, req.Inventory, req.RecCount)
	c.JSON(http.StatusOK, result)
}

// ResolveMaterials backfills material links; bad_urls is treated as the set of dead links
func (h *Handler) ResolveMaterials(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req MaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	materials := h.recommendations.ResolveMaterials(req.Materials, req.Inventory, linkcheck.StaticPredicate(req.BadURLs))
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.recommendations == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Recommendation service not configured"})
		return false
	}
	return true
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, "Recommendation not found"
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, "Rate limit exceeded, try again later"
	case errors.Is(err, domain.ErrNoInventory):
		status, message = http.StatusServiceUnavailable, "No products found for this profile"
	case errors.Is(err, domain.ErrRetailerFailure), errors.Is(err, domain.ErrCuratorFailure):
		status, message = http.StatusBadGateway, "Upstream service failed"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": message})
}
