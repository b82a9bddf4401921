package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/services"
)

type SearchHandler struct {
	searchService services.SearchService
	defaultLimit  int
}

func NewSearchHandler(searchService services.SearchService, defaultLimit int) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		defaultLimit:  defaultLimit,
	}
}

type vectorSearchRequest struct {
	Embedding []float32 `json:"embedding" binding:"required"`
}

func (h *SearchHandler) parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return h.defaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", apperrors.ErrInvalidArgument)
		return 0, false
	}
	return limit, true
}

// FaceNearest is the consent-gated face match: customers who have not
// consented to biometrics never appear, whatever the distance.
func (h *SearchHandler) FaceNearest(c *gin.Context) {
	var req vectorSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	limit, ok := h.parseLimit(c)
	if !ok {
		return
	}
	matches, err := h.searchService.SearchFaces(c.Request.Context(), req.Embedding, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"matches": matches})
}

// MemoryNearest ranks memories; scoped to one customer when customer_id is
// given, global otherwise.
func (h *SearchHandler) MemoryNearest(c *gin.Context) {
	var req vectorSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	limit, ok := h.parseLimit(c)
	if !ok {
		return
	}
	var customerID *uuid.UUID
	if raw := c.Query("customer_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_argument", apperrors.ErrInvalidArgument)
			return
		}
		customerID = &parsed
	}
	matches, err := h.searchService.SearchMemories(c.Request.Context(), customerID, req.Embedding, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"matches": matches})
}
