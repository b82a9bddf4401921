package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/services"
)

// IngestionHandler exposes the upstream write paths. Embedding vectors arrive
// already computed; only shape is checked here and below.
type IngestionHandler struct {
	ingestionService services.IngestionService
}

func NewIngestionHandler(ingestionService services.IngestionService) *IngestionHandler {
	return &IngestionHandler{ingestionService: ingestionService}
}

func (h *IngestionHandler) CreateEmployee(c *gin.Context) {
	var input services.EmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	employee, err := h.ingestionService.CreateEmployee(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"employee": employee})
}

func (h *IngestionHandler) CreateCustomer(c *gin.Context) {
	var input services.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	customer, err := h.ingestionService.CreateCustomer(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

func (h *IngestionHandler) CreateSession(c *gin.Context) {
	var input services.SessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	session, err := h.ingestionService.CreateSession(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", apperrors.ErrInvalidArgument)
		return uuid.Nil, false
	}
	return id, true
}

type appendTranscriptRequest struct {
	Chunks []services.TranscriptChunkInput `json:"chunks" binding:"required"`
}

func (h *IngestionHandler) AppendTranscript(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}
	var req appendTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	chunks, err := h.ingestionService.AppendTranscript(c.Request.Context(), sessionID, req.Chunks)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chunks": chunks})
}

type coachingNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *IngestionHandler) AddCoachingNote(c *gin.Context) {
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}
	var req coachingNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	note, err := h.ingestionService.AddCoachingNote(c.Request.Context(), sessionID, req.Content)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"note": note})
}

func (h *IngestionHandler) RecordFaceEmbedding(c *gin.Context) {
	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	var input services.FaceEmbeddingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	input.CustomerID = customerID
	embedding, err := h.ingestionService.RecordFaceEmbedding(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"embedding": embedding})
}

func (h *IngestionHandler) RecordMemory(c *gin.Context) {
	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	var input services.MemoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	input.CustomerID = customerID
	memory, err := h.ingestionService.RecordMemory(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"memory": memory})
}

func (h *IngestionHandler) RecordPreference(c *gin.Context) {
	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	var input services.PreferenceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	input.CustomerID = customerID
	pref, err := h.ingestionService.RecordPreference(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"preference": pref})
}
