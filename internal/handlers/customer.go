package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/services"
)

type CustomerHandler struct {
	contextService services.ContextService
	consentService services.ConsentService
}

func NewCustomerHandler(contextService services.ContextService, consentService services.ConsentService) *CustomerHandler {
	return &CustomerHandler{
		contextService: contextService,
		consentService: consentService,
	}
}

func parseCustomerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", apperrors.ErrInvalidArgument)
		return uuid.Nil, false
	}
	return id, true
}

// GetContext returns the consolidated view of one customer: profile,
// preferences, recent sessions.
func (h *CustomerHandler) GetContext(c *gin.Context) {
	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	sessionsLimit := 0
	if raw := c.Query("sessions_limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_argument", apperrors.ErrInvalidArgument)
			return
		}
		sessionsLimit = parsed
	}
	aggregate, err := h.contextService.GetCustomerContext(c.Request.Context(), customerID, sessionsLimit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, aggregate)
}

type updateConsentRequest struct {
	ConsentForBiometrics *bool `json:"consent_for_biometrics" binding:"required"`
}

func (h *CustomerHandler) UpdateConsent(c *gin.Context) {
	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	var req updateConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_argument", err)
		return
	}
	if err := h.consentService.UpdateConsent(c.Request.Context(), customerID, *req.ConsentForBiometrics); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok", "customer_id": customerID})
}

// OptOut erases the customer and everything the customer owns; sessions stay,
// detached. Safe to call again after success.
func (h *CustomerHandler) OptOut(c *gin.Context) {
	customerID, ok := parseCustomerID(c)
	if !ok {
		return
	}
	report, err := h.consentService.OptOut(c.Request.Context(), customerID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok", "report": report})
}
