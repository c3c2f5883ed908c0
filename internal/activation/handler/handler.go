package handler

import (
	"net/http"
	"strconv"

	activationprocessor "backoffice-server/internal/activation/processor"
	"backoffice-server/internal/apierrors"
	"backoffice-server/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	processor activationprocessor.ActivationProcessor
	logger    *observability.Logger
}

func New(processor activationprocessor.ActivationProcessor, logger *observability.Logger) Handler {
	return Handler{processor: processor, logger: logger}
}

type CreateLeadRequest struct {
	Email        string  `json:"email" binding:"required,email"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone"`
	ReferralCode *string `json:"referral_code"`
	Notes        *string `json:"notes"`
}

// HandleCreateLead registers a new CRM lead, optionally carrying the
// referral code it signed up through.
func (h *Handler) HandleCreateLead(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error(ctx, "failed to bind create lead request", err)
		apierrors.RespondWithValidationError(c, err)
		return
	}

	lead, err := h.processor.CreateLead(ctx, activationprocessor.CreateLeadRequest{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
		Notes:        req.Notes,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *Handler) HandleGetLead(c *gin.Context) {
	ctx := c.Request.Context()

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid lead id"))
		return
	}

	lead, err := h.processor.GetLead(ctx, leadID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

type UpdateLeadRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone"`
	Status       *string `json:"status"`
	ReferralCode *string `json:"referral_code"`
	Notes        *string `json:"notes"`
}

func (h *Handler) HandleUpdateLead(c *gin.Context) {
	ctx := c.Request.Context()

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid lead id"))
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}

	lead, err := h.processor.UpdateLead(ctx, leadID, activationprocessor.UpdateLeadRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Status:       req.Status,
		ReferralCode: req.ReferralCode,
		Notes:        req.Notes,
	})
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *Handler) HandleListLeads(c *gin.Context) {
	ctx := c.Request.Context()

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 20)

	leads, err := h.processor.ListLeads(ctx, status, page, limit)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, leads)
}

// HandleActivateLead activates a single lead synchronously and returns the
// full activation result, including whether the referral side degraded.
func (h *Handler) HandleActivateLead(c *gin.Context) {
	ctx := c.Request.Context()

	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid lead id"))
		return
	}

	result, err := h.processor.ActivateLead(ctx, leadID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type BulkActivateRequest struct {
	LeadIDs []uuid.UUID `json:"lead_ids" binding:"required"`
}

// HandleActivateBulk starts a background bulk-activation job and returns the
// initial session snapshot. Clients follow up via polling, SSE, or WebSocket
// using the returned session id.
func (h *Handler) HandleActivateBulk(c *gin.Context) {
	ctx := c.Request.Context()

	var req BulkActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error(ctx, "failed to bind bulk activate request", err)
		apierrors.RespondWithValidationError(c, err)
		return
	}

	snapshot, err := h.processor.StartBulkActivation(ctx, req.LeadIDs)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, snapshot)
}

// HandleGetSession is the polling transport: one snapshot per request.
func (h *Handler) HandleGetSession(c *gin.Context) {
	ctx := c.Request.Context()

	snapshot, err := h.processor.GetSession(ctx, c.Param("session_id"))
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
