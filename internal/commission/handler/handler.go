package handler

import (
	"net/http"

	"backoffice-server/internal/apierrors"
	authhandler "backoffice-server/internal/auth/handler"
	"backoffice-server/internal/commission/processor"
	"backoffice-server/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	processor processor.CommissionProcessor
	logger    *observability.Logger
}

func New(processor processor.CommissionProcessor, logger *observability.Logger) Handler {
	return Handler{
		processor: processor,
		logger:    logger,
	}
}

type CreditCommissionRequest struct {
	FromUserID string  `json:"from_user_id" binding:"required,uuid"`
	Notes      *string `json:"notes,omitempty"`
}

// HandleCreditCommission handles POST /api/protected/commissions. The
// crediting admin is recorded as approved_by on the ledger entry.
func (h *Handler) HandleCreditCommission(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreditCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.RespondWithValidationError(c, err)
		return
	}
	fromUserID := uuid.MustParse(req.FromUserID)

	var approvedBy *uuid.UUID
	if adminIDStr, ok := c.Get(authhandler.AdminIDKey); ok {
		if adminID, err := uuid.Parse(adminIDStr.(string)); err == nil {
			approvedBy = &adminID
		}
	}

	result, err := h.processor.CreditCommission(ctx, fromUserID, approvedBy, req.Notes)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	if !result.Credited {
		c.JSON(http.StatusOK, gin.H{"credited": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"credited":   true,
		"created":    result.Created,
		"commission": result.Commission,
	})
}

// HandleApproveCommission handles
// POST /api/protected/users/:user_id/commissions/:commission_id/approve
func (h *Handler) HandleApproveCommission(c *gin.Context) {
	ctx := c.Request.Context()

	referrerID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid user id"))
		return
	}
	commissionID, err := uuid.Parse(c.Param("commission_id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid commission id"))
		return
	}

	var approvedBy *uuid.UUID
	if adminIDStr, ok := c.Get(authhandler.AdminIDKey); ok {
		if adminID, err := uuid.Parse(adminIDStr.(string)); err == nil {
			approvedBy = &adminID
		}
	}

	commission, err := h.processor.ApproveCommission(ctx, commissionID, referrerID, approvedBy)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, commission)
}

// HandleGetLedger handles GET /api/protected/users/:user_id/commissions
func (h *Handler) HandleGetLedger(c *gin.Context) {
	ctx := c.Request.Context()

	referrerID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid user id"))
		return
	}

	ledger, err := h.processor.GetLedger(ctx, referrerID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledger)
}
