package handler

import (
	"net/http"
	"strconv"

	"backoffice-server/internal/apierrors"
	"backoffice-server/internal/observability"
	"backoffice-server/internal/referral/processor"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	processor processor.ReferralProcessor
	logger    *observability.Logger
}

func New(processor processor.ReferralProcessor, logger *observability.Logger) Handler {
	return Handler{
		processor: processor,
		logger:    logger,
	}
}

// HandleGetReferralTree handles GET /api/protected/users/:user_id/referral-tree
func (h *Handler) HandleGetReferralTree(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		h.logger.Error(ctx, "failed to parse user ID", err)
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid user id"))
		return
	}

	maxDepth := 0
	if depthParam := c.Query("depth"); depthParam != "" {
		maxDepth, err = strconv.Atoi(depthParam)
		if err != nil {
			apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "depth must be an integer"))
			return
		}
	}

	tree, err := h.processor.GetReferralTree(ctx, userID, maxDepth)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tree)
}

// HandleGetReferralStats handles GET /api/protected/users/:user_id/referral-stats
func (h *Handler) HandleGetReferralStats(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		h.logger.Error(ctx, "failed to parse user ID", err)
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid user id"))
		return
	}

	stats, err := h.processor.GetStats(ctx, userID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HandleListDirectReferrals handles GET /api/protected/users/:user_id/referrals
func (h *Handler) HandleListDirectReferrals(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		h.logger.Error(ctx, "failed to parse user ID", err)
		apierrors.RespondWithError(c, apierrors.BadRequest(apierrors.CodeInvalidInput, "invalid user id"))
		return
	}

	referrals, err := h.processor.GetDirectReferrals(ctx, userID)
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
		"count":     len(referrals),
	})
}

// HandleGetReferralLink handles GET /api/referral-link/:code (public). It
// resolves a shared code into the canonical signup link without exposing
// the owner's account details.
func (h *Handler) HandleGetReferralLink(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.processor.ResolveCode(ctx, c.Param("code"))
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code": user.ReferralCode,
		"referral_link": h.processor.BuildReferralLink(user.ReferralCode),
	})
}

// HandleResolveReferralCode handles GET /api/protected/referral-codes/:code
func (h *Handler) HandleResolveReferralCode(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.processor.ResolveCode(ctx, c.Param("code"))
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       user.ID,
		"email":         user.Email,
		"referral_code": user.ReferralCode,
	})
}
