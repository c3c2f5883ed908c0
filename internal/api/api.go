package api

import (
	"net/http"

	activationHandler "backoffice-server/internal/activation/handler"
	authHandler "backoffice-server/internal/auth/handler"
	commissionHandler "backoffice-server/internal/commission/handler"
	referralHandler "backoffice-server/internal/referral/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	router            *gin.RouterGroup
	authHandler       authHandler.Handler
	referralHandler   referralHandler.Handler
	commissionHandler commissionHandler.Handler
	activationHandler activationHandler.Handler
}

func New(
	router *gin.RouterGroup,
	authHandler authHandler.Handler,
	referralHandler referralHandler.Handler,
	commissionHandler commissionHandler.Handler,
	activationHandler activationHandler.Handler,
) API {
	return API{
		router:            router,
		authHandler:       authHandler,
		referralHandler:   referralHandler,
		commissionHandler: commissionHandler,
		activationHandler: activationHandler,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	a.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := a.router.Group("/api")
	{
		// Lead intake is public: signup forms post here directly.
		apiGroup.POST("/leads", a.activationHandler.HandleCreateLead)
		apiGroup.GET("/referral-link/:code", a.referralHandler.HandleGetReferralLink)
	}

	protectedGroup := apiGroup.Group("/protected", a.authHandler.HandleJWTMiddleware)
	{
		protectedGroup.GET("/leads", a.activationHandler.HandleListLeads)
		protectedGroup.GET("/leads/:id", a.activationHandler.HandleGetLead)
		protectedGroup.PUT("/leads/:id", a.activationHandler.HandleUpdateLead)
		protectedGroup.POST("/leads/:id/activate", a.activationHandler.HandleActivateLead)

		// Bulk activation: POST starts a job, the session routes follow it.
		protectedGroup.POST("/activations", a.activationHandler.HandleActivateBulk)
		protectedGroup.GET("/activations/:session_id", a.activationHandler.HandleGetSession)
		protectedGroup.GET("/activations/:session_id/stream", a.activationHandler.HandleStreamSession)
		protectedGroup.GET("/activations/:session_id/ws", a.activationHandler.HandleSessionWebSocket)

		protectedGroup.GET("/users/:user_id/referrals", a.referralHandler.HandleListDirectReferrals)
		protectedGroup.GET("/users/:user_id/referral-tree", a.referralHandler.HandleGetReferralTree)
		protectedGroup.GET("/users/:user_id/referral-stats", a.referralHandler.HandleGetReferralStats)

		protectedGroup.GET("/users/:user_id/commissions", a.commissionHandler.HandleGetLedger)
		protectedGroup.POST("/users/:user_id/commissions/:commission_id/approve", a.commissionHandler.HandleApproveCommission)
		protectedGroup.POST("/commissions", a.commissionHandler.HandleCreditCommission)

		protectedGroup.GET("/referral-codes/:code", a.referralHandler.HandleResolveReferralCode)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
