package handler

import (
	"net/http"
	"strings"

	"backoffice-server/internal/auth/processor"
	"backoffice-server/internal/observability"

	"github.com/gin-gonic/gin"
)

// AdminIDKey is the gin context key under which the middleware stores the
// authenticated admin's subject.
const AdminIDKey = "Admin-ID"

type Handler struct {
	authProcessor processor.AuthProcessor
	logger        *observability.Logger
}

func New(authProcessor processor.AuthProcessor, logger *observability.Logger) Handler {
	return Handler{authProcessor: authProcessor, logger: logger}
}

// HandleJWTMiddleware authenticates the request from the Authorization
// header. SSE and WebSocket clients cannot set headers, so a "token" query
// parameter is accepted as a fallback.
func (h *Handler) HandleJWTMiddleware(c *gin.Context) {
	ctx := c.Request.Context()

	tokenString := ""
	tokenHeader := c.GetHeader("Authorization")
	switch {
	case strings.HasPrefix(tokenHeader, "Bearer "):
		tokenString = strings.TrimPrefix(tokenHeader, "Bearer ")
	case c.Query("token") != "":
		tokenString = c.Query("token")
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is missing or invalid"})
		c.Abort()
		return
	}

	claims, err := h.authProcessor.ValidateJWTToken(ctx, tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		c.Abort()
		return
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token subject is missing"})
		c.Abort()
		return
	}
	c.Set(AdminIDKey, sub)
	c.Next()
}
