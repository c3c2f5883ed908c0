package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestWithFields_Accumulates(t *testing.T) {
	ctx := context.Background()
	ctx = WithFields(ctx, Field{"a", 1})
	ctx = WithFields(ctx, Field{"b", "two"})

	fields := getObservabilityFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Key != "a" || fields[1].Key != "b" {
		t.Errorf("unexpected field keys: %+v", fields)
	}
}

func TestWithFields_DoesNotMutateParent(t *testing.T) {
	parent := WithFields(context.Background(), Field{"a", 1})
	_ = WithFields(parent, Field{"b", 2})

	fields := getObservabilityFields(parent)
	if len(fields) != 1 {
		t.Errorf("parent context gained fields, got %d", len(fields))
	}
}

func TestMiddleware_SetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := NewLogger()

	router := gin.New()
	router.Use(Middleware(logger))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header to be set")
	}
}

func TestMiddleware_PreservesIncomingRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := NewLogger()

	router := gin.New()
	router.Use(Middleware(logger))
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-fixed")
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-fixed" {
		t.Errorf("expected request id to be preserved, got %q", got)
	}
}
