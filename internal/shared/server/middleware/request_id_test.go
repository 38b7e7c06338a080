package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/telemetry"
)

func TestRequestIDGeneratedAndPropagated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	var fromCtx string
	router.GET("/x", func(c *gin.Context) {
		fromCtx = telemetry.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

	header := resp.Header().Get("X-Request-Id")
	if header == "" {
		t.Fatalf("expected generated request id")
	}
	if fromCtx != header {
		t.Fatalf("expected request context id %q, got %q", header, fromCtx)
	}
}

func TestRequestIDHonorsIncomingHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, RequestIDFromContext(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Body.String() != "abc-123" {
		t.Fatalf("expected abc-123, got %q", resp.Body.String())
	}
}
