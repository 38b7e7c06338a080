package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/auth"
)

type fakeRevoker struct {
	revoked map[string]bool
	err     error
}

func (f fakeRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], f.err
}

func newAuthRouter(t *testing.T, revoker RevocationChecker) (*gin.Engine, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mgr, err := auth.NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	router := gin.New()
	router.Use(Auth(mgr, revoker))
	router.GET("/api/v1/auth/me", func(c *gin.Context) {
		jti, exp := TokenFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"userId":   UserIDFromContext(c),
			"username": UserNameFromContext(c),
			"email":    UserEmailFromContext(c),
			"jti":      jti,
			"hasExp":   !exp.IsZero(),
		})
	})
	router.OPTIONS("/api/v1/auth/me", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router, mgr
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	router, _ := newAuthRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/me", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthRejectsMissingOrInvalidToken(t *testing.T) {
	router, _ := newAuthRouter(t, nil)
	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, resp.Code)
		}
	}
}

func TestAuthSetsIdentity(t *testing.T) {
	router, mgr := newAuthRouter(t, fakeRevoker{})
	token, claims, err := mgr.Issue("user-1", "jdoe", "j@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	for _, want := range []string{`"userId":"user-1"`, `"username":"jdoe"`, `"jti":"` + claims.JTI + `"`, `"hasExp":true`} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}

func TestAuthRejectsRevokedToken(t *testing.T) {
	_, mgr := newAuthRouter(t, nil)
	token, claims, _ := mgr.Issue("user-1", "jdoe", "")
	router, _ := newAuthRouter(t, fakeRevoker{revoked: map[string]bool{claims.JTI: true}})
	// Both routers share the secret so the token verifies.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked token, got %d", resp.Code)
	}
}

func TestAuthRevocationOutageAllows(t *testing.T) {
	router, mgr := newAuthRouter(t, fakeRevoker{err: errors.New("redis down")})
	token, _, _ := mgr.Issue("user-1", "jdoe", "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 when revocation store fails, got %d", resp.Code)
	}
}
