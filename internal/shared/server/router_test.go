package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/analyses"
	"resume-analyzer/internal/resumes"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/auth"
	"resume-analyzer/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager("router-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _, err := tokens.Issue("user-1", "jane", "jane@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	resumeSvc := resumes.NewService(nil, resumes.NewMemoryRepo(), nil)
	analysisSvc := analyses.NewService(analyses.NewMemoryRepo(), resumeSvc, nil, nil)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	r := NewRouter(RouterDeps{
		Tokens:          tokens,
		AnalyzeLimiter:  middleware.NewRateLimiter(func() time.Time { return fixed }),
		HealthHandler:   health.NewHandler(health.NewService(nil, nil, nil)),
		ResumeHandler:   resumes.NewHandler(resumeSvc),
		AnalysisHandler: analyses.NewHandler(analysisSvc),
	})
	return r, token
}

func TestRouterPublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/metrics", "/api/v1/metrics", "/api/v1/health"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestRouterRequiresTokenForAnalyses(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRouterRateLimitsAnalyze(t *testing.T) {
	r, token := newTestRouter(t)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/missing/analyze", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < analyzeBurst; i++ {
		if w := send(); w.Code != http.StatusNotFound {
			t.Fatalf("request %d: expected 404, got %d: %s", i, w.Code, w.Body.String())
		}
	}
	w := send()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	// Reads are not limited.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for list, got %d", w.Code)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
