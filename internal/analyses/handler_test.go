package analyses

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T, svc *Service, userID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})
	h := NewHandler(svc)
	h.RegisterRoutes(api)
	h.RegisterAnalyzeRoute(api)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeQueuedThenCached(t *testing.T) {
	svc, _ := newTestService(t, &fakeClient{})
	r := newTestRouter(t, svc, "user-1")
	body := `{"jobTitle":"Backend Dev","jobDescription":"Build APIs","companyName":"Acme"}`

	resp := doJSON(r, http.MethodPost, "/api/v1/resumes/resume-1/analyze", body)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	var queued Response
	if err := json.NewDecoder(resp.Body).Decode(&queued); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if queued.Status != StatusQueued || queued.CompanyName != "Acme" || queued.Scores.Overall != nil {
		t.Fatalf("unexpected queued response %+v", queued)
	}
	waitIdle(t, svc)

	resp = doJSON(r, http.MethodGet, "/api/v1/analyses/"+queued.AnalysisID, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var done Response
	if err := json.NewDecoder(resp.Body).Decode(&done); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if done.Status != StatusCompleted || done.Scores.Overall == nil || *done.Scores.Overall != 82 || len(done.Result) == 0 {
		t.Fatalf("unexpected completed response %+v", done)
	}

	resp = doJSON(r, http.MethodPost, "/api/v1/resumes/resume-1/analyze", body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cached analysis, got %d", resp.Code)
	}
	var cached Response
	if err := json.NewDecoder(resp.Body).Decode(&cached); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !cached.Cached || cached.Status != StatusCompleted {
		t.Fatalf("expected cached response, got %+v", cached)
	}

	resp = doJSON(r, http.MethodGet, "/api/v1/resumes/resume-1/analyses", "")
	var history []SummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 analyses in history, got %d", len(history))
	}
}

func TestAnalyzeWithoutBody(t *testing.T) {
	svc, _ := newTestService(t, &fakeClient{})
	svc.Queue = &fakeQueue{}
	r := newTestRouter(t, svc, "user-1")

	resp := doJSON(r, http.MethodPost, "/api/v1/resumes/resume-1/analyze", "")
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAnalyzeErrors(t *testing.T) {
	svc, _ := newTestService(t, &fakeClient{})
	svc.Queue = &fakeQueue{}
	r := newTestRouter(t, svc, "user-1")

	tests := []struct {
		name string
		path string
		body string
		code int
		want string
	}{
		{"unknown resume", "/api/v1/resumes/missing/analyze", `{}`, http.StatusNotFound, "not_found"},
		{"other user's resume", "/api/v1/resumes/resume-2/analyze", `{}`, http.StatusNotFound, "not_found"},
		{"malformed body", "/api/v1/resumes/resume-1/analyze", `{"jobTitle":`, http.StatusBadRequest, "validation_error"},
		{"title too long", "/api/v1/resumes/resume-1/analyze", `{"jobTitle":"` + strings.Repeat("x", 201) + `"}`, http.StatusBadRequest, "jobTitle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(r, http.MethodPost, tt.path, tt.body)
			if resp.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, resp.Code, resp.Body.String())
			}
			if !strings.Contains(resp.Body.String(), tt.want) {
				t.Fatalf("expected body to mention %q, got %s", tt.want, resp.Body.String())
			}
		})
	}
}

func TestListAnalysesByStatus(t *testing.T) {
	svc, _ := newTestService(t, &fakeClient{})
	svc.Queue = &fakeQueue{}
	r := newTestRouter(t, svc, "user-1")

	if resp := doJSON(r, http.MethodPost, "/api/v1/resumes/resume-1/analyze", `{}`); resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Code)
	}

	resp := doJSON(r, http.MethodGet, "/api/v1/analyses?status=queued", "")
	var list []SummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0].Status != StatusQueued {
		t.Fatalf("unexpected list %+v", list)
	}

	resp = doJSON(r, http.MethodGet, "/api/v1/analyses?status=nope", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}
}

func TestGetAnalysisOfAnotherUser(t *testing.T) {
	svc, _ := newTestService(t, &fakeClient{})
	svc.Queue = &fakeQueue{}
	owner := newTestRouter(t, svc, "user-1")
	other := newTestRouter(t, svc, "user-2")

	resp := doJSON(owner, http.MethodPost, "/api/v1/resumes/resume-1/analyze", `{}`)
	var created Response
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = doJSON(other, http.MethodGet, "/api/v1/analyses/"+created.AnalysisID, "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
