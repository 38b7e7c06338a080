package resumes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/storage/object/local"
)

func newTestRouter(t *testing.T, userID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewService(local.New(t.TempDir()), NewMemoryRepo(), nil)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func multipartBody(t *testing.T, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadGetDownloadDelete(t *testing.T) {
	r := newTestRouter(t, "user-1")

	body, ct := multipartBody(t, "hello.txt", "text/plain", []byte("hello world"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created DetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ResumeID == "" || created.ExtractedText != "hello world" {
		t.Fatalf("unexpected response %+v", created)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/resumes", nil))
	var list []Response
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].TextLength != len("hello world") {
		t.Fatalf("unexpected list %+v", list)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+created.ResumeID+"/download", nil))
	if resp.Code != http.StatusOK || resp.Body.String() != "hello world" {
		t.Fatalf("unexpected download %d %q", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Content-Disposition") == "" {
		t.Fatalf("expected Content-Disposition header")
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/resumes/"+created.ResumeID, nil))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/resumes/"+created.ResumeID, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	r := newTestRouter(t, "user-1")

	body, ct := multipartBody(t, "photo.png", "image/png", []byte("\x89PNG\r\n"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", ct)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.Code)
	}
}

func TestUploadMissingFile(t *testing.T) {
	r := newTestRouter(t, "user-1")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
