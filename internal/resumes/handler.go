package resumes

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

// multipart framing on top of the file itself
const requestOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.upload)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)
	rg.GET("/resumes/:id/download", h.download)
	rg.DELETE("/resumes/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+requestOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB limit", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB limit", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	res, err := h.Svc.Upload(c.Request.Context(), UploadInput{
		UserID:      userID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(c, err, "failed to upload resume")
		return
	}

	c.Set("resumeId", res.ID)
	respond.JSON(c, http.StatusCreated, toDetail(res))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, offset := pageParams(c)

	items, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		writeError(c, err, "failed to list resumes")
		return
	}

	resp := make([]Response, 0, len(items))
	for _, res := range items {
		resp = append(resp, toResponse(res))
	}
	respond.OK(c, resp)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	res, err := h.Svc.Get(c.Request.Context(), userID, resumeID)
	if err != nil {
		writeError(c, err, "failed to fetch resume")
		return
	}
	respond.OK(c, toDetail(res))
}

func (h *Handler) download(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	dl, err := h.Svc.Download(c.Request.Context(), userID, resumeID)
	if err != nil {
		writeError(c, err, "failed to download resume")
		return
	}
	if dl.URL != "" {
		c.Redirect(http.StatusFound, dl.URL)
		return
	}
	defer dl.Body.Close()
	c.DataFromReader(http.StatusOK, dl.Resume.SizeBytes, dl.Resume.MimeType, dl.Body, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", dl.Resume.FileName),
	})
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	if err := h.Svc.Delete(c.Request.Context(), userID, resumeID); err != nil {
		writeError(c, err, "failed to delete resume")
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrTooLarge):
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds 10MB limit", nil)
	case errors.Is(err, extract.ErrUnsupportedType):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "only PDF, DOCX and TXT resumes are supported", nil)
	case errors.Is(err, extract.ErrNoText):
		respond.Error(c, http.StatusUnprocessableEntity, "no_text", "no text could be extracted from the file", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallbackMsg, nil)
	}
}

func pageParams(c *gin.Context) (int, int) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
