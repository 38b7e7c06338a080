package analyses

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the read-only analysis routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes/:id/analyses", h.listByResume)
	rg.GET("/analyses", h.listByUser)
	rg.GET("/analyses/:id", h.get)
}

// RegisterAnalyzeRoute attaches the analyze route, normally behind a rate limiter.
func (h *Handler) RegisterAnalyzeRoute(rg *gin.RouterGroup) {
	rg.POST("/resumes/:id/analyze", h.analyze)
}

func (h *Handler) analyze(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	var in JobInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	a, err := h.Svc.Start(c.Request.Context(), userID, resumeID, in)
	if err != nil {
		writeError(c, err, "failed to start analysis")
		return
	}

	c.Set("analysisId", a.ID)
	c.Set("cacheHit", a.Cached)
	status := http.StatusAccepted
	if a.Status == StatusCompleted {
		status = http.StatusOK
	}
	respond.JSON(c, status, toResponse(a))
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	c.Set("analysisId", analysisID)

	a, err := h.Svc.Get(c.Request.Context(), userID, analysisID)
	if err != nil {
		writeError(c, err, "failed to fetch analysis")
		return
	}
	c.Set("resumeId", a.ResumeID)
	respond.OK(c, toResponse(a))
}

func (h *Handler) listByResume(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)
	limit, offset := pageParams(c)

	items, err := h.Svc.ListByResume(c.Request.Context(), userID, resumeID, limit, offset)
	if err != nil {
		writeError(c, err, "failed to list analyses")
		return
	}
	respond.OK(c, toSummaries(items))
}

func (h *Handler) listByUser(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit, offset := pageParams(c)

	items, err := h.Svc.ListByUser(c.Request.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list analyses")
		return
	}
	respond.OK(c, toSummaries(items))
}

func writeError(c *gin.Context, err error, fallbackMsg string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid analysis request", verr.Fields)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
	case errors.Is(err, ErrResumeNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
	case errors.Is(err, ErrNoResumeText):
		respond.Error(c, http.StatusUnprocessableEntity, "no_text", "resume has no extracted text to analyze", nil)
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
