package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/server/respond"
)

// Handler exposes health endpoints.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the public health routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.status)
	rg.GET("/health/ai", h.model)
}

func (h *Handler) status(c *gin.Context) {
	report := h.Svc.Status(c.Request.Context())
	code := http.StatusOK
	if report.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	respond.JSON(c, code, report)
}

func (h *Handler) model(c *gin.Context) {
	respond.OK(c, h.Svc.ModelStatus(c.Request.Context()))
}
