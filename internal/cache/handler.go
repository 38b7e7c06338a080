package cache

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

// Handler exposes cache statistics and per-user clearing.
type Handler struct {
	Gateway *Gateway
}

// NewHandler constructs a Handler.
func NewHandler(g *Gateway) *Handler {
	return &Handler{Gateway: g}
}

// RegisterPublicRoutes attaches routes that need no identity.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/cache/status", h.status)
}

// RegisterRoutes attaches routes that act on the caller's cache entries.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cache/me", h.mine)
	rg.DELETE("/cache/me", h.clearMine)
}

// publicStatus is the unauthenticated view of Status. It carries totals only
// so user IDs never leave the service.
type publicStatus struct {
	Enabled             bool   `json:"enabled"`
	TotalCachedAnalyses int    `json:"totalCachedAnalyses"`
	UsersWithCachedData int    `json:"usersWithCachedData"`
	Error               string `json:"error,omitempty"`
}

func (h *Handler) status(c *gin.Context) {
	st := h.Gateway.Status(c.Request.Context())
	respond.OK(c, publicStatus{
		Enabled:             st.Enabled,
		TotalCachedAnalyses: st.TotalCachedAnalyses,
		UsersWithCachedData: st.UsersWithCachedData,
		Error:               st.Error,
	})
}

func (h *Handler) mine(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	st := h.Gateway.Status(c.Request.Context())
	respond.OK(c, gin.H{
		"enabled":        st.Enabled,
		"userId":         userID,
		"cachedAnalyses": st.PerUser[userID],
	})
}

func (h *Handler) clearMine(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if !h.Gateway.Enabled() {
		respond.OK(c, gin.H{"message": "Cache is not enabled", "userId": userID, "analysesCleared": 0})
		return
	}
	n, err := h.Gateway.InvalidateUser(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "cache_error", "failed to clear cache", nil)
		return
	}
	respond.OK(c, gin.H{
		"message":         fmt.Sprintf("Your cache has been cleared. %d analyses removed.", n),
		"userId":          userID,
		"analysesCleared": n,
	})
}
