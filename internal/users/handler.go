package users

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/shared/server/respond"
)

// Handler wires auth and profile routes to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterPublicRoutes attaches register and login.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
}

// RegisterRoutes attaches routes that need an authenticated caller.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/logout", h.logout)
	rg.GET("/auth/me", h.me)
	rg.PUT("/auth/me", h.updateMe)
}

type userResponse struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	ConsentPOPI  bool      `json:"consent_popi"`
	ConsentTerms bool      `json:"consent_terms"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Name:         u.Name,
		Surname:      u.Surname,
		ConsentPOPI:  u.ConsentPOPI,
		ConsentTerms: u.ConsentTerms,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, err := h.Svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "failed to register user")
		return
	}
	respond.JSON(c, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	token, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err, "failed to log in")
		return
	}
	respond.OK(c, token)
}

func (h *Handler) logout(c *gin.Context) {
	jti, exp := middleware.TokenFromContext(c)
	if err := h.Svc.Logout(c.Request.Context(), middleware.UserIDFromContext(c), jti, exp); err != nil {
		writeError(c, err, "failed to log out")
		return
	}
	respond.OK(c, gin.H{"message": "Successfully logged out"})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.Me(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to load user")
		return
	}
	respond.OK(c, toUserResponse(user))
}

func (h *Handler) updateMe(c *gin.Context) {
	var req ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	user, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		writeError(c, err, "failed to update user")
		return
	}
	respond.OK(c, toUserResponse(user))
}

func writeError(c *gin.Context, err error, fallbackMsg string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid input", verr.Fields)
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken), errors.Is(err, ErrSAIDTaken):
		respond.Error(c, http.StatusBadRequest, "already_registered", err.Error(), nil)
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, ErrInactive):
		respond.Error(c, http.StatusUnauthorized, "inactive_account", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallbackMsg, nil)
	}
}
