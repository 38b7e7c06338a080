package server

import (
	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/analyses"
	"resume-analyzer/internal/cache"
	"resume-analyzer/internal/resumes"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/metrics"
	"resume-analyzer/internal/shared/server/middleware"
	"resume-analyzer/internal/users"
)

// analyses started per user: one every six seconds, bursts of five
const (
	analyzeRate  = 1.0 / 6
	analyzeBurst = 5
)

// RouterDeps carries the handlers and auth collaborators the router mounts.
type RouterDeps struct {
	CORSAllowOrigins []string
	Tokens           middleware.TokenParser
	Revocations      middleware.RevocationChecker
	AnalyzeLimiter   *middleware.RateLimiter

	HealthHandler   *health.Handler
	UserHandler     *users.Handler
	ResumeHandler   *resumes.Handler
	AnalysisHandler *analyses.Handler
	CacheHandler    *cache.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.CORSAllowOrigins),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/metrics", metrics.Handler())
	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterPublicRoutes(api)
	}
	if deps.CacheHandler != nil {
		deps.CacheHandler.RegisterPublicRoutes(api)
	}

	authed := api.Group("", middleware.Auth(deps.Tokens, deps.Revocations))
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(authed)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(authed)
	}
	if deps.CacheHandler != nil {
		deps.CacheHandler.RegisterRoutes(authed)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(authed)

		limited := authed.Group("", middleware.RateLimit(middleware.RateLimitConfig{
			Rules:   map[string]middleware.RateLimitRule{"ANALYZE": {Rate: analyzeRate, Burst: analyzeBurst}},
			Limiter: deps.AnalyzeLimiter,
			GroupFor: func(*gin.Context) string {
				return "ANALYZE"
			},
		}))
		deps.AnalysisHandler.RegisterAnalyzeRoute(limited)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
