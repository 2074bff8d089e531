package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/analyses"
	"resume-optimizer/internal/generations"
	"resume-optimizer/internal/services/health"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/metrics"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
	localstore "resume-optimizer/internal/shared/storage/object/local"
)

// RouterDeps holds what NewRouter wires. Files is set only for the local
// object store, whose signed URLs point back at this server.
type RouterDeps struct {
	Config      config.Config
	Verifier    middleware.TokenVerifier
	Analyses    *analyses.Handler
	Generations *generations.Handler
	Files       *localstore.Store
	Health      *health.Service
	// Now overrides the rate limiter clock in tests.
	Now func() time.Time
}

const (
	groupAnalyze  = "ANALYZE"
	groupGenerate = "GENERATE"
	groupDownload = "DOWNLOAD"
	groupVerify   = "VERIFY"
	groupDefault  = "DEFAULT"
)

// RateLimits returns the per-user request budgets per route group.
func RateLimits() map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		groupAnalyze:  middleware.PerMinute(10),
		groupGenerate: middleware.PerMinute(5),
		groupDownload: middleware.PerMinute(20),
		groupVerify:   middleware.PerMinute(10),
		groupDefault:  middleware.PerMinute(60),
	}
}

var routeGroups = map[string]string{
	"POST /api/v1/resume/analyze":     groupAnalyze,
	"POST /api/v1/resume/generate":    groupGenerate,
	"GET /api/v1/resume/download/:id": groupDownload,
	"GET /api/v1/auth/verify":         groupVerify,
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(metrics.HTTPObserver{}),
		middleware.Recovery(),
		middleware.SecurityHeaders(deps.Config.IsProduction()),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Verifier, "/health", "/metrics", "/files/"),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        RateLimits(),
			DefaultGroup: groupDefault,
			GroupFor:     middleware.RouteGroups(routeGroups),
			Limiter:      middleware.NewRateLimiter(deps.Now),
		}),
	)

	r.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, health.Report{Status: "healthy", Version: health.Version})
			return
		}
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})
	r.GET("/metrics", metrics.Handler())
	if deps.Files != nil {
		deps.Files.RegisterRoutes(r)
	}

	api := r.Group("/api/v1")
	registerAuthRoutes(api)
	if deps.Analyses != nil {
		deps.Analyses.RegisterRoutes(api)
	}
	if deps.Generations != nil {
		deps.Generations.RegisterRoutes(api)
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
