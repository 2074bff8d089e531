package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/telemetry"
)

// Keys handlers may set so the request log carries pipeline identifiers.
const (
	AnalysisIDKey   = "analysisId"
	GenerationIDKey = "generationId"
)

// Observer receives per-request measurements, typically a metrics registry.
type Observer interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Logging emits a structured log per request.
func Logging(observers ...Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		for _, o := range observers {
			if o != nil {
				o.ObserveRequest(c.Request.Method, route, status, latency)
			}
		}

		analysisID, _ := c.Get(AnalysisIDKey)
		generationID, _ := c.Get(GenerationIDKey)
		telemetry.Info("request.complete", map[string]any{
			"request_id":    RequestIDFromContext(c),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"route":         route,
			"status":        status,
			"duration_ms":   float64(latency.Microseconds()) / 1000.0,
			"user_id":       UserIDFromContext(c),
			"analysis_id":   analysisID,
			"generation_id": generationID,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}
