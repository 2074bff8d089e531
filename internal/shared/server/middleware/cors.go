package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	corsMethods = "GET, POST, OPTIONS"
	corsHeaders = "Authorization, Content-Type, X-Request-ID"
	corsExpose  = "X-Request-ID, Retry-After"
	corsMaxAge  = "600"
)

// corsPolicy matches request origins against exact entries, "*" or
// "https://*.example.com" style suffix patterns.
type corsPolicy struct {
	exact    map[string]bool
	suffixes []string
	any      bool
}

func newCORSPolicy(origins []string) corsPolicy {
	p := corsPolicy{exact: map[string]bool{}}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "":
		case o == "*":
			p.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			p.suffixes = append(p.suffixes, scheme+"://|"+host)
		default:
			p.exact[o] = true
		}
	}
	return p
}

// allow reports whether origin may call the API and whether credentials
// may accompany the response. Wildcards never get credentials.
func (p corsPolicy) allow(origin string) (ok, credentials bool) {
	if p.exact[origin] {
		return true, true
	}
	for _, s := range p.suffixes {
		scheme, host, _ := strings.Cut(s, "|")
		rest, found := strings.CutPrefix(origin, scheme)
		if found && strings.HasSuffix(rest, host) && len(rest) > len(host) {
			return true, false
		}
	}
	return p.any, false
}

// CORS answers preflight requests and decorates responses for allowed origins.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newCORSPolicy(allowedOrigins)
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			h := c.Writer.Header()
			h.Add("Vary", "Origin")
			if ok, creds := policy.allow(origin); ok {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Expose-Headers", corsExpose)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				if creds {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
