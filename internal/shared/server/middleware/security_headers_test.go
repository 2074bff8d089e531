package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, strict := range []bool{false, true} {
		router := gin.New()
		router.Use(SecurityHeaders(strict))
		router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

		if got := resp.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Fatalf("expected nosniff, got %q", got)
		}
		if got := resp.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Fatalf("expected DENY, got %q", got)
		}
		hsts := resp.Header().Get("Strict-Transport-Security")
		if strict && hsts == "" {
			t.Fatalf("expected HSTS header in strict mode")
		}
		if !strict && hsts != "" {
			t.Fatalf("unexpected HSTS header: %q", hsts)
		}
	}
}
