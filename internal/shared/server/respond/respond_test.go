package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestFailureHidesDetailWhenNotExposed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		expose     bool
		wantDetail bool
	}{
		{name: "production", expose: false, wantDetail: false},
		{name: "dev", expose: true, wantDetail: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router := gin.New()
			router.GET("/x", func(c *gin.Context) {
				Failure(c, http.StatusInternalServerError, "generation_failed", "Failed to generate resume",
					errors.New("pdflatex: Undefined control sequence"), tc.expose, []string{"! Undefined control sequence."})
			})
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))

			var body ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Message != "Failed to generate resume" {
				t.Fatalf("unexpected message %q", body.Error.Message)
			}
			if (body.Error.Details != nil) != tc.wantDetail {
				t.Fatalf("details presence = %v, want %v", body.Error.Details != nil, tc.wantDetail)
			}
		})
	}
}

func TestRedirectIsNotCacheable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/d", func(c *gin.Context) { Redirect(c, "https://files.example.com/a.pdf?sig=x") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/d", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://files.example.com/a.pdf?sig=x" {
		t.Fatalf("unexpected location %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}
}
