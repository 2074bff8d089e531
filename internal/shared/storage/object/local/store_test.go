package local

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/storage/object"
)

func TestPutOpenDelete(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir(), "http://localhost:8080", "k")

	n, err := s.Put(ctx, "temp/u/gen.pdf", "application/pdf", strings.NewReader("%PDF-1.5"))
	if err != nil || n != 8 {
		t.Fatalf("put: n=%d err=%v", n, err)
	}
	rc, err := s.Open(ctx, "temp/u/gen.pdf")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "%PDF-1.5" {
		t.Fatalf("unexpected data %q", data)
	}
	if err := s.Delete(ctx, "temp/u/gen.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Open(ctx, "temp/u/gen.pdf"); err != object.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "temp/u/gen.pdf"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	s := New(t.TempDir(), "", "k")
	for _, key := range []string{"../x", "/etc/passwd", ""} {
		if _, err := s.Put(context.Background(), key, "", strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestSignedURLServedUntilExpiry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := New(t.TempDir(), "http://localhost:8080", "secret").WithClock(func() time.Time { return now })
	if _, err := s.Put(context.Background(), "temp/u/gen.pdf", "application/pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("put: %v", err)
	}
	raw, err := s.SignedURL(context.Background(), "temp/u/gen.pdf", 30*time.Minute, "resume_Acme.pdf")
	if err != nil {
		t.Fatalf("signed url: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	router := gin.New()
	s.RegisterRoutes(router)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Header().Get("Content-Disposition"), "resume_Acme.pdf") {
		t.Fatalf("missing content disposition")
	}

	tampered := strings.Replace(u.RequestURI(), "gen.pdf", "other.pdf", 1)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tampered, nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for tampered key, got %d", resp.Code)
	}

	now = now.Add(31 * time.Minute)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after expiry, got %d", resp.Code)
	}
}
