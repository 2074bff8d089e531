package local

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/server/respond"
	"resume-optimizer/internal/shared/storage/object"
)

// RoutePrefix is where the signed-URL handler is mounted.
const RoutePrefix = "/files"

// Store implements ObjectStore on the local filesystem. Signed URLs point back
// at this process and carry an HMAC over key and expiry.
type Store struct {
	baseDir    string
	baseURL    string
	signingKey []byte
	now        func() time.Time
}

// New creates a local object store rooted at baseDir. An empty signing key
// gets a random per-process key, so URLs do not survive restarts.
func New(baseDir, baseURL, signingKey string) *Store {
	key := []byte(signingKey)
	if len(key) == 0 {
		var b [32]byte
		if _, err := rand.Read(b[:]); err == nil {
			key = b[:]
		} else {
			key = []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
		}
	}
	return &Store{
		baseDir:    baseDir,
		baseURL:    strings.TrimRight(baseURL, "/"),
		signingKey: key,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for URL expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, clean), nil
}

// Put writes the reader to disk at key.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, fmt.Errorf("write body: %w", err)
	}
	return written, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// SignedURL returns <baseURL>/files/<key>?exp=<unix>&sig=<hmac>[&name=...].
func (s *Store) SignedURL(ctx context.Context, key string, ttl time.Duration, downloadName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	exp := s.now().Add(ttl).Unix()
	q := url.Values{}
	q.Set("exp", strconv.FormatInt(exp, 10))
	q.Set("sig", s.sign(key, exp))
	if downloadName != "" {
		q.Set("name", downloadName)
	}
	return s.baseURL + RoutePrefix + "/" + key + "?" + q.Encode(), nil
}

func (s *Store) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(key))
	mac.Write([]byte{'|'})
	mac.Write([]byte(strconv.FormatInt(exp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature and expiry for key.
func (s *Store) Verify(key, expRaw, sig string) bool {
	exp, err := strconv.ParseInt(expRaw, 10, 64)
	if err != nil || s.now().Unix() > exp {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(s.sign(key, exp)))
}

// RegisterRoutes mounts the signed download handler.
func (s *Store) RegisterRoutes(r gin.IRoutes) {
	r.GET(RoutePrefix+"/*key", s.serve)
}

func (s *Store) serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !s.Verify(key, c.Query("exp"), c.Query("sig")) {
		respond.Error(c, http.StatusForbidden, "forbidden", "invalid or expired link", nil)
		return
	}
	rc, err := s.Open(c.Request.Context(), key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file key", nil)
		return
	}
	defer rc.Close()

	if cd := object.ContentDisposition(c.Query("name")); cd != "" {
		c.Header("Content-Disposition", cd)
	}
	c.DataFromReader(http.StatusOK, -1, object.ContentTypeFor(key), rc, nil)
}

var _ object.ObjectStore = (*Store)(nil)
