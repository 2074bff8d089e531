package object

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"time"

	"resume-optimizer/internal/shared/util"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("object not found")

// ObjectStore defines the contract for storing generated artifacts and handing out
// time-limited retrieval URLs for them.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration, downloadName string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ArtifactKey is the per-user, per-generation location of a rendered résumé.
func ArtifactKey(userID, generationID, ext string) string {
	if ext == "" {
		ext = ".pdf"
	}
	return path.Join("temp", util.HashUserKey(userID), generationID+ext)
}

// ContentDisposition returns an attachment header value for name, or "" when
// name is empty or unusable as a file name.
func ContentDisposition(name string) string {
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return ""
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": clean})
}

// ContentTypeFor guesses a content type from the key's extension.
func ContentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
