// Package storage keeps complaint images in a local directory or a GCS bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/spec-kit/grievance-service/internal/config"
)

var (
	// ErrNotFound is returned when no object exists for a key.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidKey is returned for keys that could escape the store.
	ErrInvalidKey = errors.New("invalid blob key")
)

// PublicPrefix is prepended to keys in complaint image references.
const PublicPrefix = "uploads/"

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// BlobStore is a flat key/value store for image bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New selects the backend configured in cfg.
func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Mode {
	case config.StorageModeGCS:
		return NewGCSStore(ctx, cfg.GCSBucket)
	case config.StorageModeLocal, "":
		return NewLocalStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}
}

// ValidateKey rejects empty keys, path separators and dot segments.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// ImageKey names the blob for a ticket's image, e.g. TKT-1A2B3C4D.jpg.
func ImageKey(ticketNumber, format string) string {
	ext := "jpg"
	switch strings.ToLower(format) {
	case "png", "gif", "webp", "bmp", "tiff":
		ext = strings.ToLower(format)
	}
	return ticketNumber + "." + ext
}

// PublicPath is the reference stored on the complaint row for key.
func PublicPath(key string) string {
	return PublicPrefix + key
}

// KeyFromPublicPath reverses PublicPath.
func KeyFromPublicPath(ref string) string {
	return strings.TrimPrefix(ref, PublicPrefix)
}

// ContentTypeForKey maps an image key's extension to a MIME type.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
