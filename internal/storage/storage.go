// Package storage keeps uploaded files (product images, payment proofs,
// expense receipts) in an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"restaurant-backend/internal/config"
	"restaurant-backend/internal/logger"

	"github.com/google/uuid"
)

type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type ObjectInfo struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// URL returns the address clients use to fetch key.
	URL(key string) string
}

// Default is nil when no driver is configured; uploads then answer 503.
var Default Storage

// NewKey builds "<prefix>/<yyyy>/<mm>/<uuid><ext>" keeping the original extension.
func NewKey(prefix, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%04d/%02d/%s%s", strings.Trim(prefix, "/"), now.Year(), int(now.Month()), uuid.NewString(), ext)
}

// KeyOf returns the key of an object Default serves at url. URLs pointing
// anywhere else report false.
func KeyOf(url string) (string, bool) {
	if Default == nil || url == "" {
		return "", false
	}
	base := Default.URL("")
	if base == "" || !strings.HasPrefix(url, base) {
		return "", false
	}
	key := strings.TrimPrefix(url, base)
	return key, key != ""
}

// Discard removes the object behind url once nothing references it. URLs
// outside Default are ignored and failures are only logged.
func Discard(ctx context.Context, url string) {
	key, ok := KeyOf(url)
	if !ok {
		return
	}
	if err := Default.Delete(ctx, key); err != nil {
		logger.L.Warn("discard stored object failed", "key", key, "error", err)
		return
	}
	logger.L.Info("stored object discarded", "key", key)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

// FromConfig builds the configured backend. An empty driver returns nil and
// leaves uploads disabled.
func FromConfig(ctx context.Context, cfg *config.Config) (Storage, error) {
	if cfg.UploadMaxBytes > 0 {
		MaxUploadBytes = cfg.UploadMaxBytes
	}
	switch cfg.StorageDriver {
	case "minio":
		return NewMinIO(cfg.MinIO)
	case "s3":
		return NewS3(ctx, cfg.S3)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
