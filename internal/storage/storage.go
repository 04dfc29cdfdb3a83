// Package storage keeps rendered invoice artifacts on local disk or in S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

// Store persists artifacts by key. Keys are slash-separated and relative.
type Store interface {
	// Put writes data under key and returns where it now lives (path or URL).
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	// Open returns the artifact stored under key. Callers close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// New builds the store selected by cfg.Backend.
func New(cfg common.StorageConfig, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocalStore(cfg.Dir, logger)
	case "s3":
		return NewS3Store(cfg.Bucket, cfg.Region, cfg.Prefix, logger)
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown storage backend %q", cfg.Backend), nil)
	}
}

// cleanKey rejects absolute keys and keys that climb out of the store root.
func cleanKey(key string) (string, error) {
	k := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if key == "" || k == "." || strings.HasPrefix(k, "/") || k == ".." || strings.HasPrefix(k, "../") {
		return "", common.InvalidInput(fmt.Sprintf("invalid storage key %q", key))
	}
	return k, nil
}
