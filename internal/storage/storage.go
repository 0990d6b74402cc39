// Package storage keeps the files of document versions.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/localnerve/docsdb/internal/config"
)

// ErrNotFound is returned when a key has no stored file
var ErrNotFound = stderrors.New("file not found")

// FileStorage stores files under slash separated keys
type FileStorage interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// New creates the storage backend selected by the configuration
func New(ctx context.Context, cfg *config.Config) (FileStorage, error) {
	switch cfg.StorageBackend {
	case "local":
		return NewLocalStorage(cfg.MediaRoot)
	case "s3":
		return NewS3Storage(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}

// ReadAll loads a whole stored file
func ReadAll(ctx context.Context, fs FileStorage, key string) ([]byte, error) {
	rc, err := fs.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
