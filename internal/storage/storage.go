package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/ajaydixit/fileflow/internal/config"
)

// Storage holds opaque blobs addressed by key. Originals are stored under
// the bare file ID, processed artifacts under "{fileId}_processed.{ext}".
type Storage interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ArtifactKey builds the storage key for a processed output.
func ArtifactKey(fileID, extension string) string {
	return fmt.Sprintf("%s_processed.%s", fileID, extension)
}

// New selects a backend from configuration.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case "minio":
		return NewMinioStorage(cfg)
	case "local":
		return NewLocalStorage(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Backend)
	}
}
