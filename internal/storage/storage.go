// Package storage writes audit archive exports to object storage. Archives
// are write-once: the package exposes no read or delete path.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/hughigh/loginserver/config"
)

// ObjectStorage defines the archive operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// New selects an ObjectStorage backend from config.
func New(ctx context.Context, cfg config.ArchiveConfig) (ObjectStorage, error) {
	switch cfg.Backend {
	case "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
