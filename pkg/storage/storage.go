package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/clinicore/docintake/pkg/logger"
	"github.com/clinicore/docintake/pkg/storage/minio"
	"github.com/clinicore/docintake/pkg/storage/s3"
)

// StorageType selects the object storage backend.
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Key prefixes shared by the intake service, archive transport and
// preview worker.
const (
	StagingPrefix = "staging/"
	ArchivePrefix = "archive/"
	PreviewPrefix = "previews/"
)

// Storage is the object store holding staged payloads, archived
// documents and generated previews.
type Storage interface {
	// Store writes an object under key and returns the key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get opens an object for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	// Used to expire abandoned staged payloads.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage builds the configured backend.
func NewStorage(storageType StorageType, logger logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.GetClient(logger)
	case StorageTypeMinio:
		return minio.GetClient(logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
