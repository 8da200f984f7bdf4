// Package storage is the filesystem abstraction product images are written to.
//
// Two drivers exist:
//   - "local" writes below STORAGE_LOCAL_ROOT (default public/uploads)
//   - "s3" writes to any S3-compatible bucket (AWS, MinIO, R2)
//
// The default disk is chosen with STORAGE_DISK.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get for a missing object.
var ErrNotFound = errors.New("storage: file not found")

// Disk is the driver interface.
type Disk interface {
	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte, contentType string) error

	// GetStream opens path for reading. Caller must close it.
	GetStream(ctx context.Context, path string) (io.ReadCloser, error)

	Exists(ctx context.Context, path string) bool

	// Delete removes path. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL of path.
	URL(path string) string
}

// Get reads a whole object from d.
func Get(ctx context.Context, d Disk, path string) ([]byte, error) {
	rc, err := d.GetStream(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
