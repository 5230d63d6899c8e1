// Package storage provides object storage for stock feed files: pulled ERP
// exports, CSV drops and archived manual uploads.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectNotFound is returned when the requested key does not exist
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectInfo describes one stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is the object store used for feed files. An empty bucket
// selects the deployment's default bucket; file-based integrations may name
// their own. Implementations: S3-compatible backends for production, an
// in-memory store for development and tests.
type ObjectStorage interface {
	// Put stores the object under key, replacing any existing content
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error

	// Get opens the object for reading. The caller closes the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// List returns all objects whose key starts with prefix
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}
