package blobstore

import (
	"context"
	"io"
	"time"
)

// Getter is the read side of a keyed object store.
type Getter interface {
	// GetStream returns a reader over the object stored under key.
	// A missing key returns an error matching ErrNotFound.
	// The caller is responsible for closing the reader.
	GetStream(ctx context.Context, key string) (io.ReadCloser, error)
}

// Store defines the interface for keyed object storage backends
type Store interface {
	Getter

	// Put stores the content of reader under key, replacing any previous object
	Put(ctx context.Context, key string, reader io.Reader, params PutParams) error

	// Delete deletes the object stored under key
	Delete(ctx context.Context, key string) error

	// Stat retrieves metadata for the object stored under key
	Stat(ctx context.Context, key string) (*ObjectMeta, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// PutParams contains optional parameters for storing an object
type PutParams struct {
	ContentType string
}

// DefaultContentType is recorded for objects stored without a content type.
const DefaultContentType = "application/octet-stream"

// ContentTypeOrDefault returns p.ContentType, or DefaultContentType when unset.
func (p PutParams) ContentTypeOrDefault() string {
	if p.ContentType == "" {
		return DefaultContentType
	}
	return p.ContentType
}
