package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/tendant/simple-body/pkg/blobstore"
)

const backendName = "memory"

type object struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

// Backend is an in-memory implementation of the blobstore.Store interface
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects: make(map[string]object),
	}
}

// Stat retrieves metadata for an object in memory
func (b *Backend) Stat(ctx context.Context, key string) (*blobstore.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, notFound("stat", key)
	}

	return &blobstore.ObjectMeta{
		Key:         key,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		UpdatedAt:   obj.updatedAt,
	}, nil
}

// Put stores content in memory. Stored bytes are never mutated; a later Put
// replaces the slice so readers handed out earlier keep their view.
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, params blobstore.PutParams) error {
	if key == "" {
		return blobstore.ErrEmptyKey
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return &blobstore.StorageError{Backend: backendName, Key: key, Op: "put", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[key] = object{
		data:        data,
		contentType: params.ContentTypeOrDefault(),
		updatedAt:   time.Now().UTC(),
	}
	return nil
}

// GetStream returns a fresh reader over the stored bytes
func (b *Backend) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, exists := b.objects[key]
	if !exists {
		return nil, notFound("get", key)
	}

	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; !exists {
		return notFound("delete", key)
	}

	delete(b.objects, key)
	return nil
}

// Len returns the number of stored objects
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

func notFound(op, key string) error {
	return &blobstore.StorageError{Backend: backendName, Key: key, Op: op, Err: blobstore.ErrNotFound}
}

var _ blobstore.Store = (*Backend)(nil)
