package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tendant/simple-body/pkg/blobstore"
)

const backendName = "fs"

// ErrInvalidKey indicates a key that does not name a file below the base directory
var ErrInvalidKey = fmt.Errorf("%w: must name a file below the base directory", blobstore.ErrInvalidKey)

// Backend is a filesystem implementation of the blobstore.Store interface
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir: filepath.Clean(config.BaseDir),
	}, nil
}

func (b *Backend) path(key string) (string, error) {
	if key == "" {
		return "", blobstore.ErrEmptyKey
	}
	p := filepath.Join(b.baseDir, filepath.FromSlash(key))
	prefix := b.baseDir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(p, prefix) {
		return "", ErrInvalidKey
	}
	return p, nil
}

// Stat retrieves metadata for an object in the filesystem. The content type
// is detected from the file contents since the filesystem keeps none.
func (b *Backend) Stat(ctx context.Context, key string) (*blobstore.ObjectMeta, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, b.wrap("stat", key, blobstore.ErrNotFound)
	} else if err != nil {
		return nil, b.wrap("stat", key, err)
	}
	// Intermediate directories of nested keys are not objects
	if info.IsDir() {
		return nil, b.wrap("stat", key, blobstore.ErrNotFound)
	}

	contentType := blobstore.DefaultContentType
	if mtype, err := mimetype.DetectFile(filePath); err == nil {
		contentType = mtype.String()
	}

	return &blobstore.ObjectMeta{
		Key:         key,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
	}, nil
}

// Put writes content to the filesystem
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, params blobstore.PutParams) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return b.wrap("put", key, fmt.Errorf("failed to create directory: %w", err))
	}

	// Write to a sibling temp file so readers never see a partial object
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".put-*")
	if err != nil {
		return b.wrap("put", key, fmt.Errorf("failed to create file: %w", err))
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return b.wrap("put", key, fmt.Errorf("failed to write file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return b.wrap("put", key, err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return b.wrap("put", key, err)
	}

	return nil
}

// GetStream opens the file stored under key
func (b *Backend) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := b.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, b.wrap("get", key, blobstore.ErrNotFound)
	} else if err != nil {
		return nil, b.wrap("get", key, fmt.Errorf("failed to open file: %w", err))
	}
	if info, err := file.Stat(); err != nil || info.IsDir() {
		file.Close()
		if err != nil {
			return nil, b.wrap("get", key, err)
		}
		return nil, b.wrap("get", key, blobstore.ErrNotFound)
	}

	return file, nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, key string) error {
	filePath, err := b.path(key)
	if err != nil {
		return err
	}

	if info, err := os.Stat(filePath); os.IsNotExist(err) || (err == nil && info.IsDir()) {
		return b.wrap("delete", key, blobstore.ErrNotFound)
	}

	if err := os.Remove(filePath); err != nil {
		return b.wrap("delete", key, fmt.Errorf("failed to delete file: %w", err))
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}

func (b *Backend) wrap(op, key string, err error) error {
	return &blobstore.StorageError{Backend: backendName, Key: key, Op: op, Err: err}
}

var _ blobstore.Store = (*Backend)(nil)
