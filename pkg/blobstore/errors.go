package blobstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no object is stored under the requested key
	ErrNotFound = errors.New("object not found")

	// ErrEmptyKey indicates an operation was called with an empty key
	ErrEmptyKey = errors.New("object key is required")

	// ErrInvalidKey indicates a key the backend cannot map to an object
	ErrInvalidKey = errors.New("invalid object key")
)

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsInvalidKey reports whether err indicates an empty or unusable key.
func IsInvalidKey(err error) bool {
	return errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrEmptyKey)
}

// IsNotFound reports whether err indicates a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
