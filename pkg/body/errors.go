package body

import (
	"errors"
	"fmt"
)

var (
	// ErrRead is matched by every failure while draining a body's stream
	ErrRead = errors.New("failed to read body content")

	// ErrInvalidBase64 indicates Base64 input that could not be decoded
	ErrInvalidBase64 = errors.New("invalid base64 body")
)

// ReadError wraps an I/O failure that occurred while draining a stream.
// The underlying cause is kept for inspection, all causes share one category.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRead, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Is makes every ReadError match ErrRead.
func (e *ReadError) Is(target error) bool {
	return target == ErrRead
}
