package streamsource

import (
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSize is returned when a synthetic source is asked for fewer than one byte
var ErrInvalidSize = errors.New("size must be at least 1")

// FixedSizeSource produces a run of one repeated byte without allocating it.
type FixedSizeSource struct {
	b    byte
	size int64
}

// ForRepeatingByte returns a source yielding exactly size copies of b.
func ForRepeatingByte(b byte, size int64) (*FixedSizeSource, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: size=%d", ErrInvalidSize, size)
	}
	return &FixedSizeSource{b: b, size: size}, nil
}

// Open returns a reader with its own countdown starting at the full size.
func (s *FixedSizeSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(&fixedSizeReader{b: s.b, remaining: s.size}), nil
}

// Size returns the number of bytes every reader yields.
func (s *FixedSizeSource) Size() int64 {
	return s.size
}

type fixedSizeReader struct {
	b         byte
	remaining int64
}

func (r *fixedSizeReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	n := len(p)
	if int64(n) > r.remaining {
		n = int(r.remaining)
	}

	// Fill by doubling copies
	p[0] = r.b
	for filled := 1; filled < n; filled *= 2 {
		copy(p[filled:n], p[:filled])
	}

	r.remaining -= int64(n)
	return n, nil
}
