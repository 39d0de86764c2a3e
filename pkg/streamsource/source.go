package streamsource

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

// Source produces independent readers over the same logical content.
type Source interface {
	// Open returns a new reader positioned at the start of the content.
	// It is the caller's responsibility to close the reader.
	//
	// Open MUST be safe to call multiple times and concurrently; readers
	// returned by different calls do not share state.
	//
	// A nil reader with a nil error means the source has no content at all,
	// which is distinct from empty content.
	Open() (io.ReadCloser, error)
}

// Func adapts an ordinary function to the Source interface.
type Func func() (io.ReadCloser, error)

// Open calls f.
func (f Func) Open() (io.ReadCloser, error) {
	return f()
}

// bytesSource serves a fixed byte slice. The slice is never copied, so the
// caller must not modify it after handing it over.
type bytesSource struct {
	data []byte
}

func (s bytesSource) Open() (io.ReadCloser, error) {
	if s.data == nil {
		return nil, nil
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// Size returns the content length, or -1 for a nil slice.
func (s bytesSource) Size() int64 {
	if s.data == nil {
		return -1
	}
	return int64(len(s.data))
}

// ForBytes returns a Source over data. A nil slice yields a source whose
// Open reports no content.
func ForBytes(data []byte) Source {
	return bytesSource{data: data}
}

// ForString returns a Source over s encoded with enc. A nil enc means UTF-8.
// Characters enc cannot represent are replaced with its substitute byte.
func ForString(s string, enc encoding.Encoding) (Source, error) {
	if enc == nil {
		return ForBytes([]byte(s)), nil
	}
	data, err := encoding.ReplaceUnsupported(enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode string: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return ForBytes(data), nil
}

// Empty returns a Source over zero bytes.
func Empty() Source {
	return ForBytes([]byte{})
}

// ReadAll opens src and drains it. It returns nil when src has no content.
func ReadAll(src Source) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, nil
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
