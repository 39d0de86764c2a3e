package body

import (
	"bytes"
	"errors"
	"io"

	"github.com/cespare/xxhash/v2"
)

const compareChunkSize = 32 * 1024

// Equal reports whether b and other have the same binary flag and the same
// content bytes. How each body was built, its JSON flag and any text
// encoding do not matter beyond the bytes they produced.
//
// Both sources are opened and compared chunk by chunk on every call.
func (b Body) Equal(other Body) (bool, error) {
	if b.IsBinary() != other.IsBinary() {
		return false, nil
	}

	ra, err := b.Reader()
	if err != nil {
		return false, err
	}
	if ra != nil {
		defer ra.Close()
	}
	rb, err := other.Reader()
	if err != nil {
		return false, err
	}
	if rb != nil {
		defer rb.Close()
	}

	if ra == nil || rb == nil {
		return ra == nil && rb == nil, nil
	}
	return equalStreams(ra, rb)
}

func equalStreams(a, b io.Reader) (bool, error) {
	bufA := make([]byte, compareChunkSize)
	bufB := make([]byte, compareChunkSize)
	for {
		na, errA := io.ReadFull(a, bufA)
		if errA != nil && !isEOF(errA) {
			return false, &ReadError{Err: errA}
		}
		nb, errB := io.ReadFull(b, bufB)
		if errB != nil && !isEOF(errB) {
			return false, &ReadError{Err: errB}
		}

		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		// Equal short reads mean both streams ended
		if errA != nil {
			return true, nil
		}
	}
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Hash returns a hash of the binary flag and content bytes, consistent with
// Equal: equal bodies hash alike. The content is streamed on every call.
func (b Body) Hash() (uint64, error) {
	h := xxhash.New()
	if b.IsBinary() {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}

	rc, err := b.Reader()
	if err != nil {
		return 0, err
	}
	if rc == nil {
		return h.Sum64(), nil
	}
	defer rc.Close()

	// Separate present content from the absent body
	_, _ = h.Write([]byte{1})
	if _, err := io.Copy(h, rc); err != nil {
		return 0, &ReadError{Err: err}
	}
	return h.Sum64(), nil
}
