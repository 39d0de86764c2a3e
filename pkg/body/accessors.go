package body

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/tendant/simple-body/pkg/streamsource"
	"golang.org/x/text/encoding"
)

// Kind returns the form the body was constructed from.
func (b Body) Kind() Kind {
	return b.kind
}

// Source returns the underlying stream source, nil when absent.
func (b Body) Source() streamsource.Source {
	return b.source
}

// IsAbsent reports whether the body has no backing source.
func (b Body) IsAbsent() bool {
	return b.source == nil
}

// IsPresent reports whether the body has a backing source.
func (b Body) IsPresent() bool {
	return !b.IsAbsent()
}

// IsBinary reports whether the body holds binary content. The absent body
// reports true, matching a body built from nil bytes.
func (b Body) IsBinary() bool {
	return b.kind == KindBinary || b.kind == KindAbsent
}

// IsJSON reports whether the body was built from JSON.
func (b Body) IsJSON() bool {
	return b.kind == KindJSON
}

// Reader opens a new stream over the content. It returns nil, nil for the
// absent body. The caller must close the reader.
func (b Body) Reader() (io.ReadCloser, error) {
	if b.source == nil {
		return nil, nil
	}
	return b.source.Open()
}

// AsBytes opens the source and drains it. It returns nil for the absent body.
// Errors opening the source are returned as is; failures while reading are
// wrapped in a *ReadError.
func (b Body) AsBytes() ([]byte, error) {
	rc, err := b.Reader()
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, nil
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return data, nil
}

// AsString returns the content decoded as UTF-8. The absent body yields "",
// the same as empty text; use IsAbsent to tell them apart.
func (b Body) AsString() (string, error) {
	data, err := b.AsBytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// AsStringWithEncoding returns the content decoded with enc.
func (b Body) AsStringWithEncoding(enc encoding.Encoding) (string, error) {
	if enc == nil {
		return b.AsString()
	}
	data, err := b.AsBytes()
	if err != nil || data == nil {
		return "", err
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", &ReadError{Err: fmt.Errorf("decode text: %w", err)}
	}
	return string(decoded), nil
}

// AsJSON parses the content as JSON into maps, slices and scalars. Parse
// errors come straight from the JSON codec. The absent body yields nil.
func (b Body) AsJSON() (any, error) {
	data, err := b.AsBytes()
	if err != nil || data == nil {
		return nil, err
	}
	var node any
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	return node, nil
}

// AsBase64 returns the content in standard Base64. The absent body yields "",
// the same as empty content; use IsAbsent to tell them apart.
func (b Body) AsBase64() (string, error) {
	data, err := b.AsBytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// String formats the body for debugging. It reads the whole content.
func (b Body) String() string {
	content, err := b.AsString()
	if err != nil {
		content = fmt.Sprintf("<error: %v>", err)
	} else if b.IsAbsent() {
		content = "<absent>"
	}
	return fmt.Sprintf("Body {content=%s, binary=%t, json=%t}", content, b.IsBinary(), b.IsJSON())
}
