package body

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tendant/simple-body/pkg/contenttype"
	"github.com/tendant/simple-body/pkg/streamsource"
	"golang.org/x/text/encoding"
)

// Kind identifies the form a Body was constructed from
type Kind int

const (
	// KindAbsent is a body with no content
	KindAbsent Kind = iota
	// KindBinary is raw bytes, or content from an arbitrary stream source
	KindBinary
	// KindText is encoded text
	KindText
	// KindJSON is serialized JSON
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindBinary:
		return "binary"
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Body is immutable message content. The zero value is the absent body.
type Body struct {
	source streamsource.Source
	kind   Kind
}

var none = Body{kind: KindAbsent}

// None returns the absent body.
func None() Body {
	return none
}

func newBody(src streamsource.Source, kind Kind) Body {
	return Body{source: src, kind: kind}
}

// FromBytes returns a binary body over data, or None for nil data.
// data is not copied and must not be modified afterwards.
func FromBytes(data []byte) Body {
	if data == nil {
		return None()
	}
	return newBody(streamsource.ForBytes(data), KindBinary)
}

// FromString returns a text body holding s encoded as UTF-8.
func FromString(s string) Body {
	return newBody(streamsource.ForBytes([]byte(s)), KindText)
}

// FromStringWithEncoding returns a text body holding s encoded with enc.
// Read it back with AsStringWithEncoding and the same encoding.
func FromStringWithEncoding(s string, enc encoding.Encoding) (Body, error) {
	src, err := streamsource.ForString(s, enc)
	if err != nil {
		return None(), err
	}
	return newBody(src, KindText), nil
}

// FromJSON serializes node and returns a JSON body over the result.
// Serialization errors come straight from the JSON codec.
func FromJSON(node any) (Body, error) {
	data, err := json.Marshal(node)
	if err != nil {
		return None(), err
	}
	return newBody(streamsource.ForBytes(data), KindJSON), nil
}

// FromJSONBytes returns a JSON body over data without re-serializing it; the
// caller vouches that data is valid JSON. Nil data returns None.
func FromJSONBytes(data []byte) Body {
	if data == nil {
		return None()
	}
	return newBody(streamsource.ForBytes(data), KindJSON)
}

// FromSource returns a binary body reading from src, or None for a nil src.
func FromSource(src streamsource.Source) Body {
	if src == nil {
		return None()
	}
	return newBody(src, KindBinary)
}

// OfBinaryOrText returns a body over content, typed as text when
// contentType names a textual media type and as binary otherwise.
func OfBinaryOrText(content []byte, contentType string) Body {
	if content == nil {
		return None()
	}
	kind := KindBinary
	if contenttype.IsText(contentType) {
		kind = KindText
	}
	return newBody(streamsource.ForBytes(content), kind)
}

// FromSourceOfType returns a body reading from src, typed as text when
// contentType names a textual media type and as binary otherwise. A nil src
// returns None.
func FromSourceOfType(src streamsource.Source, contentType string) Body {
	if src == nil {
		return None()
	}
	kind := KindBinary
	if contenttype.IsText(contentType) {
		kind = KindText
	}
	return newBody(src, kind)
}

// OneOf holds alternative representations of one body. Unset fields are nil.
type OneOf struct {
	Bytes  []byte
	Text   *string
	JSON   any
	Base64 *string
}

// FromOneOf builds a body from the first usable alternative in the order
// Bytes, Text, JSON, Base64. A JSON value serializing to null is skipped.
// Later alternatives are ignored once one is used, even if they are set.
// A Base64 string decodes to a binary body.
func FromOneOf(in OneOf) (Body, error) {
	if in.Bytes != nil {
		return FromBytes(in.Bytes), nil
	}
	if in.Text != nil {
		return FromString(*in.Text), nil
	}
	if in.JSON != nil {
		data, err := json.Marshal(in.JSON)
		if err != nil {
			return None(), err
		}
		if !isNullJSON(data) {
			return newBody(streamsource.ForBytes(data), KindJSON), nil
		}
	}
	if in.Base64 != nil {
		data, err := decodeBase64(*in.Base64)
		if err != nil {
			return None(), err
		}
		return newBody(streamsource.ForBytes(data), KindBinary), nil
	}
	return None(), nil
}

func isNullJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeBase64 accepts standard Base64 with or without padding.
func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrInvalidBase64, err)
}
