// Package contenttype classifies declared content types as text or binary
// and resolves their character encodings.
package contenttype

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// textMarkers are substrings that mark a media type as textual wherever they
// appear, e.g. application/vnd.api+json or image/svg+xml.
var textMarkers = []string{
	"text",
	"json",
	"xml",
	"html",
	"javascript",
	"ecmascript",
	"csv",
	"yaml",
	"x-www-form-urlencoded",
}

// MediaType returns the lower-cased media type of contentType with any
// parameters removed. Malformed parameters are ignored.
func MediaType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// IsText reports whether content declared with contentType should be
// handled as text. An empty or unknown content type is binary.
func IsText(contentType string) bool {
	mt := MediaType(contentType)
	if mt == "" {
		return false
	}
	for _, marker := range textMarkers {
		if strings.Contains(mt, marker) {
			return true
		}
	}

	// Known types inheriting from text/plain, e.g. application/x-sh
	for m := mimetype.Lookup(mt); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Charset returns the encoding named by the charset parameter of
// contentType. Without a charset parameter it returns UTF-8.
func Charset(contentType string) (encoding.Encoding, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["charset"] == "" {
		return unicode.UTF8, nil
	}
	return Lookup(params["charset"])
}

// Lookup returns the encoding registered under name, using the WHATWG
// encoding labels (utf-8, iso-8859-1, windows-1252, shift_jis, ...).
func Lookup(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", name, err)
	}
	return enc, nil
}
