// Package body represents the content of an HTTP-like message as an
// immutable value that can be read back as bytes, text, parsed JSON or
// Base64, whatever form it was built from.
//
// A Body wraps a streamsource.Source and a Kind. The kind records how the
// content was supplied (binary, text, JSON, or absent) and the IsBinary and
// IsJSON flags derive from it, so no Body can carry a contradictory pair of
// flags.
//
// Nothing is cached. Every accessor opens a fresh stream from the source and
// drains it, which keeps store-backed bodies lazy: the store is consulted on
// each read, never at construction. The price is that Equal and Hash also
// re-read both sources on every call, an O(content size) cost per
// comparison. Equal streams the two sides chunk by chunk instead of
// materializing them, so comparing large synthetic bodies stays within a
// bounded amount of memory.
package body
