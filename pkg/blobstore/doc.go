// Package blobstore defines the keyed object store consulted lazily by
// store-backed stream sources, together with the ObjectMeta and error types
// shared by its backends.
//
// Backends live under subpackages: memory, fs (local filesystem), s3
// (S3-compatible services), postgres (bytea table), redis and badger
// (embedded key/value). Every backend reports a missing key with an error
// matching ErrNotFound, usually wrapped in a *StorageError naming the backend
// and key.
package blobstore
