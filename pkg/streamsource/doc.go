// Package streamsource provides repeatable producers of byte streams.
//
// A Source hands out a fresh io.ReadCloser on every Open call, each
// positioned at the start of the same logical content. Sources carry no read
// state of their own, so a single Source may be opened any number of times,
// from any number of goroutines, without one reader disturbing another.
//
// The package offers the variants a message body needs:
//   - ForBytes and ForString: constant content held in memory.
//   - ForRepeatingByte: a synthetic stream of one byte repeated a fixed
//     number of times, for very large bodies that are never allocated.
//   - ForBlobStoreItem: content fetched from a keyed object store when the
//     source is opened, never when it is created.
//
// Repeatability of store-backed sources is only as strong as the store's own
// guarantee: every Open issues a new fetch and returns whatever the store
// holds at that moment.
package streamsource
