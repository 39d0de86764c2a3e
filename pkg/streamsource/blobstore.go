package streamsource

import (
	"context"
	"fmt"
	"io"

	"github.com/tendant/simple-body/pkg/blobstore"
)

// NotFoundError reports a store-backed source whose key has no entry.
// It matches blobstore.ErrNotFound with errors.Is.
type NotFoundError struct {
	Key string
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found in blob store: %s", e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ForBlobStoreItem returns a source that fetches key from store each time it
// is opened. Creating the source performs no I/O. ctx is used for every
// fetch; cancelling it makes later opens fail with the store's error.
func ForBlobStoreItem(ctx context.Context, store blobstore.Getter, key string) Source {
	return Func(func() (io.ReadCloser, error) {
		rc, err := store.GetStream(ctx, key)
		switch {
		case blobstore.IsNotFound(err):
			return nil, &NotFoundError{Key: key, Err: err}
		case err != nil:
			return nil, err
		case rc == nil:
			return nil, &NotFoundError{Key: key, Err: blobstore.ErrNotFound}
		}
		return rc, nil
	})
}
