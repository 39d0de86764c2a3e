package badger

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-body/pkg/blobstore"
)

func newInMemory(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadgerBackend(t *testing.T) {
	backend := newInMemory(t)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "doc.json", strings.NewReader(`{"a":1}`), blobstore.PutParams{ContentType: "application/json"}))

	t.Run("Stat", func(t *testing.T) {
		meta, err := backend.Stat(ctx, "doc.json")
		require.NoError(t, err)
		assert.Equal(t, int64(7), meta.Size)
		assert.Equal(t, "application/json", meta.ContentType)
		assert.False(t, meta.UpdatedAt.IsZero())
	})

	t.Run("GetStreamRepeatable", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			rc, err := backend.GetStream(ctx, "doc.json")
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, `{"a":1}`, string(data))
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := backend.GetStream(ctx, "missing")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)

		var storageErr *blobstore.StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "badger", storageErr.Backend)
		assert.Equal(t, "missing", storageErr.Key)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, "doc.json"))
		_, err := backend.Stat(ctx, "doc.json")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
		assert.ErrorIs(t, backend.Delete(ctx, "doc.json"), blobstore.ErrNotFound)
	})
}

func TestBadgerBackendConcurrentReads(t *testing.T) {
	backend := newInMemory(t)
	ctx := context.Background()
	payload := strings.Repeat("x", 64*1024)
	require.NoError(t, backend.Put(ctx, "big", strings.NewReader(payload), blobstore.PutParams{}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc, err := backend.GetStream(ctx, "big")
			if !assert.NoError(t, err) {
				return
			}
			data, err := io.ReadAll(rc)
			assert.NoError(t, err)
			assert.Equal(t, len(payload), len(data))
		}()
	}
	wg.Wait()
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}
