package streamsource_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-body/pkg/blobstore"
	"github.com/tendant/simple-body/pkg/blobstore/memory"
	"github.com/tendant/simple-body/pkg/streamsource"
	"github.com/tendant/simple-body/pkg/streamsource/streamsourcetest"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestForBytes(t *testing.T) {
	t.Run("Repeatable", func(t *testing.T) {
		data := []byte("some bytes")
		streamsourcetest.AssertRepeatable(t, streamsource.ForBytes(data), data)
	})

	t.Run("NilIsNoContent", func(t *testing.T) {
		rc, err := streamsource.ForBytes(nil).Open()
		assert.NoError(t, err)
		assert.Nil(t, rc)

		data, err := streamsource.ReadAll(streamsource.ForBytes(nil))
		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := streamsource.ReadAll(streamsource.Empty())
		require.NoError(t, err)
		assert.NotNil(t, data)
		assert.Len(t, data, 0)
	})
}

func TestForString(t *testing.T) {
	t.Run("DefaultUTF8", func(t *testing.T) {
		src, err := streamsource.ForString("héllo", nil)
		require.NoError(t, err)
		streamsourcetest.AssertRepeatable(t, src, []byte("héllo"))
	})

	t.Run("Latin1", func(t *testing.T) {
		src, err := streamsource.ForString("héllo", charmap.ISO8859_1)
		require.NoError(t, err)
		data, err := streamsource.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, []byte{'h', 0xe9, 'l', 'l', 'o'}, data)
	})

	t.Run("UTF16", func(t *testing.T) {
		src, err := streamsource.ForString("hi", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))
		require.NoError(t, err)
		data, err := streamsource.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 'h', 0, 'i'}, data)
	})

	t.Run("UnsupportedCharactersReplaced", func(t *testing.T) {
		src, err := streamsource.ForString("a€b", charmap.ISO8859_1)
		require.NoError(t, err)
		data, err := streamsource.ReadAll(src)
		require.NoError(t, err)
		assert.Len(t, data, 3)
		assert.Equal(t, byte('a'), data[0])
		assert.Equal(t, byte('b'), data[2])
	})
}

func TestFunc(t *testing.T) {
	var calls int32
	src := streamsource.Func(func() (io.ReadCloser, error) {
		atomic.AddInt32(&calls, 1)
		return io.NopCloser(strings.NewReader("f")), nil
	})

	streamsourcetest.AssertRepeatable(t, src, []byte("f"))
	assert.Greater(t, atomic.LoadInt32(&calls), int32(2))
}

func TestForBlobStoreItem(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Put(ctx, "present", bytes.NewReader([]byte("stored content")), blobstore.PutParams{}))

	t.Run("Present", func(t *testing.T) {
		src := streamsource.ForBlobStoreItem(ctx, store, "present")
		streamsourcetest.AssertRepeatable(t, src, []byte("stored content"))
	})

	t.Run("Missing", func(t *testing.T) {
		src := streamsource.ForBlobStoreItem(ctx, store, "absent-key")
		rc, err := src.Open()
		assert.Nil(t, rc)
		require.Error(t, err)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
		assert.Contains(t, err.Error(), "absent-key")

		var nf *streamsource.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "absent-key", nf.Key)
	})

	t.Run("Lazy", func(t *testing.T) {
		counting := &countingGetter{Getter: store}
		src := streamsource.ForBlobStoreItem(ctx, counting, "present")
		assert.Equal(t, 0, counting.calls)

		_, err := streamsource.ReadAll(src)
		require.NoError(t, err)
		_, err = streamsource.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, 2, counting.calls)
	})

	t.Run("SeesLaterWrites", func(t *testing.T) {
		src := streamsource.ForBlobStoreItem(ctx, store, "later")
		_, err := src.Open()
		assert.ErrorIs(t, err, blobstore.ErrNotFound)

		require.NoError(t, store.Put(ctx, "later", strings.NewReader("now here"), blobstore.PutParams{}))
		data, err := streamsource.ReadAll(src)
		require.NoError(t, err)
		assert.Equal(t, "now here", string(data))
	})

	t.Run("OtherErrorsPassThrough", func(t *testing.T) {
		boom := errors.New("connection refused")
		src := streamsource.ForBlobStoreItem(ctx, failingGetter{err: boom}, "k")
		_, err := src.Open()
		assert.ErrorIs(t, err, boom)
		var nf *streamsource.NotFoundError
		assert.False(t, errors.As(err, &nf))
	})

	t.Run("NilStreamIsNotFound", func(t *testing.T) {
		src := streamsource.ForBlobStoreItem(ctx, failingGetter{}, "k")
		_, err := src.Open()
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

type countingGetter struct {
	blobstore.Getter
	calls int
}

func (g *countingGetter) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	g.calls++
	return g.Getter.GetStream(ctx, key)
}

type failingGetter struct {
	err error
}

func (g failingGetter) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, g.err
}
