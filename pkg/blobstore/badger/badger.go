package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/goccy/go-json"
	"github.com/tendant/simple-body/pkg/blobstore"
)

const backendName = "badger"

var (
	dataPrefix = []byte("d/")
	metaPrefix = []byte("m/")
)

// Config options for the badger backend
type Config struct {
	Dir      string // Data directory, ignored when InMemory is set
	InMemory bool
}

type metaRecord struct {
	ContentType string    `json:"content_type"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Backend is an embedded key/value implementation of blobstore.Store.
// Object data and metadata are written in one transaction under separate keys.
type Backend struct {
	db *badgerdb.DB
}

// New opens a badger database
func New(config Config) (*Backend, error) {
	var opts badgerdb.Options
	switch {
	case config.InMemory:
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	case config.Dir != "":
		opts = badgerdb.DefaultOptions(config.Dir)
	default:
		return nil, errors.New("badger directory is required unless running in memory")
	}
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Backend{db: db}, nil
}

// Close closes the database
func (b *Backend) Close() error {
	return b.db.Close()
}

func dataKey(key string) []byte {
	return append(append([]byte{}, dataPrefix...), key...)
}

func metaKey(key string) []byte {
	return append(append([]byte{}, metaPrefix...), key...)
}

// Put stores data and metadata under key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, params blobstore.PutParams) error {
	if key == "" {
		return blobstore.ErrEmptyKey
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return b.wrap("put", key, err)
	}
	meta, err := json.Marshal(metaRecord{
		ContentType: params.ContentTypeOrDefault(),
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return b.wrap("put", key, err)
	}

	err = b.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set(dataKey(key), data); err != nil {
			return err
		}
		return txn.Set(metaKey(key), meta)
	})
	if err != nil {
		return b.wrap("put", key, err)
	}
	return nil
}

// GetStream copies the stored value out of the transaction and returns a reader over it
func (b *Backend) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(dataKey(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, b.wrap("get", key, translate(err))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stat reads the metadata record and the stored value size
func (b *Backend) Stat(ctx context.Context, key string) (*blobstore.ObjectMeta, error) {
	meta := &blobstore.ObjectMeta{Key: key}
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(dataKey(key))
		if err != nil {
			return err
		}
		meta.Size = item.ValueSize()

		metaItem, err := txn.Get(metaKey(key))
		if err != nil {
			return err
		}
		return metaItem.Value(func(val []byte) error {
			var rec metaRecord
			if err := json.Unmarshal(val, &rec); err != nil {
				return err
			}
			meta.ContentType = rec.ContentType
			meta.UpdatedAt = rec.UpdatedAt
			return nil
		})
	})
	if err != nil {
		return nil, b.wrap("stat", key, translate(err))
	}
	return meta, nil
}

// Delete removes data and metadata for key
func (b *Backend) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(txn *badgerdb.Txn) error {
		if _, err := txn.Get(dataKey(key)); err != nil {
			return err
		}
		if err := txn.Delete(dataKey(key)); err != nil {
			return err
		}
		return txn.Delete(metaKey(key))
	})
	if err != nil {
		return b.wrap("delete", key, translate(err))
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return blobstore.ErrNotFound
	}
	return err
}

func (b *Backend) wrap(op, key string, err error) error {
	return &blobstore.StorageError{Backend: backendName, Key: key, Op: op, Err: err}
}

var _ blobstore.Store = (*Backend)(nil)
