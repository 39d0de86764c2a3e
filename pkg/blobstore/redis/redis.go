package redis

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/tendant/simple-body/pkg/blobstore"
)

const (
	backendName = "redis"

	fieldData        = "data"
	fieldContentType = "content_type"
	fieldUpdatedAt   = "updated_at"
)

// Config options for the redis backend
type Config struct {
	Addr      string
	Username  string // ACL user, empty for the default user
	Password  string
	DB        int
	TLSConfig *tls.Config // Non-nil enables TLS, as for rediss:// URLs
	KeyPrefix string      // Prepended to every object key
}

// Backend keeps each object in a redis hash holding its data, content type
// and modification time
type Backend struct {
	client *goredis.Client
	prefix string
}

// New connects to redis and verifies the connection
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := goredis.NewClient(clientOptions(config))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, config.KeyPrefix), nil
}

func clientOptions(config Config) *goredis.Options {
	return &goredis.Options{
		Addr:      config.Addr,
		Username:  config.Username,
		Password:  config.Password,
		DB:        config.DB,
		TLSConfig: config.TLSConfig,
	}
}

// NewWithClient creates a backend over an existing client
func NewWithClient(client *goredis.Client, keyPrefix string) *Backend {
	return &Backend{client: client, prefix: keyPrefix}
}

// Close closes the underlying client
func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) key(key string) string {
	return b.prefix + key
}

// Put stores the object hash under key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, params blobstore.PutParams) error {
	if key == "" {
		return blobstore.ErrEmptyKey
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return b.wrap("put", key, err)
	}

	err = b.client.HSet(ctx, b.key(key),
		fieldData, data,
		fieldContentType, params.ContentTypeOrDefault(),
		fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return b.wrap("put", key, err)
	}
	return nil
}

// GetStream fetches the data field of the object hash
func (b *Backend) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := b.client.HGet(ctx, b.key(key), fieldData).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, b.wrap("get", key, blobstore.ErrNotFound)
		}
		return nil, b.wrap("get", key, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stat reads the metadata fields and the data length of the object hash
func (b *Backend) Stat(ctx context.Context, key string) (*blobstore.ObjectMeta, error) {
	pipe := b.client.Pipeline()
	fields := pipe.HMGet(ctx, b.key(key), fieldContentType, fieldUpdatedAt)
	size := pipe.HStrLen(ctx, b.key(key), fieldData)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, b.wrap("stat", key, err)
	}

	values := fields.Val()
	if len(values) != 2 || values[0] == nil {
		return nil, b.wrap("stat", key, blobstore.ErrNotFound)
	}

	meta := &blobstore.ObjectMeta{
		Key:  key,
		Size: size.Val(),
	}
	if ct, ok := values[0].(string); ok {
		meta.ContentType = ct
	}
	if ts, ok := values[1].(string); ok {
		meta.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	}
	return meta, nil
}

// Delete removes the object hash
func (b *Backend) Delete(ctx context.Context, key string) error {
	n, err := b.client.Del(ctx, b.key(key)).Result()
	if err != nil {
		return b.wrap("delete", key, err)
	}
	if n == 0 {
		return b.wrap("delete", key, blobstore.ErrNotFound)
	}
	return nil
}

func (b *Backend) wrap(op, key string, err error) error {
	return &blobstore.StorageError{Backend: backendName, Key: key, Op: op, Err: err}
}

var _ blobstore.Store = (*Backend)(nil)
