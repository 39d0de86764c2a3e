package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-body/pkg/blobstore"
)

const (
	backendName  = "postgres"
	defaultTable = "body_object"
)

// Backend stores objects as bytea rows keyed by object key
type Backend struct {
	pool  *pgxpool.Pool
	table string
}

// Option configures a Backend
type Option func(*Backend)

// WithTable stores objects in the given schema-qualified table.
// An empty schema uses the connection's search_path.
func WithTable(schema, table string) Option {
	return func(b *Backend) {
		if schema == "" {
			b.table = pgx.Identifier{table}.Sanitize()
		} else {
			b.table = pgx.Identifier{schema, table}.Sanitize()
		}
	}
}

// NewWithPool creates a backend over an existing connection pool
func NewWithPool(pool *pgxpool.Pool, opts ...Option) *Backend {
	b := &Backend{
		pool:  pool,
		table: pgx.Identifier{defaultTable}.Sanitize(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// New connects to databaseURL and creates a backend over the new pool
func New(ctx context.Context, databaseURL string, opts ...Option) (*Backend, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewWithPool(pool, opts...), nil
}

// EnsureSchema creates the object table if it does not exist
func (b *Backend) EnsureSchema(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			object_key   TEXT PRIMARY KEY,
			data         BYTEA NOT NULL,
			content_type TEXT NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, b.table))
	if err != nil {
		return fmt.Errorf("failed to create object table: %w", err)
	}
	return nil
}

// Close closes the underlying pool
func (b *Backend) Close() {
	b.pool.Close()
}

// Put upserts the object stored under key
func (b *Backend) Put(ctx context.Context, key string, reader io.Reader, params blobstore.PutParams) error {
	if key == "" {
		return blobstore.ErrEmptyKey
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return b.wrap("put", key, err)
	}

	_, err = b.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (object_key, data, content_type, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (object_key) DO UPDATE
		SET data = EXCLUDED.data, content_type = EXCLUDED.content_type, updated_at = EXCLUDED.updated_at`, b.table),
		key, data, params.ContentTypeOrDefault())
	if err != nil {
		return b.wrap("put", key, err)
	}
	return nil
}

// GetStream loads the row for key and returns a reader over its data
func (b *Backend) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	var data []byte
	err := b.pool.QueryRow(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE object_key = $1`, b.table), key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, b.wrap("get", key, blobstore.ErrNotFound)
		}
		return nil, b.wrap("get", key, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stat returns size, content type and modification time without loading data
func (b *Backend) Stat(ctx context.Context, key string) (*blobstore.ObjectMeta, error) {
	meta := &blobstore.ObjectMeta{Key: key}
	var updatedAt time.Time
	err := b.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT octet_length(data), content_type, updated_at FROM %s WHERE object_key = $1`, b.table), key).
		Scan(&meta.Size, &meta.ContentType, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, b.wrap("stat", key, blobstore.ErrNotFound)
		}
		return nil, b.wrap("stat", key, err)
	}
	meta.UpdatedAt = updatedAt
	return meta, nil
}

// Delete removes the row for key
func (b *Backend) Delete(ctx context.Context, key string) error {
	tag, err := b.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE object_key = $1`, b.table), key)
	if err != nil {
		return b.wrap("delete", key, err)
	}
	if tag.RowsAffected() == 0 {
		return b.wrap("delete", key, blobstore.ErrNotFound)
	}
	return nil
}

func (b *Backend) wrap(op, key string, err error) error {
	return &blobstore.StorageError{Backend: backendName, Key: key, Op: op, Err: err}
}

var _ blobstore.Store = (*Backend)(nil)
