package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-body/pkg/blobstore"
	badgerstorage "github.com/tendant/simple-body/pkg/blobstore/badger"
	fsstorage "github.com/tendant/simple-body/pkg/blobstore/fs"
	memorystorage "github.com/tendant/simple-body/pkg/blobstore/memory"
	pgstorage "github.com/tendant/simple-body/pkg/blobstore/postgres"
	redisstorage "github.com/tendant/simple-body/pkg/blobstore/redis"
	s3storage "github.com/tendant/simple-body/pkg/blobstore/s3"
)

// Config represents configuration for the body server
type Config struct {
	Port        string `yaml:"port" env:"PORT" env-default:"8080" env-description:"HTTP listen port"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"development" env-description:"development, production or testing"`

	// StorageURL selects the object store, see ParseStorageURL
	StorageURL string `yaml:"storage_url" env:"STORAGE_URL" env-default:"memory://" env-description:"object store connection string"`

	RequestTimeout   time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"60s"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxSyntheticSize int64         `yaml:"max_synthetic_size" env:"MAX_SYNTHETIC_SIZE" env-default:"1073741824" env-description:"largest body served by /synthetic"`

	// APIKeySHA256 guards the bodies routes when set
	APIKeySHA256 string `yaml:"api_key_sha256" env:"API_KEY_SHA256" env-description:"hex SHA-256 of the API key, empty disables the check"`

	S3       S3Config       `yaml:"s3"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// S3Config holds credentials that do not belong in STORAGE_URL
type S3Config struct {
	AccessKeyID     string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	Region          string `yaml:"region" env:"AWS_REGION"`
}

// PostgresConfig selects the table objects are stored in
type PostgresConfig struct {
	Schema string `yaml:"schema" env:"POSTGRES_SCHEMA"`
	Table  string `yaml:"table" env:"POSTGRES_TABLE" env-default:"body_object"`
}

// RedisConfig holds redis options that do not belong in STORAGE_URL
type RedisConfig struct {
	KeyPrefix string `yaml:"key_prefix" env:"REDIS_KEY_PREFIX" env-default:"body:"`
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads configuration from a yaml, json, toml or env file, with
// environment variables taking precedence
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage returns a description of the environment variables Config reads
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.MaxSyntheticSize < 1 {
		return errors.New("max_synthetic_size must be positive")
	}
	if _, err := ParseStorageURL(c.StorageURL); err != nil {
		return err
	}
	return nil
}

// BuildStore opens the object store named by StorageURL. The returned
// function releases the store's connections.
func (c *Config) BuildStore(ctx context.Context) (blobstore.Store, func(), error) {
	spec, err := ParseStorageURL(c.StorageURL)
	if err != nil {
		return nil, nil, err
	}
	noop := func() {}

	switch spec.Type {
	case StorageMemory:
		return memorystorage.New(), noop, nil

	case StorageFS:
		store, err := fsstorage.New(fsstorage.Config{BaseDir: spec.Dir})
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case StorageS3:
		region := spec.Region
		if region == "" {
			region = c.S3.Region
		}
		store, err := s3storage.New(ctx, s3storage.Config{
			Bucket:                 spec.Bucket,
			Region:                 region,
			Endpoint:               spec.Endpoint,
			UsePathStyle:           spec.PathStyle,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			CreateBucketIfNotExist: spec.CreateBucket,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case StoragePostgres:
		store, err := pgstorage.New(ctx, spec.DatabaseURL, pgstorage.WithTable(c.Postgres.Schema, c.Postgres.Table))
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil

	case StorageRedis:
		store, err := redisstorage.New(ctx, redisstorage.Config{
			Addr:      spec.Redis.Addr,
			Username:  spec.Redis.Username,
			Password:  spec.Redis.Password,
			DB:        spec.Redis.DB,
			TLSConfig: spec.Redis.TLSConfig,
			KeyPrefix: c.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case StorageBadger:
		store, err := badgerstorage.New(badgerstorage.Config{Dir: spec.Dir, InMemory: spec.InMemory})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unsupported storage type: %s", spec.Type)
}
