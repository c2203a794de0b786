// Package sessionstore persists the console session in a single named slot
// so that it survives a process restart.
package sessionstore

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
)

// Store is a small key-value store holding serialized session values.
type Store interface {
	// Get returns the value stored under key.
	// Returns an error matching ErrNotFound if the slot is empty.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete clears the slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendSqlite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Backends lists every supported backend.
func Backends() []Backend {
	return []Backend{BackendMemory, BackendFile, BackendSqlite, BackendPostgres, BackendRedis}
}

// Config selects and configures a backend.
type Config struct {
	Backend       Backend
	Path          string // directory for file, database file for sqlite
	DSN           string // postgres connection string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string // redis key prefix
}

// New opens the backend named in cfg.
func New(ctx context.Context, logger *slog.Logger, cfg Config) (Store, error) {
	logger = logger.With("component", "sessionstore", "backend", string(cfg.Backend))

	switch cfg.Backend {
	case BackendMemory, "":
		return NewInMemory(logger), nil
	case BackendFile:
		return NewFile(logger, cfg.Path)
	case BackendSqlite:
		return NewSqlite(ctx, logger, cfg.Path)
	case BackendPostgres:
		return NewPostgres(ctx, logger, cfg.DSN)
	case BackendRedis:
		return NewRedis(ctx, logger, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown session store backend %q", cfg.Backend)
	}
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// validateKey rejects keys that could escape a file store directory
// or collide with unrelated redis keys.
func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return NewInvalidKeyError(key)
	}
	return nil
}

var ErrNotFound = &NotFoundError{}

// NotFoundError is returned by Get when a slot holds no value.
type NotFoundError struct {
	Key string
}

func NewNotFoundError(key string) *NotFoundError {
	return &NotFoundError{Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sessionstore: no value for key %q", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

var ErrInvalidKey = &InvalidKeyError{}

type InvalidKeyError struct {
	Key string
}

func NewInvalidKeyError(key string) *InvalidKeyError {
	return &InvalidKeyError{Key: key}
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("sessionstore: invalid key %q", e.Key)
}

func (e *InvalidKeyError) Is(target error) bool {
	_, ok := target.(*InvalidKeyError)
	return ok
}
