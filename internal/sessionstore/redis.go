package sessionstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "faceflow:"

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type redisStore struct {
	*baseStore
	client *redis.Client
	prefix string
}

// NewRedis connects to redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, logger *slog.Logger, opts RedisOptions) (*redisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("sessionstore: redis backend requires an address")
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultKeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, logutil.LogAndWrapErr(logger, "failed to reach redis", err, "addr", opts.Addr)
	}

	return &redisStore{
		baseStore: newBase(logger),
		client:    client,
		prefix:    opts.Prefix,
	}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed redis command", "method", "get session slot", "key", key)()
	if err := s.begin(ctx, "get", key); err != nil {
		return nil, err
	}

	b, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, NewNotFoundError(key)
		}
		return nil, logutil.DebugAndWrapErr(s.log, "failed to get session slot", err, "key", key)
	}
	return b, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed redis command", "method", "set session slot", "key", key)()
	if err := s.begin(ctx, "set", key); err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return logutil.LogAndWrapErr(s.log, "failed to set session slot", err, "key", key)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed redis command", "method", "delete session slot", "key", key)()
	if err := s.begin(ctx, "delete", key); err != nil {
		return err
	}

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return logutil.LogAndWrapErr(s.log, "failed to delete session slot", err, "key", key)
	}
	return nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
