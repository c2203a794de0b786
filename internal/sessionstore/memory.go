package sessionstore

import (
	"context"
	"log/slog"
	"sync"
)

type inMemoryStore struct {
	*baseStore
	slots map[string][]byte
	mu    sync.Mutex
}

// NewInMemory returns a Store that lives for the life of the process.
func NewInMemory(logger *slog.Logger) *inMemoryStore {
	return &inMemoryStore{
		baseStore: newBase(logger),
		slots:     make(map[string][]byte),
	}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.begin(ctx, "get", key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.slots[key]
	if !ok {
		return nil, NewNotFoundError(key)
	}
	return append([]byte(nil), v...), nil
}

func (s *inMemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.begin(ctx, "set", key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[key] = append([]byte(nil), value...)
	s.log.Debug("stored session slot", "key", key)
	return nil
}

func (s *inMemoryStore) Delete(ctx context.Context, key string) error {
	if err := s.begin(ctx, "delete", key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, key)
	s.log.Debug("deleted session slot", "key", key)
	return nil
}

func (s *inMemoryStore) Close() error { return nil }
