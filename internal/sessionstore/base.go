package sessionstore

import (
	"context"
	"log/slog"
)

type baseStore struct {
	log *slog.Logger
}

func newBase(logger *slog.Logger) *baseStore {
	return &baseStore{log: logger}
}

// begin checks for context cancellation and validates the key before an operation.
func (s *baseStore) begin(ctx context.Context, op, key string) error {
	select {
	case <-ctx.Done():
		s.log.Info("context cancelled during session store "+op, "error", ctx.Err())
		return ctx.Err()
	default:
	}
	return validateKey(key)
}
