package sessionstore

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
)

// fileStore keeps one JSON file per key inside a directory.
type fileStore struct {
	*baseStore
	dir string
	mu  sync.Mutex
}

// NewFile returns a Store rooted at dir, creating it if needed.
func NewFile(logger *slog.Logger, dir string) (*fileStore, error) {
	if dir == "" {
		return nil, errors.New("sessionstore: file backend requires a directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, logutil.LogAndWrapErr(logger, "failed to create session directory", err, "dir", dir)
	}
	return &fileStore{
		baseStore: newBase(logger),
		dir:       dir,
	}, nil
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "read session file", "key", key)()
	if err := s.begin(ctx, "get", key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewNotFoundError(key)
		}
		return nil, logutil.DebugAndWrapErr(s.log, "failed to read session file", err, "key", key)
	}
	return b, nil
}

// Set writes to a temporary file and renames it over the slot so a
// crash never leaves a partially written value behind.
func (s *fileStore) Set(ctx context.Context, key string, value []byte) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "wrote session file", "key", key)()
	if err := s.begin(ctx, "set", key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return logutil.LogAndWrapErr(s.log, "failed to create temporary session file", err, "key", key)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return logutil.LogAndWrapErr(s.log, "failed to write session file", err, "key", key)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return logutil.LogAndWrapErr(s.log, "failed to close session file", err, "key", key)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return logutil.LogAndWrapErr(s.log, "failed to replace session file", err, "key", key)
	}
	return nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "deleted session file", "key", key)()
	if err := s.begin(ctx, "delete", key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return logutil.LogAndWrapErr(s.log, "failed to delete session file", err, "key", key)
	}
	return nil
}

func (s *fileStore) Close() error { return nil }
