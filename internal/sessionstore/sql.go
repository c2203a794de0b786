package sessionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Haymar136/faceflow-student-hub/database"
	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"

	// Register database/sql drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSqlite dialect = iota
	dialectPostgres
)

const (
	getSlotQuery    = `SELECT value FROM session_slots WHERE slot = ?`
	upsertSlotQuery = `INSERT INTO session_slots (slot, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (slot) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteSlotQuery = `DELETE FROM session_slots WHERE slot = ?`
)

// sqlStore keeps slots in the session_slots table of a sqlite or postgres database.
type sqlStore struct {
	*baseStore
	db      *sql.DB
	dialect dialect
}

// NewSqlite opens (or creates) the sqlite database at path and applies migrations.
func NewSqlite(ctx context.Context, logger *slog.Logger, path string) (*sqlStore, error) {
	if path == "" {
		return nil, errors.New("sessionstore: sqlite backend requires a database path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, logutil.LogAndWrapErr(logger, "failed to open sqlite database", err, "path", path)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, logutil.LogAndWrapErr(logger, "failed to configure sqlite", err, "pragma", pragma)
		}
	}

	if err := database.RunSqliteMigrations(db); err != nil {
		db.Close()
		return nil, logutil.LogAndWrapErr(logger, "failed to migrate sqlite session store", err)
	}

	return &sqlStore{baseStore: newBase(logger), db: db, dialect: dialectSqlite}, nil
}

// NewPostgres connects to the postgres database at dsn and applies migrations.
func NewPostgres(ctx context.Context, logger *slog.Logger, dsn string) (*sqlStore, error) {
	if dsn == "" {
		return nil, errors.New("sessionstore: postgres backend requires a DSN")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, logutil.LogAndWrapErr(logger, "failed to open postgres database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, logutil.LogAndWrapErr(logger, "failed to reach postgres database", err)
	}

	if err := database.RunPostgresMigrations(db); err != nil {
		db.Close()
		return nil, logutil.LogAndWrapErr(logger, "failed to migrate postgres session store", err)
	}

	return &sqlStore{baseStore: newBase(logger), db: db, dialect: dialectPostgres}, nil
}

// rebind rewrites ? placeholders into the numbered form postgres expects.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "get session slot", "key", key)()
	if err := s.begin(ctx, "get", key); err != nil {
		return nil, err
	}

	var value string
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(getSlotQuery), key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewNotFoundError(key)
		}
		return nil, logutil.DebugAndWrapErr(s.log, "failed to get session slot",
			models.NewDatabaseError(err), "key", key)
	}
	return []byte(value), nil
}

func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "set session slot", "key", key)()
	if err := s.begin(ctx, "set", key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(upsertSlotQuery), key, string(value), time.Now().Unix()); err != nil {
		return logutil.LogAndWrapErr(s.log, "failed to set session slot",
			models.NewDatabaseError(err), "key", key)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	defer logutil.NewTimingLogger(s.log, time.Now(), "executed sql query", "method", "delete session slot", "key", key)()
	if err := s.begin(ctx, "delete", key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(deleteSlotQuery), key); err != nil {
		return logutil.LogAndWrapErr(s.log, "failed to delete session slot",
			models.NewDatabaseError(err), "key", key)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
