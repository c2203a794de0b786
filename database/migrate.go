// Package database holds the embedded schema migrations for the SQL session stores.
package database

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

// RunSqliteMigrations applies all pending SQL schema migrations to the provided SQLite database.
//
// Migrations are read from the embedded "migrations/sqlite" directory.
// A database that is already up to date is not an error.
//
// Typical usage:
//
//	err := RunSqliteMigrations(db)
//	if err != nil {
//	    return fmt.Errorf("migration failed: %w", err)
//	}
func RunSqliteMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	return runMigrations(sqliteMigrations, "migrations/sqlite", "sqlite", driver)
}

// RunPostgresMigrations applies all pending migrations from "migrations/postgres".
func RunPostgresMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	return runMigrations(postgresMigrations, "migrations/postgres", "postgres", driver)
}

func runMigrations(fsys embed.FS, dir, name string, driver migratedb.Driver) error {
	source, err := iofs.New(fsys, dir)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
