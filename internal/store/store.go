// Package store provides the farm-scoped record store backing both sides of
// sync: the local embedded sqlite database on a device and the multi-tenant
// server database. One implementation covers both; squirrel renders the
// dialect-appropriate placeholders and goose applies the matching schema.
package store

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	migrationslocal "github.com/agrolabs/pasture/migrations/local"
	migrationsserver "github.com/agrolabs/pasture/migrations/server"
)

// Driver names accepted by OpenServer.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is a SQL-backed record store scoped to farms.
type Store struct {
	db     *sql.DB
	sb     squirrel.StatementBuilderType
	driver string
}

// OpenLocal opens (creating if needed) the device-local sqlite database and
// applies the client schema.
func OpenLocal(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := runMigrations(db, "sqlite", migrationslocal.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:     db,
		sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		driver: DriverSQLite,
	}, nil
}

// OpenServer opens the multi-tenant server database and applies the server
// schema. Postgres is the production driver; sqlite serves tests and small
// single-node deployments.
func OpenServer(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := enablePragmas(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable pragmas: %w", err)
		}
		if err := runMigrations(db, "sqlite", migrationsserver.FS); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &Store{
			db:     db,
			sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
			driver: DriverSQLite,
		}, nil

	case DriverPostgres:
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := runMigrations(db, "postgres", migrationsserver.FS); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &Store{
			db:     db,
			sb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
			driver: DriverPostgres,
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw handle for migrations and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// enablePragmas sets sqlite pragmas for performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// runMigrations applies all pending goose migrations from the given FS.
func runMigrations(db *sql.DB, dialect string, fsys fs.FS) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(fsys)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}
