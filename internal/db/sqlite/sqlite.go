// Package sqlite opens the embedded SQLite database used when no Redis or
// Valkey server is configured.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kailas-cloud/annotator/internal/db"
)

// Compile-time check: DB implements db.Pinger.
var _ db.Pinger = (*DB)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS labels (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE TABLE IF NOT EXISTS colors (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	color_value TEXT NOT NULL,
	created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE TABLE IF NOT EXISTS taxonomy_meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	memory := path == ":memory:"
	if !memory {
		dir := filepath.Dir(path)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating db directory: %w", err)
			}
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, &db.Error{Op: db.OpExec, Err: fmt.Errorf("opening database: %w", err)}
	}
	if memory {
		// every pooled connection would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, &db.Error{Op: db.OpPing, Err: err}
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, &db.Error{Op: db.OpMigrate, Err: err}
	}
	return &DB{DB: sqlDB}, nil
}

// Ping checks the database handle.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}
