// Package db owns the SQLite schema and every sanctioned path for mutating
// it. The full-text index over notes is maintained by in-transaction hooks in
// this package; callers that stick to the exported mutators get a consistent
// index for free.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sujankapadia/evernote-importer/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Queryer is satisfied by both *sql.DB and *sql.Tx, so mutators can run
// inside an import transaction or standalone.
type Queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Init opens (or creates) the SQLite database at dbPath and applies schema
// migrations. Parent directories are created as needed.
func Init(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the connection string apply to every pooled connection.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(database); err != nil {
		database.Close()
		return nil, err
	}

	if err := migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return database, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(database *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(database *sql.DB) error {
	version, err := GetUserVersion(database)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: notes, resources, and the external-content FTS index.
	// No triggers: index maintenance is done by the mutators in this package.
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS notes (
		  id             INTEGER PRIMARY KEY,
		  guid           TEXT NOT NULL UNIQUE,
		  title          TEXT NOT NULL DEFAULT '',
		  created_at     INTEGER,
		  updated_at     INTEGER,
		  tags_json      TEXT,
		  html           TEXT NOT NULL DEFAULT '',
		  text           TEXT NOT NULL DEFAULT '',
		  source_file    TEXT NOT NULL DEFAULT '',
		  resource_count INTEGER NOT NULL DEFAULT 0,
		  imported_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_notes_updated
		ON notes(updated_at DESC, created_at DESC);

		CREATE TABLE IF NOT EXISTS resources (
		  id       INTEGER PRIMARY KEY,
		  note_id  INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
		  mime     TEXT,
		  filename TEXT,
		  data     BLOB NOT NULL,
		  hash     TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_resources_note
		ON resources(note_id);

		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts
		USING fts5(
		  title,
		  text,
		  content='notes',
		  content_rowid='id',
		  tokenize='unicode61'
		);
		`
		if _, err := database.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(database, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(database *sql.DB) error {
	var journalMode string
	if err := database.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(database *sql.DB) (int, error) {
	var version int
	if err := database.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(database *sql.DB, version int) error {
	_, err := database.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
