package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(filepath.Join(t.TempDir(), "evernote.db"))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestInit_CreatesSchema(t *testing.T) {
	database := testDB(t)

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}

	for _, table := range []string{"notes", "resources", "notes_fts"} {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestInit_WALMode(t *testing.T) {
	database := testDB(t)

	var mode string
	if err := database.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query failed: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestInit_ForeignKeysOn(t *testing.T) {
	database := testDB(t)

	var on int
	if err := database.QueryRow("PRAGMA foreign_keys;").Scan(&on); err != nil {
		t.Fatalf("foreign_keys query failed: %v", err)
	}
	if on != 1 {
		t.Error("foreign_keys pragma should be enabled")
	}
}

func TestInit_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evernote.db")

	database, err := Init(path)
	if err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	database.Close()

	// Re-opening an existing store must not re-run or break migrations.
	database, err = Init(path)
	if err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
	defer database.Close()

	version, err := GetUserVersion(database)
	if err != nil {
		t.Fatalf("GetUserVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d after reopen, want %d", version, CurrentSchemaVersion)
	}
}

func TestInit_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "evernote.db")
	database, err := Init(path)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	database.Close()
}
