package ops

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"time"

	"github.com/sujankapadia/evernote-importer/internal/db"
	"github.com/sujankapadia/evernote-importer/internal/enex"
	"github.com/sujankapadia/evernote-importer/internal/errors"
	"github.com/sujankapadia/evernote-importer/internal/note"
)

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	// Path is the archive file to import (required).
	Path string
	// Source labels imported notes for provenance. Defaults to the archive's
	// base name. It plays no part in identity.
	Source string
}

// ImportStats summarizes one archive import.
type ImportStats struct {
	File       string `json:"file"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	DurationMS int64  `json:"duration_ms"`
}

// Import ingests one ENEX archive inside a single transaction: every note in
// the file commits, or none do. Per-note upserts are keyed by guid, so
// re-importing the same archive is idempotent (all notes count as updated).
func Import(ctx context.Context, database *sql.DB, input ImportInput) (*ImportStats, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	source := input.Source
	if source == "" {
		source = filepath.Base(input.Path)
	}

	started := time.Now()
	importedAt := started.Unix()
	stats := &ImportStats{File: source}

	reader, err := enex.Open(input.Path, source)
	if err != nil {
		return nil, errors.NewInvalidArchive(source, err)
	}
	defer reader.Close()

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	for {
		n, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Fatal-to-file: the deferred rollback discards every note
			// already written from this archive.
			return nil, errors.NewInvalidArchive(source, err)
		}

		status, err := upsertNote(tx, n, importedAt)
		if err != nil {
			return nil, err
		}
		switch status {
		case "inserted":
			stats.Inserted++
		case "updated":
			stats.Updated++
		default:
			stats.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	stats.DurationMS = time.Since(started).Milliseconds()
	return stats, nil
}

// upsertNote inserts or fully replaces one note by guid, resources included.
// Returns "inserted" or "updated".
func upsertNote(tx *sql.Tx, n *note.Note, importedAt int64) (string, error) {
	id, found, err := db.LookupNoteID(tx, n.GUID)
	if err != nil {
		return "", err
	}

	status := "inserted"
	if found {
		if err := db.UpdateNote(tx, id, n, importedAt); err != nil {
			return "", err
		}
		status = "updated"
	} else {
		if id, err = db.InsertNote(tx, n, importedAt); err != nil {
			return "", err
		}
	}

	if err := db.ReplaceResources(tx, id, n.Resources); err != nil {
		return "", err
	}

	return status, nil
}
