package ops

import (
	"database/sql"

	"github.com/sujankapadia/evernote-importer/internal/db"
)

// RebuildOutput contains the result of the Rebuild operation.
type RebuildOutput struct {
	IndexedRows int `json:"indexed_rows"`
}

// Rebuild discards and regenerates the full-text index from the notes table.
// Idempotent; intended for index corruption recovery and for stores created
// before search existed.
func Rebuild(database *sql.DB) (*RebuildOutput, error) {
	count, err := db.RebuildFTS(database)
	if err != nil {
		return nil, err
	}
	return &RebuildOutput{IndexedRows: count}, nil
}
