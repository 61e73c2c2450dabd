package ops

import (
	"database/sql"

	"github.com/sujankapadia/evernote-importer/internal/db"
	"github.com/sujankapadia/evernote-importer/internal/errors"
)

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

// Delete removes a note, its attachments, and its search index entry in one
// transaction.
func Delete(database *sql.DB, noteID int64) (*DeleteOutput, error) {
	tx, err := database.Begin()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := db.DeleteNote(tx, noteID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &DeleteOutput{ID: noteID, Deleted: true}, nil
}
