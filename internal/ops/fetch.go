package ops

import (
	"database/sql"

	"github.com/sujankapadia/evernote-importer/internal/db"
)

// Fetch returns the full note (rich-text body, plain text, tags) plus
// attachment metadata.
func Fetch(database *sql.DB, noteID int64) (*db.NoteDetail, error) {
	return db.GetNote(database, noteID)
}
