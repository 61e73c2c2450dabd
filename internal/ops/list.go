package ops

import (
	"database/sql"

	"github.com/sujankapadia/evernote-importer/internal/db"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Limit  int // default: 50, max: 500
	Offset int
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Notes      []db.NoteSummary `json:"notes"`
	Pagination Pagination       `json:"pagination"`
}

// List returns note summaries ordered by most recent activity first.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := clampLimit(input.Limit, DefaultListLimit, MaxListLimit)
	offset := max(input.Offset, 0)

	total, err := db.CountNotes(database)
	if err != nil {
		return nil, err
	}

	notes, err := db.ListNotes(database, limit, offset)
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Notes: notes,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(notes) < total,
			Total:   total,
		},
	}, nil
}
