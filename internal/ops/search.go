package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sujankapadia/evernote-importer/internal/db"
	"github.com/sujankapadia/evernote-importer/internal/errors"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query  string // required
	Limit  int    // default: 20, max: 100
	Offset int
}

// SearchResultItem pairs a note summary with its match snippet. The snippet
// is plain text with <b>...</b> around matched terms.
type SearchResultItem struct {
	db.NoteSummary
	Snippet string `json:"snippet"`
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items      []SearchResultItem `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

// Search performs full-text search over note titles and plain-text bodies,
// ranked by relevance with title matches weighted higher.
func Search(ctx context.Context, database *sql.DB, input SearchInput) (*SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.NewInvalidRequest("query is required")
	}

	limit := clampLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit)
	offset := max(input.Offset, 0)

	results, total, err := db.SearchNotes(ctx, database, query, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]SearchResultItem, len(results))
	for i, r := range results {
		items[i] = SearchResultItem{NoteSummary: r.Summary, Snippet: r.Snippet}
	}

	return &SearchOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}
