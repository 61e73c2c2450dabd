package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sujankapadia/evernote-importer/internal/errors"
)

// Snippet marker and sizing for search results. Snippets are plain text with
// <b> markers around matched terms.
const (
	snippetStartMark = "<b>"
	snippetEndMark   = "</b>"
	snippetEllipsis  = "..."
	snippetTokens    = 16
)

// SearchResult pairs a note summary with a match snippet from the indexed
// (title, text) columns.
type SearchResult struct {
	Summary NoteSummary
	Snippet string
}

// SearchNotes runs a full-text query against the notes index. Results are
// ranked by BM25 with title matches weighted 5x over body text. Returns the
// page of results and the total match count.
func SearchNotes(ctx context.Context, database *sql.DB, query string, limit, offset int) ([]SearchResult, int, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return []SearchResult{}, 0, nil
	}

	var total int
	err := database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes_fts WHERE notes_fts MATCH ?`, match).Scan(&total)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := database.QueryContext(ctx, `
		SELECT n.id, n.guid, n.title, n.created_at, n.updated_at, n.tags_json,
			n.source_file, n.resource_count, n.imported_at,
			snippet(notes_fts, 1, ?, ?, ?, ?)
		FROM notes_fts
		JOIN notes n ON n.id = notes_fts.rowid
		WHERE notes_fts MATCH ?
		ORDER BY bm25(notes_fts, 5.0, 1.0)
		LIMIT ? OFFSET ?`,
		snippetStartMark, snippetEndMark, snippetEllipsis, snippetTokens,
		match, limit, offset,
	)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	results := make([]SearchResult, 0)
	for rows.Next() {
		var (
			s         NoteSummary
			createdAt sql.NullInt64
			updatedAt sql.NullInt64
			tagsJSON  sql.NullString
			snip      string
		)
		err := rows.Scan(&s.ID, &s.GUID, &s.Title, &createdAt, &updatedAt, &tagsJSON,
			&s.SourceFile, &s.ResourceCount, &s.ImportedAt, &snip)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		s.CreatedAt = fromNullInt64(createdAt)
		s.UpdatedAt = fromNullInt64(updatedAt)
		if s.Tags, err = unmarshalTags(tagsJSON); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		results = append(results, SearchResult{Summary: s, Snippet: snip})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return results, total, nil
}

// buildMatchQuery converts free-form user input into an FTS5 MATCH expression.
// Each whitespace-separated term becomes a quoted prefix query ("term"*), so
// FTS5 operator syntax in user input cannot break the query and word prefixes
// match.
func buildMatchQuery(raw string) string {
	terms := strings.Fields(raw)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		quoted = append(quoted, `"`+term+`"*`)
	}
	return strings.Join(quoted, " ")
}

// RebuildFTS discards and regenerates the whole index from the notes table.
// Safe to run against a live but idle store; returns the indexed row count.
func RebuildFTS(database *sql.DB) (int, error) {
	tx, err := database.Begin()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`INSERT INTO notes_fts(notes_fts) VALUES('rebuild')`); err != nil {
		return 0, errors.NewInternal(err)
	}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM notes_fts`).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewInternal(err)
	}

	return count, nil
}
