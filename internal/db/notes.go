package db

import (
	"database/sql"
	"encoding/json"

	"github.com/sujankapadia/evernote-importer/internal/errors"
	"github.com/sujankapadia/evernote-importer/internal/note"
)

// NoteSummary is the listing projection of a note row (no body, no payloads).
type NoteSummary struct {
	ID            int64    `json:"id"`
	GUID          string   `json:"guid"`
	Title         string   `json:"title"`
	CreatedAt     *int64   `json:"created_at"`
	UpdatedAt     *int64   `json:"updated_at"`
	Tags          []string `json:"tags"`
	SourceFile    string   `json:"source_file"`
	ResourceCount int      `json:"resource_count"`
	ImportedAt    int64    `json:"imported_at"`
}

// NoteDetail is the full note row plus attachment metadata.
type NoteDetail struct {
	NoteSummary
	HTML      string         `json:"html"`
	Text      string         `json:"text"`
	Resources []ResourceMeta `json:"resources"`
}

// ResourceMeta describes an attachment without its payload.
type ResourceMeta struct {
	ID       int64   `json:"id"`
	Mime     *string `json:"mime"`
	Filename *string `json:"filename"`
	Size     int64   `json:"size"`
}

// ResourceData is an attachment payload with the metadata needed to serve it.
type ResourceData struct {
	Data     []byte
	Mime     *string
	Filename *string
}

// Change-capture hooks. Every sanctioned mutator below calls these inside the
// caller's transaction, so at commit time the index content for a note always
// matches its (title, text) pair and deleted rows leave no index entries.

// indexNote adds the FTS entry for a note row.
func indexNote(q Queryer, rowID int64, title, text string) error {
	_, err := q.Exec(
		`INSERT INTO notes_fts(rowid, title, text) VALUES (?, ?, ?)`,
		rowID, title, text,
	)
	return err
}

// unindexNote removes the FTS entry for a note row. External-content FTS5
// needs the old column values to locate the entry.
func unindexNote(q Queryer, rowID int64, title, text string) error {
	_, err := q.Exec(
		`INSERT INTO notes_fts(notes_fts, rowid, title, text) VALUES ('delete', ?, ?, ?)`,
		rowID, title, text,
	)
	return err
}

// LookupNoteID resolves a guid to its internal row id.
func LookupNoteID(q Queryer, guid string) (int64, bool, error) {
	var id int64
	err := q.QueryRow(`SELECT id FROM notes WHERE guid = ?`, guid).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.NewInternal(err)
	}
	return id, true, nil
}

// InsertNote inserts a new note row and its index entry.
func InsertNote(q Queryer, n *note.Note, importedAt int64) (int64, error) {
	tagsJSON, err := marshalTags(n.Tags)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	result, err := q.Exec(`
		INSERT INTO notes (guid, title, created_at, updated_at, tags_json,
			html, text, source_file, resource_count, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.GUID, n.Title, toNullInt64(n.CreatedAt), toNullInt64(n.UpdatedAt), tagsJSON,
		n.HTML, n.Text, n.SourceFile, len(n.Resources), importedAt,
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	if err := indexNote(q, id, n.Title, n.Text); err != nil {
		return 0, errors.NewInternal(err)
	}

	return id, nil
}

// UpdateNote fully replaces the fields of an existing note row and swaps its
// index entry for one reflecting the new content.
func UpdateNote(q Queryer, id int64, n *note.Note, importedAt int64) error {
	var oldTitle, oldText string
	err := q.QueryRow(`SELECT title, text FROM notes WHERE id = ?`, id).Scan(&oldTitle, &oldText)
	if err == sql.ErrNoRows {
		return errors.NewNotFound("note")
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	tagsJSON, err := marshalTags(n.Tags)
	if err != nil {
		return errors.NewInternal(err)
	}

	_, err = q.Exec(`
		UPDATE notes SET
			guid = ?, title = ?, created_at = ?, updated_at = ?, tags_json = ?,
			html = ?, text = ?, source_file = ?, resource_count = ?, imported_at = ?
		WHERE id = ?`,
		n.GUID, n.Title, toNullInt64(n.CreatedAt), toNullInt64(n.UpdatedAt), tagsJSON,
		n.HTML, n.Text, n.SourceFile, len(n.Resources), importedAt, id,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := unindexNote(q, id, oldTitle, oldText); err != nil {
		return errors.NewInternal(err)
	}
	if err := indexNote(q, id, n.Title, n.Text); err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// DeleteNote removes a note row, its index entry, and (via cascade) its
// resources.
func DeleteNote(q Queryer, id int64) error {
	var title, text string
	err := q.QueryRow(`SELECT title, text FROM notes WHERE id = ?`, id).Scan(&title, &text)
	if err == sql.ErrNoRows {
		return errors.NewNotFound("note")
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	if _, err := q.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return errors.NewInternal(err)
	}

	if err := unindexNote(q, id, title, text); err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// ReplaceResources deletes and re-inserts a note's attachments wholesale.
// Resources have no identity across imports.
func ReplaceResources(q Queryer, noteID int64, resources []note.Resource) error {
	if _, err := q.Exec(`DELETE FROM resources WHERE note_id = ?`, noteID); err != nil {
		return errors.NewInternal(err)
	}

	for _, r := range resources {
		_, err := q.Exec(`
			INSERT INTO resources (note_id, mime, filename, data, hash)
			VALUES (?, ?, ?, ?, ?)`,
			noteID, toNullString(r.Mime), toNullString(r.Filename), r.Data, toNullString(r.Hash),
		)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	return nil
}

// ListNotes returns note summaries ordered by most recent activity first.
// limit <= 0 means no limit.
func ListNotes(q Queryer, limit, offset int) ([]NoteSummary, error) {
	query := `
		SELECT id, guid, title, created_at, updated_at, tags_json,
			source_file, resource_count, imported_at
		FROM notes
		ORDER BY COALESCE(updated_at, created_at) DESC, id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	summaries := make([]NoteSummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		summaries = append(summaries, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return summaries, nil
}

// CountNotes returns the number of note rows.
func CountNotes(q Queryer) (int, error) {
	var count int
	if err := q.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&count); err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// GetNote returns the full note row plus attachment metadata.
func GetNote(q Queryer, id int64) (*NoteDetail, error) {
	row := q.QueryRow(`
		SELECT id, guid, title, created_at, updated_at, tags_json,
			source_file, resource_count, imported_at, html, text
		FROM notes WHERE id = ?`, id)

	var (
		d         NoteDetail
		createdAt sql.NullInt64
		updatedAt sql.NullInt64
		tagsJSON  sql.NullString
	)
	err := row.Scan(&d.ID, &d.GUID, &d.Title, &createdAt, &updatedAt, &tagsJSON,
		&d.SourceFile, &d.ResourceCount, &d.ImportedAt, &d.HTML, &d.Text)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("note")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	d.CreatedAt = fromNullInt64(createdAt)
	d.UpdatedAt = fromNullInt64(updatedAt)
	if d.Tags, err = unmarshalTags(tagsJSON); err != nil {
		return nil, errors.NewInternal(err)
	}

	rows, err := q.Query(`
		SELECT id, mime, filename, length(data)
		FROM resources WHERE note_id = ?
		ORDER BY id`, id)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	d.Resources = make([]ResourceMeta, 0)
	for rows.Next() {
		var (
			m        ResourceMeta
			mime     sql.NullString
			filename sql.NullString
		)
		if err := rows.Scan(&m.ID, &mime, &filename, &m.Size); err != nil {
			return nil, errors.NewInternal(err)
		}
		m.Mime = fromNullString(mime)
		m.Filename = fromNullString(filename)
		d.Resources = append(d.Resources, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &d, nil
}

// GetResource returns one attachment payload, scoped by its owning note.
func GetResource(q Queryer, noteID, resourceID int64) (*ResourceData, error) {
	var (
		r        ResourceData
		mime     sql.NullString
		filename sql.NullString
	)
	err := q.QueryRow(`
		SELECT data, mime, filename FROM resources
		WHERE id = ? AND note_id = ?`, resourceID, noteID).
		Scan(&r.Data, &mime, &filename)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("attachment")
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	r.Mime = fromNullString(mime)
	r.Filename = fromNullString(filename)
	return &r, nil
}

// scanSummary scans a summary row from ListNotes or search queries.
func scanSummary(rows *sql.Rows) (*NoteSummary, error) {
	var (
		s         NoteSummary
		createdAt sql.NullInt64
		updatedAt sql.NullInt64
		tagsJSON  sql.NullString
	)
	err := rows.Scan(&s.ID, &s.GUID, &s.Title, &createdAt, &updatedAt, &tagsJSON,
		&s.SourceFile, &s.ResourceCount, &s.ImportedAt)
	if err != nil {
		return nil, err
	}

	s.CreatedAt = fromNullInt64(createdAt)
	s.UpdatedAt = fromNullInt64(updatedAt)
	if s.Tags, err = unmarshalTags(tagsJSON); err != nil {
		return nil, err
	}
	return &s, nil
}

// marshalTags encodes tags as JSON, NULL when empty.
func marshalTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalTags decodes tags_json, returning an empty slice for NULL.
func unmarshalTags(tagsJSON sql.NullString) ([]string, error) {
	if !tagsJSON.Valid || tagsJSON.String == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(tagsJSON.String), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// fromNullInt64 converts a sql.NullInt64 to *int64.
func fromNullInt64(nv sql.NullInt64) *int64 {
	if !nv.Valid {
		return nil
	}
	return &nv.Int64
}
