// Package note defines the imported note model and the pure functions that
// derive its identity and plain-text projection.
package note

// Note is one logical record from an ENEX archive.
type Note struct {
	// GUID uniquely identifies the note across the store. Either the
	// archive-supplied identifier or a derived digest (see DeriveGUID).
	GUID string

	// Title is the note title, trimmed (may be empty)
	Title string

	// CreatedAt is the creation time as Unix seconds (nil if missing or unparsable)
	CreatedAt *int64

	// UpdatedAt is the last-update time as Unix seconds (nil if missing or unparsable)
	UpdatedAt *int64

	// Tags preserves duplicates and document order
	Tags []string

	// HTML is the raw ENML/XHTML body, stored verbatim
	HTML string

	// Text is the whitespace-normalized plain-text projection of HTML
	Text string

	// Resources are the note's binary attachments
	Resources []Resource

	// SourceFile is the provenance label of the archive this note came from
	SourceFile string
}

// Resource is a binary attachment owned by exactly one note.
type Resource struct {
	// Mime is the declared MIME type (nullable)
	Mime *string

	// Filename is the original file name from resource-attributes (nullable)
	Filename *string

	// Data is the decoded payload (empty on base64 decode failure)
	Data []byte

	// Hash is the recognition hash supplied by the archive, not a checksum
	// of Data (nullable)
	Hash *string
}
