// Package enex streams notes out of an Evernote export (ENEX) archive.
//
// The reader walks the XML token stream and materializes one <note> element at
// a time, so peak memory is bounded by the largest single note rather than the
// archive size.
package enex

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sujankapadia/evernote-importer/internal/note"
)

// Reader is a non-restartable, document-order source of notes from one
// archive file. Next returns io.EOF after the last note.
type Reader struct {
	file   *os.File
	dec    *xml.Decoder
	source string
}

// Open opens an ENEX archive for streaming. The source label tags every note
// for provenance and defaults to nothing; callers pass the archive's display
// name.
func Open(path, source string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	dec := xml.NewDecoder(f)
	// ENEX files carry a DOCTYPE pointing at evernote.com; never fetch it.
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	return &Reader{file: f, dec: dec, source: source}, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Next returns the next note in document order, io.EOF when the archive is
// exhausted, or an error if the archive is not well-formed XML. Field-level
// problems (bad timestamps, undecodable resource payloads) degrade to
// absent/empty values and are never returned as errors.
func (r *Reader) Next() (*note.Note, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "note" {
			continue
		}

		// DecodeElement consumes the whole <note> subtree into a short-lived
		// struct; nothing outlives the converted note.Note.
		var raw xmlNote
		if err := r.dec.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("decode note element: %w", err)
		}
		return raw.toNote(r.source), nil
	}
}

// xmlNote mirrors the ENEX <note> element.
type xmlNote struct {
	GUID      string        `xml:"guid"`
	Title     string        `xml:"title"`
	Created   string        `xml:"created"`
	Updated   string        `xml:"updated"`
	Tags      []string      `xml:"tag"`
	Content   string        `xml:"content"`
	Resources []xmlResource `xml:"resource"`
}

// xmlResource mirrors the ENEX <resource> element.
type xmlResource struct {
	Data        string `xml:"data"`
	Mime        string `xml:"mime"`
	Recognition string `xml:"recognition"`
	Attributes  struct {
		FileName string `xml:"file-name"`
	} `xml:"resource-attributes"`
}

func (x *xmlNote) toNote(source string) *note.Note {
	createdAt := note.ParseTimestamp(x.Created)
	updatedAt := note.ParseTimestamp(x.Updated)

	tags := make([]string, 0, len(x.Tags))
	for _, t := range x.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	html := x.Content
	title := strings.TrimSpace(x.Title)
	rawGUID := strings.TrimSpace(x.GUID)

	resources := make([]note.Resource, 0, len(x.Resources))
	for _, r := range x.Resources {
		resources = append(resources, note.Resource{
			Mime:     optional(r.Mime),
			Filename: optional(r.Attributes.FileName),
			Data:     decodePayload(r.Data),
			Hash:     optional(r.Recognition),
		})
	}

	return &note.Note{
		GUID:       note.DeriveGUID(rawGUID, title, createdAt, updatedAt, html),
		Title:      title,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		Tags:       tags,
		HTML:       html,
		Text:       note.ExtractText(html),
		Resources:  resources,
		SourceFile: source,
	}
}

// decodePayload decodes a base64 text node. ENEX wraps payloads across lines,
// so whitespace is stripped first. Decode failure yields an empty payload,
// never an error.
func decodePayload(encoded string) []byte {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, encoded)
	if compact == "" {
		return []byte{}
	}

	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return []byte{}
	}
	return data
}

// optional trims s and returns nil for empty values.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
