package ops

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/sujankapadia/evernote-importer/internal/db"
	"github.com/sujankapadia/evernote-importer/internal/errors"
)

const twoNoteArchive = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE en-export SYSTEM "http://xml.evernote.com/pub/evernote-export3.dtd">
<en-export export-date="20240101T120000Z" application="Evernote">
  <note>
    <guid>abc-1</guid>
    <title>Shopping List</title>
    <created>20240101T080000Z</created>
    <updated>20240102T090000Z</updated>
    <tag>home</tag>
    <tag>errands</tag>
    <content><![CDATA[<en-note>Milk, eggs</en-note>]]></content>
  </note>
  <note>
    <title>Untitled</title>
    <content></content>
  </note>
</en-export>
`

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(filepath.Join(t.TempDir(), "evernote.db"))
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func writeArchive(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func TestImport_FirstRunInserts(t *testing.T) {
	database := testDB(t)
	path := writeArchive(t, "sample.enex", twoNoteArchive)

	stats, err := Import(context.Background(), database, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats.Inserted != 2 || stats.Updated != 0 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want inserted=2 updated=0 skipped=0", stats)
	}
	if stats.File != "sample.enex" {
		t.Errorf("File = %q, want archive base name", stats.File)
	}
}

func TestImport_ReimportIsIdempotent(t *testing.T) {
	database := testDB(t)
	path := writeArchive(t, "sample.enex", twoNoteArchive)

	ctx := context.Background()
	if _, err := Import(ctx, database, ImportInput{Path: path}); err != nil {
		t.Fatalf("first Import failed: %v", err)
	}

	firstRun, err := db.ListNotes(database, 0, 0)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}

	stats, err := Import(ctx, database, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}
	if stats.Inserted != 0 || stats.Updated != 2 {
		t.Errorf("reimport stats = %+v, want inserted=0 updated=2", stats)
	}

	secondRun, err := db.ListNotes(database, 0, 0)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(secondRun) != len(firstRun) {
		t.Fatalf("row count changed on reimport: %d -> %d", len(firstRun), len(secondRun))
	}
	for i := range firstRun {
		if firstRun[i].GUID != secondRun[i].GUID || firstRun[i].ID != secondRun[i].ID {
			t.Errorf("row %d changed identity on reimport", i)
		}
		if firstRun[i].Title != secondRun[i].Title {
			t.Errorf("row %d changed content on reimport", i)
		}
	}
}

func TestImport_SearchFindsImportedNote(t *testing.T) {
	database := testDB(t)
	path := writeArchive(t, "sample.enex", twoNoteArchive)

	if _, err := Import(context.Background(), database, ImportInput{Path: path}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	out, err := Search(context.Background(), database, SearchInput{Query: "Milk"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].GUID != "abc-1" {
		t.Fatalf("search for Milk returned %d items, want exactly abc-1", len(out.Items))
	}
}

func TestImport_TruncatedArchiveCommitsNothing(t *testing.T) {
	database := testDB(t)
	path := writeArchive(t, "broken.enex", twoNoteArchive[:len(twoNoteArchive)*2/3])

	_, err := Import(context.Background(), database, ImportInput{Path: path})
	if !errors.Is(err, errors.ErrInvalidArchive) {
		t.Fatalf("Import = %v, want INVALID_ARCHIVE", err)
	}

	count, err := db.CountNotes(database)
	if err != nil {
		t.Fatalf("CountNotes failed: %v", err)
	}
	if count != 0 {
		t.Errorf("%d notes committed from a corrupt archive, want 0", count)
	}
}

func TestImport_MissingFile(t *testing.T) {
	database := testDB(t)
	_, err := Import(context.Background(), database, ImportInput{
		Path: filepath.Join(t.TempDir(), "missing.enex"),
	})
	if !errors.Is(err, errors.ErrInvalidArchive) {
		t.Errorf("Import of missing file = %v, want INVALID_ARCHIVE", err)
	}
}

func TestImport_EmptyPath(t *testing.T) {
	database := testDB(t)
	_, err := Import(context.Background(), database, ImportInput{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Import with empty path = %v, want INVALID_REQUEST", err)
	}
}

func TestImport_GracefulFieldDegradation(t *testing.T) {
	const degraded = `<?xml version="1.0" encoding="UTF-8"?>
<en-export>
  <note>
    <guid>bad-fields</guid>
    <title>Survivor</title>
    <created>not a timestamp</created>
    <content><![CDATA[<en-note>still here</en-note>]]></content>
    <resource>
      <data encoding="base64">@@@@</data>
    </resource>
  </note>
</en-export>
`
	database := testDB(t)
	path := writeArchive(t, "degraded.enex", degraded)

	stats, err := Import(context.Background(), database, ImportInput{Path: path})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats.Inserted != 1 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want the degraded note imported, not skipped", stats)
	}

	id, found, err := db.LookupNoteID(database, "bad-fields")
	if err != nil || !found {
		t.Fatalf("imported note not found: %v", err)
	}
	detail, err := db.GetNote(database, id)
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	if detail.CreatedAt != nil {
		t.Error("unparsable created timestamp should import as absent")
	}
	if len(detail.Resources) != 1 || detail.Resources[0].Size != 0 {
		t.Errorf("invalid base64 should import as empty payload, got %+v", detail.Resources)
	}
}

func TestImport_ReplacementSwapsResources(t *testing.T) {
	const v1 = `<?xml version="1.0"?>
<en-export>
  <note>
    <guid>res-1</guid>
    <title>With attachment</title>
    <content><![CDATA[<en-note>v1</en-note>]]></content>
    <resource><data>aGVsbG8=</data></resource>
    <resource><data>d29ybGQ=</data></resource>
  </note>
</en-export>
`
	const v2 = `<?xml version="1.0"?>
<en-export>
  <note>
    <guid>res-1</guid>
    <title>With attachment</title>
    <content><![CDATA[<en-note>v2</en-note>]]></content>
    <resource><data>bmV3</data></resource>
  </note>
</en-export>
`
	database := testDB(t)
	ctx := context.Background()

	if _, err := Import(ctx, database, ImportInput{Path: writeArchive(t, "v1.enex", v1)}); err != nil {
		t.Fatalf("v1 Import failed: %v", err)
	}
	stats, err := Import(ctx, database, ImportInput{Path: writeArchive(t, "v2.enex", v2)})
	if err != nil {
		t.Fatalf("v2 Import failed: %v", err)
	}
	if stats.Updated != 1 {
		t.Errorf("stats = %+v, want updated=1", stats)
	}

	id, _, err := db.LookupNoteID(database, "res-1")
	if err != nil {
		t.Fatalf("LookupNoteID failed: %v", err)
	}
	detail, err := db.GetNote(database, id)
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	if len(detail.Resources) != 1 {
		t.Errorf("resources not replaced wholesale: %d rows", len(detail.Resources))
	}
	if detail.ResourceCount != 1 {
		t.Errorf("resource_count = %d, want 1", detail.ResourceCount)
	}
	if detail.Text != "v2" {
		t.Errorf("Text = %q, want re-derived plain text", detail.Text)
	}
}

func TestImport_SourceLabelOverride(t *testing.T) {
	database := testDB(t)
	path := writeArchive(t, "ondisk.enex", twoNoteArchive)

	stats, err := Import(context.Background(), database, ImportInput{
		Path:   path,
		Source: "uploaded-name.enex",
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats.File != "uploaded-name.enex" {
		t.Errorf("File = %q, want the supplied source label", stats.File)
	}

	notes, err := db.ListNotes(database, 1, 0)
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if notes[0].SourceFile != "uploaded-name.enex" {
		t.Errorf("SourceFile = %q", notes[0].SourceFile)
	}
}
