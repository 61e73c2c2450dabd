package enex

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sujankapadia/evernote-importer/internal/note"
)

const sampleArchive = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE en-export SYSTEM "http://xml.evernote.com/pub/evernote-export3.dtd">
<en-export export-date="20240101T120000Z" application="Evernote">
  <note>
    <guid> abc-1 </guid>
    <title>Shopping List</title>
    <created>20240101T080000Z</created>
    <updated>20240102T090000Z</updated>
    <tag>home</tag>
    <tag>errands</tag>
    <tag>  </tag>
    <content><![CDATA[<en-note>Milk, eggs</en-note>]]></content>
    <resource>
      <data encoding="base64">aGVs
bG8=</data>
      <mime> image/png </mime>
      <resource-attributes>
        <file-name>receipt.png</file-name>
      </resource-attributes>
    </resource>
  </note>
  <note>
    <title>Untitled</title>
    <created>garbage</created>
    <content></content>
    <resource>
      <data encoding="base64">!!!not-base64!!!</data>
    </resource>
  </note>
</en-export>
`

func writeArchive(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.enex")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	return path
}

func readAll(t *testing.T, path, source string) []*note.Note {
	t.Helper()
	r, err := Open(path, source)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	var notes []*note.Note
	for {
		n, err := r.Next()
		if err == io.EOF {
			return notes
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		notes = append(notes, n)
	}
}

func TestReader_ParsesNotesInOrder(t *testing.T) {
	path := writeArchive(t, sampleArchive)
	notes := readAll(t, path, "sample.enex")

	if len(notes) != 2 {
		t.Fatalf("parsed %d notes, want 2", len(notes))
	}

	first := notes[0]
	if first.GUID != "abc-1" {
		t.Errorf("GUID = %q, want trimmed raw guid %q", first.GUID, "abc-1")
	}
	if first.Title != "Shopping List" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.CreatedAt == nil || first.UpdatedAt == nil {
		t.Fatal("timestamps should both parse")
	}
	if len(first.Tags) != 2 || first.Tags[0] != "home" || first.Tags[1] != "errands" {
		t.Errorf("Tags = %v, want [home errands] with blanks dropped", first.Tags)
	}
	if first.HTML != "<en-note>Milk, eggs</en-note>" {
		t.Errorf("HTML = %q", first.HTML)
	}
	if first.Text != "Milk, eggs" {
		t.Errorf("Text = %q, want %q", first.Text, "Milk, eggs")
	}
	if first.SourceFile != "sample.enex" {
		t.Errorf("SourceFile = %q", first.SourceFile)
	}
}

func TestReader_Resources(t *testing.T) {
	path := writeArchive(t, sampleArchive)
	notes := readAll(t, path, "sample.enex")

	res := notes[0].Resources
	if len(res) != 1 {
		t.Fatalf("first note has %d resources, want 1", len(res))
	}
	if string(res[0].Data) != "hello" {
		t.Errorf("Data = %q, want %q (line-wrapped base64)", res[0].Data, "hello")
	}
	if res[0].Mime == nil || *res[0].Mime != "image/png" {
		t.Errorf("Mime = %v, want image/png trimmed", res[0].Mime)
	}
	if res[0].Filename == nil || *res[0].Filename != "receipt.png" {
		t.Errorf("Filename = %v, want receipt.png", res[0].Filename)
	}
}

func TestReader_GracefulDegradation(t *testing.T) {
	path := writeArchive(t, sampleArchive)
	notes := readAll(t, path, "sample.enex")

	second := notes[1]
	if second.CreatedAt != nil {
		t.Error("malformed created timestamp should be recorded as absent")
	}
	if second.GUID == "" || len(second.GUID) != 40 {
		t.Errorf("GUID = %q, want derived 40-char digest", second.GUID)
	}
	if len(second.Resources) != 1 {
		t.Fatalf("second note has %d resources, want 1", len(second.Resources))
	}
	if len(second.Resources[0].Data) != 0 {
		t.Error("invalid base64 should decode to an empty payload")
	}
	if second.Resources[0].Mime != nil {
		t.Error("missing mime should be nil")
	}
}

func TestReader_DerivedGUIDStableAcrossReads(t *testing.T) {
	path := writeArchive(t, sampleArchive)
	a := readAll(t, path, "sample.enex")
	b := readAll(t, path, "sample.enex")
	if a[1].GUID != b[1].GUID {
		t.Errorf("derived guid changed between reads: %q vs %q", a[1].GUID, b[1].GUID)
	}
}

func TestReader_TruncatedArchive(t *testing.T) {
	truncated := sampleArchive[:len(sampleArchive)/2]
	path := writeArchive(t, truncated)

	r, err := Open(path, "broken.enex")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	sawErr := false
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			sawErr = true
			break
		}
	}
	if !sawErr {
		t.Error("truncated archive should surface a parse error")
	}
}

func TestReader_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.enex"), "nope"); err == nil {
		t.Error("Open should fail for a missing file")
	}
}
