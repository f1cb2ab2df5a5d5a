package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testBook() []Entry {
	return []Entry{
		{Path: MimetypePath, Data: []byte("application/epub+zip")},
		{Path: "META-INF/container.xml", Data: []byte("<container/>")},
		{Path: "OEBPS/chapter1.xhtml", Data: []byte("<html><body/></html>")},
		{Path: "OEBPS/cover.jpg", Data: []byte{0xFF, 0xD8, 0xFF, 0xE0}},
	}
}

func TestWriteArchiveRoundTrip(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "out.epub")
	in := testBook()

	if err := WriteArchive(out, in, nil); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	got, err := ReadArchive(out)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d entries; want %d", len(got), len(in))
	}
	for i := range in {
		if got[i].Path != in[i].Path {
			t.Errorf("entry %d: path = %q; want %q", i, got[i].Path, in[i].Path)
		}
		if !bytes.Equal(got[i].Data, in[i].Data) {
			t.Errorf("entry %d (%s): bytes differ", i, in[i].Path)
		}
	}
}

func TestWriteArchiveReplacements(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "out.epub")
	in := testBook()
	repl := map[string][]byte{
		"OEBPS/chapter1.xhtml": []byte("<html><body><span>x</span></body></html>"),
	}

	if err := WriteArchive(out, in, repl); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	got, err := ReadArchive(out)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	for i, e := range got {
		want := in[i].Data
		if r, ok := repl[e.Path]; ok {
			want = r
		}
		if !bytes.Equal(e.Data, want) {
			t.Errorf("entry %s: data = %q; want %q", e.Path, e.Data, want)
		}
	}
}

func TestWriteArchiveMimetypeFirstAndStored(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "out.epub")
	// mimetype deliberately not first in the input sequence.
	in := []Entry{
		{Path: "META-INF/container.xml", Data: []byte("<container/>")},
		{Path: MimetypePath, Data: []byte("application/epub+zip")},
		{Path: "OEBPS/a.xhtml", Data: []byte("<html/>")},
	}

	if err := WriteArchive(out, in, nil); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer zr.Close()

	if len(zr.File) != 3 {
		t.Fatalf("got %d entries; want 3", len(zr.File))
	}
	first := zr.File[0]
	if first.Name != MimetypePath {
		t.Errorf("first entry = %q; want %q", first.Name, MimetypePath)
	}
	if first.Method != zip.Store {
		t.Errorf("mimetype method = %d; want Store", first.Method)
	}
	for _, f := range zr.File[1:] {
		if f.Method != zip.Deflate {
			t.Errorf("entry %s method = %d; want Deflate", f.Name, f.Method)
		}
	}
	// The rest keep their relative order.
	if zr.File[1].Name != "META-INF/container.xml" || zr.File[2].Name != "OEBPS/a.xhtml" {
		t.Errorf("unexpected entry order: %q, %q", zr.File[1].Name, zr.File[2].Name)
	}
}

func TestWriteArchiveWithoutMimetype(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "out.epub")
	in := []Entry{
		{Path: "a.txt", Data: []byte("a")},
		{Path: "b.txt", Data: []byte("b")},
	}
	if err := WriteArchive(out, in, nil); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	got, err := ReadArchive(out)
	if err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(got) != 2 || got[0].Path != "a.txt" || got[1].Path != "b.txt" {
		t.Fatalf("unexpected entries: %#v", got)
	}
}

func TestWriteArchiveOverwritesExisting(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "out.epub")
	if err := os.WriteFile(out, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteArchive(out, testBook(), nil); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	if _, err := ReadArchive(out); err != nil {
		t.Fatalf("overwritten file is not a valid archive: %v", err)
	}
}

func TestWriteArchiveBadDestination(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "missing-dir", "out.epub")
	err := WriteArchive(out, testBook(), nil)
	if !errors.Is(err, ErrArchiveWrite) {
		t.Fatalf("err = %v; want ErrArchiveWrite", err)
	}
	if _, serr := os.Stat(out); !os.IsNotExist(serr) {
		t.Errorf("output file exists after failed write")
	}
}

func TestWriteArchiveLeavesNoTempOnFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// A directory squatting on the output path makes the final rename fail
	// after the archive was fully written; the temp file must not survive.
	out := filepath.Join(dir, "out.epub")
	if err := os.Mkdir(out, 0755); err != nil {
		t.Fatal(err)
	}

	err := WriteArchive(out, testBook(), nil)
	if !errors.Is(err, ErrArchiveWrite) {
		t.Fatalf("err = %v; want ErrArchiveWrite", err)
	}
	left, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].Name() != "out.epub" {
		t.Errorf("temp files left behind: %v", left)
	}
}
