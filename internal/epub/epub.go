// Package epub reads and writes EPUB containers at the zip-entry level.
//
// An EPUB is an ordinary zip archive whose first entry is conventionally a
// stored (uncompressed) "mimetype" file, followed by XHTML content documents
// and their assets. This package deliberately does not parse OPF manifests or
// validate EPUB conformance; it exposes the raw entry sequence so callers can
// rewrite individual documents and repack the container intact.
package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// maxEntrySize caps the decompressed size of a single entry.
// Guards against zip bombs; EPUB content documents are far smaller.
const maxEntrySize int64 = 256 * 1024 * 1024

// MimetypePath is the conventional first entry of an EPUB container.
const MimetypePath = "mimetype"

// Entry is one named unit of content inside the archive, in archive order.
type Entry struct {
	Path string
	Data []byte
}

// IsHTML reports whether the entry path names an HTML/XHTML content document.
func (e Entry) IsHTML() bool {
	switch strings.ToLower(path.Ext(e.Path)) {
	case ".html", ".xhtml", ".htm":
		return true
	}
	return false
}

// ReadArchive opens the EPUB at p and returns every entry in archive order.
// Directory entries are skipped. All failures wrap ErrArchiveRead: a missing
// or non-zip file, an entry path that escapes the archive root, or an entry
// whose decompressed size exceeds the per-entry limit. The read handle is
// closed before returning on every path.
func ReadArchive(p string) ([]Entry, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArchiveRead, p, err)
	}
	defer zr.Close()

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrArchiveRead, p, err)
		}
		entries = append(entries, Entry{Path: f.Name, Data: data})
	}
	return entries, nil
}

// readEntry reads the full contents of one zip entry, enforcing the
// per-entry size limit and rejecting unsafe entry paths.
func readEntry(f *zip.File) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("unsafe entry path %q", f.Name)
	}
	if f.UncompressedSize64 > uint64(maxEntrySize) {
		return nil, fmt.Errorf("entry %s too large: %d bytes", f.Name, f.UncompressedSize64)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	// The declared size may be forged, so read with a hard limit too.
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > maxEntrySize {
		return nil, fmt.Errorf("entry %s exceeds decompression limit", f.Name)
	}
	return data, nil
}

// isSafePath checks that a zip-internal path cannot escape the archive
// root via traversal ("../..") or an absolute prefix.
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}
