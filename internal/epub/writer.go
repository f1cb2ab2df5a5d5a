package epub

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
)

// WriteArchive writes a new EPUB at p containing every entry exactly once,
// using replaced[path] where present and the original bytes otherwise.
// The "mimetype" entry, if present, is written first using zip.Store; all
// other entries are deflated in their original order. The archive is built
// in a temp file next to p and renamed into place only after a successful
// close, so a failed run leaves no output file. An existing file at p is
// overwritten.
func WriteArchive(p string, entries []Entry, replaced map[string][]byte) (err error) {
	dir := filepath.Dir(p)
	tmp, err := os.CreateTemp(dir, ".epubhl-*.zip")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArchiveWrite, p, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	zw := zip.NewWriter(tmp)

	for _, e := range orderedForWrite(entries) {
		data := e.Data
		if repl, ok := replaced[e.Path]; ok {
			data = repl
		}
		method := zip.Deflate
		if e.Path == MimetypePath {
			method = zip.Store
		}
		w, zerr := zw.CreateHeader(&zip.FileHeader{
			Name:   e.Path,
			Method: method,
		})
		if zerr != nil {
			err = fmt.Errorf("%w: %s: entry %s: %v", ErrArchiveWrite, p, e.Path, zerr)
			return err
		}
		if _, zerr := w.Write(data); zerr != nil {
			err = fmt.Errorf("%w: %s: entry %s: %v", ErrArchiveWrite, p, e.Path, zerr)
			return err
		}
	}

	if cerr := zw.Close(); cerr != nil {
		err = fmt.Errorf("%w: %s: %v", ErrArchiveWrite, p, cerr)
		return err
	}
	if cerr := tmp.Close(); cerr != nil {
		err = fmt.Errorf("%w: %s: %v", ErrArchiveWrite, p, cerr)
		return err
	}
	if rerr := os.Rename(tmpName, p); rerr != nil {
		err = fmt.Errorf("%w: %s: %v", ErrArchiveWrite, p, rerr)
		return err
	}
	return nil
}

// orderedForWrite moves the mimetype entry to the front, preserving the
// relative order of everything else.
func orderedForWrite(entries []Entry) []Entry {
	for i, e := range entries {
		if e.Path == MimetypePath {
			if i == 0 {
				return entries
			}
			out := make([]Entry, 0, len(entries))
			out = append(out, e)
			out = append(out, entries[:i]...)
			out = append(out, entries[i+1:]...)
			return out
		}
	}
	return entries
}
