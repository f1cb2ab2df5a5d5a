package epub

import "errors"

// Sentinel errors returned by the epub package. Callers match them
// with errors.Is; wrapped messages carry the offending path.
var (
	// ErrArchiveRead indicates the input archive is missing, not a valid
	// zip container, or holds an entry that cannot be safely extracted.
	ErrArchiveRead = errors.New("epub: cannot read archive")

	// ErrArchiveWrite indicates the output archive could not be created
	// or fully written.
	ErrArchiveWrite = errors.New("epub: cannot write archive")
)
