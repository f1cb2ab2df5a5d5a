// Package buildinfo exposes version metadata stamped at build time.
package buildinfo

import "strings"

// Injected via -ldflags at release time.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Summary returns a human-readable version string.
func Summary() string {
	version := Version
	if version == "" {
		version = "dev"
	}
	var extra []string
	if Commit != "" {
		extra = append(extra, Commit)
	}
	if Date != "" {
		extra = append(extra, Date)
	}
	if len(extra) == 0 {
		return version
	}
	return version + " (" + strings.Join(extra, " ") + ")"
}
