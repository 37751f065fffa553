// Package report persists suite results: CSV exports and diagnostic PNG
// plots, all named under a per-run identifier so repeated runs never
// clobber each other.
package report

import (
	"strings"
	"time"
)

// RunID derives the per-run file prefix from the wall clock. Minute
// resolution is enough; two runs inside the same minute share artifacts.
func RunID(t time.Time) string {
	return t.Format("20060102_1504")
}

// fileStem turns a human plot title into a filesystem-safe stem. Only the
// first title line participates; captions stay out of filenames.
func fileStem(title string) string {
	first, _, _ := strings.Cut(title, "\n")
	return strings.ReplaceAll(strings.ToLower(first), " ", "_")
}
