// Package scratch manages the per-job scoped temporary directory every
// job runs under: one directory per job, released on every exit path,
// with an 8-char nonce to keep intermediate filenames collision free
// even if a directory were ever shared.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Dir is a scoped scratch directory for one job.
type Dir struct {
	Root string
}

// New creates a fresh temporary directory for one job.
func New() (*Dir, error) {
	root, err := os.MkdirTemp("", "zenpdf-job-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Dir{Root: root}, nil
}

// Close removes the scratch directory and everything under it. Safe to
// call unconditionally on every exit path (success or failure).
func (d *Dir) Close() error {
	if d == nil || d.Root == "" {
		return nil
	}
	return os.RemoveAll(d.Root)
}

// Path joins name onto the scratch root.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.Root, name)
}

// InputPath returns the path for the index-th (1-based) input, with the
// deterministic "NN_original-name" prefix used for stem extraction.
func (d *Dir) InputPath(index int, filename string) string {
	return d.Path(fmt.Sprintf("%02d_%s", index, filepath.Base(filename)))
}

// Nonce returns a fresh 8-character hex run identifier for naming
// pipeline intermediates ("{stem}_{runId}_{stage}.pdf").
func Nonce() string {
	return uuid.NewString()[:8]
}
