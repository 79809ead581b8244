package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kozaktomas/face-search/internal/gallery"
)

// FilePersister keeps the gallery as a single encoded blob on the local filesystem.
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister writing to path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Location returns the file path.
func (p *FilePersister) Location() string {
	return p.path
}

// Exists reports whether a non-empty gallery file is present.
func (p *FilePersister) Exists(_ context.Context) (bool, error) {
	info, err := os.Stat(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat gallery file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("gallery path %s is a directory", p.path)
	}
	return info.Size() > 0, nil
}

// Load reads and decodes the gallery file. Undecodable content wraps gallery.ErrCorruptData.
func (p *FilePersister) Load(_ context.Context) (*gallery.Gallery, error) {
	data, err := os.ReadFile(p.path) //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("failed to read gallery file: %w", err)
	}
	return gallery.Decode(data)
}

// Save writes the gallery to a temporary file next to the target and renames it into
// place, so a crash never leaves a partially written gallery behind.
func (p *FilePersister) Save(_ context.Context, g *gallery.Gallery) error {
	data, err := gallery.Encode(g)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create gallery directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary gallery file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write gallery file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync gallery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close gallery file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set gallery file mode: %w", err)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("failed to replace gallery file: %w", err)
	}
	return nil
}

// Discard removes the gallery file. A missing file is not an error.
func (p *FilePersister) Discard(_ context.Context) error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove gallery file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is not held open between calls.
func (p *FilePersister) Close() error {
	return nil
}
