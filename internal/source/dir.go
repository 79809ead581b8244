// Package source provides reference image sources for the gallery: a local
// directory and a MinIO/S3 bucket.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kozaktomas/face-search/internal/gallery"
)

// Dir reads reference images from the top level of a directory.
type Dir struct {
	path string
}

// NewDir creates a directory source. The directory is not checked until List.
func NewDir(path string) *Dir {
	return &Dir{path: path}
}

// List returns the regular files in the directory, without recursing. Symlinks
// count when they resolve to a regular file.
func (d *Dir) List(ctx context.Context) ([]gallery.SourceItem, error) {
	entries, err := os.ReadDir(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", gallery.ErrSourceMissing, d.path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", d.path, err)
	}

	items := make([]gallery.SourceItem, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := filepath.Join(d.path, e.Name())
		if !isRegularFile(e, key) {
			continue
		}
		items = append(items, gallery.SourceItem{
			Key:      key,
			Filename: e.Name(),
		})
	}
	return items, nil
}

func isRegularFile(e fs.DirEntry, path string) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the file contents.
func (d *Dir) Read(_ context.Context, item gallery.SourceItem) ([]byte, error) {
	data, err := os.ReadFile(item.Key) //nolint:gosec // key comes from List
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", item.Filename, err)
	}
	return data, nil
}

// Location returns the directory path.
func (d *Dir) Location() string {
	return d.path
}
