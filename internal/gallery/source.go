package gallery

import (
	"context"
	"errors"
)

// ErrSourceMissing is returned by a Source whose location does not exist.
var ErrSourceMissing = errors.New("reference image source not found")

// SourceItem identifies one file in a reference image source.
type SourceItem struct {
	Key      string // source-specific locator (path or object key)
	Filename string // base name used for the identity name
}

// Source enumerates labeled reference images.
type Source interface {
	// List returns every file in the source. Filtering by extension is up to the caller.
	List(ctx context.Context) ([]SourceItem, error)
	// Read returns the raw bytes of one item.
	Read(ctx context.Context, item SourceItem) ([]byte, error)
	// Location describes the source for diagnostics.
	Location() string
}

// Persister stores the serialized gallery between process runs.
type Persister interface {
	// Exists reports whether a non-empty persisted gallery is present.
	Exists(ctx context.Context) (bool, error)
	// Load reads the persisted gallery. Malformed data yields ErrCorruptData.
	Load(ctx context.Context) (*Gallery, error)
	// Save replaces the persisted gallery.
	Save(ctx context.Context, g *Gallery) error
	// Discard removes the persisted gallery. Removing a missing one is not an error.
	Discard(ctx context.Context) error
	// Location describes the store for diagnostics.
	Location() string
}
