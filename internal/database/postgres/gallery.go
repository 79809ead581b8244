package postgres

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/kozaktomas/face-search/internal/gallery"
	"github.com/pgvector/pgvector-go"
)

// GalleryPersister stores gallery entries in the gallery_entries table.
type GalleryPersister struct {
	pool     *Pool
	location string
}

// NewGalleryPersister creates a persister over pool. location is reported in logs
// and must not carry credentials.
func NewGalleryPersister(pool *Pool, location string) *GalleryPersister {
	return &GalleryPersister{pool: pool, location: location}
}

// Location returns the redacted database location.
func (r *GalleryPersister) Location() string {
	return r.location
}

// Exists reports whether any entry is stored.
func (r *GalleryPersister) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM gallery_entries)").Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check gallery entries exist: %w", err)
	}
	return exists, nil
}

// Load reads all entries. Rows that cannot form a valid gallery wrap gallery.ErrCorruptData.
func (r *GalleryPersister) Load(ctx context.Context) (*gallery.Gallery, error) {
	rows, err := r.pool.Query(ctx, "SELECT name, embedding, dim FROM gallery_entries ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query gallery entries: %w", err)
	}
	defer rows.Close()

	var entries []gallery.Entry
	galleryDim := 0
	for rows.Next() {
		var name string
		var vec pgvector.Vector
		var dim int
		if err := rows.Scan(&name, &vec, &dim); err != nil {
			return nil, fmt.Errorf("%w: scan gallery entry: %w", gallery.ErrCorruptData, err)
		}

		emb := vec.Slice()
		if err := checkEntry(name, emb, dim); err != nil {
			return nil, err
		}
		if galleryDim == 0 {
			galleryDim = dim
		} else if dim != galleryDim {
			return nil, fmt.Errorf("%w: entry %q has %d dimensions, gallery has %d",
				gallery.ErrCorruptData, name, dim, galleryDim)
		}
		entries = append(entries, gallery.Entry{Name: name, Embedding: emb})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery entries: %w", err)
	}

	return gallery.New(entries), nil
}

func checkEntry(name string, emb []float32, dim int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty identity name", gallery.ErrCorruptData)
	}
	if dim <= 0 || len(emb) != dim {
		return fmt.Errorf("%w: entry %q has %d values, recorded dim %d", gallery.ErrCorruptData, name, len(emb), dim)
	}
	for _, v := range emb {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: entry %q has non-finite values", gallery.ErrCorruptData, name)
		}
	}
	return nil
}

// Save replaces all stored entries with g in a single transaction.
func (r *GalleryPersister) Save(ctx context.Context, g *gallery.Gallery) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM gallery_entries"); err != nil {
		return fmt.Errorf("clear gallery entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gallery_entries (name, embedding, dim)
		VALUES ($1, $2::vector, $3)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range g.Entries() {
		vec := pgvector.NewVector(e.Embedding)
		if _, err := stmt.ExecContext(ctx, e.Name, vec, len(e.Embedding)); err != nil {
			return fmt.Errorf("insert gallery entry %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Discard deletes all stored entries.
func (r *GalleryPersister) Discard(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM gallery_entries"); err != nil {
		return fmt.Errorf("discard gallery entries: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (r *GalleryPersister) Close() error {
	return r.pool.Close()
}
