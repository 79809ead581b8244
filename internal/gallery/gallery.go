// Package gallery owns the mapping from identity name to reference embedding:
// building it from labeled reference images, persisting it and recovering
// from a corrupted persisted copy.
package gallery

import (
	"slices"
)

// Entry is one reference identity.
type Entry struct {
	Name      string
	Embedding []float32
}

// Gallery is an immutable snapshot of reference embeddings keyed by identity name.
// It is safe for concurrent readers; nothing mutates it after construction.
type Gallery struct {
	byName map[string][]float32
	names  []string // sorted, fixes iteration order
	dim    int
}

// New builds a gallery from entries. Embeddings are copied; a later entry with the
// same name replaces an earlier one.
func New(entries []Entry) *Gallery {
	g := &Gallery{byName: make(map[string][]float32, len(entries))}
	for _, e := range entries {
		g.byName[e.Name] = slices.Clone(e.Embedding)
	}
	g.names = make([]string, 0, len(g.byName))
	for name := range g.byName {
		g.names = append(g.names, name)
	}
	slices.Sort(g.names)
	if len(g.names) > 0 {
		g.dim = len(g.byName[g.names[0]])
	}
	return g
}

// Empty returns a gallery without identities.
func Empty() *Gallery {
	return New(nil)
}

// Len returns the number of identities.
func (g *Gallery) Len() int {
	if g == nil {
		return 0
	}
	return len(g.names)
}

// IsEmpty reports whether the gallery has no identities. A nil gallery is empty.
func (g *Gallery) IsEmpty() bool {
	return g.Len() == 0
}

// Dim returns the embedding dimensionality, or 0 for an empty gallery.
func (g *Gallery) Dim() int {
	if g == nil {
		return 0
	}
	return g.dim
}

// Names returns the identity names in sorted order.
func (g *Gallery) Names() []string {
	if g == nil {
		return nil
	}
	return slices.Clone(g.names)
}

// Get returns the embedding for name. The returned slice must not be modified.
func (g *Gallery) Get(name string) ([]float32, bool) {
	if g == nil {
		return nil, false
	}
	emb, ok := g.byName[name]
	return emb, ok
}

// Each calls fn for every entry in name order until fn returns false.
// The embedding passed to fn must not be modified.
func (g *Gallery) Each(fn func(name string, embedding []float32) bool) {
	if g == nil {
		return
	}
	for _, name := range g.names {
		if !fn(name, g.byName[name]) {
			return
		}
	}
}

// Entries returns a copy of all entries in name order.
func (g *Gallery) Entries() []Entry {
	if g == nil {
		return nil
	}
	out := make([]Entry, 0, len(g.names))
	for _, name := range g.names {
		out = append(out, Entry{Name: name, Embedding: slices.Clone(g.byName[name])})
	}
	return out
}
