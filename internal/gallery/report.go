package gallery

import (
	"time"

	"github.com/go-logr/logr"
)

// OutcomeKind classifies what happened to one reference image during a build.
type OutcomeKind string

const (
	OutcomeEmbedded         OutcomeKind = "embedded"
	OutcomeNoFace           OutcomeKind = "no_face"
	OutcomeExtractionFailed OutcomeKind = "extraction_failed"
	OutcomeReadFailed       OutcomeKind = "read_failed"
	OutcomeInvalidEmbedding OutcomeKind = "invalid_embedding"
)

// Outcome is the typed result of processing one reference image.
type Outcome struct {
	Filename string      `json:"filename"`
	Name     string      `json:"name"`
	Kind     OutcomeKind `json:"kind"`
	Error    string      `json:"error,omitempty"`
}

// Overwrite records a reference image that replaced an earlier one with the same name.
type Overwrite struct {
	Name     string `json:"name"`
	Previous string `json:"previous"`
	Winner   string `json:"winner"`
}

// Report describes how a gallery was materialized.
type Report struct {
	Store       string        `json:"store"`
	Source      string        `json:"source"`
	FromStore   bool          `json:"from_store"`          // loaded from the persisted copy
	Discarded   bool          `json:"discarded,omitempty"` // persisted copy was corrupt and removed
	Candidates  int           `json:"candidates"`
	Outcomes    []Outcome     `json:"outcomes,omitempty"`
	Overwrites  []Overwrite   `json:"overwrites,omitempty"`
	SourceError string        `json:"source_error,omitempty"`
	SaveError   string        `json:"save_error,omitempty"`
	Saved       bool          `json:"saved"`
	Identities  int           `json:"identities"`
	Duration    time.Duration `json:"duration"`
}

// Count returns the number of outcomes of the given kind.
func (r *Report) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Skipped returns the number of reference images that did not make it into the gallery.
func (r *Report) Skipped() int {
	return len(r.Outcomes) - r.Count(OutcomeEmbedded)
}

// Log writes the aggregate report and every skip to logger.
func (r *Report) Log(logger logr.Logger) {
	if r.FromStore {
		logger.Info("gallery loaded from store", "store", r.Store, "identities", r.Identities, "duration", r.Duration)
		return
	}
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeEmbedded {
			logger.V(1).Info("computed embedding", "name", o.Name, "file", o.Filename)
			continue
		}
		logger.Info("skipped reference image", "file", o.Filename, "reason", o.Kind, "error", o.Error)
	}
	for _, ow := range r.Overwrites {
		logger.Info("duplicate identity name, last file wins", "name", ow.Name, "previous", ow.Previous, "winner", ow.Winner)
	}
	logger.Info("gallery built from source",
		"source", r.Source,
		"candidates", r.Candidates,
		"identities", r.Identities,
		"skipped", r.Skipped(),
		"saved", r.Saved,
		"duration", r.Duration,
	)
}
