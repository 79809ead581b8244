// Package matcher identifies a probe embedding against a gallery snapshot by
// cosine distance under a threshold.
package matcher

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"github.com/kozaktomas/face-search/internal/constants"
	"github.com/kozaktomas/face-search/internal/gallery"
)

var (
	// ErrInvalidProbe marks a probe that violates the matching preconditions.
	// It is never returned for an ordinary miss.
	ErrInvalidProbe = errors.New("invalid probe embedding")

	// ErrZeroVector is returned for an empty or zero-norm probe.
	ErrZeroVector = fmt.Errorf("%w: zero vector", ErrInvalidProbe)

	// ErrDimensionMismatch is returned when probe and gallery dimensionality differ.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrInvalidProbe)

	// ErrInvalidThreshold is returned for a threshold outside (0, 2].
	ErrInvalidThreshold = errors.New("invalid match threshold")
)

// Status describes the outcome of a successful Match call.
type Status string

const (
	StatusOK           Status = "ok"
	StatusEmptyGallery Status = "empty-gallery"
)

// Result is the top-1 decision for one probe.
type Result struct {
	Name     string  `json:"name"`     // identity, or constants.UnknownName
	Distance float64 `json:"distance"` // cosine distance, or constants.NoDistance
	Status   Status  `json:"status"`
	// Invalid lists gallery entries excluded because their distance was NaN or infinite.
	Invalid []string `json:"invalid,omitempty"`
}

// Matched reports whether an identity passed the threshold.
func (r Result) Matched() bool {
	return r.Status == StatusOK && r.Name != constants.UnknownName && r.Distance >= 0
}

func unknown(status Status) Result {
	return Result{Name: constants.UnknownName, Distance: constants.NoDistance, Status: status}
}

// Matcher holds the matching configuration. It is stateless across calls and safe
// for concurrent use against a shared gallery snapshot.
type Matcher struct {
	threshold float64
	log       logr.Logger
}

// New creates a matcher with the given threshold.
func New(threshold float64, logger logr.Logger) (*Matcher, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	return &Matcher{threshold: threshold, log: logger}, nil
}

// Threshold returns the configured threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// ValidateThreshold checks that threshold is a usable cosine distance cutoff.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold <= 0 || threshold > constants.MaxCosineDistance {
		return fmt.Errorf("%w: %v is outside (0, %v]", ErrInvalidThreshold, threshold, constants.MaxCosineDistance)
	}
	return nil
}

// Match scores probe against g with the matcher's threshold.
func (m *Matcher) Match(probe []float32, g *gallery.Gallery) (Result, error) {
	return m.MatchWithThreshold(probe, g, m.threshold)
}

// MatchWithThreshold is Match with a per-call threshold override.
func (m *Matcher) MatchWithThreshold(probe []float32, g *gallery.Gallery, threshold float64) (Result, error) {
	res, err := Match(probe, g, threshold)
	if err != nil {
		return res, err
	}
	for _, name := range res.Invalid {
		m.log.Info("skipping gallery entry with invalid distance", "name", name)
	}
	return res, nil
}

// Match returns the gallery identity closest to probe whose cosine distance is strictly
// below threshold, or an "Unknown" result when none qualifies. An empty gallery yields
// StatusEmptyGallery, not an error. Entries whose distance is NaN or infinite are
// skipped and listed in Result.Invalid.
//
// Entries are visited in name order and only a strictly smaller distance replaces the
// current best, so on an exact tie the alphabetically first name wins.
func Match(probe []float32, g *gallery.Gallery, threshold float64) (Result, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return Result{}, err
	}
	if g.IsEmpty() {
		return unknown(StatusEmptyGallery), nil
	}
	if err := validateProbe(probe, g.Dim()); err != nil {
		return Result{}, err
	}

	res := unknown(StatusOK)
	best := math.Inf(1)

	g.Each(func(name string, embedding []float32) bool {
		if len(embedding) != len(probe) {
			// Gallery dimensionality is uniform by construction; treat a stray entry as unusable.
			res.Invalid = append(res.Invalid, name)
			return true
		}
		distance := CosineDistance(probe, embedding)
		if !isFinite(distance) {
			res.Invalid = append(res.Invalid, name)
			return true
		}
		if distance < best && distance < threshold {
			best = distance
			res.Name = name
		}
		return true
	})

	if isFinite(best) {
		res.Distance = best
	}
	return res, nil
}

func validateProbe(probe []float32, dim int) error {
	if len(probe) == 0 {
		return ErrZeroVector
	}
	for i, v := range probe {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: component %d is %v", ErrInvalidProbe, i, v)
		}
	}
	if len(probe) != dim {
		return fmt.Errorf("%w: probe has %d dimensions, gallery has %d", ErrDimensionMismatch, len(probe), dim)
	}
	if norm(probe) == 0 {
		return ErrZeroVector
	}
	return nil
}
