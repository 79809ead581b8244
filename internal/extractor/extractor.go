// Package extractor turns a face photograph into an embedding vector.
package extractor

import (
	"context"
	"errors"
)

var (
	// ErrNoFaceDetected is returned when strict detection is enforced and the image has no face.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrExtraction covers every other failure: bad image data, transport or model errors.
	ErrExtraction = errors.New("embedding extraction failed")
)

// Extractor computes the embedding of the single face in an image.
// Calls may block on the embedding server; callers own timeouts through ctx.
type Extractor interface {
	Extract(ctx context.Context, image []byte) ([]float32, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, image []byte) ([]float32, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, image []byte) ([]float32, error) {
	return f(ctx, image)
}
