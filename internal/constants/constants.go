// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Matching constants
const (
	// DefaultMatchThreshold is the default maximum cosine distance for an identity match.
	// Candidates with distance >= threshold are never selected.
	DefaultMatchThreshold = 0.4

	// MaxCosineDistance is the upper bound of cosine distance (opposite vectors)
	MaxCosineDistance = 2.0

	// UnknownName is returned when no gallery identity passes the threshold
	UnknownName = "Unknown"

	// NoDistance is the out-of-range distance reported when there is no match
	NoDistance = -1.0
)

// Gallery constants
const (
	// DefaultDatasetDir is the default directory with labeled reference images
	DefaultDatasetDir = "../dataset"

	// DefaultGalleryStore is the default location of the persisted gallery
	DefaultGalleryStore = "embeddings.gob"

	// DefaultGalleryWorkers is the default number of parallel extractions during a gallery build
	DefaultGalleryWorkers = 4

	// DefaultRedisKey is the key holding the serialized gallery in Redis
	DefaultRedisKey = "face-search:gallery"
)

// Processing constants
const (
	// MaxImageSize is the maximum dimension (width or height) for image processing
	MaxImageSize = 1920

	// MaxUploadSize is the maximum probe upload size in bytes (32MB)
	MaxUploadSize = 32 << 20
)
