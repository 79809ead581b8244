package matcher

import "math"

// CosineDistance computes the cosine distance between two vectors of equal length.
// Returns a value between 0 (identical) and 2 (opposite)
// Cosine distance = 1 - cosine similarity
//
// Unlike a clamped similarity helper, a zero-norm or non-finite input yields NaN or Inf
// so callers can detect and exclude unusable candidates.
func CosineDistance(a, b []float32) float64 {
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors; NaN falls through both checks.
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return 1 - similarity
}

// norm returns the Euclidean length of v.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
