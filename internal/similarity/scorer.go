// Package similarity scores embedding group means against a reference
// vector with cosine similarity in the full embedding space.
package similarity

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrZeroVector is returned when either operand has zero norm; the
	// angle to a zero vector is undefined.
	ErrZeroVector = errors.New("cosine similarity undefined for zero vector")
	// ErrDimensionMismatch is returned when the operands have different
	// lengths.
	ErrDimensionMismatch = errors.New("vector dimensions do not match")
)

// Cosine returns the cosine similarity between a and b. The result is
// clamped to [-1, 1] to absorb floating point drift.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrZeroVector
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return sim, nil
}

// Scores computes the cosine similarity of every group mean against the
// reference vector, keyed by group label. Group means and the reference
// must live in the same full embedding space; scores computed on reduced
// coordinates would measure projection artifacts, not semantic closeness.
func Scores(groupMeans map[string][]float32, reference []float32) (map[string]float64, error) {
	scores := make(map[string]float64, len(groupMeans))
	for label, mean := range groupMeans {
		sim, err := Cosine(mean, reference)
		if err != nil {
			return nil, fmt.Errorf("scoring group %q: %w", label, err)
		}
		scores[label] = sim
	}
	return scores, nil
}
