package store

import (
	"fmt"
	"math"
)

// Metric names a distance function and how to turn its distances into a
// similarity score in [0, 1].
type Metric string

const (
	// Cosine distance is 1 - cosine similarity, in [0, 2].
	Cosine Metric = "cosine"
	// L2 is the Euclidean distance, in [0, +inf).
	L2 Metric = "l2"
)

// Similarity converts a distance under m to a score in [0, 1] where higher
// is closer. Cosine distances map to 1 - d clamped at zero, so vectors
// pointing away from the query score 0. L2 distances map to 1 / (1 + d).
func (m Metric) Similarity(distance float64) float64 {
	switch m {
	case L2:
		if distance < 0 {
			distance = 0
		}
		return 1 / (1 + distance)
	default:
		return clamp01(1 - distance)
	}
}

// Distance computes the distance between a and b under m.
func (m Metric) Distance(a, b []float32) (float64, error) {
	switch m {
	case L2:
		return L2Distance(a, b)
	default:
		sim, err := CosineSimilarity(a, b)
		if err != nil {
			return 0, err
		}
		return 1 - sim, nil
	}
}

// CosineSimilarity computes the cosine similarity between two vectors.
// A zero vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// L2Distance computes the Euclidean distance between two vectors.
func L2Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// normalized returns a unit-length copy of v. Zero vectors are returned as is.
func normalized(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	copy(out, v)
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i := range out {
		out[i] = float32(float64(out[i]) * inv)
	}
	return out
}
