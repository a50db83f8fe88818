// Package vector provides the similarity primitive used when ranking echoes
// between today's notes and historical ones.
package vector

import (
	"fmt"
	"math"
)

// CosineSimilarity computes the cosine similarity between two equal-length
// vectors. A dimension mismatch fails only this comparison; callers skip the
// pair and continue with the rest of the batch. Zero-magnitude vectors yield
// similarity 0 rather than an error, since an all-zero embedding simply
// matches nothing.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: cosine similarity on empty vectors")
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
