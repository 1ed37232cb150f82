package segmenters

import (
	"math"

	"github.com/ragkit/docprep/pkg/types"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or zero-norm vectors yield 0.
func CosineSimilarity(a, b types.EmbeddingVector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
