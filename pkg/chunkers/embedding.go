package chunkers

import (
	"context"
	"math"

	"github.com/ragkit/docprep/pkg/types"
)

// EmbeddingProvider defines the interface for embedding providers consumed
// by the pipeline. Implementations live in pkg/embedders; the pipeline
// treats them as external collaborators and never retries internally.
type EmbeddingProvider interface {
	// Embed returns the embedding vector for a given text
	Embed(ctx context.Context, text string) (types.EmbeddingVector, error)

	// EmbedBatch returns embedding vectors for multiple texts
	EmbedBatch(ctx context.Context, texts []string) ([]types.EmbeddingVector, error)

	// Dimensions returns the dimensionality of the embedding vectors
	Dimensions() int
}

// normalizeVector scales a vector to unit length. A zero-norm vector is
// returned unchanged rather than divided by zero.
func normalizeVector(vector types.EmbeddingVector) types.EmbeddingVector {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vector
	}

	normalized := make(types.EmbeddingVector, len(vector))
	for i, v := range vector {
		normalized[i] = float32(float64(v) / norm)
	}
	return normalized
}

// blendVectors computes chunkWeight*chunk + contextWeight*context
func blendVectors(chunk, context types.EmbeddingVector, chunkWeight, contextWeight float64) types.EmbeddingVector {
	blended := make(types.EmbeddingVector, len(chunk))
	for i := range chunk {
		var ctxVal float64
		if i < len(context) {
			ctxVal = float64(context[i])
		}
		blended[i] = float32(chunkWeight*float64(chunk[i]) + contextWeight*ctxVal)
	}
	return blended
}
