package embedders

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/types"
)

// MockEmbedder produces deterministic unit vectors from a hash of the
// input. Equal texts always get equal vectors and texts sharing words get
// correlated vectors, which makes semantic boundaries testable offline.
type MockEmbedder struct {
	baseEmbedder
}

// NewMockEmbedder creates a mock embedder with the given dimension
func NewMockEmbedder(dimension int) (*MockEmbedder, error) {
	if dimension <= 0 {
		return nil, errors.NewValidationError("dimension must be positive")
	}
	return &MockEmbedder{
		baseEmbedder: newBaseEmbedder("mock", dimension, 0),
	}, nil
}

// Embed generates a deterministic embedding for a single text
func (m *MockEmbedder) Embed(ctx context.Context, text string) (types.EmbeddingVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vector := make(types.EmbeddingVector, m.dimension)

	// Project each word onto a few hash-chosen components so that texts
	// with shared vocabulary end up with high cosine similarity.
	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != ' ' && text[i] != '\n' && text[i] != '\t' {
			continue
		}
		if i > start {
			h := fnv.New64a()
			h.Write([]byte(text[start:i]))
			sum := h.Sum64()
			for k := 0; k < 3; k++ {
				idx := int((sum >> (k * 16)) % uint64(m.dimension))
				sign := float32(1)
				if (sum>>(k*16+8))&1 == 1 {
					sign = -1
				}
				vector[idx] += sign
			}
		}
		start = i + 1
	}

	if isZero(vector) {
		vector[0] = 1
	}

	return normalize(vector), nil
}

// EmbedBatch generates deterministic embeddings for multiple texts
func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	vectors := make([]types.EmbeddingVector, len(texts))
	for i, text := range texts {
		vector, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func isZero(vector types.EmbeddingVector) bool {
	for _, v := range vector {
		if math.Abs(float64(v)) > 0 {
			return false
		}
	}
	return true
}
