// Package embedders provides embedding providers backing the semantic and
// late chunking strategies.
package embedders

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/types"
)

// Config configures an embedding provider
type Config struct {
	// Provider selects the backend: "openai", "ollama", or "mock"
	Provider string `json:"provider" yaml:"provider" validate:"required,oneof=openai ollama mock"`

	// Model is the embedding model name
	Model string `json:"model" yaml:"model" validate:"required"`

	// APIKey authenticates hosted providers
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Dimension is the embedding vector size. Zero means the provider
	// default.
	Dimension int `json:"dimension,omitempty" yaml:"dimension,omitempty" validate:"gte=0"`

	// MaxLength caps input length in characters; longer inputs are
	// truncated
	MaxLength int `json:"max_length,omitempty" yaml:"max_length,omitempty" validate:"gte=0"`

	// BatchSize caps how many inputs go into one API request
	BatchSize int `json:"batch_size,omitempty" yaml:"batch_size,omitempty" validate:"gte=0"`

	// Timeout bounds individual API calls
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Normalize scales output vectors to unit length
	Normalize bool `json:"normalize" yaml:"normalize"`
}

// DefaultConfig returns a mock-provider config suitable for tests and
// offline runs
func DefaultConfig() *Config {
	return &Config{
		Provider:  "mock",
		Model:     "mock-384",
		Dimension: 384,
		MaxLength: 8192,
		BatchSize: 32,
		Normalize: true,
	}
}

// baseEmbedder carries behavior shared by all providers
type baseEmbedder struct {
	model     string
	dimension int
	maxLength int
}

func newBaseEmbedder(model string, dimension, maxLength int) baseEmbedder {
	return baseEmbedder{model: model, dimension: dimension, maxLength: maxLength}
}

// Dimensions returns the embedding vector size
func (b *baseEmbedder) Dimensions() int {
	return b.dimension
}

// ModelName returns the embedding model name
func (b *baseEmbedder) ModelName() string {
	return b.model
}

// preprocess collapses whitespace and truncates to the input cap without
// splitting a UTF-8 sequence.
func (b *baseEmbedder) preprocess(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if b.maxLength > 0 && len(text) > b.maxLength {
		cut := b.maxLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

// validate rejects vectors with the wrong dimension or non-finite values
func (b *baseEmbedder) validate(vector types.EmbeddingVector) error {
	if len(vector) == 0 {
		return errors.NewEmbeddingError("provider returned an empty vector", nil)
	}
	if b.dimension > 0 && len(vector) != b.dimension {
		return errors.NewEmbeddingError(
			fmt.Sprintf("expected dimension %d, got %d", b.dimension, len(vector)), nil)
	}
	for _, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return errors.NewEmbeddingError("vector contains non-finite values", nil)
		}
	}
	return nil
}

// normalize scales a vector to unit length. Zero vectors are returned
// unchanged.
func normalize(vector types.EmbeddingVector) types.EmbeddingVector {
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	norm = math.Sqrt(norm)

	out := make(types.EmbeddingVector, len(vector))
	for i, v := range vector {
		out[i] = float32(float64(v) / norm)
	}
	return out
}
