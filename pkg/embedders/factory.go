package embedders

import (
	"fmt"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/errors"
)

// New creates an embedding provider from config
func New(config *Config) (chunkers.EmbeddingProvider, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case "openai":
		return NewOpenAIEmbedder(config)
	case "ollama":
		return NewOllamaEmbedder(config)
	case "mock":
		dimension := config.Dimension
		if dimension == 0 {
			dimension = 384
		}
		return NewMockEmbedder(dimension)
	default:
		return nil, errors.NewValidationError(
			fmt.Sprintf("unsupported embedding provider: %s", config.Provider))
	}
}
