package embedders

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/types"
)

// OllamaEmbedder generates embeddings through a local Ollama server
type OllamaEmbedder struct {
	baseEmbedder
	config  *Config
	client  *resty.Client
	baseURL string

	// mu guards dimension auto-detection; Embed may run concurrently.
	mu sync.Mutex
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates an Ollama-backed embedder
func NewOllamaEmbedder(config *Config) (*OllamaEmbedder, error) {
	if config == nil {
		return nil, errors.NewValidationError("config cannot be nil")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if config.MaxLength == 0 {
		config.MaxLength = 2048
	}
	if config.Dimension == 0 {
		// Detected from the first response.
		config.Dimension = 768
	}

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}

	return &OllamaEmbedder{
		baseEmbedder: newBaseEmbedder(config.Model, config.Dimension, config.MaxLength),
		config:       config,
		client:       client,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Embed generates an embedding for a single text
func (ol *OllamaEmbedder) Embed(ctx context.Context, text string) (types.EmbeddingVector, error) {
	if text == "" {
		return nil, errors.NewValidationError("text cannot be empty")
	}

	raw, err := ol.createEmbeddingWithRetry(ctx, ol.preprocess(text))
	if err != nil {
		return nil, errors.NewEmbeddingError("Ollama embedding request failed", err)
	}

	result := make(types.EmbeddingVector, len(raw))
	for i, v := range raw {
		result[i] = float32(v)
	}

	if ol.config.Normalize {
		result = normalize(result)
	}

	ol.mu.Lock()
	if ol.dimension != len(result) {
		ol.dimension = len(result)
	}
	err = ol.validate(result)
	ol.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Dimensions returns the embedding size, auto-detected from the first
// response when the config leaves it unset.
func (ol *OllamaEmbedder) Dimensions() int {
	ol.mu.Lock()
	defer ol.mu.Unlock()
	return ol.dimension
}

// EmbedBatch generates embeddings for multiple texts. Ollama has no batch
// endpoint, so inputs are embedded one at a time.
func (ol *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	if len(texts) == 0 {
		return []types.EmbeddingVector{}, nil
	}

	all := make([]types.EmbeddingVector, 0, len(texts))
	for i, text := range texts {
		vector, err := ol.Embed(ctx, text)
		if err != nil {
			return nil, errors.NewEmbeddingError(
				fmt.Sprintf("batch failed at index %d", i), err)
		}
		all = append(all, vector)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	return all, nil
}

func (ol *OllamaEmbedder) createEmbeddingWithRetry(ctx context.Context, text string) ([]float64, error) {
	var result []float64

	err := retry.Do(
		func() error {
			embedding, err := ol.createEmbedding(ctx, text)
			if err != nil {
				return err
			}
			result = embedding
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
	)

	return result, err
}

func (ol *OllamaEmbedder) createEmbedding(ctx context.Context, text string) ([]float64, error) {
	resp, err := ol.client.R().
		SetContext(ctx).
		SetBody(ollamaEmbeddingRequest{Model: ol.config.Model, Prompt: text}).
		SetResult(&ollamaEmbeddingResponse{}).
		Post(ol.baseURL + "/api/embeddings")
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	result, ok := resp.Result().(*ollamaEmbeddingResponse)
	if !ok || result == nil {
		return nil, fmt.Errorf("invalid response format")
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	return result.Embedding, nil
}
