package embedders

import (
	"context"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/sashabaranov/go-openai"

	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/types"
)

// OpenAIEmbedder generates embeddings through the OpenAI embeddings API
type OpenAIEmbedder struct {
	baseEmbedder
	config      *Config
	client      *openai.Client
	rateLimiter *rateLimiter
}

// rateLimiter is a token bucket for API calls
type rateLimiter struct {
	tokens     int
	maxTokens  int
	lastRefill time.Time
	refillRate time.Duration
	mu         sync.Mutex
}

func newRateLimiter(maxTokens int, refillRate time.Duration) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		lastRefill: time.Now(),
		refillRate: refillRate,
	}
}

// wait blocks until a call slot is available or the context ends. The lock
// is released while sleeping so concurrent callers can take refilled slots.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		refilled := int(now.Sub(rl.lastRefill) / rl.refillRate)
		if refilled > 0 {
			rl.tokens += refilled
			if rl.tokens > rl.maxTokens {
				rl.tokens = rl.maxTokens
			}
			rl.lastRefill = now
		}
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		sleep := rl.refillRate - now.Sub(rl.lastRefill)
		rl.mu.Unlock()

		if sleep <= 0 {
			sleep = rl.refillRate
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// NewOpenAIEmbedder creates an OpenAI-backed embedder
func NewOpenAIEmbedder(config *Config) (*OpenAIEmbedder, error) {
	if config == nil {
		return nil, errors.NewValidationError("config cannot be nil")
	}
	if config.APIKey == "" {
		return nil, errors.NewValidationError("OpenAI API key is required")
	}

	if config.Dimension == 0 {
		switch config.Model {
		case string(openai.LargeEmbedding3):
			config.Dimension = 3072
		default:
			config.Dimension = 1536
		}
	}
	if config.MaxLength == 0 {
		config.MaxLength = 8191
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIEmbedder{
		baseEmbedder: newBaseEmbedder(config.Model, config.Dimension, config.MaxLength),
		config:       config,
		client:       openai.NewClientWithConfig(clientConfig),
		rateLimiter:  newRateLimiter(100, time.Minute/100),
	}, nil
}

// Embed generates an embedding for a single text
func (oai *OpenAIEmbedder) Embed(ctx context.Context, text string) (types.EmbeddingVector, error) {
	if text == "" {
		return nil, errors.NewValidationError("text cannot be empty")
	}

	vectors, err := oai.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts, splitting into
// API-sized batches
func (oai *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	if len(texts) == 0 {
		return []types.EmbeddingVector{}, nil
	}

	processed := make([]string, len(texts))
	for i, text := range texts {
		processed[i] = oai.preprocess(text)
	}

	all := make([]types.EmbeddingVector, 0, len(texts))
	for i := 0; i < len(processed); i += oai.config.BatchSize {
		end := i + oai.config.BatchSize
		if end > len(processed) {
			end = len(processed)
		}

		if err := oai.rateLimiter.wait(ctx); err != nil {
			return nil, errors.NewEmbeddingError("rate limiter interrupted", err)
		}

		batch, err := oai.createEmbeddingsWithRetry(ctx, processed[i:end])
		if err != nil {
			return nil, errors.NewEmbeddingError("OpenAI embedding request failed", err)
		}
		all = append(all, batch...)
	}

	for i, vector := range all {
		if oai.config.Normalize {
			all[i] = normalize(vector)
		}
		if err := oai.validate(all[i]); err != nil {
			return nil, err
		}
	}

	return all, nil
}

// createEmbeddingsWithRetry calls the embeddings endpoint with backoff
func (oai *OpenAIEmbedder) createEmbeddingsWithRetry(ctx context.Context, texts []string) ([]types.EmbeddingVector, error) {
	var result []types.EmbeddingVector

	err := retry.Do(
		func() error {
			resp, err := oai.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
				Input: texts,
				Model: openai.EmbeddingModel(oai.config.Model),
			})
			if err != nil {
				return err
			}
			if len(resp.Data) != len(texts) {
				return errors.NewEmbeddingError("embedding count does not match input count", nil)
			}

			result = make([]types.EmbeddingVector, len(resp.Data))
			for i, item := range resp.Data {
				result[i] = types.EmbeddingVector(item.Embedding)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
	)

	return result, err
}
