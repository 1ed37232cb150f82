package embedders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOllamaStub serves a fixed embedding for every request.
func newOllamaStub(t *testing.T, embedding []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Prompt)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: embedding}))
	}))
}

func TestOllamaEmbedderDetectsDimension(t *testing.T) {
	server := newOllamaStub(t, []float64{0.1, 0.2, 0.3, 0.4})
	defer server.Close()

	embedder, err := NewOllamaEmbedder(&Config{
		Provider: "ollama",
		Model:    "nomic-embed-text",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	vector, err := embedder.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	require.Len(t, vector, 4)
	assert.InDelta(t, 0.1, float64(vector[0]), 1e-6)

	// The dimension is learned from the first response.
	assert.Equal(t, 4, embedder.Dimensions())
}

func TestOllamaEmbedderConcurrentEmbeds(t *testing.T) {
	server := newOllamaStub(t, []float64{1, 0, 0})
	defer server.Close()

	embedder, err := NewOllamaEmbedder(&Config{
		Provider: "ollama",
		Model:    "nomic-embed-text",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vector, err := embedder.Embed(context.Background(), "concurrent input")
			assert.NoError(t, err)
			assert.Len(t, vector, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, embedder.Dimensions())
}

func TestOllamaEmbedderRejectsEmptyText(t *testing.T) {
	embedder, err := NewOllamaEmbedder(&Config{Provider: "ollama", Model: "nomic-embed-text"})
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), "")
	assert.Error(t, err)
}
