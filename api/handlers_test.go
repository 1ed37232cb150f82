package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragkit/docprep/pkg/config"
	"github.com/ragkit/docprep/pkg/embedders"
	"github.com/ragkit/docprep/pkg/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider, err := embedders.NewMockEmbedder(64)
	require.NoError(t, err)

	return NewServer(config.Default(), logger.NewTestLogger(), provider, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestListStrategies(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/v1/strategies", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp StrategiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Strategies, 11)
}

func TestCleanEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := CleanRequest{Text: "Table of Contents\n1. One ....... 1\n\nActual document content that stays behind."}
	w := doJSON(t, s, http.MethodPost, "/v1/clean", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp CleanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotContains(t, resp.CleanedText, "Table of Contents")
	assert.Contains(t, resp.CleanedText, "Actual document content")
	assert.LessOrEqual(t, resp.CleanedLength, resp.OriginalLength)
}

func TestCleanEndpointRejectsMissingText(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/clean", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChunkEndpointToken(t *testing.T) {
	s := newTestServer(t)

	body := ChunkRequest{
		Text:     strings.Repeat("a sentence of filler words for the chunker to work with. ", 20),
		Strategy: "token",
	}
	w := doJSON(t, s, http.MethodPost, "/v1/chunk", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ChunkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Chunks)
	assert.Equal(t, len(resp.Chunks), resp.Stats.TotalChunks)

	for i, chunk := range resp.Chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, body.Text[chunk.StartIndex:chunk.EndIndex], chunk.Text)
	}
}

func TestChunkEndpointMarkupWithCleaning(t *testing.T) {
	s := newTestServer(t)

	body := ChunkRequest{
		Text: "Table of Contents\n1. Guide ....... 1\n\n# Guide\n\n" +
			strings.Repeat("useful guidance for the reader of this document. ", 5),
		Strategy: "markup",
		Clean:    true,
	}
	w := doJSON(t, s, http.MethodPost, "/v1/chunk", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ChunkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Cleaning)
	assert.Contains(t, resp.Cleaning.SectionsRemoved, "Table of Contents")
	require.NotEmpty(t, resp.Chunks)
	assert.Equal(t, "Guide", resp.Chunks[0].Heading)
}

func TestChunkEndpointPartialConfig(t *testing.T) {
	s := newTestServer(t)

	// Only chunk_size is supplied; every other knob keeps its default, so
	// the request must not trip validation on unset fields.
	body := map[string]interface{}{
		"text":     strings.Repeat("a sentence of filler words for the chunker to work with. ", 20),
		"strategy": "token",
		"config":   map[string]interface{}{"chunk_size": 64},
	}
	w := doJSON(t, s, http.MethodPost, "/v1/chunk", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ChunkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, len(resp.Chunks), 1)
}

func TestChunkEndpointMalformedConfig(t *testing.T) {
	s := newTestServer(t)

	body := map[string]interface{}{
		"text":     strings.Repeat("long enough text to get past the minimum size check easily. ", 5),
		"strategy": "token",
		"config":   map[string]interface{}{"chunk_size": "not a number"},
	}
	w := doJSON(t, s, http.MethodPost, "/v1/chunk", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChunkEndpointInsufficientContent(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/v1/chunk", ChunkRequest{Text: "too short", Strategy: "token"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INSUFFICIENT_CONTENT", resp.Code)
}

func TestChunkEndpointUnknownStrategy(t *testing.T) {
	s := newTestServer(t)

	body := ChunkRequest{
		Text:     strings.Repeat("long enough text to get past the minimum size check easily. ", 5),
		Strategy: "nonsense",
	}
	w := doJSON(t, s, http.MethodPost, "/v1/chunk", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChunkEndpointIndexWithoutStore(t *testing.T) {
	s := newTestServer(t)

	body := ChunkRequest{
		Text:     strings.Repeat("long enough text to get past the minimum size check easily. ", 5),
		Strategy: "token",
		Index:    true,
	}
	w := doJSON(t, s, http.MethodPost, "/v1/chunk", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChunkEndpointSemanticLate(t *testing.T) {
	s := newTestServer(t)

	body := ChunkRequest{
		Text:     strings.Repeat("The storage engine flushes memtables. ", 4) + strings.Repeat("Cooking pasta requires salted water. ", 4),
		Strategy: "semantic_late",
	}
	w := doJSON(t, s, http.MethodPost, "/v1/chunk", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ChunkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Chunks)
	for _, chunk := range resp.Chunks {
		assert.NotEmpty(t, chunk.Embedding)
		assert.NotEmpty(t, chunk.ContextualEmbedding)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
