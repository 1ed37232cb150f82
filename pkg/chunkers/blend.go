package chunkers

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/types"
)

// Blend weights are fixed policy carried over from tuning, not options.
const (
	// Document mode: 70% chunk, 30% whole-document context
	documentChunkWeight   = 0.7
	documentContextWeight = 0.3

	// Sliding mode: 60% chunk, 40% window context
	slidingChunkWeight   = 0.6
	slidingContextWeight = 0.4
)

// ContextualEmbeddingBlender computes per-chunk embeddings blended with
// document-level or sliding-window context, then re-normalizes. Provider
// failures are never recovered here: no embedding-free fallback preserves
// the late-chunking contract.
type ContextualEmbeddingBlender struct {
	provider         EmbeddingProvider
	maxContextLength int
}

// NewContextualEmbeddingBlender creates a blender over the given provider.
// maxContextLength caps the text passed to context embeddings.
func NewContextualEmbeddingBlender(provider EmbeddingProvider, maxContextLength int) *ContextualEmbeddingBlender {
	if maxContextLength <= 0 {
		maxContextLength = 8192
	}
	return &ContextualEmbeddingBlender{
		provider:         provider,
		maxContextLength: maxContextLength,
	}
}

// EmbedDocument blends each chunk's embedding with a single whole-document
// embedding: contextual = normalize(0.7*chunk + 0.3*document).
func (b *ContextualEmbeddingBlender) EmbedDocument(ctx context.Context, text string, chunks []*Chunk) error {
	if b.provider == nil {
		return errors.NewValidationError("embedding provider not configured")
	}
	if len(chunks) == 0 {
		return nil
	}

	docVec, err := b.provider.Embed(ctx, truncate(text, b.maxContextLength))
	if err != nil {
		return errors.NewEmbeddingError("document embedding failed", err)
	}

	chunkVecs, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	for i, chunk := range chunks {
		chunk.Embedding = chunkVecs[i]
		chunk.ContextualEmbedding = normalizeVector(
			blendVectors(chunkVecs[i], docVec, documentChunkWeight, documentContextWeight))
	}

	return nil
}

// EmbedSliding blends each chunk's embedding with an embedding of the
// surrounding window of chunks: contextual = normalize(0.6*chunk + 0.4*window).
func (b *ContextualEmbeddingBlender) EmbedSliding(ctx context.Context, chunks []*Chunk, windowSize int) error {
	if b.provider == nil {
		return errors.NewValidationError("embedding provider not configured")
	}
	if len(chunks) == 0 {
		return nil
	}
	if windowSize <= 0 {
		windowSize = 3
	}

	chunkVecs, err := b.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	windowTexts := make([]string, len(chunks))
	for i := range chunks {
		start := max(0, i-windowSize)
		end := min(len(chunks), i+windowSize+1)

		parts := make([]string, 0, end-start)
		for j := start; j < end; j++ {
			parts = append(parts, chunks[j].Text)
		}
		windowTexts[i] = truncate(strings.Join(parts, " "), b.maxContextLength)
	}

	windowVecs, err := b.provider.EmbedBatch(ctx, windowTexts)
	if err != nil {
		return errors.NewEmbeddingError("window embedding failed", err)
	}

	for i, chunk := range chunks {
		chunk.Embedding = chunkVecs[i]
		chunk.ContextualEmbedding = normalizeVector(
			blendVectors(chunkVecs[i], windowVecs[i], slidingChunkWeight, slidingContextWeight))
	}

	return nil
}

func (b *ContextualEmbeddingBlender) embedChunks(ctx context.Context, chunks []*Chunk) ([]types.EmbeddingVector, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vecs, err := b.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errors.NewEmbeddingError("chunk embedding failed", err)
	}
	return vecs, nil
}

// truncate bounds text to at most maxLen bytes, backing up so the cut never
// splits a UTF-8 sequence.
func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	for maxLen > 0 && !utf8.RuneStart(text[maxLen]) {
		maxLen--
	}
	return text[:maxLen]
}
