package chunkers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/types"
)

// wordSegmenter splits on single spaces with exact offsets, small enough
// to reason about in tests
type wordSegmenter struct{}

func (wordSegmenter) Segment(_ context.Context, text string) ([]Span, error) {
	var spans []Span
	start := 0
	for start < len(text) {
		end := strings.IndexByte(text[start:], ' ')
		if end < 0 {
			end = len(text)
		} else {
			end += start
		}
		if end > start {
			spans = append(spans, Span{Text: text[start:end], Start: start, End: end})
		}
		start = end + 1
	}
	return spans, nil
}

// failingSegmenter always fails
type failingSegmenter struct{}

func (failingSegmenter) Segment(context.Context, string) ([]Span, error) {
	return nil, assert.AnError
}

// identityProvider returns the same unit vector for every input
type identityProvider struct{}

func (identityProvider) Embed(context.Context, string) (types.EmbeddingVector, error) {
	return types.EmbeddingVector{1, 0}, nil
}

func (identityProvider) EmbedBatch(_ context.Context, texts []string) ([]types.EmbeddingVector, error) {
	out := make([]types.EmbeddingVector, len(texts))
	for i := range texts {
		out[i] = types.EmbeddingVector{1, 0}
	}
	return out, nil
}

func (identityProvider) Dimensions() int { return 2 }

// longDoc is comfortably above the minimum chunkable length
var longDoc = strings.TrimSpace(strings.Repeat("several words of ordinary content ", 10))

func TestChunkRejectsShortInput(t *testing.T) {
	o := NewOrchestrator(WithTokenSegmenter(wordSegmenter{}))

	_, err := o.Chunk(context.Background(), "   tiny   ", StrategyToken, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientContent(err))

	var dpe *errors.DocPrepError
	require.ErrorAs(t, err, &dpe)
	assert.Equal(t, errors.ErrCodeInsufficientContent, dpe.Code)
}

func TestChunkRejectsUnknownStrategy(t *testing.T) {
	o := NewOrchestrator(WithTokenSegmenter(wordSegmenter{}))

	_, err := o.Chunk(context.Background(), longDoc, StrategyTag("bogus"), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestChunkRejectsInvalidConfig(t *testing.T) {
	o := NewOrchestrator(WithTokenSegmenter(wordSegmenter{}))

	cfg := DefaultChunkConfig()
	cfg.OverlapSize = cfg.ChunkSize // must be strictly smaller
	_, err := o.Chunk(context.Background(), longDoc, StrategyToken, cfg)
	assert.Error(t, err)
}

func TestChunkAssignsIndexStrategyAndID(t *testing.T) {
	o := NewOrchestrator(WithTokenSegmenter(wordSegmenter{}))

	chunks, err := o.Chunk(context.Background(), longDoc, StrategyToken, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, StrategyToken, chunk.Strategy)
		assert.NotEmpty(t, chunk.ID)
		assert.Equal(t, longDoc[chunk.StartIndex:chunk.EndIndex], chunk.Text)
	}
}

func TestChunkContextStrategy(t *testing.T) {
	o := NewOrchestrator(WithTokenSegmenter(wordSegmenter{}))

	chunks, err := o.Chunk(context.Background(), longDoc, StrategyContext, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	assert.Empty(t, chunks[0].ContextBefore)
	assert.NotEmpty(t, chunks[0].ContextAfter)
	assert.NotEmpty(t, chunks[1].ContextBefore)
	assert.Empty(t, chunks[len(chunks)-1].ContextAfter)
}

func TestChunkMissingSegmenter(t *testing.T) {
	o := NewOrchestrator()

	_, err := o.Chunk(context.Background(), longDoc, StrategyToken, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = o.Chunk(context.Background(), longDoc, StrategySemantic, nil)
	assert.Error(t, err)
}

func TestChunkSegmenterFailurePropagates(t *testing.T) {
	o := NewOrchestrator(WithTokenSegmenter(failingSegmenter{}))

	_, err := o.Chunk(context.Background(), longDoc, StrategyToken, nil)
	require.Error(t, err)
	assert.True(t, errors.IsSegmenterFailure(err))
}

func TestChunkMarkupStrategy(t *testing.T) {
	o := NewOrchestrator()

	doc := "# One\n\n" + strings.Repeat("first body sentence. ", 5) + "\n\n# Two\n\n" + strings.Repeat("second body sentence. ", 5)
	cfg := DefaultChunkConfig()
	cfg.MinChunkSize = 10

	chunks, err := o.Chunk(context.Background(), doc, StrategyMarkup, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, []string{"One"}, chunks[0].Hierarchy)
	assert.Equal(t, []string{"Two"}, chunks[1].Hierarchy)
	for _, chunk := range chunks {
		assert.Equal(t, StrategyMarkup, chunk.Strategy)
		assert.Equal(t, doc[chunk.StartIndex:chunk.EndIndex], chunk.Text)
	}
}

func TestSectionCapPerStrategy(t *testing.T) {
	cfg := DefaultChunkConfig()
	assert.Equal(t, cfg.ChunkSize, cfg.sectionCap(false))
	assert.Equal(t, cfg.ChunkSize*3, cfg.sectionCap(true))

	// An explicit MaxChunkSize wins in both modes.
	cfg.MaxChunkSize = 900
	assert.Equal(t, 900, cfg.sectionCap(false))
	assert.Equal(t, 900, cfg.sectionCap(true))
}

func TestChunkMarkupStrategySplitsAtChunkSize(t *testing.T) {
	o := NewOrchestrator()

	doc := "# Big Section\n\n" + strings.Repeat("a paragraph with enough words in it to add up quickly across the whole section.\n\n", 30)
	cfg := DefaultChunkConfig()
	cfg.MinChunkSize = 10

	chunks, err := o.Chunk(context.Background(), doc, StrategyMarkup, cfg)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), cfg.ChunkSize)
		assert.Equal(t, doc[chunk.StartIndex:chunk.EndIndex], chunk.Text)
	}
}

func TestChunkLateStrategySetsEmbeddings(t *testing.T) {
	o := NewOrchestrator(
		WithTokenSegmenter(wordSegmenter{}),
		WithEmbeddingProvider(identityProvider{}),
	)

	chunks, err := o.Chunk(context.Background(), longDoc, StrategyLate, nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		assert.Len(t, chunk.Embedding, 2)
		assert.Len(t, chunk.ContextualEmbedding, 2)
	}
}

func TestChunkLateWithoutProviderFails(t *testing.T) {
	o := NewOrchestrator(WithTokenSegmenter(wordSegmenter{}))

	_, err := o.Chunk(context.Background(), longDoc, StrategyLate, nil)
	assert.Error(t, err)
}

func TestResegmentFallbackEmitsSectionUnsplit(t *testing.T) {
	o := NewOrchestrator(WithSemanticSegmenter(failingSegmenter{}))

	doc := "# Big Section\n\n" + strings.Repeat("content words keep arriving here. ", 30)
	cfg := DefaultChunkConfig()
	cfg.ChunkSize = 100
	cfg.MinChunkSize = 10
	cfg.MaxChunkSize = 100000 // keep the sectioner from splitting first

	chunks, err := o.Chunk(context.Background(), doc, StrategyMarkupSemanticContext, cfg)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	// The failing re-segmentation degrades to the whole section.
	assert.Equal(t, doc[chunks[0].StartIndex:chunks[0].EndIndex], chunks[0].Text)
	assert.Equal(t, "Big Section", chunks[0].Heading)
}

func TestResegmentInheritsHeading(t *testing.T) {
	o := NewOrchestrator(WithSemanticSegmenter(sentenceStub{}))

	doc := "# Topic\n\n" + strings.Repeat("alpha beta gamma delta. ", 20)
	cfg := DefaultChunkConfig()
	cfg.ChunkSize = 100
	cfg.MinChunkSize = 10
	cfg.MaxChunkSize = 100000

	chunks, err := o.Chunk(context.Background(), doc, StrategyMarkupSemanticContext, cfg)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.Equal(t, "Topic", chunk.Heading)
		assert.Equal(t, []string{"Topic"}, chunk.Hierarchy)
		assert.Equal(t, doc[chunk.StartIndex:chunk.EndIndex], chunk.Text)
	}
}

// sentenceStub splits a section into two halves at a space boundary
type sentenceStub struct{}

func (sentenceStub) Segment(_ context.Context, text string) ([]Span, error) {
	mid := strings.LastIndexByte(text[:len(text)/2+1], ' ')
	if mid <= 0 {
		return []Span{{Text: text, Start: 0, End: len(text)}}, nil
	}
	return []Span{
		{Text: text[:mid], Start: 0, End: mid},
		{Text: text[mid+1:], Start: mid + 1, End: len(text)},
	}, nil
}
