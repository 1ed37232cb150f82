package segmenters

import (
	"context"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/errors"
)

// SemanticSegmenter groups sentences into segments and starts a new
// segment where the cosine similarity between adjacent sentence embeddings
// falls below the threshold, or where the running segment would exceed the
// size cap.
type SemanticSegmenter struct {
	provider  chunkers.EmbeddingProvider
	threshold float64
	maxSize   int
}

// NewSemanticSegmenter creates a semantic segmenter. maxSize caps segment
// length in characters; zero disables the cap.
func NewSemanticSegmenter(provider chunkers.EmbeddingProvider, threshold float64, maxSize int) (*SemanticSegmenter, error) {
	if provider == nil {
		return nil, errors.NewValidationError("embedding provider is required")
	}
	if threshold < 0 || threshold > 1 {
		return nil, errors.NewValidationError("similarity threshold must be between 0 and 1")
	}
	return &SemanticSegmenter{
		provider:  provider,
		threshold: threshold,
		maxSize:   maxSize,
	}, nil
}

// Segment splits text at semantic boundaries between sentences. Spans are
// exact substrings of the input covering whole sentences.
func (s *SemanticSegmenter) Segment(ctx context.Context, text string) ([]chunkers.Span, error) {
	sentences := scanSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}
	if len(sentences) == 1 {
		return []chunkers.Span{spanOf(text, sentences[0], sentences[0])}, nil
	}

	texts := make([]string, len(sentences))
	for i, sent := range sentences {
		texts[i] = sent.text
	}

	embeddings, err := s.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errors.NewEmbeddingError("failed to embed sentences", err)
	}
	if len(embeddings) != len(sentences) {
		return nil, errors.NewEmbeddingError("embedding count does not match sentence count", nil)
	}

	var spans []chunkers.Span
	groupStart := 0
	for i := 1; i < len(sentences); i++ {
		similarity := CosineSimilarity(embeddings[i-1], embeddings[i])
		tooLarge := s.maxSize > 0 && sentences[i].end-sentences[groupStart].start > s.maxSize

		if similarity < s.threshold || tooLarge {
			spans = append(spans, spanOf(text, sentences[groupStart], sentences[i-1]))
			groupStart = i
		}
	}
	spans = append(spans, spanOf(text, sentences[groupStart], sentences[len(sentences)-1]))

	return spans, nil
}

// spanOf builds a span covering the range from the first to the last
// sentence, inclusive
func spanOf(text string, first, last sentenceSpan) chunkers.Span {
	return chunkers.Span{
		Text:  text[first.start:last.end],
		Start: first.start,
		End:   last.end,
	}
}
