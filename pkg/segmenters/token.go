package segmenters

import (
	"context"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/errors"
)

// TokenSegmenter packs words into fixed-size segments measured by an
// estimated token budget, with configurable overlap between consecutive
// segments. Spans are exact substrings of the input.
type TokenSegmenter struct {
	chunkSize   int
	overlapSize int
	estimator   func(string) int
}

// NewTokenSegmenter creates a token segmenter with the given budget and
// overlap, both measured in estimated tokens
func NewTokenSegmenter(chunkSize, overlapSize int) (*TokenSegmenter, error) {
	if chunkSize <= 0 {
		return nil, errors.NewValidationError("chunk size must be positive")
	}
	if overlapSize < 0 || overlapSize >= chunkSize {
		return nil, errors.NewValidationError("overlap size must be non-negative and less than chunk size")
	}
	return &TokenSegmenter{
		chunkSize:   chunkSize,
		overlapSize: overlapSize,
		estimator:   defaultTokenEstimator,
	}, nil
}

// SetTokenEstimator replaces the token estimator, e.g. with a real
// tokenizer-backed count
func (s *TokenSegmenter) SetTokenEstimator(fn func(string) int) {
	if fn != nil {
		s.estimator = fn
	}
}

// Segment splits text into spans of at most chunkSize estimated tokens.
// Consecutive spans share roughly overlapSize tokens of trailing words.
func (s *TokenSegmenter) Segment(ctx context.Context, text string) ([]chunkers.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := scanWords(text)
	if len(words) == 0 {
		return nil, nil
	}

	var spans []chunkers.Span
	i := 0
	for i < len(words) {
		start := i
		tokens := 0
		for i < len(words) {
			wordTokens := s.estimator(words[i].text)
			if tokens > 0 && tokens+wordTokens > s.chunkSize {
				break
			}
			tokens += wordTokens
			i++
		}

		first := words[start]
		last := words[i-1]
		spans = append(spans, chunkers.Span{
			Text:  text[first.start:last.end],
			Start: first.start,
			End:   last.end,
		})

		if i >= len(words) {
			break
		}

		// Step back far enough to carry overlapSize tokens forward.
		if s.overlapSize > 0 {
			back := i
			overlap := 0
			for back > start+1 && overlap < s.overlapSize {
				back--
				overlap += s.estimator(words[back].text)
			}
			i = back
		}
	}

	return spans, nil
}
