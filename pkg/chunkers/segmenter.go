package chunkers

import (
	"context"
	"time"
)

// Span is a contiguous region of source text produced by a base segmenter.
// Invariant: Text == source[Start:End].
type Span struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Segmenter produces an ordered sequence of bounded spans from text. The
// pipeline consumes segmenters as external collaborators: token-count and
// embedding-similarity implementations live in pkg/segmenters.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]Span, error)
}

// spansToChunks lifts base segmenter spans into chunks, shifting offsets
// by base when the segmented text was a slice of a larger document.
func spansToChunks(spans []Span, base int) []*Chunk {
	chunks := make([]*Chunk, len(spans))
	for i, span := range spans {
		chunks[i] = &Chunk{
			Text:       span.Text,
			StartIndex: base + span.Start,
			EndIndex:   base + span.End,
			CreatedAt:  time.Now(),
		}
	}
	return chunks
}
