// Package chunkers provides the document chunking pipeline for docprep:
// markup-aware sectioning, neighbor context windows, contextual embedding
// blending, and the strategy orchestrator that composes them.
package chunkers

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/types"
)

// Chunk represents a bounded, offset-addressed span of document text
// prepared for embedding and retrieval. Chunks are immutable value objects
// once returned; ownership passes entirely to the caller.
type Chunk struct {
	// ID uniquely identifies the chunk
	ID string `json:"id"`

	// Text is the chunk content, a contiguous substring of the source
	Text string `json:"text"`

	// Index is the 0-based position in emission order
	Index int `json:"index"`

	// StartIndex is the starting character position in the source text
	StartIndex int `json:"start_index"`

	// EndIndex is the ending character position in the source text.
	// Invariant: EndIndex-StartIndex == len(Text).
	EndIndex int `json:"end_index"`

	// Heading is the nearest section heading, set by the markup sectioner
	Heading string `json:"heading,omitempty"`

	// Hierarchy is the ordered stack of ancestor headings for the chunk
	Hierarchy []string `json:"hierarchy,omitempty"`

	// ContextBefore holds trailing text of preceding chunks, set by the
	// context window builder
	ContextBefore string `json:"context_before,omitempty"`

	// ContextAfter holds leading text of following chunks
	ContextAfter string `json:"context_after,omitempty"`

	// Embedding is the chunk's own embedding vector
	Embedding types.EmbeddingVector `json:"embedding,omitempty"`

	// ContextualEmbedding is the context-blended, re-normalized vector
	ContextualEmbedding types.EmbeddingVector `json:"contextual_embedding,omitempty"`

	// Strategy records which composition produced this chunk
	Strategy StrategyTag `json:"strategy,omitempty"`

	// Metadata contains additional information about the chunk
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when this chunk was created
	CreatedAt time.Time `json:"created_at"`
}

// StrategyTag identifies a chunking composition. The set is closed; the
// orchestrator dispatches over it exhaustively.
type StrategyTag string

const (
	// StrategyMarkup sections by heading structure only
	StrategyMarkup StrategyTag = "markup"

	// StrategyContext segments then attaches neighbor context windows
	StrategyContext StrategyTag = "context"

	// StrategyLate segments then blends each embedding with the document
	StrategyLate StrategyTag = "late"

	// StrategyLateSliding is the sliding-window variant of late
	StrategyLateSliding StrategyTag = "late_sliding"

	// StrategySemantic is the similarity-bounded segmenter passthrough
	StrategySemantic StrategyTag = "semantic"

	// StrategyToken is the token-bounded segmenter passthrough
	StrategyToken StrategyTag = "token"

	// StrategySemanticLate combines semantic boundaries with document blending
	StrategySemanticLate StrategyTag = "semantic_late"

	// StrategySemanticLateSliding combines semantic boundaries with
	// sliding-window blending
	StrategySemanticLateSliding StrategyTag = "semantic_late_sliding"

	// StrategyMarkupContext sections by structure then attaches context
	StrategyMarkupContext StrategyTag = "markup_context"

	// StrategyMarkupSemanticContext sections by structure, re-segments
	// oversized sections semantically, then attaches context
	StrategyMarkupSemanticContext StrategyTag = "markup_semantic_context"

	// StrategyMarkupSemanticLate sections by structure, re-segments
	// oversized sections semantically, then blends embeddings
	StrategyMarkupSemanticLate StrategyTag = "markup_semantic_late"
)

// SupportedStrategies returns all supported strategy tags
func SupportedStrategies() []StrategyTag {
	return []StrategyTag{
		StrategyMarkup,
		StrategyContext,
		StrategyLate,
		StrategyLateSliding,
		StrategySemantic,
		StrategyToken,
		StrategySemanticLate,
		StrategySemanticLateSliding,
		StrategyMarkupContext,
		StrategyMarkupSemanticContext,
		StrategyMarkupSemanticLate,
	}
}

// IsValidStrategy checks if a strategy tag is supported
func IsValidStrategy(strategy StrategyTag) bool {
	for _, supported := range SupportedStrategies() {
		if supported == strategy {
			return true
		}
	}
	return false
}

// ChunkConfig carries the per-call parameters of the chunking pipeline.
// All configuration is passed explicitly; no component holds mutable state
// across calls.
type ChunkConfig struct {
	// ChunkSize is the target chunk size in characters/tokens
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" validate:"gt=0"`

	// OverlapSize is the overlap between chunks and the per-neighbor
	// context trim length
	OverlapSize int `json:"overlap_size" yaml:"overlap_size" validate:"gte=0"`

	// MinChunkSize is the minimum section size; smaller accumulations are
	// merged forward instead of emitted
	MinChunkSize int `json:"min_chunk_size" yaml:"min_chunk_size" validate:"gte=0"`

	// MaxChunkSize caps a markup section before paragraph re-splitting.
	// Zero derives it from ChunkSize.
	MaxChunkSize int `json:"max_chunk_size" yaml:"max_chunk_size" validate:"gte=0"`

	// ContextWindow is the number of neighboring chunks contributing
	// context on each side
	ContextWindow int `json:"context_window" yaml:"context_window" validate:"gte=0"`

	// WindowSize is the sliding-window radius for late_sliding blending
	WindowSize int `json:"window_size" yaml:"window_size" validate:"gte=0"`

	// SemanticThreshold is the similarity boundary for the semantic
	// segmenter
	SemanticThreshold float64 `json:"semantic_threshold" yaml:"semantic_threshold" validate:"gte=0,lte=1"`

	// MaxContextLength caps text passed to whole-document embedding
	MaxContextLength int `json:"max_context_length" yaml:"max_context_length" validate:"gt=0"`

	// DocumentType selects the markup flavor for the sectioner
	DocumentType types.DocumentType `json:"document_type" yaml:"document_type"`
}

// DefaultChunkConfig returns the default pipeline configuration
func DefaultChunkConfig() *ChunkConfig {
	return &ChunkConfig{
		ChunkSize:         512,
		OverlapSize:       50,
		MinChunkSize:      100,
		ContextWindow:     2,
		WindowSize:        3,
		SemanticThreshold: 0.5,
		MaxContextLength:  8192,
		DocumentType:      types.DocumentTypeAuto,
	}
}

// DefaultChunkConfigFor returns strategy-adjusted defaults. Markup sections
// are large, so the markup_context composition takes a single neighbor of
// context instead of two.
func DefaultChunkConfigFor(strategy StrategyTag) *ChunkConfig {
	cfg := DefaultChunkConfig()
	if strategy == StrategyMarkupContext {
		cfg.ContextWindow = 1
	}
	return cfg
}

// Validate validates the configuration
func (c *ChunkConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.NewConfigError("invalid chunk config", err)
	}
	if c.OverlapSize >= c.ChunkSize {
		return errors.NewValidationError("overlap size must be less than chunk size")
	}
	return nil
}

// sectionCap returns the maximum markup section size for this config. An
// explicit MaxChunkSize always wins. Plain markup strategies cap sections at
// the chunk size; hybrid strategies section generously and let the semantic
// pass re-segment afterwards.
func (c *ChunkConfig) sectionCap(hybrid bool) int {
	if c.MaxChunkSize > 0 {
		return c.MaxChunkSize
	}
	if hybrid {
		return c.ChunkSize * 3
	}
	return c.ChunkSize
}

// ChunkingStats provides statistics about a chunking run
type ChunkingStats struct {
	// OriginalTextLength is the length of the input text
	OriginalTextLength int `json:"original_text_length"`

	// TotalChunks is the number of chunks created
	TotalChunks int `json:"total_chunks"`

	// AverageChunkSize is the average chunk length in characters
	AverageChunkSize float64 `json:"average_chunk_size"`

	// MinChunkSize is the length of the smallest chunk
	MinChunkSize int `json:"min_chunk_size"`

	// MaxChunkSize is the length of the largest chunk
	MaxChunkSize int `json:"max_chunk_size"`

	// ProcessingTime is the time taken to perform chunking
	ProcessingTime time.Duration `json:"processing_time"`
}

// CalculateStats computes statistics for a set of chunks
func CalculateStats(chunks []*Chunk, originalLength int, processingTime time.Duration) *ChunkingStats {
	stats := &ChunkingStats{
		OriginalTextLength: originalLength,
		TotalChunks:        len(chunks),
		ProcessingTime:     processingTime,
	}
	if len(chunks) == 0 {
		return stats
	}

	total := 0
	minSize := len(chunks[0].Text)
	maxSize := len(chunks[0].Text)

	for _, chunk := range chunks {
		size := len(chunk.Text)
		total += size
		if size < minSize {
			minSize = size
		}
		if size > maxSize {
			maxSize = size
		}
	}

	stats.MinChunkSize = minSize
	stats.MaxChunkSize = maxSize
	stats.AverageChunkSize = float64(total) / float64(len(chunks))

	return stats
}
