package chunkers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ragkit/docprep/pkg/errors"
	"github.com/ragkit/docprep/pkg/interfaces"
	"github.com/ragkit/docprep/pkg/logger"
)

// minChunkableChars is the smallest trimmed input Chunk will accept.
// Near-empty documents are rejected rather than chunked.
const minChunkableChars = 100

// Orchestrator is the public facade of the chunking pipeline. It composes
// the markup sectioner, the external base segmenters, the context window
// builder and the embedding blender according to a strategy tag.
//
// Orchestrators hold no mutable state across calls; independent Chunk
// invocations may run concurrently.
type Orchestrator struct {
	tokenSegmenter    Segmenter
	semanticSegmenter Segmenter
	provider          EmbeddingProvider
	log               interfaces.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTokenSegmenter supplies the token-count-bounded base segmenter
func WithTokenSegmenter(s Segmenter) Option {
	return func(o *Orchestrator) { o.tokenSegmenter = s }
}

// WithSemanticSegmenter supplies the similarity-bounded base segmenter
func WithSemanticSegmenter(s Segmenter) Option {
	return func(o *Orchestrator) { o.semanticSegmenter = s }
}

// WithEmbeddingProvider supplies the embedding provider for late strategies
func WithEmbeddingProvider(p EmbeddingProvider) Option {
	return func(o *Orchestrator) { o.provider = p }
}

// WithLogger supplies the logger
func WithLogger(l interfaces.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// NewOrchestrator creates an orchestrator. Segmenters and the embedding
// provider are only required by the strategies that use them.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log: logger.NewLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Chunk splits text into chunks using the selected strategy. Every emitted
// chunk carries the strategy tag and a contiguous, 0-based index reassigned
// after final composition.
func (o *Orchestrator) Chunk(ctx context.Context, text string, strategy StrategyTag, cfg *ChunkConfig) ([]*Chunk, error) {
	if cfg == nil {
		cfg = DefaultChunkConfigFor(strategy)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !IsValidStrategy(strategy) {
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported strategy: %s", strategy))
	}

	if trimmed := len(strings.TrimSpace(text)); trimmed < minChunkableChars {
		return nil, errors.NewInsufficientContentError(trimmed, minChunkableChars)
	}

	var (
		chunks []*Chunk
		err    error
	)

	switch strategy {
	case StrategyMarkup:
		chunks = o.sectioner(cfg, false).Section(text, cfg.DocumentType)

	case StrategyContext:
		chunks, err = o.segmentToChunks(ctx, o.tokenSegmenter, "token", text)
		if err == nil {
			chunks = NewContextWindowBuilder(cfg.ContextWindow, cfg.OverlapSize).AddContext(chunks)
		}

	case StrategyToken:
		chunks, err = o.segmentToChunks(ctx, o.tokenSegmenter, "token", text)

	case StrategySemantic:
		chunks, err = o.segmentToChunks(ctx, o.semanticSegmenter, "semantic", text)

	case StrategyLate:
		chunks, err = o.segmentToChunks(ctx, o.tokenSegmenter, "token", text)
		if err == nil {
			err = o.blender(cfg).EmbedDocument(ctx, text, chunks)
		}

	case StrategyLateSliding:
		chunks, err = o.segmentToChunks(ctx, o.tokenSegmenter, "token", text)
		if err == nil {
			err = o.blender(cfg).EmbedSliding(ctx, chunks, cfg.WindowSize)
		}

	case StrategySemanticLate:
		chunks, err = o.segmentToChunks(ctx, o.semanticSegmenter, "semantic", text)
		if err == nil {
			err = o.blender(cfg).EmbedDocument(ctx, text, chunks)
		}

	case StrategySemanticLateSliding:
		chunks, err = o.segmentToChunks(ctx, o.semanticSegmenter, "semantic", text)
		if err == nil {
			err = o.blender(cfg).EmbedSliding(ctx, chunks, cfg.WindowSize)
		}

	case StrategyMarkupContext:
		chunks = o.sectioner(cfg, false).Section(text, cfg.DocumentType)
		chunks = NewContextWindowBuilder(cfg.ContextWindow, cfg.OverlapSize).AddContext(chunks)

	case StrategyMarkupSemanticContext:
		chunks, err = o.resegmentSections(ctx, text, cfg)
		if err == nil {
			chunks = NewContextWindowBuilder(cfg.ContextWindow, cfg.OverlapSize).AddContext(chunks)
		}

	case StrategyMarkupSemanticLate:
		chunks, err = o.resegmentSections(ctx, text, cfg)
		if err == nil {
			err = o.blender(cfg).EmbedDocument(ctx, text, chunks)
		}
	}

	if err != nil {
		return nil, err
	}

	for i, chunk := range chunks {
		chunk.Index = i
		chunk.Strategy = strategy
		if chunk.ID == "" {
			chunk.ID = uuid.New().String()
		}
	}

	o.log.Debug("chunking complete", map[string]interface{}{
		"strategy": string(strategy),
		"chunks":   len(chunks),
	})

	return chunks, nil
}

// segmentToChunks runs a base segmenter over the full document. A missing
// segmenter is a configuration error; a failing one propagates as a
// segmenter failure since there is no partial result to fall back on.
func (o *Orchestrator) segmentToChunks(ctx context.Context, seg Segmenter, kind, text string) ([]*Chunk, error) {
	if seg == nil {
		return nil, errors.NewValidationError(fmt.Sprintf("strategy requires a %s segmenter", kind))
	}
	spans, err := seg.Segment(ctx, text)
	if err != nil {
		return nil, errors.NewSegmenterError(fmt.Sprintf("%s segmentation failed", kind), err)
	}
	return spansToChunks(spans, 0), nil
}

// resegmentSections runs the markup sectioner, then re-segments sections
// exceeding the chunk size with the similarity-bounded segmenter. Sub-chunks
// inherit the section's heading and hierarchy. A segmenter failure for a
// section degrades to emitting the section unsplit; content is never dropped.
func (o *Orchestrator) resegmentSections(ctx context.Context, text string, cfg *ChunkConfig) ([]*Chunk, error) {
	if o.semanticSegmenter == nil {
		return nil, errors.NewValidationError("strategy requires a semantic segmenter")
	}

	sections := o.sectioner(cfg, true).Section(text, cfg.DocumentType)

	var chunks []*Chunk
	for _, section := range sections {
		if len(section.Text) <= cfg.ChunkSize {
			chunks = append(chunks, section)
			continue
		}

		spans, err := o.semanticSegmenter.Segment(ctx, section.Text)
		if err != nil {
			o.log.Warn("semantic re-segmentation failed, emitting section unsplit", map[string]interface{}{
				"heading": section.Heading,
				"error":   err.Error(),
			})
			chunks = append(chunks, section)
			continue
		}

		sub := spansToChunks(spans, section.StartIndex)
		for _, c := range sub {
			c.Heading = section.Heading
			c.Hierarchy = section.Hierarchy
		}
		chunks = append(chunks, sub...)
	}

	return chunks, nil
}

func (o *Orchestrator) sectioner(cfg *ChunkConfig, hybrid bool) *MarkupSectioner {
	return NewMarkupSectioner(cfg.sectionCap(hybrid), cfg.MinChunkSize)
}

func (o *Orchestrator) blender(cfg *ChunkConfig) *ContextualEmbeddingBlender {
	return NewContextualEmbeddingBlender(o.provider, cfg.MaxContextLength)
}
