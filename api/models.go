package api

import (
	"encoding/json"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/cleaner"
)

// CleanRequest asks for a document to be cleaned
type CleanRequest struct {
	// Text is the raw document text
	Text string `json:"text" binding:"required"`

	// Options override the server's cleaning defaults when present
	Options *cleaner.Options `json:"options,omitempty"`
}

// CleanResponse returns the cleaned text and what was removed
type CleanResponse struct {
	CleanedText      string   `json:"cleaned_text"`
	OriginalLength   int      `json:"original_length"`
	CleanedLength    int      `json:"cleaned_length"`
	SectionsRemoved  []string `json:"sections_removed"`
	LinesRemoved     int      `json:"lines_removed"`
	ReductionPercent float64  `json:"reduction_percent"`
}

// ChunkRequest asks for a document to be chunked
type ChunkRequest struct {
	// Text is the document text
	Text string `json:"text" binding:"required"`

	// Strategy selects the chunking strategy
	Strategy chunkers.StrategyTag `json:"strategy" binding:"required"`

	// Config overrides the strategy defaults field by field; fields the
	// request leaves out keep their default values. Held raw so a partial
	// object can be layered over the defaults.
	Config json.RawMessage `json:"config,omitempty"`

	// Clean runs the document cleaner before chunking
	Clean bool `json:"clean,omitempty"`

	// CleanOptions override the cleaning defaults when Clean is set
	CleanOptions *cleaner.Options `json:"clean_options,omitempty"`

	// Index upserts embedded chunks into the vector store. Requires
	// indexing to be enabled on the server and an embedding strategy.
	Index bool `json:"index,omitempty"`
}

// ChunkResponse returns the produced chunks with statistics
type ChunkResponse struct {
	Chunks   []*chunkers.Chunk       `json:"chunks"`
	Stats    *chunkers.ChunkingStats `json:"stats"`
	Cleaning *CleanResponse          `json:"cleaning,omitempty"`
	Indexed  int                     `json:"indexed,omitempty"`
}

// StrategiesResponse lists the supported chunking strategies
type StrategiesResponse struct {
	Strategies []chunkers.StrategyTag `json:"strategies"`
}

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse reports service health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func newCleanResponse(text string, result *cleaner.Result) *CleanResponse {
	sections := result.SectionsRemoved
	if sections == nil {
		sections = []string{}
	}
	return &CleanResponse{
		CleanedText:      text,
		OriginalLength:   result.OriginalLength,
		CleanedLength:    result.CleanedLength,
		SectionsRemoved:  sections,
		LinesRemoved:     result.LinesRemoved,
		ReductionPercent: result.ReductionPercent(),
	}
}
