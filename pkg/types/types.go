// Package types provides shared type definitions for docprep
package types

// EmbeddingVector represents an embedding vector
type EmbeddingVector []float32

// ErrorType represents the category of an error
type ErrorType string

const (
	// ErrorTypeValidation indicates invalid input or configuration
	ErrorTypeValidation ErrorType = "validation"

	// ErrorTypeContent indicates an input document that cannot be processed
	ErrorTypeContent ErrorType = "content"

	// ErrorTypeSegmenter indicates a base segmenter failure
	ErrorTypeSegmenter ErrorType = "segmenter"

	// ErrorTypeEmbedding indicates an embedding provider failure
	ErrorTypeEmbedding ErrorType = "embedding"

	// ErrorTypeStorage indicates a vector store failure
	ErrorTypeStorage ErrorType = "storage"

	// ErrorTypeInternal indicates an unexpected internal failure
	ErrorTypeInternal ErrorType = "internal"
)

// DocumentType identifies the markup flavor of an input document
type DocumentType string

const (
	// DocumentTypeAuto defers detection to the sectioner
	DocumentTypeAuto DocumentType = "auto"

	// DocumentTypeMarkdown marks markdown documents (ATX headings)
	DocumentTypeMarkdown DocumentType = "markdown"

	// DocumentTypeHTML marks HTML documents
	DocumentTypeHTML DocumentType = "html"

	// DocumentTypePlain marks plain text with no recognized markup
	DocumentTypePlain DocumentType = "plain"
)
