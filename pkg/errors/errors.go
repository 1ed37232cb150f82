// Package errors provides structured error handling for docprep
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/ragkit/docprep/pkg/types"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Content errors
	ErrCodeInsufficientContent ErrorCode = "INSUFFICIENT_CONTENT"

	// Pipeline errors
	ErrCodeSegmenterFailure ErrorCode = "SEGMENTER_FAILURE"
	ErrCodeEmbeddingFailure ErrorCode = "EMBEDDING_FAILURE"

	// Storage errors
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"

	// System errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// DocPrepError represents a structured error in docprep
type DocPrepError struct {
	Type    types.ErrorType        `json:"type"`
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *DocPrepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *DocPrepError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *DocPrepError) WithDetail(key string, value interface{}) *DocPrepError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new DocPrepError
func New(errType types.ErrorType, code ErrorCode, message string) *DocPrepError {
	return &DocPrepError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new DocPrepError wrapping an underlying cause
func Wrap(cause error, errType types.ErrorType, code ErrorCode, message string) *DocPrepError {
	return &DocPrepError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *DocPrepError {
	return New(types.ErrorTypeValidation, ErrCodeValidation, message)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *DocPrepError {
	return Wrap(cause, types.ErrorTypeValidation, ErrCodeConfigInvalid, message)
}

// NewInsufficientContentError signals input too short to chunk meaningfully
func NewInsufficientContentError(length, minimum int) *DocPrepError {
	return New(types.ErrorTypeContent, ErrCodeInsufficientContent,
		fmt.Sprintf("document has %d trimmed characters, need at least %d", length, minimum))
}

// NewSegmenterError wraps a base segmenter failure
func NewSegmenterError(message string, cause error) *DocPrepError {
	return Wrap(cause, types.ErrorTypeSegmenter, ErrCodeSegmenterFailure, message)
}

// NewEmbeddingError wraps an embedding provider failure
func NewEmbeddingError(message string, cause error) *DocPrepError {
	return Wrap(cause, types.ErrorTypeEmbedding, ErrCodeEmbeddingFailure, message)
}

// NewConnectionError wraps a storage connection failure
func NewConnectionError(message string, cause error) *DocPrepError {
	return Wrap(cause, types.ErrorTypeStorage, ErrCodeConnectionFailed, message)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *DocPrepError {
	return New(types.ErrorTypeStorage, ErrCodeNotFound, message)
}

// HasCode reports whether err is a DocPrepError carrying the given code
func HasCode(err error, code ErrorCode) bool {
	var dpErr *DocPrepError
	if stderrors.As(err, &dpErr) {
		return dpErr.Code == code
	}
	return false
}

// IsInsufficientContent reports whether err signals a too-short document
func IsInsufficientContent(err error) bool {
	return HasCode(err, ErrCodeInsufficientContent)
}

// IsSegmenterFailure reports whether err originated in a base segmenter
func IsSegmenterFailure(err error) bool {
	return HasCode(err, ErrCodeSegmenterFailure)
}

// IsEmbeddingFailure reports whether err originated in an embedding provider
func IsEmbeddingFailure(err error) bool {
	return HasCode(err, ErrCodeEmbeddingFailure)
}
