// Package interfaces defines the shared interfaces for docprep
package interfaces

// Logger defines the interface for logging implementations
type Logger interface {
	// Debug logs debug level messages
	Debug(msg string, fields ...map[string]interface{})

	// Info logs info level messages
	Info(msg string, fields ...map[string]interface{})

	// Warn logs warning level messages
	Warn(msg string, fields ...map[string]interface{})

	// Error logs error level messages
	Error(msg string, err error, fields ...map[string]interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger
}
