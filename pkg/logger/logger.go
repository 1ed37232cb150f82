// Package logger provides logging implementations for docprep
package logger

import (
	"fmt"
	"log"

	"github.com/ragkit/docprep/pkg/interfaces"
)

// ConsoleLogger is a fielded logger writing to the standard log output
type ConsoleLogger struct {
	Level  string
	fields map[string]interface{}
}

// NewConsoleLogger creates a new console logger with the given level
func NewConsoleLogger(level string) interfaces.Logger {
	return &ConsoleLogger{Level: level}
}

// NewLogger creates a new logger with default settings
func NewLogger() interfaces.Logger {
	return &ConsoleLogger{Level: "info"}
}

// NewTestLogger creates a logger for testing
func NewTestLogger() interfaces.Logger {
	return &ConsoleLogger{Level: "debug"}
}

// Debug logs debug level messages
func (l *ConsoleLogger) Debug(msg string, fields ...map[string]interface{}) {
	if l.Level == "debug" {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// Info logs info level messages
func (l *ConsoleLogger) Info(msg string, fields ...map[string]interface{}) {
	l.logWithFields("INFO", msg, fields...)
}

// Warn logs warning level messages
func (l *ConsoleLogger) Warn(msg string, fields ...map[string]interface{}) {
	l.logWithFields("WARN", msg, fields...)
}

// Error logs error level messages
func (l *ConsoleLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	var allFields []map[string]interface{}
	if err != nil {
		allFields = append(allFields, map[string]interface{}{"error": err.Error()})
	}
	allFields = append(allFields, fields...)
	l.logWithFields("ERROR", msg, allFields...)
}

// WithFields returns a logger carrying additional fields on every message
func (l *ConsoleLogger) WithFields(fields map[string]interface{}) interfaces.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &ConsoleLogger{Level: l.Level, fields: merged}
}

func (l *ConsoleLogger) logWithFields(level, msg string, fields ...map[string]interface{}) {
	logMsg := fmt.Sprintf("[%s] %s", level, msg)

	for k, v := range l.fields {
		logMsg += fmt.Sprintf(" %s=%v", k, v)
	}
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			logMsg += fmt.Sprintf(" %s=%v", k, v)
		}
	}

	log.Println(logMsg)
}
