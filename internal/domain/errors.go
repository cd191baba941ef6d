// Package domain defines core types, interfaces, and errors for schema and event comparison.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input, such as a source frame that lacks
// the identifying columns required for comparison.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// SourceUnavailableError indicates a source's input could not be obtained or
// was empty. The source is excluded and comparison continues without it.
type SourceUnavailableError struct {
	Source  string
	Message string
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %s", e.Source, e.Message)
}

// InsufficientSourcesError indicates that fewer than two usable sources
// remained after exclusion, so no comparison could run.
type InsufficientSourcesError struct {
	Usable   int
	Excluded []string
}

func (e *InsufficientSourcesError) Error() string {
	if len(e.Excluded) == 0 {
		return fmt.Sprintf("at least 2 sources are required for comparison, got %d", e.Usable)
	}
	return fmt.Sprintf("at least 2 sources are required for comparison, got %d (excluded: %v)", e.Usable, e.Excluded)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrSourceUnavailable creates a SourceUnavailableError with a formatted message.
func ErrSourceUnavailable(source, format string, args ...interface{}) *SourceUnavailableError {
	return &SourceUnavailableError{Source: source, Message: fmt.Sprintf(format, args...)}
}
