package domain

import "fmt"

// ParseError reports a malformed input line encountered during dataset
// construction. The run it belongs to is aborted; no partial dataset is
// ever returned alongside a ParseError.
type ParseError struct {
	// Line is the 1-based input line number (counting blank lines).
	Line int

	// Content is the offending raw line.
	Content string

	// Reason describes what was wrong with the line.
	Reason string

	// Err is the underlying conversion error, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d (%q): %s: %v", e.Line, e.Content, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse error at line %d (%q): %s", e.Line, e.Content, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigurationError reports an invalid strategy or pipeline configuration.
// It is raised at construction time, before any data is processed.
type ConfigurationError struct {
	// Field names the configuration item at fault, e.g. "detector.type".
	Field string

	// Reason describes why the value was rejected.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
