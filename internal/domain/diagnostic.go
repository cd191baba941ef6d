package domain

import (
	"context"
	"log/slog"
)

// Severity classifies a diagnostic.
type Severity string

// Diagnostic severities.
const (
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a recoverable condition found while collecting or comparing.
// The comparison core returns diagnostics as data; callers decide how to
// surface them.
type Diagnostic struct {
	Severity  Severity `json:"severity"`
	Source    string   `json:"source,omitempty"`
	Object    string   `json:"object,omitempty"`
	SubObject string   `json:"sub_object,omitempty"`
	Message   string   `json:"message"`
	Err       error    `json:"-"`
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// Add appends a diagnostic.
func (d *Diagnostics) Add(sev Severity, source, message string) {
	*d = append(*d, Diagnostic{Severity: sev, Source: source, Message: message})
}

// AddErr appends a diagnostic carrying the underlying error.
func (d *Diagnostics) AddErr(sev Severity, source string, err error) {
	*d = append(*d, Diagnostic{Severity: sev, Source: source, Message: err.Error(), Err: err})
}

// Count returns the number of diagnostics with the given severity.
func (d Diagnostics) Count(sev Severity) int {
	n := 0
	for _, x := range d {
		if x.Severity == sev {
			n++
		}
	}
	return n
}

// Level maps the severity onto an slog level.
func (s Severity) Level() slog.Level {
	switch s {
	case SeverityDebug:
		return slog.LevelDebug
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Log writes every diagnostic to logger with its context attributes.
func (d Diagnostics) Log(ctx context.Context, logger *slog.Logger) {
	for _, x := range d {
		attrs := make([]any, 0, 8)
		if x.Source != "" {
			attrs = append(attrs, "source", x.Source)
		}
		if x.Object != "" {
			attrs = append(attrs, "object", x.Object)
		}
		if x.SubObject != "" {
			attrs = append(attrs, "sub_object", x.SubObject)
		}
		if x.Err != nil {
			attrs = append(attrs, "error", x.Err)
		}
		logger.Log(ctx, x.Severity.Level(), x.Message, attrs...)
	}
}
