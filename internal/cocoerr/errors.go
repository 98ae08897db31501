// Package cocoerr defines COCO's transport-independent error taxonomy.
package cocoerr

import "errors"

// Kind classifies an error independent of where it surfaced.
type Kind string

const (
	InvalidInput        Kind = "invalid_input"
	UnknownTool          Kind = "unknown_tool"
	RateLimited          Kind = "rate_limited"
	ExternalFailure      Kind = "external_failure"
	Internal             Kind = "internal"
	SchemaIncompatible   Kind = "schema_incompatible"
	FilesystemCorruption Kind = "filesystem_corruption"
	Ambiguous            Kind = "ambiguous"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// classification via errors.As without parsing strings.
type Error struct {
	Kind       Kind
	Message    string
	Cause      error
	RetryAfter int // seconds, only meaningful for RateLimited
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithRetryAfter attaches a retry-after hint to a RateLimited error.
func (e *Error) WithRetryAfter(seconds int) *Error {
	e.RetryAfter = seconds
	return e
}

// KindOf extracts the Kind from err, defaulting to Internal when err is not
// (or does not wrap) a *Error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
