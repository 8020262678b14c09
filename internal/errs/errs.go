// Package errs defines the classified error type used across the server.
// Every failure surfaced to a tool caller carries exactly one Kind, so
// callers can branch on the class of fault without string matching.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// InvalidInput is a caller/argument fault. Never retried.
	InvalidInput Kind = iota + 1
	// Upstream means the remote API returned 4xx/5xx or a malformed body.
	Upstream
	// Transport is a connection or timeout fault.
	Transport
	// Internal is any unexpected fault.
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Upstream:
		return "upstream"
	case Transport:
		return "transport"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a classified error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error that carries its cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the Kind of err. Errors that never went through this
// package report as Internal so nothing propagates unclassified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
