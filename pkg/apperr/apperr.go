package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for boundary handling. The message carried by
// the error is the user-visible text; internal causes stay wrapped.
type Kind int

const (
	KindUnknown      Kind = iota
	KindUnauthorized      // no resolvable principal
	KindForbidden         // principal resolved but role insufficient
	KindNotFound          // entity absent or not owned by principal
	KindConflict          // duplicate application, email, token
	KindValidation        // malformed or out-of-range input
	KindExternal          // email / file-storage call failed
)

// Error is a kind-tagged error with a user-safe message
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a kind-tagged error with a user-visible message
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a kind-tagged error with a formatted user-visible message
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a kind-tagged error; the cause is never shown
// to API clients, only the message is.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// HasKind reports whether err (or anything it wraps) carries the given kind
func HasKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// UserMessage returns the user-safe message for err, or a generic fallback
// for untagged errors so internals never leak across the boundary.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An unexpected error occurred"
}

// HTTPStatus maps an error kind to the HTTP status the handlers respond with
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
