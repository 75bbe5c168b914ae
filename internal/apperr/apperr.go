// Package apperr defines the closed error taxonomy surfaced across the
// middleware, from the NiFi REST client up through the HTTP front end.
// Callers distinguish error kinds with errors.As/errors.Is rather than by
// matching message strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the closed set of error categories this middleware
// surfaces. Every error returned across a package boundary is, or wraps,
// one of these.
type Kind string

const (
	KindAuth       Kind = "auth_error"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindBadRequest Kind = "bad_request"
	KindTimeout    Kind = "timeout"
	KindTransport  Kind = "transport"
	KindTool       Kind = "tool_error"
	KindInternal   Kind = "internal"
)

// Error is the concrete error type carried by every apperr-producing
// operation. Detail is a human-readable message; Hint, when non-empty, is
// appended to 409-class responses (e.g. "ensure the group is stopped and
// empty").
type Error struct {
	Kind   Kind
	Detail string
	Hint   string
	// StaleVersion carries the revision version NiFi rejected, so callers
	// can decide whether to retry with a freshly fetched revision.
	StaleVersion int64
	// Cause is the underlying error, if any (e.g. a transport failure).
	Cause error
}

func (e *Error) Error() string {
	msg := e.Detail
	if e.Hint != "" {
		msg = msg + " (hint: " + e.Hint + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, apperr.KindX) style checks by comparing Kind
// against a target *Error with the same Kind and no other fields set.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Auth builds a KindAuth error.
func Auth(format string, args ...any) *Error { return newf(KindAuth, format, args...) }

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

// Conflict builds a KindConflict error. staleVersion is the version NiFi
// rejected; zero if not applicable.
func Conflict(staleVersion int64, format string, args ...any) *Error {
	e := newf(KindConflict, format, args...)
	e.StaleVersion = staleVersion
	return e
}

// BadRequest builds a KindBadRequest error.
func BadRequest(format string, args ...any) *Error { return newf(KindBadRequest, format, args...) }

// Timeout builds a KindTimeout error.
func Timeout(format string, args ...any) *Error { return newf(KindTimeout, format, args...) }

// Transport builds a KindTransport error wrapping the underlying cause.
func Transport(cause error, format string, args ...any) *Error {
	e := newf(KindTransport, format, args...)
	e.Cause = cause
	return e
}

// Tool builds a KindTool error (handler-raised domain error).
func Tool(format string, args ...any) *Error { return newf(KindTool, format, args...) }

// Internal builds a KindInternal error.
func Internal(cause error, format string, args ...any) *Error {
	e := newf(KindInternal, format, args...)
	e.Cause = cause
	return e
}

// WithHint returns a copy of e with Hint set.
func WithHint(e *Error, hint string) *Error {
	c := *e
	c.Hint = hint
	return &c
}

// As extracts an *Error from err, following the standard unwrap chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps an error to the HTTP status code spec.md §4.H/§7 requires.
// Unknown/non-apperr errors map to 500.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindBadRequest, KindConflict, KindTool, KindTimeout:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusServiceUnavailable
	case KindInternal, KindTransport:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
