// Package reqctx implements the request-scoped execution context described
// in spec.md §4.B: a NiFi client handle, a structured logger carrying
// correlation identifiers, and a deadline, made available by ambient lookup
// to any depth of tool handler without threading them through every
// function signature.
//
// The HTTP front end exclusively owns creation and teardown (New followed
// by a deferred nothing-to-do — the context carries no resources of its
// own to release beyond what its NiFiClient owns). Handlers access the
// context via FromContext and must not retain it past the call.
package reqctx

import (
	"context"
	"time"

	"github.com/stackoverflowed/nifimcp/internal/telemetry"
)

// NiFiClient is the minimal surface internal/reqctx needs from a NiFi REST
// client; internal/nifi.Client satisfies it. Kept as an interface here to
// avoid an import cycle between reqctx and nifi.
type NiFiClient interface {
	ServerID() string
}

// Context carries everything a tool handler needs about the call it is
// servicing. Construct with New; retrieve with FromContext.
type Context struct {
	// Client is bound to exactly one configured NiFi server for the
	// lifetime of this call.
	Client NiFiClient
	// Logger is used exactly as the caller set it: the correlation IDs
	// below are not added to its records (read them with CorrelationIDs).
	Logger telemetry.Logger
	// UserRequestID is read from the inbound X-Request-ID header, or "-".
	UserRequestID string
	// ActionID is read from the inbound X-Action-ID header, or "-".
	ActionID string
	// Deadline is the wall-clock time this call must complete by. Async
	// polling loops (internal/nifi) consult it before sleeping.
	Deadline time.Time
}

type contextKey struct{}

// New attaches rc to ctx and returns the derived context. The HTTP front
// end calls this once per inbound request, immediately after header
// parsing.
func New(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// FromContext retrieves the Context attached by New. ok is false if no
// Context was ever attached (a programming error: every dispatch path goes
// through the HTTP front end, which always calls New first).
func FromContext(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(contextKey{}).(*Context)
	return rc, ok
}

// Logger returns the ambient logger, or a noop logger if none is attached.
// Handlers that only need to log (and don't care about the NiFi client)
// can use this without checking ok.
func Logger(ctx context.Context) telemetry.Logger {
	if rc, ok := FromContext(ctx); ok && rc.Logger != nil {
		return rc.Logger
	}
	return telemetry.NoopLogger{}
}

// CorrelationIDs returns the user request id and action id attached to ctx,
// defaulting to "-" for either that is missing.
func CorrelationIDs(ctx context.Context) (userRequestID, actionID string) {
	rc, ok := FromContext(ctx)
	if !ok {
		return "-", "-"
	}
	userRequestID, actionID = rc.UserRequestID, rc.ActionID
	if userRequestID == "" {
		userRequestID = "-"
	}
	if actionID == "" {
		actionID = "-"
	}
	return userRequestID, actionID
}

// Expired reports whether ctx's deadline, if any, has already passed.
// A zero Deadline means no deadline was set and Expired always returns
// false.
func Expired(ctx context.Context) bool {
	rc, ok := FromContext(ctx)
	if !ok || rc.Deadline.IsZero() {
		return false
	}
	return time.Now().After(rc.Deadline)
}
