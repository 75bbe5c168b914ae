// Package httpapi is the chi-based HTTP/SSE front end exposing the tool
// registry and workflow catalog to callers, grounded on
// _examples/marmos91-dittofs's router/handler idiom (middleware stack
// order, writeJSON helper) and on the teacher's runtime/mcp/ssecaller.go
// for the SSE wire framing this package writes the server side of.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stackoverflowed/nifimcp/internal/config"
	"github.com/stackoverflowed/nifimcp/internal/reqctx"
	"github.com/stackoverflowed/nifimcp/internal/telemetry"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
	"github.com/stackoverflowed/nifimcp/internal/workflows"
)

// Deps is everything the router needs to build every route's handler.
type Deps struct {
	Servers       []config.NiFiServer
	Clients       map[string]reqctx.NiFiClient
	Tools         *toolregistry.Registry
	Workflows     *workflows.Catalog
	ActionCeiling int
	Logger        telemetry.Logger
	Tracer        telemetry.Tracer
}

func (d Deps) logger() telemetry.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return telemetry.NoopLogger{}
}

// NewRouter builds the complete route table described in spec.md §4.H.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(deps.logger()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := &handlers{deps: deps}

	r.Get("/config/nifi-servers", h.listNiFiServers)

	r.Get("/tools", h.listTools)
	r.Post("/tools/{name}", h.callTool)
	r.Get("/sse/tools/{name}", h.streamTool)

	r.Get("/workflows", h.listWorkflows)
	r.Get("/workflows/{name}", h.getWorkflow)
	r.Post("/workflows/execute", h.executeWorkflow)
	r.Get("/workflows/validate/{name}", h.validateWorkflow)

	return r
}

// requestLogger mirrors marmos91-dittofs's router.go requestLogger: one
// structured log line per completed request, keyed by chi's request id.
func requestLogger(logger telemetry.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info(r.Context(), "http request completed",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
			)
		})
	}
}
