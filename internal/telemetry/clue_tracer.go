package telemetry

import "go.opentelemetry.io/otel"

// NewClueTracer constructs a Tracer backed by the OpenTelemetry tracer the
// teacher's own ClueTracer wraps (see
// _examples/goadesign-goa-ai/runtime/agent/telemetry/clue.go: ClueTracer is
// itself nothing more than otel.Tracer(name) plus span delegation, which
// OtelTracer already provides). Spans go to the global TracerProvider,
// which stays the otel noop provider unless otel.SetTracerProvider is
// called; this module registers none.
func NewClueTracer(name string) Tracer {
	return NewOtelTracer(otel.Tracer(name))
}
