// Package toolregistry holds the descriptor table for every tool the
// middleware exposes and drives the lookup -> validate -> invoke ->
// normalize dispatch sequence common to both the synchronous and SSE HTTP
// surfaces (internal/httpapi).
package toolregistry

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/telemetry"
	"github.com/stackoverflowed/nifimcp/internal/validate"
)

// Handler executes one tool call's already-corrected, already-validated
// arguments and returns a JSON-serializable result.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Descriptor is one entry in the tool table: enough metadata to list,
// filter, validate, and dispatch a call without the registry needing to
// know anything about the tool's domain behavior.
type Descriptor struct {
	Name        string
	Description string
	Schema      map[string]any
	Phases      []string
	Handler     Handler
}

// Registry holds the compiled descriptor table.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]compiledDescriptor

	logger telemetry.Logger
	tracer telemetry.Tracer
}

type compiledDescriptor struct {
	Descriptor
	schema *jsonschema.Schema
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger configures the registry's logger. Nil falls back to a noop
// logger.
func WithLogger(l telemetry.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTracer configures the registry's tracer. Nil falls back to a noop
// tracer.
func WithTracer(t telemetry.Tracer) Option {
	return func(r *Registry) {
		if t != nil {
			r.tracer = t
		}
	}
}

// New constructs an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]compiledDescriptor),
		logger:  telemetry.NoopLogger{},
		tracer:  telemetry.NoopTracer{},
	}
	for _, o := range opts {
		if o != nil {
			o(r)
		}
	}
	return r
}

// Register compiles d's JSON schema and adds it to the table. A tool name
// collision is a programming error and panics, matching the teacher's
// registration-time fail-fast style for descriptor tables built once at
// startup.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[d.Name]; exists {
		panic("toolregistry: duplicate tool name " + d.Name)
	}

	compiled := compiledDescriptor{Descriptor: d}
	if d.Schema != nil {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(d.Name, schemaAsAny(d.Schema)); err != nil {
			panic("toolregistry: tool " + d.Name + " schema could not be added: " + err.Error())
		}
		schema, err := c.Compile(d.Name)
		if err != nil {
			panic("toolregistry: tool " + d.Name + " schema failed to compile: " + err.Error())
		}
		compiled.schema = schema
	}

	r.entries[d.Name] = compiled
}

// List returns descriptors tagged with any of phases, in name order. An
// empty phases filter returns every registered tool.
func (r *Registry) List(phases ...string) []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(phases))
	for _, p := range phases {
		wanted[p] = true
	}

	out := make([]Descriptor, 0, len(r.entries))
	for _, entry := range r.entries {
		if len(wanted) > 0 && !anyPhaseMatches(entry.Phases, wanted) {
			continue
		}
		out = append(out, entry.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func anyPhaseMatches(phases []string, wanted map[string]bool) bool {
	for _, p := range phases {
		if wanted[p] {
			return true
		}
	}
	return false
}

// Get returns one tool's descriptor by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return Descriptor{}, false
	}
	return entry.Descriptor, true
}

// Dispatch runs the full lookup -> correct -> schema-validate -> invoke
// sequence for name with the caller-supplied args, returning the handler's
// result. An unknown tool name surfaces apperr.KindTool; a schema
// violation surfaces apperr.KindBadRequest with the validation detail as
// Hint.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.Tool("unknown tool %q", name)
	}

	ctx, span := r.tracer.Start(ctx, "toolregistry.dispatch")
	defer span.End()

	corrected, err := validate.Correct(name, args)
	if err != nil {
		return nil, err
	}
	for _, s := range corrected.Suggestions {
		r.logger.Info(ctx, "tool argument auto-correction applied", "tool", name, "suggestion", s)
	}

	if entry.schema != nil {
		asAny, err := toJSONAny(corrected.Arguments)
		if err != nil {
			return nil, apperr.Internal(err, "re-encode corrected arguments for %s", name)
		}
		if err := entry.schema.Validate(asAny); err != nil {
			return nil, apperr.WithHint(apperr.BadRequest("tool %q received arguments that do not match its schema", name), err.Error())
		}
	}

	return entry.Handler(ctx, corrected.Arguments)
}

// schemaAsAny round-trips a Go-literal schema map through JSON so its
// numeric values match what jsonschema's compiler expects (float64), the
// same normalization AddResource's callers get for free when the schema
// originates as raw JSON bytes.
func schemaAsAny(schema map[string]any) any {
	raw, err := json.Marshal(schema)
	if err != nil {
		panic("toolregistry: schema is not marshalable: " + err.Error())
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		panic("toolregistry: schema did not round-trip through JSON: " + err.Error())
	}
	return v
}

func toJSONAny(args map[string]any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
