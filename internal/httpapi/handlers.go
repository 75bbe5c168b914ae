package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/reqctx"
)

type handlers struct {
	deps Deps
}

// listNiFiServers returns every configured server's id/display name —
// never credentials.
func (h *handlers) listNiFiServers(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]any, 0, len(h.deps.Servers))
	for _, s := range h.deps.Servers {
		out = append(out, map[string]any{
			"id":           s.ID,
			"display_name": s.DisplayName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// toolSummary is the JSON-safe projection of toolregistry.Descriptor: the
// Handler func can't (and shouldn't) cross the wire.
type toolSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
	Phases      []string       `json:"phases,omitempty"`
}

// listTools handles GET /tools?phase=<tag>, repeatable.
func (h *handlers) listTools(w http.ResponseWriter, r *http.Request) {
	phases := r.URL.Query()["phase"]
	descs := h.deps.Tools.List(phases...)
	out := make([]toolSummary, 0, len(descs))
	for _, d := range descs {
		out = append(out, toolSummary{Name: d.Name, Description: d.Description, Schema: d.Schema, Phases: d.Phases})
	}
	writeJSON(w, http.StatusOK, out)
}

type toolCallRequest struct {
	Arguments map[string]any `json:"arguments"`
}

// callTool handles POST /tools/{name}.
func (h *handlers) callTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.deps.Tools.Get(name); !ok {
		writeError(w, http.StatusNotFound, "unknown tool \""+name+"\"")
		return
	}

	var body toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ctx, err := h.bindRequestContext(r)
	if err != nil {
		writeToolError(w, err)
		return
	}

	result, err := h.deps.Tools.Dispatch(ctx, name, body.Arguments)
	if err != nil {
		writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// bindRequestContext resolves X-Nifi-Server-Id into a bound NiFi client and
// attaches a reqctx.Context to the request, per spec.md §4.H: missing
// header and unknown server id both surface as BadRequest (400).
func (h *handlers) bindRequestContext(r *http.Request) (context.Context, error) {
	serverID := r.Header.Get("X-Nifi-Server-Id")
	if serverID == "" {
		return nil, apperr.BadRequest("missing required header X-Nifi-Server-Id")
	}
	client, ok := h.deps.Clients[serverID]
	if !ok {
		return nil, apperr.BadRequest("unknown NiFi server id %q", serverID)
	}

	deadline, ok := r.Context().Deadline()
	if !ok {
		deadline = time.Now().Add(30 * time.Second)
	}

	rc := &reqctx.Context{
		Client:        client,
		Logger:        h.deps.logger(),
		UserRequestID: firstNonEmpty(r.Header.Get("X-Request-ID"), "-"),
		ActionID:      firstNonEmpty(r.Header.Get("X-Action-ID"), "-"),
		Deadline:      deadline,
	}
	return reqctx.New(r.Context(), rc), nil
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
