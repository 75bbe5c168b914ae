package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// flusher lets streamTool push each SSE event to the client as soon as
// it's written, rather than buffering until the handler returns.
type flusher interface {
	Flush()
}

// writeSSEEvent mirrors the wire format runtime/mcp/ssecaller.go parses on
// the client side: an "event:" line naming the event, one or more "data:"
// lines carrying the JSON payload, and a blank line terminating the event.
func writeSSEEvent(w http.ResponseWriter, event string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte(`{"error":"failed to encode event payload"}`)
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", body)
	if f, ok := w.(flusher); ok {
		f.Flush()
	}
}

// streamTool handles GET /sse/tools/{name}?arguments=<urlencoded-json>: a
// single dispatch framed as start -> complete|error. The tool handlers
// this middleware ships don't emit intermediate progress of their own
// (spec.md §4.H allows zero-or-more progress events), so every call here
// emits exactly start then one terminal event.
func (h *handlers) streamTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.deps.Tools.Get(name); !ok {
		writeError(w, http.StatusNotFound, "unknown tool \""+name+"\"")
		return
	}

	var args map[string]any
	if raw := r.URL.Query().Get("arguments"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			writeError(w, http.StatusBadRequest, "invalid \"arguments\" query parameter: "+err.Error())
			return
		}
	}

	ctx, err := h.bindRequestContext(r)
	if err != nil {
		writeToolError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeSSEEvent(w, "start", map[string]any{"tool": name})

	result, err := h.deps.Tools.Dispatch(ctx, name, args)
	if err != nil {
		writeSSEEvent(w, "error", map[string]any{"tool": name, "message": err.Error()})
		return
	}
	writeSSEEvent(w, "complete", map[string]any{"tool": name, "result": result})
}
