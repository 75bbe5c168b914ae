package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stackoverflowed/nifimcp/internal/workflows"
)

// listWorkflows handles GET /workflows.
func (h *handlers) listWorkflows(w http.ResponseWriter, r *http.Request) {
	descs := h.deps.Workflows.List()
	out := make([]map[string]any, 0, len(descs))
	for _, d := range descs {
		out = append(out, workflowSummary(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// getWorkflow handles GET /workflows/{name}.
func (h *handlers) getWorkflow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	d, ok := h.deps.Workflows.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown workflow \""+name+"\"")
		return
	}
	writeJSON(w, http.StatusOK, workflowSummary(d))
}

func workflowSummary(d workflows.Descriptor) map[string]any {
	nodeNames := make([]string, 0, len(d.Nodes))
	for name := range d.Nodes {
		nodeNames = append(nodeNames, name)
	}
	return map[string]any{
		"name":        d.Name,
		"description": d.Description,
		"category":    d.Category,
		"phases":      d.Phases,
		"start":       d.Start,
		"nodes":       nodeNames,
	}
}

type workflowExecuteRequest struct {
	WorkflowName string         `json:"workflow_name"`
	Input        map[string]any `json:"input"`
}

// executeWorkflow handles POST /workflows/execute.
func (h *handlers) executeWorkflow(w http.ResponseWriter, r *http.Request) {
	var body workflowExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.WorkflowName == "" {
		writeError(w, http.StatusBadRequest, "missing required field \"workflow_name\"")
		return
	}
	if _, ok := h.deps.Workflows.Get(body.WorkflowName); !ok {
		writeError(w, http.StatusNotFound, "unknown workflow \""+body.WorkflowName+"\"")
		return
	}

	ctx, err := h.bindRequestContext(r)
	if err != nil {
		writeToolError(w, err)
		return
	}

	result, tracker, err := h.deps.Workflows.Execute(ctx, body.WorkflowName, body.Input, h.deps.ActionCeiling, h.deps.logger())
	if err != nil {
		writeToolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"workflow_name": body.WorkflowName,
		"status":        result.Status,
		"message":       result.Message,
		"error_type":    result.ErrorType,
		"data":          result.Data,
		"steps":         tracker.Steps(),
	})
}

// validateWorkflow handles GET /workflows/validate/{name}.
func (h *handlers) validateWorkflow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.deps.Workflows.Get(name); !ok {
		writeError(w, http.StatusNotFound, "unknown workflow \""+name+"\"")
		return
	}
	problems := h.deps.Workflows.Validate(name)
	writeJSON(w, http.StatusOK, map[string]any{
		"workflow_name": name,
		"valid":         len(problems) == 0,
		"problems":      problems,
	})
}
