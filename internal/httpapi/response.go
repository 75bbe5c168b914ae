package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
)

// writeJSON mirrors marmos91-dittofs's handlers/response.go helper: set
// the content type, write the status, encode the body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeToolError maps a dispatch/workflow error to its HTTP status per
// spec.md §4.H's table, special-casing apperr.KindTool so "unknown tool
// name" (the only producer of that kind from toolregistry.Dispatch) comes
// back as 404 rather than apperr.HTTPStatus's generic 400 for that kind —
// every other apperr kind is mapped as-is.
func writeToolError(w http.ResponseWriter, err error) {
	if e, ok := apperr.As(err); ok && e.Kind == apperr.KindTool {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, apperr.HTTPStatus(err), err.Error())
}
