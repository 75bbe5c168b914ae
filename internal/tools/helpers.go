// Package tools wires internal/nifi, internal/shaper, internal/batch,
// internal/flowdoc, and internal/ratelimit together into the concrete tool
// catalog the middleware exposes, grounded on
// original_source/nifi_mcp_server/api_tools/*.py's tool set (module split
// mirrors the Python package: lookup.go, review.go, modification.go,
// operation.go, expert.go).
package tools

import (
	"context"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/batch"
	"github.com/stackoverflowed/nifimcp/internal/nifi"
	"github.com/stackoverflowed/nifimcp/internal/reqctx"
)

// clientFrom extracts the NiFi client bound to this request. Every handler
// calls this first; a missing or wrong-typed client is a programming error
// in the HTTP front end, not a caller mistake, so it surfaces as
// apperr.Internal rather than BadRequest.
func clientFrom(ctx context.Context) (*nifi.Client, error) {
	rc, ok := reqctx.FromContext(ctx)
	if !ok {
		return nil, apperr.Internal(nil, "no request context attached")
	}
	client, ok := rc.Client.(*nifi.Client)
	if !ok {
		return nil, apperr.Internal(nil, "request context NiFi client is not an internal/nifi.Client")
	}
	return client, nil
}

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", apperr.BadRequest("missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", apperr.BadRequest("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func optString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func optFloat(args map[string]any, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func optInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func requireList(args map[string]any, key string) ([]any, error) {
	v, ok := args[key]
	if !ok {
		return nil, apperr.BadRequest("missing required parameter %q", key)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, apperr.BadRequest("parameter %q must be a list", key)
	}
	return list, nil
}

func requireMap(v any, what string) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.BadRequest("%s must be an object", what)
	}
	return m, nil
}

func entityName(e nifi.Entity) string {
	if n, ok := e.Component["name"].(string); ok {
		return n
	}
	return ""
}

func namesToIDs(entities []nifi.Entity) map[string]string {
	out := make(map[string]string, len(entities))
	for _, e := range entities {
		out[e.ID] = entityName(e)
	}
	return out
}

// resolveComponentByName resolves name against every processor and port in
// groupID, returning (id, nifiType, error) where nifiType is "PROCESSOR",
// "INPUT_PORT", or "OUTPUT_PORT" — the shape create_nifi_connections needs
// to build a nifi.ConnectableRef.
func resolveComponentByName(ctx context.Context, client *nifi.Client, groupID, name string) (id, kind string, err error) {
	procs, err := client.ListProcessors(ctx, groupID)
	if err != nil {
		return "", "", err
	}
	inputs, outputs, err := client.ListPorts(ctx, groupID)
	if err != nil {
		return "", "", err
	}

	candidates := map[string]string{}
	kindByID := map[string]string{}
	for _, e := range procs {
		candidates[e.ID] = entityName(e)
		kindByID[e.ID] = "PROCESSOR"
	}
	for _, e := range inputs {
		candidates[e.ID] = entityName(e)
		kindByID[e.ID] = "INPUT_PORT"
	}
	for _, e := range outputs {
		candidates[e.ID] = entityName(e)
		kindByID[e.ID] = "OUTPUT_PORT"
	}

	resolved, err := batch.ResolveByName(name, candidates)
	if err != nil {
		return "", "", err
	}
	if resolved == "" {
		return "", "", apperr.NotFound("no component named %q in process group %s", name, groupID)
	}
	return resolved, kindByID[resolved], nil
}

func toStringSlice(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
