// Package validate implements the argument-correction middleware that runs
// between tool dispatch and handler invocation: it auto-corrects common
// LLM-caller mistakes (misnamed top-level parameters, single items posted
// where a list is required, self-nested parameters, legacy field names)
// before a tool ever sees its arguments, collecting human-readable
// suggestions describing every correction it made along the way.
package validate

import (
	"fmt"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
)

// Result is the outcome of correcting one tool call's arguments.
type Result struct {
	Arguments   map[string]any
	Suggestions []string
}

// renameTable maps tool name to {wrong param name -> correct param name}.
// Grounded on original_source/nifi_mcp_server/api_tools/utils.py's
// PARAMETER_CORRECTIONS table.
var renameTable = map[string]map[string]string{
	"delete_nifi_objects": {
		"deletion_requests": "objects",
		"delete_requests":   "objects",
		"items":             "objects",
		"deletions":         "objects",
	},
	"operate_nifi_objects": {
		"operation_requests": "operations",
		"requests":           "operations",
		"ops":                "operations",
		"items":              "operations",
	},
	"update_nifi_processors_properties": {
		"property_updates":  "updates",
		"processor_updates": "updates",
		"props":             "updates",
		"properties":        "updates",
	},
	"update_nifi_connection": {
		"connection_updates": "updates",
		"updates_list":       "updates",
		"items":              "updates",
	},
	"create_nifi_connections": {
		"connection_requests": "connections",
		"conn_requests":       "connections",
		"links":               "connections",
	},
}

// listParams names the arguments that must hold a JSON array; a bare
// object is promoted to a single-element list instead of rejected.
var listParams = map[string]bool{
	"objects":     true,
	"operations":  true,
	"updates":     true,
	"connections": true,
}

// Correct applies renames, nested-self unwrapping, and list coercion to
// args for toolName, returning the corrected arguments and a list of
// human-readable descriptions of each correction made. It never mutates
// the caller's top-level map, but legacy create_nifi_connections entries
// are rewritten in place inside the caller's list.
func Correct(toolName string, args map[string]any) (Result, error) {
	corrected := make(map[string]any, len(args))
	for k, v := range args {
		corrected[k] = v
	}
	var suggestions []string

	if renames, ok := renameTable[toolName]; ok {
		for wrong, right := range renames {
			if v, has := corrected[wrong]; has {
				if _, alreadyRight := corrected[right]; !alreadyRight {
					corrected[right] = v
					delete(corrected, wrong)
					suggestions = append(suggestions, fmt.Sprintf("auto-corrected parameter %q to %q", wrong, right))
				}
			}
		}
	}

	for name, val := range corrected {
		if nested, ok := val.(map[string]any); ok && len(nested) == 1 {
			if inner, has := nested[name]; has {
				corrected[name] = inner
				suggestions = append(suggestions, fmt.Sprintf("fixed self-nested parameter structure in %q", name))
			}
		}
	}

	for name := range listParams {
		val, has := corrected[name]
		if !has {
			continue
		}
		switch v := val.(type) {
		case []any:
			// already a list
		case map[string]any:
			corrected[name] = []any{v}
			suggestions = append(suggestions, fmt.Sprintf("converted single %s entry to list format", singular(name)))
		default:
			return Result{}, apperr.BadRequest("parameter %q must be a list, got %T", name, val)
		}
	}

	switch toolName {
	case "create_nifi_connections":
		suggestions = append(suggestions, validateConnectionEntries(corrected)...)
	case "delete_nifi_objects":
		suggestions = append(suggestions, validateDeleteEntries(corrected)...)
	case "operate_nifi_objects":
		suggestions = append(suggestions, validateOperateEntries(corrected)...)
	}

	return Result{Arguments: corrected, Suggestions: suggestions}, nil
}

func singular(plural string) string {
	if len(plural) > 0 && plural[len(plural)-1] == 's' {
		return plural[:len(plural)-1]
	}
	return plural
}

func validateConnectionEntries(args map[string]any) []string {
	var suggestions []string
	entries, _ := args["connections"].([]any)
	for i, raw := range entries {
		conn, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		_, hasLegacySource := conn["source_id"]
		_, hasLegacyTarget := conn["target_id"]
		_, hasNewSource := conn["source_name"]
		_, hasNewTarget := conn["target_name"]

		if hasLegacySource && hasLegacyTarget && !(hasNewSource && hasNewTarget) {
			conn["source_name"] = conn["source_id"]
			conn["target_name"] = conn["target_id"]
			delete(conn, "source_id")
			delete(conn, "target_id")
			suggestions = append(suggestions, fmt.Sprintf("connection %d auto-converted from legacy source_id/target_id to source_name/target_name", i))
		} else if !(hasNewSource && hasNewTarget) {
			if !hasNewSource {
				suggestions = append(suggestions, fmt.Sprintf("connection %d missing 'source_name' field", i))
			}
			if !hasNewTarget {
				suggestions = append(suggestions, fmt.Sprintf("connection %d missing 'target_name' field", i))
			}
		}
		if _, has := conn["relationships"]; !has {
			suggestions = append(suggestions, fmt.Sprintf("connection %d missing 'relationships' field", i))
		}
	}
	return suggestions
}

func validateDeleteEntries(args map[string]any) []string {
	var suggestions []string
	entries, _ := args["objects"].([]any)
	for i, raw := range entries {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, has := obj["object_type"]; !has {
			suggestions = append(suggestions, fmt.Sprintf("object %d missing required 'object_type' field", i))
		}
		if _, has := obj["object_id"]; !has {
			suggestions = append(suggestions, fmt.Sprintf("object %d missing required 'object_id' field", i))
		}
	}
	return suggestions
}

func validateOperateEntries(args map[string]any) []string {
	var suggestions []string
	entries, _ := args["operations"].([]any)
	for i, raw := range entries {
		op, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		objectType, _ := op["object_type"].(string)
		operationType, _ := op["operation_type"].(string)

		switch {
		case objectType == "controller_service" && (operationType == "start" || operationType == "stop"):
			suggestions = append(suggestions, fmt.Sprintf("operation %d: use 'enable'/'disable' for controller services, not 'start'/'stop'", i))
		case objectType != "controller_service" && (operationType == "enable" || operationType == "disable"):
			suggestions = append(suggestions, fmt.Sprintf("operation %d: use 'start'/'stop' for %s, not 'enable'/'disable'", i, objectType))
		}
	}
	return suggestions
}
