package tools

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/batch"
	"github.com/stackoverflowed/nifimcp/internal/shaper"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
)

// runStateFor maps operation_type to the NiFi run-state string the
// relevant update call expects, matching operation.py's start/stop (run
// components) vs enable/disable (controller services) distinction —
// internal/validate has already flagged any mismatch before this runs.
func runStateFor(operationType string) (string, error) {
	switch operationType {
	case "start":
		return "RUNNING", nil
	case "stop":
		return "STOPPED", nil
	case "enable":
		return "ENABLED", nil
	case "disable":
		return "DISABLED", nil
	default:
		return "", apperr.BadRequest("unknown operation_type %q", operationType)
	}
}

// operateNiFiObjects mirrors operation.py's operate_nifi_objects: a batch
// of {object_type, object_id, operation_type} triples, each independently
// isolated.
func operateNiFiObjects(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := requireList(args, "operations")
	if err != nil {
		return nil, err
	}

	items := make([]batch.Item, len(entries))
	for i, raw := range entries {
		items[i] = batch.Item{Index: i, Echo: raw}
	}

	results := batch.Run(items, func(item batch.Item) batch.Result {
		op, err := requireMap(item.Echo, "operation entry")
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		objectType, _ := op["object_type"].(string)
		objectID, _ := op["object_id"].(string)
		operationType, _ := op["operation_type"].(string)

		state, err := runStateFor(operationType)
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}

		switch objectType {
		case "processor":
			e, err := client.GetProcessor(ctx, objectID)
			if err != nil {
				return batch.Result{Status: batch.StatusError, Message: err.Error()}
			}
			updated, err := client.UpdateProcessorRunState(ctx, objectID, e.Revision, state)
			if err != nil {
				return batch.Result{Status: batch.StatusError, Message: err.Error()}
			}
			return batch.Result{Status: batch.StatusSuccess, Entity: shaper.Processor(updated)}
		case "input_port", "output_port", "port":
			e, kind, err := client.GetPort(ctx, objectID)
			if err != nil {
				return batch.Result{Status: batch.StatusError, Message: err.Error()}
			}
			updated, err := client.UpdatePortRunState(ctx, objectID, kind, e.Revision, state)
			if err != nil {
				return batch.Result{Status: batch.StatusError, Message: err.Error()}
			}
			return batch.Result{Status: batch.StatusSuccess, Entity: shaper.Port(updated, string(kind))}
		case "controller_service":
			e, err := client.GetControllerService(ctx, objectID)
			if err != nil {
				return batch.Result{Status: batch.StatusError, Message: err.Error()}
			}
			updated, err := client.UpdateControllerServiceRunState(ctx, objectID, e.Revision, state)
			if err != nil {
				return batch.Result{Status: batch.StatusError, Message: err.Error()}
			}
			return batch.Result{Status: batch.StatusSuccess, Entity: shaper.ControllerService(updated)}
		default:
			return batch.Result{Status: batch.StatusError, Message: "unknown object_type " + objectType}
		}
	})

	return map[string]any{"results": results, "summary": batch.Summarize(results)}, nil
}

// defaultDropTimeout is the fallback drop-request timeout when the caller
// omits timeout_seconds, matching spec.md §5's "default 30" for async
// sub-resources.
const defaultDropTimeout = 30 * time.Second

// purgeFlowFiles mirrors operation.py's purge_flowfiles: drop the queue
// for one connection, or every connection in a process group.
func purgeFlowFiles(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	targetID, err := requireString(args, "target_id")
	if err != nil {
		return nil, err
	}
	targetType := optString(args, "target_type", "connection")
	timeout := time.Duration(optInt(args, "timeout_seconds", int(defaultDropTimeout/time.Second))) * time.Second

	if targetType == "connection" {
		d, err := client.DropFlowFileQueue(ctx, targetID, timeout)
		if err != nil {
			if e, ok := apperr.As(err); ok && e.Kind == apperr.KindTimeout {
				return map[string]any{"status": "timeout", "success": false, "message": e.Error()}, nil
			}
			return nil, err
		}
		return shaper.DropRequest(d), nil
	}

	connections, err := client.ListConnections(ctx, targetID)
	if err != nil {
		return nil, err
	}
	items := make([]batch.Item, len(connections))
	for i, c := range connections {
		items[i] = batch.Item{Index: i, Echo: c.ID}
	}
	results := batch.Run(items, func(item batch.Item) batch.Result {
		connID, _ := item.Echo.(string)
		d, err := client.DropFlowFileQueue(ctx, connID, timeout)
		if err != nil {
			if e, ok := apperr.As(err); ok && e.Kind == apperr.KindTimeout {
				return batch.Result{Status: batch.StatusError, Message: e.Error()}
			}
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		return batch.Result{Status: batch.StatusSuccess, Entity: shaper.DropRequest(d)}
	})
	return map[string]any{"results": results, "summary": batch.Summarize(results)}, nil
}

// analyzeNiFiProcessorErrors mirrors operation.py's
// analyze_nifi_processor_errors: scans a processor's bulletins for known
// error-message patterns and returns matching debugging suggestions.
func analyzeNiFiProcessorErrors(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	processorID, err := requireString(args, "processor_id")
	if err != nil {
		return nil, err
	}

	e, err := client.GetProcessor(ctx, processorID)
	if err != nil {
		return nil, err
	}
	processorType, _ := e.Component["type"].(string)
	name := entityName(e)

	var errs []map[string]any
	var patterns []string
	for _, b := range e.Bulletins {
		level, _ := b.Bulletin["level"].(string)
		if level != "ERROR" {
			continue
		}
		message, _ := b.Bulletin["message"].(string)
		errs = append(errs, map[string]any{
			"timestamp": b.Bulletin["timestamp"],
			"message":   message,
			"category":  b.Bulletin["category"],
		})
		patterns = append(patterns, analyzeErrorPatterns(message, processorType)...)
	}

	analysis := map[string]any{
		"processor_id":      processorID,
		"processor_name":    name,
		"processor_type":    processorType,
		"validation_status": e.Component["validationStatus"],
		"error_count":       len(errs),
		"errors":            errs,
		"patterns":          patterns,
	}
	if optBool(args, "include_suggestions", true) {
		analysis["suggestions"] = debuggingSuggestions(patterns)
	}

	return map[string]any{"status": "success", "message": "analyzed processor '" + name + "' errors", "analysis": analysis}, nil
}

func optBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

// analyzeErrorPatterns mirrors operation.py's _analyze_error_patterns.
func analyzeErrorPatterns(message, processorType string) []string {
	lower := strings.ToLower(message)
	var patterns []string

	if strings.Contains(processorType, "org.apache.nifi.processors.script.ExecuteScript") {
		if strings.Contains(lower, "missingpropertyexception") && strings.Contains(lower, "flowfile") {
			patterns = append(patterns, "groovy_flowfile_scope_issue")
		}
		if strings.Contains(lower, "scriptexception") {
			patterns = append(patterns, "groovy_script_syntax_error")
		}
		if strings.Contains(lower, "compilationexception") {
			patterns = append(patterns, "groovy_compilation_error")
		}
	}
	typeLower := strings.ToLower(processorType)
	if strings.Contains(typeLower, "handlehttprequest") || strings.Contains(typeLower, "handlehttpresponse") {
		if strings.Contains(lower, "context map") {
			patterns = append(patterns, "http_context_map_missing")
		}
		if strings.Contains(lower, "connection refused") {
			patterns = append(patterns, "http_connection_issue")
		}
	}
	if strings.Contains(lower, "validation") && strings.Contains(lower, "invalid") {
		patterns = append(patterns, "property_validation_error")
	}
	if strings.Contains(lower, "no such property") {
		patterns = append(patterns, "missing_property_reference")
	}
	return patterns
}

// debuggingSuggestions mirrors operation.py's
// _generate_debugging_suggestions.
func debuggingSuggestions(patterns []string) []map[string]string {
	var out []map[string]string
	for _, p := range patterns {
		switch p {
		case "groovy_flowfile_scope_issue":
			out = append(out, map[string]string{
				"issue":       "Groovy FlowFile Scope Issue",
				"description": "Script references 'flowFile' variable that's not in scope",
				"solution":    "Use 'final FlowFile ff = session.get()' and import org.apache.nifi.flowfile.FlowFile",
			})
		case "groovy_script_syntax_error":
			out = append(out, map[string]string{
				"issue":       "Groovy Script Syntax Error",
				"description": "Script has syntax errors preventing execution",
				"solution":    "Check script syntax, imports, and variable declarations",
			})
		case "http_context_map_missing":
			out = append(out, map[string]string{
				"issue":       "HTTP Context Map Service Missing",
				"description": "HTTP processor requires a context map service to be configured",
				"solution":    "Create and configure an HTTP Context Map service, then reference it in the processor",
			})
		case "property_validation_error":
			out = append(out, map[string]string{
				"issue":       "Property Validation Error",
				"description": "One or more processor properties have invalid values",
				"solution":    "Review processor configuration and correct invalid property values",
			})
		}
	}
	return out
}

// invokeNiFiHTTPEndpoint mirrors operation.py's invoke_nifi_http_endpoint:
// sends an arbitrary HTTP request (typically exercising a ListenHTTP
// processor) then checks the owning process group's status for context.
func invokeNiFiHTTPEndpoint(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	targetURL, err := requireString(args, "url")
	if err != nil {
		return nil, err
	}
	groupID := optString(args, "process_group_id", "root")
	method := optString(args, "method", "POST")
	timeout := time.Duration(optInt(args, "timeout_seconds", 10)) * time.Second

	var bodyReader io.Reader
	if payload, ok := args["payload"].(string); ok {
		bodyReader = strings.NewReader(payload)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, targetURL, bodyReader)
	if err != nil {
		return nil, apperr.BadRequest("invalid request: %v", err)
	}
	if hdrs, ok := args["headers"].(map[string]any); ok {
		for k, v := range hdrs {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	httpClient := &http.Client{Timeout: timeout}
	resp, err := httpClient.Do(req)

	result := map[string]any{
		"request_details": map[string]any{"url": targetURL, "method": method},
	}
	if err != nil {
		result["status"] = "connection_error"
		result["message"] = err.Error()
	} else {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		result["status"] = "success"
		result["message"] = "request completed"
		result["response_status_code"] = resp.StatusCode
		result["response_body"] = string(bytes.TrimSpace(raw))
	}

	flowStatus := map[string]any{"process_group_id": groupID}
	if snap, err := client.GetProcessGroupStatus(ctx, groupID); err != nil {
		flowStatus["success"] = false
		flowStatus["error"] = err.Error()
	} else {
		flowStatus["success"] = true
		flowStatus["data"] = snap.ProcessGroupStatus.AggregateSnapshot
	}
	result["flow_status"] = flowStatus

	return result, nil
}

// RegisterOperationTools adds the start/stop/enable/disable, purge,
// diagnostics, and HTTP-invocation tools to reg.
func RegisterOperationTools(reg *toolregistry.Registry) {
	reg.Register(toolregistry.Descriptor{
		Name:        "operate_nifi_objects",
		Description: "Starts, stops, enables, or disables one or more NiFi objects.",
		Schema: map[string]any{
			"type":       "object",
			"required":   []any{"operations"},
			"properties": map[string]any{"operations": map[string]any{"type": "array"}},
		},
		Phases:  []string{"Operate"},
		Handler: operateNiFiObjects,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "purge_flowfiles",
		Description: "Drops all flowfiles queued on a connection, or every connection in a process group.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"target_id"},
			"properties": map[string]any{
				"target_id":       map[string]any{"type": "string"},
				"target_type":     map[string]any{"type": "string", "enum": []any{"connection", "process_group"}},
				"timeout_seconds": map[string]any{"type": "integer"},
			},
		},
		Phases:  []string{"Operate"},
		Handler: purgeFlowFiles,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "analyze_nifi_processor_errors",
		Description: "Scans a processor's bulletin board for error patterns and returns debugging suggestions.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"processor_id"},
			"properties": map[string]any{
				"processor_id":        map[string]any{"type": "string"},
				"include_suggestions": map[string]any{"type": "boolean"},
			},
		},
		Phases:  []string{"Debug"},
		Handler: analyzeNiFiProcessorErrors,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "invoke_nifi_http_endpoint",
		Description: "Sends an HTTP request to a target endpoint (e.g. a ListenHTTP processor) and reports the owning process group's status.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"url", "process_group_id"},
			"properties": map[string]any{
				"url":              map[string]any{"type": "string"},
				"process_group_id": map[string]any{"type": "string"},
				"method":           map[string]any{"type": "string"},
				"payload":          map[string]any{"type": "string"},
				"headers":          map[string]any{"type": "object"},
				"timeout_seconds":  map[string]any{"type": "integer"},
			},
		},
		Phases:  []string{"Operate", "Verify"},
		Handler: invokeNiFiHTTPEndpoint,
	})
}
