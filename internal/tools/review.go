package tools

import (
	"context"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/flowdoc"
	"github.com/stackoverflowed/nifimcp/internal/nifi"
	"github.com/stackoverflowed/nifimcp/internal/shaper"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
)

var objectTypeSchema = map[string]any{"type": "string", "enum": []any{
	"processor", "connection", "input_port", "output_port", "process_group", "controller_service",
}}

// listNiFiObjects mirrors review.py's list_nifi_objects: one object_type at
// a time, shaped the same way get_nifi_object_details shapes a single
// entity.
func listNiFiObjects(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	objectType, err := requireString(args, "object_type")
	if err != nil {
		return nil, err
	}
	groupID := optString(args, "process_group_id", "root")

	switch objectType {
	case "processor":
		entities, err := client.ListProcessors(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return shapeAll(entities, shaper.Processor), nil
	case "connection":
		entities, err := client.ListConnections(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return shapeAll(entities, shaper.Connection), nil
	case "input_port", "output_port":
		inputs, outputs, err := client.ListPorts(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if objectType == "input_port" {
			return shapePorts(inputs, "INPUT_PORT"), nil
		}
		return shapePorts(outputs, "OUTPUT_PORT"), nil
	case "controller_service":
		entities, err := client.ListControllerServices(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return shapeAll(entities, shaper.ControllerService), nil
	case "process_group":
		flow, err := client.GetProcessGroupFlow(ctx, groupID)
		if err != nil {
			return nil, err
		}
		return shapeAll(flow.ProcessGroupFlow.Flow.ProcessGroups, shaper.ProcessGroup), nil
	default:
		return nil, apperr.BadRequest("unknown object_type %q", objectType)
	}
}

func shapeAll(entities []nifi.Entity, fn func(nifi.Entity) map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		out = append(out, fn(e))
	}
	return out
}

func shapePorts(entities []nifi.Entity, kind string) []map[string]any {
	out := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		out = append(out, shaper.Port(e, kind))
	}
	return out
}

// getNiFiObjectDetails mirrors review.py's get_nifi_object_details: fetch
// one entity by id and type, shaped for the caller.
func getNiFiObjectDetails(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	objectType, err := requireString(args, "object_type")
	if err != nil {
		return nil, err
	}
	objectID, err := requireString(args, "object_id")
	if err != nil {
		return nil, err
	}

	switch objectType {
	case "processor":
		e, err := client.GetProcessor(ctx, objectID)
		if err != nil {
			return nil, err
		}
		return shaper.Processor(e), nil
	case "connection":
		e, err := client.GetConnection(ctx, objectID)
		if err != nil {
			return nil, err
		}
		return shaper.Connection(e), nil
	case "input_port", "output_port":
		e, kind, err := client.GetPort(ctx, objectID)
		if err != nil {
			return nil, err
		}
		return shaper.Port(e, string(kind)), nil
	case "controller_service":
		e, err := client.GetControllerService(ctx, objectID)
		if err != nil {
			return nil, err
		}
		return shaper.ControllerService(e), nil
	case "process_group":
		e, err := client.GetProcessGroup(ctx, objectID)
		if err != nil {
			return nil, err
		}
		return shaper.ProcessGroup(e), nil
	default:
		return nil, apperr.BadRequest("unknown object_type %q", objectType)
	}
}

// searchNiFiFlow mirrors review.py's search_nifi_flow: a recursive,
// client-side name/type search rooted at process_group_id.
func searchNiFiFlow(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	query, err := requireString(args, "query")
	if err != nil {
		return nil, err
	}
	root := optString(args, "process_group_id", "root")

	matches, err := client.SearchFlow(ctx, root, query)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		out = append(out, map[string]any{
			"kind":       m.Kind,
			"groupPath":  m.GroupPath,
			"component":  shapeByKind(m.Kind, m.Entity),
		})
	}
	return out, nil
}

func shapeByKind(kind string, e nifi.Entity) map[string]any {
	switch kind {
	case "connection":
		return shaper.Connection(e)
	case "input-port":
		return shaper.Port(e, "INPUT_PORT")
	case "output-port":
		return shaper.Port(e, "OUTPUT_PORT")
	case "controller-service":
		return shaper.ControllerService(e)
	case "process-group":
		return shaper.ProcessGroup(e)
	default:
		return shaper.Processor(e)
	}
}

// getProcessGroupStatus mirrors review.py's get_process_group_status.
func getProcessGroupStatus(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	groupID := optString(args, "process_group_id", "root")

	snap, err := client.GetProcessGroupStatus(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":                snap.ProcessGroupStatus.ID,
		"name":              snap.ProcessGroupStatus.Name,
		"aggregateSnapshot": snap.ProcessGroupStatus.AggregateSnapshot,
	}, nil
}

// listFlowFiles mirrors review.py's list_flowfiles: list, not drain, the
// contents of a connection's queue.
func listFlowFiles(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	connectionID, err := requireString(args, "connection_id")
	if err != nil {
		return nil, err
	}
	return client.ListFlowFiles(ctx, connectionID)
}

// getFlowFileEventDetails mirrors review.py's get_flowfile_event_details.
func getFlowFileEventDetails(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	connectionID, err := requireString(args, "connection_id")
	if err != nil {
		return nil, err
	}
	flowFileUUID, err := requireString(args, "flowfile_uuid")
	if err != nil {
		return nil, err
	}
	return client.GetFlowFileEventDetails(ctx, connectionID, flowFileUUID)
}

// documentNiFiFlow mirrors review.py's document_nifi_flow, building
// internal/flowdoc's adjacency graph and traversal from one process
// group's direct children.
func documentNiFiFlow(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	groupID := optString(args, "process_group_id", "root")

	flow, err := client.GetProcessGroupFlow(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var components []flowdoc.Component
	for _, p := range flow.ProcessGroupFlow.Flow.Processors {
		components = append(components, flowdoc.Component{ID: p.ID, Name: entityName(p), Type: strField(p, "type"), Kind: "processor"})
	}
	for _, p := range flow.ProcessGroupFlow.Flow.InputPorts {
		components = append(components, flowdoc.Component{ID: p.ID, Name: entityName(p), Kind: "input-port"})
	}
	for _, p := range flow.ProcessGroupFlow.Flow.OutputPorts {
		components = append(components, flowdoc.Component{ID: p.ID, Name: entityName(p), Kind: "output-port"})
	}

	var edges []flowdoc.Edge
	for _, c := range flow.ProcessGroupFlow.Flow.Connections {
		source := nestedField(c, "source")
		dest := nestedField(c, "destination")
		edges = append(edges, flowdoc.Edge{
			ConnectionID:  c.ID,
			SourceID:      strFieldOf(source, "id"),
			DestinationID: strFieldOf(dest, "id"),
			Relationships: toStringSlice(c.Component["selectedRelationships"]),
		})
	}

	return flowdoc.Document(components, edges), nil
}

func strField(e nifi.Entity, key string) string {
	s, _ := e.Component[key].(string)
	return s
}

func nestedField(e nifi.Entity, key string) map[string]any {
	m, _ := e.Component[key].(map[string]any)
	return m
}

func strFieldOf(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// RegisterReviewTools adds the read-only flow inspection tools to reg.
func RegisterReviewTools(reg *toolregistry.Registry) {
	reg.Register(toolregistry.Descriptor{
		Name:        "list_nifi_objects",
		Description: "Lists NiFi objects of one type within a process group.",
		Schema: map[string]any{
			"type":       "object",
			"required":   []any{"object_type"},
			"properties": map[string]any{"object_type": objectTypeSchema, "process_group_id": map[string]any{"type": "string"}},
		},
		Phases:  []string{"Review"},
		Handler: listNiFiObjects,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "get_nifi_object_details",
		Description: "Fetches the full details of one NiFi object by id and type.",
		Schema: map[string]any{
			"type":       "object",
			"required":   []any{"object_type", "object_id"},
			"properties": map[string]any{"object_type": objectTypeSchema, "object_id": map[string]any{"type": "string"}},
		},
		Phases:  []string{"Review"},
		Handler: getNiFiObjectDetails,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "search_nifi_flow",
		Description: "Recursively searches a process group's flow for components whose name or type matches a query.",
		Schema: map[string]any{
			"type":       "object",
			"required":   []any{"query"},
			"properties": map[string]any{"query": map[string]any{"type": "string"}, "process_group_id": map[string]any{"type": "string"}},
		},
		Phases:  []string{"Review"},
		Handler: searchNiFiFlow,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "get_process_group_status",
		Description: "Fetches the aggregate status rollup (throughput, queue counts) for a process group.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"process_group_id": map[string]any{"type": "string"}},
		},
		Phases:  []string{"Review"},
		Handler: getProcessGroupStatus,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "list_flowfiles",
		Description: "Lists (without removing) the flowfiles currently queued on a connection.",
		Schema: map[string]any{
			"type":       "object",
			"required":   []any{"connection_id"},
			"properties": map[string]any{"connection_id": map[string]any{"type": "string"}},
		},
		Phases:  []string{"Review"},
		Handler: listFlowFiles,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "get_flowfile_event_details",
		Description: "Fetches the full provenance/attribute detail for one flowfile listed on a connection.",
		Schema: map[string]any{
			"type":       "object",
			"required":   []any{"connection_id", "flowfile_uuid"},
			"properties": map[string]any{"connection_id": map[string]any{"type": "string"}, "flowfile_uuid": map[string]any{"type": "string"}},
		},
		Phases:  []string{"Review"},
		Handler: getFlowFileEventDetails,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "document_nifi_flow",
		Description: "Builds an annotated traversal of a process group's flow: adjacency, decision points, and branch paths.",
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"process_group_id": map[string]any{"type": "string"}},
		},
		Phases:  []string{"Review"},
		Handler: documentNiFiFlow,
	})
}
