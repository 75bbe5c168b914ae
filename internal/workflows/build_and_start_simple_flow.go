package workflows

import (
	"context"

	"github.com/stackoverflowed/nifimcp/internal/workflow"
)

// buildAndStartSimpleFlow mirrors spec.md §8's literal end-to-end scenario:
// create a process group, two processors inside it, connect them, then
// start both — the canonical "build me a flow" guided workflow.
//
// Input (via Shared, supplied as workflow execution input):
//   - parent_process_group_id (optional, defaults to "root")
//   - flow_name (optional, defaults to "demo")
//   - source_processor_type (optional, defaults to "GenerateFlowFile")
//   - destination_processor_type (optional, defaults to "LogAttribute")
func buildAndStartSimpleFlow(reg dispatcher) map[string]workflow.Node {
	createGroup := &toolNode{
		name: "create_process_group",
		reg:  reg,
		next: map[workflow.Navigation]string{workflow.NavDefault: "create_processors"},
		run: func(ctx context.Context, shared workflow.Shared, reg dispatcher, actions *workflow.ActionCounter) (workflow.Result, error) {
			parentID := stringOr(shared, "parent_process_group_id", "root")
			name := stringOr(shared, "flow_name", "demo")

			data, err := dispatchOne(ctx, reg, actions, "create_nifi_process_group", map[string]any{
				"parent_process_group_id": parentID,
				"name":                    name,
				"x":                       0.0,
				"y":                       0.0,
			})
			if err != nil {
				return asNodeResult(err)
			}
			shared["process_group_id"] = idOf(data)
			return successResult(data), nil
		},
	}

	createProcessors := &toolNode{
		name: "create_processors",
		reg:  reg,
		next: map[workflow.Navigation]string{workflow.NavDefault: "connect"},
		run: func(ctx context.Context, shared workflow.Shared, reg dispatcher, actions *workflow.ActionCounter) (workflow.Result, error) {
			groupID, _ := shared["process_group_id"].(string)
			sourceType := stringOr(shared, "source_processor_type", "GenerateFlowFile")
			destType := stringOr(shared, "destination_processor_type", "LogAttribute")

			source, err := dispatchOne(ctx, reg, actions, "create_nifi_processor", map[string]any{
				"process_group_id": groupID,
				"processor_type":   sourceType,
				"name":             sourceType,
				"x":                100.0,
				"y":                100.0,
			})
			if err != nil {
				return asNodeResult(err)
			}
			destination, err := dispatchOne(ctx, reg, actions, "create_nifi_processor", map[string]any{
				"process_group_id": groupID,
				"processor_type":   destType,
				"name":             destType,
				"x":                400.0,
				"y":                100.0,
			})
			if err != nil {
				return asNodeResult(err)
			}

			shared["source_processor_name"] = sourceType
			shared["destination_processor_name"] = destType
			shared["source_processor_id"] = idOf(source)
			shared["destination_processor_id"] = idOf(destination)
			return successResult(map[string]any{"source": source, "destination": destination}), nil
		},
	}

	connect := &toolNode{
		name: "connect",
		reg:  reg,
		next: map[workflow.Navigation]string{workflow.NavDefault: "start"},
		run: func(ctx context.Context, shared workflow.Shared, reg dispatcher, actions *workflow.ActionCounter) (workflow.Result, error) {
			groupID, _ := shared["process_group_id"].(string)
			sourceName, _ := shared["source_processor_name"].(string)
			destName, _ := shared["destination_processor_name"].(string)
			relationships := stringSliceOr(shared, "relationships", []string{"success"})

			data, err := dispatchOne(ctx, reg, actions, "create_nifi_connections", map[string]any{
				"connections": []any{
					map[string]any{
						"process_group_id": groupID,
						"source_name":      sourceName,
						"target_name":      destName,
						"relationships":    toAnySlice(relationships),
					},
				},
			})
			if err != nil {
				return asNodeResult(err)
			}
			return successResult(data), nil
		},
	}

	start := &toolNode{
		name: "start",
		reg:  reg,
		next: map[workflow.Navigation]string{},
		run: func(ctx context.Context, shared workflow.Shared, reg dispatcher, actions *workflow.ActionCounter) (workflow.Result, error) {
			sourceID, _ := shared["source_processor_id"].(string)
			destID, _ := shared["destination_processor_id"].(string)

			data, err := dispatchOne(ctx, reg, actions, "operate_nifi_objects", map[string]any{
				"operations": []any{
					map[string]any{"object_type": "processor", "object_id": sourceID, "operation_type": "start"},
					map[string]any{"object_type": "processor", "object_id": destID, "operation_type": "start"},
				},
			})
			if err != nil {
				return asNodeResult(err)
			}
			return successResult(data), nil
		},
	}

	return map[string]workflow.Node{
		createGroup.Name():      createGroup,
		createProcessors.Name(): createProcessors,
		connect.Name():          connect,
		start.Name():            start,
	}
}

func idOf(data any) string {
	m, ok := data.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["id"].(string)
	return id
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
