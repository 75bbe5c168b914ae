package workflows

import (
	"context"

	"github.com/stackoverflowed/nifimcp/internal/workflow"
)

// investigateStalledConnection is a read-only diagnostic workflow: check
// how many flowfiles are backed up on a connection, then analyze the
// upstream processor's bulletin board for the error patterns that would
// explain a stall — the guided-workflow counterpart to manually chaining
// list_flowfiles and analyze_nifi_processor_errors.
//
// Input (via Shared):
//   - connection_id (required)
//   - processor_id (required): the upstream processor feeding connection_id
func investigateStalledConnection(reg dispatcher) map[string]workflow.Node {
	checkQueue := &toolNode{
		name: "check_queue",
		reg:  reg,
		next: map[workflow.Navigation]string{workflow.NavDefault: "analyze_errors"},
		run: func(ctx context.Context, shared workflow.Shared, reg dispatcher, actions *workflow.ActionCounter) (workflow.Result, error) {
			connectionID, _ := shared["connection_id"].(string)

			data, err := dispatchOne(ctx, reg, actions, "list_flowfiles", map[string]any{
				"connection_id": connectionID,
			})
			if err != nil {
				return asNodeResult(err)
			}
			if list, ok := data.([]map[string]any); ok {
				shared["queued_flowfile_count"] = len(list)
			}
			return successResult(data), nil
		},
	}

	analyzeErrors := &toolNode{
		name: "analyze_errors",
		reg:  reg,
		next: map[workflow.Navigation]string{},
		run: func(ctx context.Context, shared workflow.Shared, reg dispatcher, actions *workflow.ActionCounter) (workflow.Result, error) {
			processorID, _ := shared["processor_id"].(string)

			data, err := dispatchOne(ctx, reg, actions, "analyze_nifi_processor_errors", map[string]any{
				"processor_id": processorID,
			})
			if err != nil {
				return asNodeResult(err)
			}
			return successResult(map[string]any{
				"queued_flowfile_count": shared["queued_flowfile_count"],
				"analysis":              data,
			}), nil
		},
	}

	return map[string]workflow.Node{
		checkQueue.Name():     checkQueue,
		analyzeErrors.Name():  analyzeErrors,
	}
}
