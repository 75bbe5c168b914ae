package workflows_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/telemetry"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
	"github.com/stackoverflowed/nifimcp/internal/workflows"
)

func processorSchema() map[string]any {
	return map[string]any{"type": "object"}
}

func newRegistryWithTools(handlers map[string]toolregistry.Handler) *toolregistry.Registry {
	reg := toolregistry.New()
	for name, h := range handlers {
		reg.Register(toolregistry.Descriptor{Name: name, Schema: processorSchema(), Handler: h})
	}
	return reg
}

func TestCatalogListIncludesBothShippedWorkflows(t *testing.T) {
	reg := newRegistryWithTools(nil)
	catalog := workflows.NewCatalog(reg)

	names := make([]string, 0)
	for _, d := range catalog.List() {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"build_and_start_simple_flow", "investigate_stalled_connection"}, names)
}

func TestCatalogValidatePassesForShippedWorkflows(t *testing.T) {
	reg := newRegistryWithTools(nil)
	catalog := workflows.NewCatalog(reg)

	for _, d := range catalog.List() {
		problems := catalog.Validate(d.Name)
		assert.Empty(t, problems, "workflow %q should validate cleanly: %v", d.Name, problems)
	}
}

func TestCatalogValidateUnknownWorkflow(t *testing.T) {
	catalog := workflows.NewCatalog(newRegistryWithTools(nil))
	problems := catalog.Validate("does_not_exist")
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0], "unknown workflow")
}

func TestCatalogExecuteBuildAndStartSimpleFlow(t *testing.T) {
	calls := make([]string, 0)
	reg := newRegistryWithTools(map[string]toolregistry.Handler{
		"create_nifi_process_group": func(ctx context.Context, args map[string]any) (any, error) {
			calls = append(calls, "create_nifi_process_group")
			return map[string]any{"id": "group-1"}, nil
		},
		"create_nifi_processor": func(ctx context.Context, args map[string]any) (any, error) {
			calls = append(calls, "create_nifi_processor:"+args["processor_type"].(string))
			return map[string]any{"id": "proc-" + args["processor_type"].(string)}, nil
		},
		"create_nifi_connections": func(ctx context.Context, args map[string]any) (any, error) {
			calls = append(calls, "create_nifi_connections")
			return map[string]any{"status": "created"}, nil
		},
		"operate_nifi_objects": func(ctx context.Context, args map[string]any) (any, error) {
			calls = append(calls, "operate_nifi_objects")
			return []map[string]any{{"status": "success"}, {"status": "success"}}, nil
		},
	})
	catalog := workflows.NewCatalog(reg)

	result, tracker, err := catalog.Execute(context.Background(), "build_and_start_simple_flow", map[string]any{
		"flow_name": "demo-flow",
	}, 10, telemetry.NoopLogger{})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, []string{
		"create_nifi_process_group",
		"create_nifi_processor:GenerateFlowFile",
		"create_nifi_processor:LogAttribute",
		"create_nifi_connections",
		"operate_nifi_objects",
	}, calls)

	steps := tracker.Steps()
	require.Len(t, steps, 4)
	assert.Equal(t, "create_process_group", steps[0].Name)
	assert.Equal(t, 1, steps[0].ActionCount)
	assert.Equal(t, "start", steps[3].Name)
	assert.Equal(t, 1, steps[3].ActionCount)
}

func TestCatalogExecuteUnknownWorkflow(t *testing.T) {
	catalog := workflows.NewCatalog(newRegistryWithTools(nil))
	_, _, err := catalog.Execute(context.Background(), "missing", nil, 10, telemetry.NoopLogger{})
	require.Error(t, err)
}

func TestCatalogExecuteInvestigateStalledConnectionPropagatesQueueCount(t *testing.T) {
	reg := newRegistryWithTools(map[string]toolregistry.Handler{
		"list_flowfiles": func(ctx context.Context, args map[string]any) (any, error) {
			return []map[string]any{{"uuid": "a"}, {"uuid": "b"}, {"uuid": "c"}}, nil
		},
		"analyze_nifi_processor_errors": func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"patterns": []string{"out_of_memory"}}, nil
		},
	})
	catalog := workflows.NewCatalog(reg)

	result, _, err := catalog.Execute(context.Background(), "investigate_stalled_connection", map[string]any{
		"connection_id": "conn-1",
		"processor_id":  "proc-1",
	}, 10, telemetry.NoopLogger{})
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, data["queued_flowfile_count"])
}

func TestCatalogExecuteStopsOnActionLimit(t *testing.T) {
	reg := newRegistryWithTools(map[string]toolregistry.Handler{
		"create_nifi_process_group": func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"id": "group-1"}, nil
		},
		"create_nifi_processor": func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"id": "proc-1"}, nil
		},
		"create_nifi_connections": func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"status": "created"}, nil
		},
		"operate_nifi_objects": func(ctx context.Context, args map[string]any) (any, error) {
			return []map[string]any{{"status": "success"}}, nil
		},
	})
	catalog := workflows.NewCatalog(reg)

	// actionCeiling 0 means the first node's very first dispatch exceeds
	// its per-node ceiling, which ends the workflow with an "action limit"
	// result.
	result, _, err := catalog.Execute(context.Background(), "build_and_start_simple_flow", nil, 0, telemetry.NoopLogger{})
	require.NoError(t, err)
	assert.Equal(t, "error", result.Status)
	assert.Contains(t, result.Message, "action limit")
	assert.Equal(t, "action_limit_exceeded", result.ErrorType)
}
