// Package workflows holds the concrete guided-workflow node chains this
// middleware ships, wiring internal/workflow's executor to tool calls
// dispatched through internal/toolregistry — the Go equivalent of
// original_source/nifi_mcp_server/workflows/nodes/nifi_node.py, whose
// NiFiNode base class exposes the ambient NiFi client/logger to every
// node's execute() the same way toolNode here threads a registry and
// request context through Exec.
package workflows

import (
	"context"

	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
	"github.com/stackoverflowed/nifimcp/internal/workflow"
)

// dispatcher is the subset of *toolregistry.Registry a workflow node
// needs; narrowed to an interface so node constructors don't need to
// import toolregistry's full surface, and so tests can fake it.
type dispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) (any, error)
}

// toolNode is one workflow step that dispatches one or more named tool
// calls, built from a caller-supplied run closure rather
// than one fixed tool name, so a node can chain several dispatches (e.g.
// creating two processors) inside a single action-counted step.
type toolNode struct {
	name string
	reg  dispatcher
	run  func(ctx context.Context, shared workflow.Shared, reg dispatcher, actions *workflow.ActionCounter) (workflow.Result, error)
	next map[workflow.Navigation]string
}

func (n *toolNode) Name() string { return n.name }

// Prep passes the shared map straight through; toolNode's run closures
// read and write workflow.Shared directly rather than via a curated
// snapshot, since every node in these chains needs full read/write access
// to prior steps' ids.
func (n *toolNode) Prep(ctx context.Context, shared workflow.Shared, state *workflow.State) map[string]any {
	return map[string]any{"shared": shared}
}

func (n *toolNode) Exec(ctx context.Context, prepared map[string]any, actions *workflow.ActionCounter) (workflow.Result, error) {
	shared, _ := prepared["shared"].(workflow.Shared)
	return n.run(ctx, shared, n.reg, actions)
}

func (n *toolNode) Next(nav workflow.Navigation) string {
	return n.next[nav]
}

// dispatchOne is the one-call-per-action helper every node's run closure
// uses: it spends one unit of the node's action ceiling, then dispatches
// toolName. Called action.Use()-checked so the (ceiling+1)-th attempted
// call never reaches the registry.
func dispatchOne(ctx context.Context, reg dispatcher, actions *workflow.ActionCounter, toolName string, args map[string]any) (any, error) {
	if err := actions.Use(); err != nil {
		return nil, err
	}
	return reg.Dispatch(ctx, toolName, args)
}

func errorResult(err error) workflow.Result {
	return workflow.Result{Status: "error", Message: err.Error()}
}

func successResult(data any) workflow.Result {
	return workflow.Result{Status: "success", Data: data}
}

// stringOr reads a string out of shared, falling back when absent or of
// the wrong type — workflow.Shared is a plain map[string]any owned by
// internal/workflow, so these read helpers live here rather than as
// methods on it.
func stringOr(shared workflow.Shared, key, fallback string) string {
	if v, ok := shared[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func stringSliceOr(shared workflow.Shared, key string, fallback []string) []string {
	list, ok := shared[key].([]any)
	if !ok {
		return fallback
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// asNodeResult turns a dispatchOne failure into the node's Exec return
// value: an ActionLimitError propagates as a real error (Run's loop
// converts it to an error Result and still terminates the workflow
// faithfully), anything else becomes a local {status: error} Result so
// the chain's own error navigation decides whether to proceed.
func asNodeResult(err error) (workflow.Result, error) {
	if _, ok := err.(*workflow.ActionLimitError); ok {
		return workflow.Result{}, err
	}
	return errorResult(err), nil
}
