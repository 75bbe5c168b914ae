package workflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/workflow"
)

type scriptedNode struct {
	name    string
	result  workflow.Result
	execErr error
	next    map[workflow.Navigation]string
	actions int
}

func (n *scriptedNode) Name() string { return n.name }

func (n *scriptedNode) Prep(ctx context.Context, shared workflow.Shared, state *workflow.State) map[string]any {
	return map[string]any{}
}

func (n *scriptedNode) Exec(ctx context.Context, prepared map[string]any, actions *workflow.ActionCounter) (workflow.Result, error) {
	for i := 0; i < n.actions; i++ {
		if err := actions.Use(); err != nil {
			return workflow.Result{}, err
		}
	}
	if n.execErr != nil {
		return workflow.Result{}, n.execErr
	}
	return n.result, nil
}

func (n *scriptedNode) Next(nav workflow.Navigation) string {
	return n.next[nav]
}

func TestRunFollowsDefaultChain(t *testing.T) {
	a := &scriptedNode{name: "a", result: workflow.Result{Status: "success"}, next: map[workflow.Navigation]string{workflow.NavDefault: "b"}}
	b := &scriptedNode{name: "b", result: workflow.Result{Status: "success"}, next: map[workflow.Navigation]string{}}

	nodes := map[string]workflow.Node{"a": a, "b": b}
	shared := workflow.Shared{}
	state := workflow.NewState(10)
	tracker := workflow.NewProgressTracker("test")

	res, err := workflow.Run(context.Background(), nodes, "a", shared, state, tracker, nil)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, workflow.StepCompleted, tracker.WorkflowStatus)

	steps := tracker.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, "a", steps[0].Name)
	assert.Equal(t, "b", steps[1].Name)
}

func TestRunRoutesErrorNavigation(t *testing.T) {
	a := &scriptedNode{name: "a", result: workflow.Result{Status: "error", Message: "boom"}, next: map[workflow.Navigation]string{
		workflow.NavDefault: "b",
		workflow.NavError:   "recover",
	}}
	b := &scriptedNode{name: "b", result: workflow.Result{Status: "success"}}
	recover_ := &scriptedNode{name: "recover", result: workflow.Result{Status: "success"}}

	nodes := map[string]workflow.Node{"a": a, "b": b, "recover": recover_}
	shared := workflow.Shared{}
	state := workflow.NewState(10)
	tracker := workflow.NewProgressTracker("test")

	res, err := workflow.Run(context.Background(), nodes, "a", shared, state, tracker, nil)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)

	steps := tracker.Steps()
	assert.Equal(t, "recover", steps[len(steps)-1].Name)
}

func TestActionLimitExceededEndsNodeAsError(t *testing.T) {
	a := &scriptedNode{name: "a", actions: 3, next: map[workflow.Navigation]string{workflow.NavError: ""}}

	nodes := map[string]workflow.Node{"a": a}
	shared := workflow.Shared{}
	state := workflow.NewState(2)
	tracker := workflow.NewProgressTracker("test")

	res, err := workflow.Run(context.Background(), nodes, "a", shared, state, tracker, nil)
	require.NoError(t, err)
	assert.Equal(t, "error", res.Status)
	assert.Contains(t, res.Message, "action limit")
}

func TestUnknownSuccessorSurfacesError(t *testing.T) {
	a := &scriptedNode{name: "a", result: workflow.Result{Status: "success"}, next: map[workflow.Navigation]string{workflow.NavDefault: "missing"}}

	nodes := map[string]workflow.Node{"a": a}
	shared := workflow.Shared{}
	state := workflow.NewState(10)
	tracker := workflow.NewProgressTracker("test")

	_, err := workflow.Run(context.Background(), nodes, "a", shared, state, tracker, nil)
	require.Error(t, err)
}

func TestMilestonesAreTruncatedToFive(t *testing.T) {
	nodes := map[string]workflow.Node{}
	order := []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7"}
	for i, name := range order {
		next := ""
		if i+1 < len(order) {
			next = order[i+1]
		}
		nodes[name] = &scriptedNode{
			name:   name,
			result: workflow.Result{Status: "success"},
			next:   map[workflow.Navigation]string{workflow.NavDefault: next},
		}
	}

	shared := workflow.Shared{}
	state := workflow.NewState(10)
	tracker := workflow.NewProgressTracker("test")

	_, err := workflow.Run(context.Background(), nodes, "n0", shared, state, tracker, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, state.MilestoneCount())

	_, ok := state.StepResult("n0")
	assert.True(t, ok)
}
