// Package workflow implements the guided-workflow executor: a linear chain
// of nodes run single-threaded and synchronously within one request, each
// carrying its own action-count ceiling, with shared state, curated
// milestone context, and a navigation label deciding the next node.
package workflow

import (
	"context"
	"fmt"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/telemetry"
)

// Navigation is the label a node's Post returns to pick the next node in
// the chain.
type Navigation string

const (
	NavDefault Navigation = "default"
	NavError   Navigation = "error"
	NavRetry   Navigation = "retry"
)

// Result is one node's Exec outcome.
type Result struct {
	Status  string `json:"status"` // "success", "error", "retry"
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	// ErrorType classifies a Status=="error" result for callers that need
	// to branch on cause rather than parse Message, e.g.
	// "action_limit_exceeded" when a node's ActionCounter was exhausted.
	ErrorType string `json:"error_type,omitempty"`
}

// navigationFor maps a Result to its default navigation label, mirroring
// base_node.py's _determine_navigation_key: error/retry status strings
// route explicitly, anything else (including a nil Result) defaults
// forward.
func navigationFor(r Result) Navigation {
	switch r.Status {
	case "error":
		return NavError
	case "retry":
		return NavRetry
	default:
		return NavDefault
	}
}

// Shared is the mutable state threaded through an entire workflow run: one
// map instance, read and written by every node's Prep/Exec/Post.
type Shared map[string]any

// Node is one step in a workflow chain.
type Node interface {
	// Name uniquely identifies this node within its workflow.
	Name() string
	// Prep curates the context view (shared state + recent results +
	// key milestones) the node's Exec receives.
	Prep(ctx context.Context, shared Shared, state *State) map[string]any
	// Exec runs the node's body. actions is this node's own dispatcher,
	// which enforces the action-count ceiling (see State.NewActionCounter).
	Exec(ctx context.Context, prepared map[string]any, actions *ActionCounter) (Result, error)
	// Next maps a navigation label to the next node's name, or "" to end
	// the workflow. A node with only one successor should return that
	// successor's name for NavDefault and "" otherwise.
	Next(nav Navigation) string
}

// ErrorTypeActionLimitExceeded is the Result.ErrorType value set when a
// node's ActionCounter is exhausted, matching spec.md §3's "violation
// terminates the workflow with action_limit_exceeded".
const ErrorTypeActionLimitExceeded = "action_limit_exceeded"

// ActionLimitError is returned by ActionCounter.Use once a node has spent
// its configured ceiling of tool calls.
type ActionLimitError struct {
	NodeName string
	Limit    int
}

func (e *ActionLimitError) Error() string {
	return fmt.Sprintf("action limit (%d) reached for node %q", e.Limit, e.NodeName)
}

// ActionCounter enforces a per-node ceiling on the number of tool
// invocations a node's Exec may make.
type ActionCounter struct {
	nodeName string
	limit    int
	used     int
}

// Use increments the counter and returns ActionLimitError once limit is
// exceeded. Call once per tool dispatch inside a node's Exec.
func (a *ActionCounter) Use() error {
	if a.used >= a.limit {
		return &ActionLimitError{NodeName: a.nodeName, Limit: a.limit}
	}
	a.used++
	return nil
}

// Used reports how many actions this counter has recorded.
func (a *ActionCounter) Used() int { return a.used }

// milestone is one entry in State's curated key-milestones list.
type milestone struct {
	Step   string `json:"step"`
	Result Result `json:"result"`
}

const maxMilestones = 5

// State tracks cross-node bookkeeping: per-node action counts and a
// bounded list of "key milestones" (successful step results), truncated
// to the most recent 5 entries when curated for a node's Prep, matching
// the original's context_manager.py.
type State struct {
	actionCeiling int
	stepResults   map[string]Result
	milestones    []milestone
}

// NewState constructs workflow run state with actionCeiling applied to
// every node's ActionCounter.
func NewState(actionCeiling int) *State {
	return &State{actionCeiling: actionCeiling, stepResults: make(map[string]Result)}
}

// NewActionCounter returns a fresh per-node counter bound to this state's
// configured ceiling.
func (s *State) NewActionCounter(nodeName string) *ActionCounter {
	return &ActionCounter{nodeName: nodeName, limit: s.actionCeiling}
}

// recordStep stores a node's result and, if it looks like a milestone
// (status absent or "success"), appends it to the bounded milestone list.
func (s *State) recordStep(name string, r Result) {
	s.stepResults[name] = r
	if r.Status == "" || r.Status == "success" {
		s.milestones = append(s.milestones, milestone{Step: name, Result: r})
		if len(s.milestones) > maxMilestones {
			s.milestones = s.milestones[len(s.milestones)-maxMilestones:]
		}
	}
}

// curatedContext returns the {recent step results, key milestones} view a
// node's Prep should merge into its returned context.
func (s *State) curatedContext() map[string]any {
	return map[string]any{
		"step_results":   s.stepResults,
		"key_milestones": s.milestones,
	}
}

// StepResult returns the recorded Result for a previously run node, if
// any.
func (s *State) StepResult(name string) (Result, bool) {
	r, ok := s.stepResults[name]
	return r, ok
}

// MilestoneCount reports how many key milestones are currently retained
// (bounded by maxMilestones).
func (s *State) MilestoneCount() int {
	return len(s.milestones)
}

// StepStatus is one node's lifecycle status within the run's progress
// tracker.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepPreparing StepStatus = "preparing"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// StepInfo is one entry in a ProgressTracker's step table.
type StepInfo struct {
	Name         string     `json:"name"`
	Status       StepStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ActionCount  int        `json:"action_count"`
}

// ProgressTracker records step-by-step status for a single workflow run.
type ProgressTracker struct {
	WorkflowName   string
	WorkflowStatus StepStatus
	steps          map[string]*StepInfo
	order          []string
}

// NewProgressTracker constructs a tracker for workflowName, initially
// pending.
func NewProgressTracker(workflowName string) *ProgressTracker {
	return &ProgressTracker{
		WorkflowName:   workflowName,
		WorkflowStatus: StepPending,
		steps:          make(map[string]*StepInfo),
	}
}

// Start marks the tracker's workflow as running.
func (p *ProgressTracker) Start() { p.WorkflowStatus = StepRunning }

// Complete marks the tracker's workflow finished, successfully or not.
func (p *ProgressTracker) Complete(success bool) {
	if success {
		p.WorkflowStatus = StepCompleted
	} else {
		p.WorkflowStatus = StepFailed
	}
}

// UpdateStep sets step's status (creating its entry on first use) and
// optional error message. actionCount, when non-negative, overwrites the
// step's recorded action count; pass -1 from call sites that haven't run
// Exec yet and so have nothing to report.
func (p *ProgressTracker) UpdateStep(step string, status StepStatus, errMsg string, actionCount int) {
	info, ok := p.steps[step]
	if !ok {
		info = &StepInfo{Name: step}
		p.steps[step] = info
		p.order = append(p.order, step)
	}
	info.Status = status
	if errMsg != "" {
		info.ErrorMessage = errMsg
	}
	if actionCount >= 0 {
		info.ActionCount = actionCount
	}
}

// Steps returns every tracked step in the order first encountered.
func (p *ProgressTracker) Steps() []StepInfo {
	out := make([]StepInfo, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, *p.steps[name])
	}
	return out
}

// Run executes the chain starting at the node named start, following
// Next(navigation) until a node returns "". A node that exhausts its action
// ceiling ends the run with an action_limit_exceeded error Result. It never
// panics on a successor name missing from nodes; instead it ends the run
// with an Internal error, returned alongside the last node's result.
func Run(ctx context.Context, nodes map[string]Node, start string, shared Shared, state *State, tracker *ProgressTracker, logger telemetry.Logger) (Result, error) {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	tracker.Start()

	name := start
	var last Result
	for name != "" {
		node, ok := nodes[name]
		if !ok {
			return last, apperr.Internal(fmt.Errorf("workflow: unknown node %q", name), "workflow chain references an undefined node")
		}

		tracker.UpdateStep(name, StepPreparing, "", -1)
		prepared := node.Prep(ctx, shared, state)
		mergeCurated(prepared, state.curatedContext())

		tracker.UpdateStep(name, StepRunning, "", -1)
		counter := state.NewActionCounter(name)
		result, err := node.Exec(ctx, prepared, counter)
		if err != nil {
			var limitErr *ActionLimitError
			if ae, ok := err.(*ActionLimitError); ok {
				limitErr = ae
			}
			if limitErr != nil {
				logger.Warn(ctx, "workflow node hit its action ceiling", "node", name, "limit", limitErr.Limit)
				result = Result{Status: "error", Message: limitErr.Error(), ErrorType: ErrorTypeActionLimitExceeded}
			} else {
				tracker.UpdateStep(name, StepFailed, err.Error(), counter.Used())
				tracker.Complete(false)
				return last, err
			}
		}

		shared[name+"_result"] = result
		shared[name+"_action_count"] = counter.Used()
		state.recordStep(name, result)

		if result.Status == "error" {
			tracker.UpdateStep(name, StepFailed, result.Message, counter.Used())
		} else {
			tracker.UpdateStep(name, StepCompleted, "", counter.Used())
		}

		last = result
		if result.ErrorType == ErrorTypeActionLimitExceeded {
			break
		}
		nav := navigationFor(result)
		name = node.Next(nav)
	}

	tracker.Complete(last.Status != "error")
	return last, nil
}

func mergeCurated(dst map[string]any, curated map[string]any) {
	for k, v := range curated {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
}
