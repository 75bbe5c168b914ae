package workflows

import (
	"context"
	"sort"
	"sync"

	"github.com/stackoverflowed/nifimcp/internal/apperr"
	"github.com/stackoverflowed/nifimcp/internal/telemetry"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
	"github.com/stackoverflowed/nifimcp/internal/workflow"
)

// Descriptor is one entry in the workflow catalog: enough metadata to
// list and describe a workflow, plus its compiled node chain and entry
// point, grounded on the registry/get_workflow_info shape
// fastmcp_sse_server.py's /workflows routes expose.
type Descriptor struct {
	Name        string
	Description string
	Category    string
	Phases      []string
	Nodes       map[string]workflow.Node
	Start       string
}

// Catalog holds every guided workflow this middleware ships, analogous to
// internal/toolregistry.Registry but for workflow node chains instead of
// single-dispatch tools.
type Catalog struct {
	mu          sync.RWMutex
	descriptors map[string]Descriptor
}

// NewCatalog builds the catalog and wires every workflow's node chain
// against reg, the tool registry the nodes dispatch through.
func NewCatalog(reg *toolregistry.Registry) *Catalog {
	c := &Catalog{descriptors: make(map[string]Descriptor)}
	c.register(Descriptor{
		Name:        "build_and_start_simple_flow",
		Description: "Creates a process group containing a source and destination processor, connects them, and starts both.",
		Category:    "build",
		Phases:      []string{"Build"},
		Nodes:       buildAndStartSimpleFlow(reg),
		Start:       "create_process_group",
	})
	c.register(Descriptor{
		Name:        "investigate_stalled_connection",
		Description: "Checks a connection's queue depth and analyzes its upstream processor's bulletins for known error patterns.",
		Category:    "debug",
		Phases:      []string{"Debug"},
		Nodes:       investigateStalledConnection(reg),
		Start:       "check_queue",
	})
	return c
}

func (c *Catalog) register(d Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptors[d.Name] = d
}

// List returns every workflow descriptor in name order.
func (c *Catalog) List() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Descriptor, 0, len(c.descriptors))
	for _, d := range c.descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns one workflow's descriptor by name.
func (c *Catalog) Get(name string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.descriptors[name]
	return d, ok
}

// Validate checks that name's start node is defined and that every
// Next() target a node can return either ends the chain ("") or names
// another node present in the same chain — the Go equivalent of
// registry.validate_workflow's structural well-formedness check.
func (c *Catalog) Validate(name string) []string {
	d, ok := c.Get(name)
	if !ok {
		return []string{"unknown workflow"}
	}
	var problems []string
	if _, ok := d.Nodes[d.Start]; !ok {
		problems = append(problems, "start node \""+d.Start+"\" is not defined")
	}
	for nodeName, node := range d.Nodes {
		for _, nav := range []workflow.Navigation{workflow.NavDefault, workflow.NavError, workflow.NavRetry} {
			next := node.Next(nav)
			if next == "" {
				continue
			}
			if _, ok := d.Nodes[next]; !ok {
				problems = append(problems, "node \""+nodeName+"\" navigation \""+string(nav)+"\" targets undefined node \""+next+"\"")
			}
		}
	}
	return problems
}

// Execute runs name's node chain to completion with input merged into a
// fresh Shared map, under actionCeiling and logger.
func (c *Catalog) Execute(ctx context.Context, name string, input map[string]any, actionCeiling int, logger telemetry.Logger) (workflow.Result, *workflow.ProgressTracker, error) {
	d, ok := c.Get(name)
	if !ok {
		return workflow.Result{}, nil, apperr.NotFound("unknown workflow %q", name)
	}

	shared := make(workflow.Shared, len(input))
	for k, v := range input {
		shared[k] = v
	}

	state := workflow.NewState(actionCeiling)
	tracker := workflow.NewProgressTracker(name)

	result, err := workflow.Run(ctx, d.Nodes, d.Start, shared, state, tracker, logger)
	return result, tracker, err
}
