package nifi

import "context"

// GetProcessGroup fetches one process group's current state and revision.
func (c *Client) GetProcessGroup(ctx context.Context, id string) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.get_process_group")
	defer span.End()

	var e Entity
	if err := c.doJSON(ctx, "GET", "/process-groups/"+id, nil, nil, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// CreateProcessGroup creates a child process group named name under
// parentID at position (x, y).
func (c *Client) CreateProcessGroup(ctx context.Context, parentID, name string, x, y float64) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.create_process_group")
	defer span.End()

	body := map[string]any{
		"revision": Revision{ClientID: c.clientID, Version: 0},
		"component": map[string]any{
			"name":     name,
			"position": map[string]float64{"x": x, "y": y},
		},
	}

	var e Entity
	if err := c.doJSON(ctx, "POST", "/process-groups/"+parentID+"/process-groups", nil, body, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// UpdateProcessGroup applies a component patch (name, comments, etc.) to an
// existing process group, carrying the last-observed revision.
func (c *Client) UpdateProcessGroup(ctx context.Context, id string, rev Revision, update map[string]any) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.update_process_group")
	defer span.End()

	rev.ClientID = c.clientID
	comp := map[string]any{"id": id}
	for k, v := range update {
		comp[k] = v
	}
	body := map[string]any{"revision": rev, "component": comp}

	var e Entity
	if err := c.doJSON(ctx, "PUT", "/process-groups/"+id, nil, body, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// DeleteProcessGroup deletes a process group at rev; already-gone is
// success. NiFi refuses to delete a non-empty process group, surfacing a
// 409 that maps to apperr.KindConflict — callers needing recursive
// teardown must empty it first (see internal/batch's delete-tier
// ordering).
func (c *Client) DeleteProcessGroup(ctx context.Context, id string, rev Revision) error {
	ctx, span := c.tracer.Start(ctx, "nifi.delete_process_group")
	defer span.End()

	rev.ClientID = c.clientID
	err := c.doJSON(ctx, "DELETE", "/process-groups/"+id, revisionQuery(rev), nil, nil)
	return ignoreAlreadyGone(err)
}

// ProcessGroupFlow is the nested snapshot NiFi returns from
// /flow/process-groups/{id}: the group's direct children of every kind,
// used both for flow search (internal/tools) and status rollups.
type ProcessGroupFlow struct {
	ProcessGroupFlow struct {
		ID   string `json:"id"`
		Flow struct {
			ProcessGroups      []Entity `json:"processGroups"`
			Processors         []Entity `json:"processors"`
			Connections        []Entity `json:"connections"`
			InputPorts         []Entity `json:"inputPorts"`
			OutputPorts        []Entity `json:"outputPorts"`
			ControllerServices []Entity `json:"controllerServices"`
		} `json:"flow"`
	} `json:"processGroupFlow"`
}

// GetProcessGroupFlow fetches the one-level-deep snapshot of a process
// group's contents.
func (c *Client) GetProcessGroupFlow(ctx context.Context, id string) (ProcessGroupFlow, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.get_process_group_flow")
	defer span.End()

	var flow ProcessGroupFlow
	if err := c.doJSON(ctx, "GET", "/flow/process-groups/"+id, nil, nil, &flow); err != nil {
		return ProcessGroupFlow{}, err
	}
	return flow, nil
}

// ProcessGroupStatusSnapshot mirrors NiFi's
// /flow/process-groups/{id}/status response: aggregate throughput and
// queue counters for the group, used by the supplemented
// get_process_group_status tool (see SPEC_FULL.md).
type ProcessGroupStatusSnapshot struct {
	ProcessGroupStatus struct {
		ID                string         `json:"id"`
		Name              string         `json:"name"`
		AggregateSnapshot map[string]any `json:"aggregateSnapshot"`
	} `json:"processGroupStatus"`
}

// GetProcessGroupStatus fetches the status rollup for a process group.
func (c *Client) GetProcessGroupStatus(ctx context.Context, id string) (ProcessGroupStatusSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.get_process_group_status")
	defer span.End()

	var snap ProcessGroupStatusSnapshot
	if err := c.doJSON(ctx, "GET", "/flow/process-groups/"+id+"/status", nil, nil, &snap); err != nil {
		return ProcessGroupStatusSnapshot{}, err
	}
	return snap, nil
}
