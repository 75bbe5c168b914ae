package nifi

import "context"

// PortKind distinguishes input and output ports, which NiFi exposes under
// distinct REST sub-resources despite sharing an entity shape.
type PortKind string

const (
	InputPort  PortKind = "input-port"
	OutputPort PortKind = "output-port"
)

type portListResponse struct {
	InputPorts  []Entity `json:"inputPorts"`
	OutputPorts []Entity `json:"outputPorts"`
}

// ListPorts returns every input and output port directly under groupID.
func (c *Client) ListPorts(ctx context.Context, groupID string) (inputs, outputs []Entity, err error) {
	ctx, span := c.tracer.Start(ctx, "nifi.list_ports")
	defer span.End()

	var resp portListResponse
	if err := c.doJSON(ctx, "GET", "/process-groups/"+groupID+"/input-ports", nil, nil, &struct {
		InputPorts *[]Entity `json:"inputPorts"`
	}{InputPorts: &resp.InputPorts}); err != nil {
		return nil, nil, err
	}
	if err := c.doJSON(ctx, "GET", "/process-groups/"+groupID+"/output-ports", nil, nil, &struct {
		OutputPorts *[]Entity `json:"outputPorts"`
	}{OutputPorts: &resp.OutputPorts}); err != nil {
		return nil, nil, err
	}
	return resp.InputPorts, resp.OutputPorts, nil
}

// GetPort fetches a port by id, trying the input-port endpoint first and
// falling back to the output-port endpoint on a 404. NiFi's REST API
// requires the caller to know a port's kind in advance; since tool callers
// frequently don't, this fallback (spec.md §4.A) hides that asymmetry
// behind a single lookup. If both endpoints 404, the output-port NotFound
// error is surfaced.
func (c *Client) GetPort(ctx context.Context, id string) (Entity, PortKind, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.get_port")
	defer span.End()

	var e Entity
	if err := c.doJSON(ctx, "GET", "/input-ports/"+id, nil, nil, &e); err == nil {
		return e, InputPort, nil
	} else if ae, ok := asAppErr(err); !ok || ae.Kind != kindNotFound {
		return Entity{}, "", err
	}

	if err := c.doJSON(ctx, "GET", "/output-ports/"+id, nil, nil, &e); err != nil {
		return Entity{}, "", err
	}
	return e, OutputPort, nil
}

// CreatePort creates a port of the given kind under groupID.
func (c *Client) CreatePort(ctx context.Context, groupID string, kind PortKind, name string, x, y float64) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.create_port")
	defer span.End()

	body := map[string]any{
		"revision": Revision{ClientID: c.clientID, Version: 0},
		"component": map[string]any{
			"name":     name,
			"position": map[string]float64{"x": x, "y": y},
		},
	}

	var e Entity
	path := "/process-groups/" + groupID + "/" + string(kind) + "s"
	if err := c.doJSON(ctx, "POST", path, nil, body, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// UpdatePortRunState transitions a port (of known kind) to state ("RUNNING"
// or "STOPPED"; ports have no DISABLED state).
func (c *Client) UpdatePortRunState(ctx context.Context, id string, kind PortKind, rev Revision, state string) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.update_port_run_state")
	defer span.End()

	rev.ClientID = c.clientID
	body := map[string]any{"revision": rev, "state": state}

	var e Entity
	path := "/" + string(kind) + "s/" + id + "/run-status"
	if err := c.doJSON(ctx, "PUT", path, nil, body, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// DeletePort deletes a port of known kind at rev; already-gone is success.
func (c *Client) DeletePort(ctx context.Context, id string, kind PortKind, rev Revision) error {
	ctx, span := c.tracer.Start(ctx, "nifi.delete_port")
	defer span.End()

	rev.ClientID = c.clientID
	path := "/" + string(kind) + "s/" + id
	err := c.doJSON(ctx, "DELETE", path, revisionQuery(rev), nil, nil)
	return ignoreAlreadyGone(err)
}
