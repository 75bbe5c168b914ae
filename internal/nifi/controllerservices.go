package nifi

import "context"

type controllerServiceListResponse struct {
	ControllerServices []Entity `json:"controllerServices"`
}

// ListControllerServices returns every controller service scoped to
// groupID (NiFi resolves inherited services from ancestor groups too).
func (c *Client) ListControllerServices(ctx context.Context, groupID string) ([]Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.list_controller_services")
	defer span.End()

	var resp controllerServiceListResponse
	if err := c.doJSON(ctx, "GET", "/flow/process-groups/"+groupID+"/controller-services", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ControllerServices, nil
}

// GetControllerService fetches one controller service's current state and
// revision.
func (c *Client) GetControllerService(ctx context.Context, id string) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.get_controller_service")
	defer span.End()

	var e Entity
	if err := c.doJSON(ctx, "GET", "/controller-services/"+id, nil, nil, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// CreateControllerService creates a controller service of the given type
// under groupID.
func (c *Client) CreateControllerService(ctx context.Context, groupID, serviceType, name string, component map[string]any) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.create_controller_service")
	defer span.End()

	comp := map[string]any{"type": serviceType, "name": name}
	for k, v := range component {
		comp[k] = v
	}
	body := map[string]any{
		"revision":  Revision{ClientID: c.clientID, Version: 0},
		"component": comp,
	}

	var e Entity
	if err := c.doJSON(ctx, "POST", "/process-groups/"+groupID+"/controller-services", nil, body, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// UpdateControllerServiceProperties applies a configuration patch, carrying
// the last-observed revision.
func (c *Client) UpdateControllerServiceProperties(ctx context.Context, id string, rev Revision, update map[string]any) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.update_controller_service_properties")
	defer span.End()

	rev.ClientID = c.clientID
	comp := map[string]any{"id": id}
	for k, v := range update {
		comp[k] = v
	}
	body := map[string]any{"revision": rev, "component": comp}

	var e Entity
	if err := c.doJSON(ctx, "PUT", "/controller-services/"+id, nil, body, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// UpdateControllerServiceRunState transitions a controller service to state
// ("ENABLED" or "DISABLED").
func (c *Client) UpdateControllerServiceRunState(ctx context.Context, id string, rev Revision, state string) (Entity, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.update_controller_service_run_state")
	defer span.End()

	rev.ClientID = c.clientID
	body := map[string]any{"revision": rev, "state": state}

	var e Entity
	if err := c.doJSON(ctx, "PUT", "/controller-services/"+id+"/run-status", nil, body, &e); err != nil {
		return Entity{}, err
	}
	return e, nil
}

// DeleteControllerService deletes a controller service at rev; already-gone
// is success.
func (c *Client) DeleteControllerService(ctx context.Context, id string, rev Revision) error {
	ctx, span := c.tracer.Start(ctx, "nifi.delete_controller_service")
	defer span.End()

	rev.ClientID = c.clientID
	err := c.doJSON(ctx, "DELETE", "/controller-services/"+id, revisionQuery(rev), nil, nil)
	return ignoreAlreadyGone(err)
}
