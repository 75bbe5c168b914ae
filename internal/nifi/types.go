package nifi

import "context"

// DocumentedType is one entry from NiFi's extension-type catalogs
// (processor types, controller service types, reporting task types):
// enough to populate a tool's enum/autocomplete surface without pulling in
// the full bundle/tag detail NiFi also returns.
type DocumentedType struct {
	Type           string   `json:"type"`
	BundleGroup    string   `json:"bundleGroupId,omitempty"`
	BundleArtifact string   `json:"bundleArtifactId,omitempty"`
	BundleVersion  string   `json:"bundleVersionId,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	Description    string   `json:"description,omitempty"`
}

type documentedTypesEnvelope struct {
	ProcessorTypes         []DocumentedType `json:"processorTypes"`
	ControllerServiceTypes []DocumentedType `json:"controllerServiceTypes"`
}

// ListProcessorTypes returns every processor type NiFi's bundled and
// installed NARs make available.
func (c *Client) ListProcessorTypes(ctx context.Context) ([]DocumentedType, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.list_processor_types")
	defer span.End()

	var resp documentedTypesEnvelope
	if err := c.doJSON(ctx, "GET", "/flow/processor-types", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ProcessorTypes, nil
}

// ListControllerServiceTypes returns every controller service type NiFi's
// bundled and installed NARs make available.
func (c *Client) ListControllerServiceTypes(ctx context.Context) ([]DocumentedType, error) {
	ctx, span := c.tracer.Start(ctx, "nifi.list_controller_service_types")
	defer span.End()

	var resp documentedTypesEnvelope
	if err := c.doJSON(ctx, "GET", "/flow/controller-service-types", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.ControllerServiceTypes, nil
}
