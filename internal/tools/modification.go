package tools

import (
	"context"

	"github.com/stackoverflowed/nifimcp/internal/batch"
	"github.com/stackoverflowed/nifimcp/internal/nifi"
	"github.com/stackoverflowed/nifimcp/internal/shaper"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
)

// createNiFiProcessor mirrors modification.py's creation tools: position
// coordinates default to the origin when the caller omits them.
func createNiFiProcessor(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	groupID := optString(args, "process_group_id", "root")
	processorType, err := requireString(args, "processor_type")
	if err != nil {
		return nil, err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	component := map[string]any{}
	if props, ok := args["properties"].(map[string]any); ok {
		component["config"] = map[string]any{"properties": props}
	}

	e, err := client.CreateProcessor(ctx, groupID, processorType, name, optFloat(args, "x", 0), optFloat(args, "y", 0), component)
	if err != nil {
		return nil, err
	}
	return shaper.CreatedProcessor(e), nil
}

func createNiFiPort(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	groupID := optString(args, "process_group_id", "root")
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	portType, err := requireString(args, "port_type")
	if err != nil {
		return nil, err
	}
	kind := nifi.InputPort
	if portType == "output" || portType == "output_port" {
		kind = nifi.OutputPort
	}

	e, err := client.CreatePort(ctx, groupID, kind, name, optFloat(args, "x", 0), optFloat(args, "y", 0))
	if err != nil {
		return nil, err
	}
	return shaper.Port(e, string(kind)), nil
}

func createNiFiProcessGroup(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	parentID := optString(args, "parent_process_group_id", "root")
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}

	e, err := client.CreateProcessGroup(ctx, parentID, name, optFloat(args, "x", 0), optFloat(args, "y", 0))
	if err != nil {
		return nil, err
	}
	return shaper.ProcessGroup(e), nil
}

func createNiFiControllerService(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	groupID := optString(args, "process_group_id", "root")
	serviceType, err := requireString(args, "service_type")
	if err != nil {
		return nil, err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	component := map[string]any{}
	if props, ok := args["properties"].(map[string]any); ok {
		component["properties"] = props
	}

	e, err := client.CreateControllerService(ctx, groupID, serviceType, name, component)
	if err != nil {
		return nil, err
	}
	return shaper.ControllerService(e), nil
}

// createNiFiConnections mirrors modification.py's batch connection
// creation: each entry resolves source_name/target_name against the
// processors and ports of group_id (internal/validate has already
// converted legacy source_id/target_id fields by the time this handler
// runs).
func createNiFiConnections(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := requireList(args, "connections")
	if err != nil {
		return nil, err
	}

	items := make([]batch.Item, len(entries))
	for i, raw := range entries {
		items[i] = batch.Item{Index: i, Echo: raw}
	}

	results := batch.Run(items, func(item batch.Item) batch.Result {
		conn, err := requireMap(item.Echo, "connection entry")
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		groupID := optString(conn, "process_group_id", "root")
		sourceName, _ := conn["source_name"].(string)
		targetName, _ := conn["target_name"].(string)
		relationships := toStringSlice(conn["relationships"])

		sourceID, sourceKind, err := resolveComponentByName(ctx, client, groupID, sourceName)
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		targetID, targetKind, err := resolveComponentByName(ctx, client, groupID, targetName)
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}

		source := nifi.ConnectableRef{ID: sourceID, GroupID: groupID, Type: sourceKind}
		destination := nifi.ConnectableRef{ID: targetID, GroupID: groupID, Type: targetKind}

		e, err := client.CreateConnection(ctx, groupID, source, destination, relationships, optString(conn, "name", ""))
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		return batch.Result{Status: batch.StatusSuccess, Entity: shaper.Connection(e)}
	})

	return map[string]any{"results": results, "summary": batch.Summarize(results)}, nil
}

// updateNiFiProcessorsProperties mirrors modification.py's
// update_nifi_processor_properties, batched: each update replaces a
// processor's full property map, refusing RUNNING processors the same way
// the original does.
func updateNiFiProcessorsProperties(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := requireList(args, "updates")
	if err != nil {
		return nil, err
	}

	items := make([]batch.Item, len(entries))
	for i, raw := range entries {
		items[i] = batch.Item{Index: i, Echo: raw}
	}

	results := batch.Run(items, func(item batch.Item) batch.Result {
		update, err := requireMap(item.Echo, "update entry")
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		processorID, _ := update["processor_id"].(string)
		if processorID == "" {
			return batch.Result{Status: batch.StatusError, Message: "update entry missing 'processor_id'"}
		}
		properties, ok := update["properties"].(map[string]any)
		if !ok || len(properties) == 0 {
			return batch.Result{Status: batch.StatusError, Message: "update entry 'properties' must be a non-empty object"}
		}

		current, err := client.GetProcessor(ctx, processorID)
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		if state, _ := current.Component["state"].(string); state == "RUNNING" {
			return batch.Result{Status: batch.StatusError, Message: "processor " + processorID + " is RUNNING; stop it before updating properties"}
		}

		e, err := client.UpdateProcessorProperties(ctx, processorID, current.Revision, map[string]any{"config": map[string]any{"properties": properties}})
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}

		status := batch.StatusSuccess
		message := "processor properties updated successfully"
		if vs, _ := e.Component["validationStatus"].(string); vs != "" && vs != "VALID" {
			status = batch.StatusWarning
			message = "processor properties updated, but validation status is " + vs
		}
		return batch.Result{Status: status, Message: message, Entity: shaper.CreatedProcessor(e)}
	})

	return map[string]any{"results": results, "summary": batch.Summarize(results)}, nil
}

// updateNiFiConnection mirrors modification.py's update_nifi_connection,
// batched: each update patches a connection's relationships and/or name.
// An empty relationships list is refused per spec.md §8's boundary
// behavior — a connection with no terminating relationship silently
// orphans traffic, so the caller is pointed at delete_nifi_objects
// instead.
func updateNiFiConnection(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := requireList(args, "updates")
	if err != nil {
		return nil, err
	}

	items := make([]batch.Item, len(entries))
	for i, raw := range entries {
		items[i] = batch.Item{Index: i, Echo: raw}
	}

	results := batch.Run(items, func(item batch.Item) batch.Result {
		update, err := requireMap(item.Echo, "update entry")
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		connectionID, _ := update["connection_id"].(string)
		if connectionID == "" {
			return batch.Result{Status: batch.StatusError, Message: "update entry missing 'connection_id'"}
		}

		patch := map[string]any{}
		if rels, has := update["relationships"]; has {
			relationships := toStringSlice(rels)
			if len(relationships) == 0 {
				return batch.Result{Status: batch.StatusError, Message: "connection " + connectionID + " cannot be updated with an empty relationships list; use delete_nifi_objects to remove it instead"}
			}
			patch["selectedRelationships"] = relationships
		}
		if name, ok := update["name"].(string); ok && name != "" {
			patch["name"] = name
		}
		if len(patch) == 0 {
			return batch.Result{Status: batch.StatusError, Message: "update entry for connection " + connectionID + " has nothing to change"}
		}

		current, err := client.GetConnection(ctx, connectionID)
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		e, err := client.UpdateConnection(ctx, connectionID, current.Revision, patch)
		if err != nil {
			return batch.Result{Status: batch.StatusError, Message: err.Error()}
		}
		return batch.Result{Status: batch.StatusSuccess, Message: "connection updated successfully", Entity: shaper.Connection(e)}
	})

	return map[string]any{"results": results, "summary": batch.Summarize(results)}, nil
}

// deleteNiFiObjects mirrors modification.py's delete_nifi_object, batched
// and ordered connections-first/groups-last via internal/batch's deletion
// tier so in-flight references don't block a single mixed-type batch.
func deleteNiFiObjects(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := requireList(args, "objects")
	if err != nil {
		return nil, err
	}

	objectTypes := make([]string, len(entries))
	for i, raw := range entries {
		obj, _ := raw.(map[string]any)
		objectTypes[i], _ = obj["object_type"].(string)
	}
	order := batch.OrderForDeletion(objectTypes)

	results := make([]batch.Result, len(entries))
	for _, idx := range order {
		obj, err := requireMap(entries[idx], "delete entry")
		if err != nil {
			results[idx] = batch.Result{RequestIndex: idx, Echo: entries[idx], Status: batch.StatusError, Message: err.Error()}
			continue
		}
		objectType, _ := obj["object_type"].(string)
		objectID, _ := obj["object_id"].(string)
		results[idx] = deleteOneObject(ctx, client, idx, entries[idx], objectType, objectID)
	}

	return map[string]any{"results": results, "summary": batch.Summarize(results)}, nil
}

func deleteOneObject(ctx context.Context, client *nifi.Client, index int, echo any, objectType, objectID string) batch.Result {
	fail := func(msg string) batch.Result {
		return batch.Result{RequestIndex: index, Echo: echo, Status: batch.StatusError, Message: msg}
	}
	ok := func() batch.Result {
		return batch.Result{RequestIndex: index, Echo: echo, Status: batch.StatusSuccess, Message: objectType + " " + objectID + " deleted"}
	}

	switch objectType {
	case "processor":
		e, err := client.GetProcessor(ctx, objectID)
		if err != nil {
			return fail(err.Error())
		}
		if err := client.DeleteProcessor(ctx, objectID, e.Revision); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "connection":
		e, err := client.GetConnection(ctx, objectID)
		if err != nil {
			return fail(err.Error())
		}
		if err := client.DeleteConnection(ctx, objectID, e.Revision); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "input_port", "output_port", "port":
		e, kind, err := client.GetPort(ctx, objectID)
		if err != nil {
			return fail(err.Error())
		}
		if err := client.DeletePort(ctx, objectID, kind, e.Revision); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "controller_service":
		e, err := client.GetControllerService(ctx, objectID)
		if err != nil {
			return fail(err.Error())
		}
		if err := client.DeleteControllerService(ctx, objectID, e.Revision); err != nil {
			return fail(err.Error())
		}
		return ok()
	case "process_group":
		e, err := client.GetProcessGroup(ctx, objectID)
		if err != nil {
			return fail(err.Error())
		}
		if err := client.DeleteProcessGroup(ctx, objectID, e.Revision); err != nil {
			return fail(err.Error())
		}
		return ok()
	default:
		return fail("unknown object_type " + objectType)
	}
}

// RegisterModificationTools adds the create/update/delete tools to reg.
func RegisterModificationTools(reg *toolregistry.Registry) {
	reg.Register(toolregistry.Descriptor{
		Name:        "create_nifi_processor",
		Description: "Creates a new processor in a process group.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"processor_type", "name"},
			"properties": map[string]any{
				"process_group_id": map[string]any{"type": "string"},
				"processor_type":   map[string]any{"type": "string"},
				"name":             map[string]any{"type": "string"},
				"properties":       map[string]any{"type": "object"},
				"x":                map[string]any{"type": "number"},
				"y":                map[string]any{"type": "number"},
			},
		},
		Phases:  []string{"Build"},
		Handler: createNiFiProcessor,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "create_nifi_port",
		Description: "Creates a new input or output port in a process group.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"name", "port_type"},
			"properties": map[string]any{
				"process_group_id": map[string]any{"type": "string"},
				"name":             map[string]any{"type": "string"},
				"port_type":        map[string]any{"type": "string", "enum": []any{"input", "output"}},
				"x":                map[string]any{"type": "number"},
				"y":                map[string]any{"type": "number"},
			},
		},
		Phases:  []string{"Build"},
		Handler: createNiFiPort,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "create_nifi_process_group",
		Description: "Creates a new child process group.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"name"},
			"properties": map[string]any{
				"parent_process_group_id": map[string]any{"type": "string"},
				"name":                    map[string]any{"type": "string"},
				"x":                       map[string]any{"type": "number"},
				"y":                       map[string]any{"type": "number"},
			},
		},
		Phases:  []string{"Build"},
		Handler: createNiFiProcessGroup,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "create_nifi_controller_service",
		Description: "Creates a new controller service in a process group.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"service_type", "name"},
			"properties": map[string]any{
				"process_group_id": map[string]any{"type": "string"},
				"service_type":     map[string]any{"type": "string"},
				"name":             map[string]any{"type": "string"},
				"properties":       map[string]any{"type": "object"},
			},
		},
		Phases:  []string{"Build"},
		Handler: createNiFiControllerService,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "create_nifi_connections",
		Description: "Creates one or more connections between named components in a process group.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"connections"},
			"properties": map[string]any{
				"connections": map[string]any{"type": "array"},
			},
		},
		Phases:  []string{"Build"},
		Handler: createNiFiConnections,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "update_nifi_processors_properties",
		Description: "Replaces the property map of one or more processors, refusing any that are currently running.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"updates"},
			"properties": map[string]any{
				"updates": map[string]any{"type": "array"},
			},
		},
		Phases:  []string{"Modify"},
		Handler: updateNiFiProcessorsProperties,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "update_nifi_connection",
		Description: "Patches one or more connections' relationships and/or name, refusing an empty relationships list.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"updates"},
			"properties": map[string]any{
				"updates": map[string]any{"type": "array"},
			},
		},
		Phases:  []string{"Modify"},
		Handler: updateNiFiConnection,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "delete_nifi_objects",
		Description: "Deletes one or more NiFi objects, ordering deletions connections-first and process-groups-last.",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"objects"},
			"properties": map[string]any{
				"objects": map[string]any{"type": "array"},
			},
		},
		Phases:  []string{"Modify"},
		Handler: deleteNiFiObjects,
	})
}
