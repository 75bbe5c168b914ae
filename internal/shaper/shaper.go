// Package shaper reduces raw nifi.Entity payloads to the compact,
// LLM-friendly field sets tool responses actually need, trading NiFi's
// verbose wire shape for a handful of fields per entity kind.
package shaper

import "github.com/stackoverflowed/nifimcp/internal/nifi"

func str(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

func nested(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

// Processor summarizes a processor entity for list/get responses.
func Processor(e nifi.Entity) map[string]any {
	comp := e.Component
	config := nested(comp, "config")
	return map[string]any{
		"id":               e.ID,
		"name":             str(comp, "name"),
		"type":             str(comp, "type"),
		"state":            str(comp, "state"),
		"runStatus":        str(e.Status, "runStatus"),
		"validationStatus": str(comp, "validationStatus"),
		"validationErrors": defaultSlice(comp, "validationErrors"),
		"relationships":    defaultSlice(comp, "relationships"),
		"properties":       nested(config, "properties"),
		"version":          e.Revision.Version,
	}
}

// CreatedProcessor summarizes a just-created processor, surfacing
// properties and relationships so the caller's next step can reason about
// them without a follow-up GET.
func CreatedProcessor(e nifi.Entity) map[string]any {
	comp := e.Component
	config := nested(comp, "config")
	return map[string]any{
		"id":               e.ID,
		"name":             str(comp, "name"),
		"type":             str(comp, "type"),
		"validationStatus": str(comp, "validationStatus"),
		"validationErrors": defaultSlice(comp, "validationErrors"),
		"properties":       nested(config, "properties"),
		"relationships":    defaultSlice(comp, "relationships"),
		"version":          e.Revision.Version,
	}
}

// Connection summarizes a connection entity, flattening its source and
// destination references.
func Connection(e nifi.Entity) map[string]any {
	comp := e.Component
	source := nested(comp, "source")
	destination := nested(comp, "destination")
	return map[string]any{
		"id":                     e.ID,
		"uri":                    e.URI,
		"sourceId":               str(source, "id"),
		"sourceGroupId":          str(source, "groupId"),
		"sourceType":             str(source, "type"),
		"sourceName":             str(source, "name"),
		"destinationId":          str(destination, "id"),
		"destinationGroupId":     str(destination, "groupId"),
		"destinationType":        str(destination, "type"),
		"destinationName":        str(destination, "name"),
		"name":                   str(comp, "name"),
		"selectedRelationships":  comp["selectedRelationships"],
		"availableRelationships": comp["availableRelationships"],
		"version":                e.Revision.Version,
	}
}

// Port summarizes an input or output port entity; kind is "INPUT_PORT" or
// "OUTPUT_PORT" since NiFi's own component.type field does not distinguish
// them consistently across API versions.
func Port(e nifi.Entity, kind string) map[string]any {
	comp := e.Component
	return map[string]any{
		"id":                               e.ID,
		"name":                             str(comp, "name"),
		"type":                             kind,
		"state":                            str(comp, "state"),
		"comments":                         str(comp, "comments"),
		"allowRemoteAccess":                comp["allowRemoteAccess"],
		"concurrentlySchedulableTaskCount": comp["concurrentlySchedulableTaskCount"],
		"validationStatus":                str(comp, "validationStatus"),
		"validationErrors":                defaultSlice(comp, "validationErrors"),
		"version":                          e.Revision.Version,
	}
}

// ProcessGroup summarizes a process group entity including its basic
// status rollup when present.
func ProcessGroup(e nifi.Entity) map[string]any {
	comp := e.Component
	status := nested(e.Status, "aggregateSnapshot")
	pc := nested(comp, "parameterContext")
	return map[string]any{
		"id":                      e.ID,
		"name":                    str(comp, "name"),
		"comments":                str(comp, "comments"),
		"parameterContext":        str(pc, "id"),
		"flowfileConcurrency":     str(comp, "flowfileConcurrency"),
		"flowfileOutboundPolicy":  str(comp, "flowfileOutboundPolicy"),
		"runningCount":            str(status, "runningCount"),
		"stoppedCount":            str(status, "stoppedCount"),
		"invalidCount":            str(status, "invalidCount"),
		"disabledCount":           str(status, "disabledCount"),
		"activeRemotePortCount":   str(status, "activeRemotePortCount"),
		"inactiveRemotePortCount": str(status, "inactiveRemotePortCount"),
		"version":                 e.Revision.Version,
	}
}

// ControllerService summarizes a controller service entity.
func ControllerService(e nifi.Entity) map[string]any {
	comp := e.Component
	config := nested(comp, "config")
	return map[string]any{
		"id":                    e.ID,
		"name":                  str(comp, "name"),
		"type":                  str(comp, "type"),
		"state":                 str(comp, "state"),
		"comments":              str(comp, "comments"),
		"validationStatus":      str(comp, "validationStatus"),
		"validationErrors":      defaultSlice(comp, "validationErrors"),
		"properties":            nested(config, "properties"),
		"referencingComponents": defaultSlice(comp, "referencingComponents"),
		"version":               e.Revision.Version,
		"bundle":                comp["bundle"],
		"controllerServiceApis": defaultSlice(comp, "controllerServiceApis"),
	}
}

// DropRequest summarizes a drop-request entity for the purge_flowfiles
// tool.
func DropRequest(d nifi.DropRequest) map[string]any {
	return map[string]any{
		"id":       d.ID,
		"finished": d.Finished,
		"state":    d.State,
		"current":  d.Current,
	}
}

func defaultSlice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}
