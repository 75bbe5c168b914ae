package tools

import (
	"context"
	"strings"

	"github.com/stackoverflowed/nifimcp/internal/nifi"
	"github.com/stackoverflowed/nifimcp/internal/toolregistry"
)

// optionalFilterSchema accepts an optional name/bundle-artifact filter
// pair, matching lookup.py/helpers.py's get_*_types tools.
var optionalFilterSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":                   map[string]any{"type": "string"},
		"bundle_artifact_filter": map[string]any{"type": "string"},
	},
}

func lookupProcessorTypes(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	all, err := client.ListProcessorTypes(ctx)
	if err != nil {
		return nil, err
	}
	return filterDocumentedTypes(all, optString(args, "name", ""), optString(args, "bundle_artifact_filter", "")), nil
}

func lookupControllerServiceTypes(ctx context.Context, args map[string]any) (any, error) {
	client, err := clientFrom(ctx)
	if err != nil {
		return nil, err
	}
	all, err := client.ListControllerServiceTypes(ctx)
	if err != nil {
		return nil, err
	}
	return filterDocumentedTypes(all, optString(args, "name", ""), optString(args, "bundle_artifact_filter", "")), nil
}

// filterDocumentedTypes mirrors helpers.py's _format_*_type_summary plus
// its callers' name/bundle-artifact filtering: an unfiltered call returns
// every type; a name filter returns every case-insensitive substring match
// across type/description/tags, narrowed further by an exact (lowercased)
// bundle artifact match when given.
func filterDocumentedTypes(all []nifi.DocumentedType, name, bundleArtifact string) []map[string]any {
	nameLower := strings.ToLower(name)
	artifactLower := strings.ToLower(bundleArtifact)

	out := make([]map[string]any, 0, len(all))
	for _, t := range all {
		if artifactLower != "" && strings.ToLower(t.BundleArtifact) != artifactLower {
			continue
		}
		if nameLower != "" && !typeMatches(t, nameLower) {
			continue
		}
		out = append(out, map[string]any{
			"type":            t.Type,
			"bundle_group":    t.BundleGroup,
			"bundle_artifact": t.BundleArtifact,
			"bundle_version":  t.BundleVersion,
			"description":     t.Description,
			"tags":            t.Tags,
		})
	}
	return out
}

func typeMatches(t nifi.DocumentedType, needle string) bool {
	if strings.Contains(strings.ToLower(t.Type), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// RegisterLookupTools adds the processor/controller-service type catalog
// tools to reg.
func RegisterLookupTools(reg *toolregistry.Registry) {
	reg.Register(toolregistry.Descriptor{
		Name:        "lookup_nifi_processor_types",
		Description: "Looks up available NiFi processor types, optionally filtered by name or bundle artifact.",
		Schema:      optionalFilterSchema,
		Phases:      []string{"Review", "Build", "Modify"},
		Handler:     lookupProcessorTypes,
	})
	reg.Register(toolregistry.Descriptor{
		Name:        "lookup_nifi_controller_service_types",
		Description: "Looks up available NiFi controller service types, optionally filtered by name or bundle artifact.",
		Schema:      optionalFilterSchema,
		Phases:      []string{"Build", "Modify"},
		Handler:     lookupControllerServiceTypes,
	})
}
