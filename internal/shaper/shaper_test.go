package shaper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackoverflowed/nifimcp/internal/nifi"
	"github.com/stackoverflowed/nifimcp/internal/shaper"
)

func TestProcessorExtractsCoreFields(t *testing.T) {
	e := nifi.Entity{
		ID:       "p1",
		Revision: nifi.Revision{Version: 3},
		Component: map[string]any{
			"name": "GenerateFlowFile",
			"type": "org.apache.nifi.processors.standard.GenerateFlowFile",
			"config": map[string]any{
				"properties": map[string]any{"File Size": "1 B"},
			},
			"relationships": []any{"success"},
		},
		Status: map[string]any{"runStatus": "Stopped"},
	}

	out := shaper.Processor(e)
	assert.Equal(t, "p1", out["id"])
	assert.Equal(t, "GenerateFlowFile", out["name"])
	assert.Equal(t, "Stopped", out["runStatus"])
	assert.Equal(t, int64(3), out["version"])
	props := out["properties"].(map[string]any)
	assert.Equal(t, "1 B", props["File Size"])
}

func TestConnectionFlattensSourceAndDestination(t *testing.T) {
	e := nifi.Entity{
		ID: "c1",
		Component: map[string]any{
			"source":                map[string]any{"id": "p1", "groupId": "g1", "type": "PROCESSOR", "name": "A"},
			"destination":           map[string]any{"id": "p2", "groupId": "g1", "type": "PROCESSOR", "name": "B"},
			"selectedRelationships": []any{"success"},
		},
	}

	out := shaper.Connection(e)
	assert.Equal(t, "p1", out["sourceId"])
	assert.Equal(t, "p2", out["destinationId"])
	assert.Equal(t, "A", out["sourceName"])
}

func TestPortCarriesExplicitKind(t *testing.T) {
	e := nifi.Entity{ID: "port-1", Component: map[string]any{"name": "in"}}
	out := shaper.Port(e, "INPUT_PORT")
	assert.Equal(t, "INPUT_PORT", out["type"])
	assert.Equal(t, "in", out["name"])
}

func TestDropRequestSummary(t *testing.T) {
	d := nifi.DropRequest{ID: "d1", Finished: true, State: "COMPLETE", Current: "0 / 0 bytes"}
	out := shaper.DropRequest(d)
	assert.Equal(t, true, out["finished"])
	assert.Equal(t, "0 / 0 bytes", out["current"])
}
