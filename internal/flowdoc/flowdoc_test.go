package flowdoc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackoverflowed/nifimcp/internal/flowdoc"
)

func TestDecisionPointRequiresTwoRelationshipsAcrossTwoConnections(t *testing.T) {
	components := []flowdoc.Component{
		{ID: "a", Kind: "processor"}, {ID: "b", Kind: "processor"}, {ID: "c", Kind: "processor"},
	}
	edges := []flowdoc.Edge{
		{ConnectionID: "c1", SourceID: "a", DestinationID: "b", Relationships: []string{"success"}},
		{ConnectionID: "c2", SourceID: "a", DestinationID: "c", Relationships: []string{"failure"}},
	}

	g := flowdoc.Build(components, edges)
	dps := g.DecisionPoints()
	require.Len(t, dps, 1)
	assert.Equal(t, "a", dps[0].ComponentID)
	assert.ElementsMatch(t, []string{"success", "failure"}, dps[0].Relationships)
}

func TestSingleRelationshipFanOutIsNotADecisionPoint(t *testing.T) {
	components := []flowdoc.Component{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []flowdoc.Edge{
		{SourceID: "a", DestinationID: "b", Relationships: []string{"success"}},
		{SourceID: "a", DestinationID: "c", Relationships: []string{"success"}},
	}
	g := flowdoc.Build(components, edges)
	assert.Empty(t, g.DecisionPoints())
}

func TestSourcesIncludeNoIncomingAndInputPorts(t *testing.T) {
	components := []flowdoc.Component{
		{ID: "in", Kind: "input-port"},
		{ID: "a", Kind: "processor"},
		{ID: "b", Kind: "processor"},
	}
	edges := []flowdoc.Edge{
		{SourceID: "in", DestinationID: "a", Relationships: []string{"success"}},
		{SourceID: "a", DestinationID: "b", Relationships: []string{"success"}},
	}
	g := flowdoc.Build(components, edges)
	sources := g.Sources()
	var ids []string
	for _, c := range sources {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"in"}, ids)
}

func TestPathsTerminateOnCycleWithoutInfiniteLoop(t *testing.T) {
	components := []flowdoc.Component{{ID: "s"}, {ID: "a"}, {ID: "b"}}
	edges := []flowdoc.Edge{
		{SourceID: "s", DestinationID: "a", Relationships: []string{"success"}},
		{SourceID: "a", DestinationID: "b", Relationships: []string{"success"}},
		{SourceID: "b", DestinationID: "a", Relationships: []string{"success"}},
	}
	g := flowdoc.Build(components, edges)
	paths := g.Paths()
	require.NotEmpty(t, paths)
	foundCyclic := false
	for _, p := range paths {
		if p.Cyclic {
			foundCyclic = true
		}
	}
	assert.True(t, foundCyclic)
}

func TestSiblingBranchesAreIndependent(t *testing.T) {
	components := []flowdoc.Component{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	edges := []flowdoc.Edge{
		{SourceID: "a", DestinationID: "b", Relationships: []string{"success"}},
		{SourceID: "a", DestinationID: "c", Relationships: []string{"failure"}},
		{SourceID: "b", DestinationID: "d", Relationships: []string{"success"}},
		{SourceID: "c", DestinationID: "d", Relationships: []string{"success"}},
	}
	g := flowdoc.Build(components, edges)
	paths := g.Paths()
	// a->b->d and a->c->d should both appear, neither marked cyclic.
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.False(t, p.Cyclic)
		assert.Equal(t, "d", p.ComponentIDs[len(p.ComponentIDs)-1])
	}
}

func TestDocumentAnnotatesIncomingAndOutgoing(t *testing.T) {
	components := []flowdoc.Component{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	edges := []flowdoc.Edge{{SourceID: "a", DestinationID: "b", Relationships: []string{"success"}}}

	doc := flowdoc.Document(components, edges)
	require.Len(t, doc.Components, 2)
	for _, cs := range doc.Components {
		if cs.Component.ID == "a" {
			assert.Equal(t, []string{"b"}, cs.OutgoingTo)
			assert.Empty(t, cs.IncomingFrom)
		}
		if cs.Component.ID == "b" {
			assert.Equal(t, []string{"a"}, cs.IncomingFrom)
		}
	}
}
