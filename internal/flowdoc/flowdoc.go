// Package flowdoc builds an annotated traversal of a process group's flow:
// adjacency graphs, decision points, and per-branch DFS paths from every
// source component. It is pure: given a set of components and
// connections, it never calls NiFi itself.
package flowdoc

// Component is one node in the flow graph (a processor or a port).
type Component struct {
	ID   string
	Name string
	Type string
	Kind string // "processor", "input-port", "output-port"
}

// Edge is one connection between two components, labeled by the
// relationship names it carries.
type Edge struct {
	ConnectionID  string
	SourceID      string
	DestinationID string
	Relationships []string
}

// Graph is the adjacency view of a flow: outgoing and incoming edges keyed
// by component id.
type Graph struct {
	Components map[string]Component
	Outgoing   map[string][]Edge
	Incoming   map[string][]Edge
}

// Build constructs a Graph from a flat list of components and edges.
func Build(components []Component, edges []Edge) Graph {
	g := Graph{
		Components: make(map[string]Component, len(components)),
		Outgoing:   make(map[string][]Edge),
		Incoming:   make(map[string][]Edge),
	}
	for _, c := range components {
		g.Components[c.ID] = c
	}
	for _, e := range edges {
		g.Outgoing[e.SourceID] = append(g.Outgoing[e.SourceID], e)
		g.Incoming[e.DestinationID] = append(g.Incoming[e.DestinationID], e)
	}
	return g
}

// DecisionPoint is a component whose outgoing connections fan out across
// two or more distinct relationships on two or more connections — i.e. a
// branching point in the flow, not merely a component with multiple
// downstream connections carrying the same relationship.
type DecisionPoint struct {
	ComponentID   string
	Relationships []string
}

// DecisionPoints returns every component in g with ≥2 outgoing
// connections spanning ≥2 distinct relationship names.
func (g Graph) DecisionPoints() []DecisionPoint {
	var out []DecisionPoint
	for id, edges := range g.Outgoing {
		if len(edges) < 2 {
			continue
		}
		seen := map[string]bool{}
		var rels []string
		for _, e := range edges {
			for _, r := range e.Relationships {
				if !seen[r] {
					seen[r] = true
					rels = append(rels, r)
				}
			}
		}
		if len(rels) >= 2 {
			out = append(out, DecisionPoint{ComponentID: id, Relationships: rels})
		}
	}
	return out
}

// Sources returns every component with no incoming edges, plus every
// input port (an input port is always a logical flow entry point even if
// NiFi happens to wire something into it from a parent group, which this
// pure in-group view cannot see).
func (g Graph) Sources() []Component {
	var out []Component
	for id, c := range g.Components {
		if len(g.Incoming[id]) == 0 || c.Kind == "input-port" {
			out = append(out, c)
		}
	}
	return out
}

// Path is one DFS branch from a source component to wherever it
// terminates (a component with no further outgoing edges, or a cycle back
// to an already-visited component on this same branch).
type Path struct {
	ComponentIDs []string
	Cyclic       bool
}

// Paths runs an independent DFS from every source in g, returning one Path
// per branch. Each branch carries its own visited set, so two sibling
// branches that both pass through a shared downstream component are each
// reported in full — only a branch revisiting its own ancestors is marked
// Cyclic and truncated there.
func (g Graph) Paths() []Path {
	var paths []Path
	for _, src := range g.Sources() {
		paths = append(paths, dfs(g, src.ID, map[string]bool{}, nil)...)
	}
	return paths
}

func dfs(g Graph, current string, visited map[string]bool, prefix []string) []Path {
	if visited[current] {
		return []Path{{ComponentIDs: append(append([]string{}, prefix...), current), Cyclic: true}}
	}

	visited = cloneVisited(visited)
	visited[current] = true
	path := append(append([]string{}, prefix...), current)

	edges := g.Outgoing[current]
	if len(edges) == 0 {
		return []Path{{ComponentIDs: path}}
	}

	var out []Path
	seenDest := map[string]bool{}
	for _, e := range edges {
		if seenDest[e.DestinationID] {
			continue
		}
		seenDest[e.DestinationID] = true
		out = append(out, dfs(g, e.DestinationID, visited, path)...)
	}
	return out
}

func cloneVisited(v map[string]bool) map[string]bool {
	out := make(map[string]bool, len(v)+1)
	for k := range v {
		out[k] = true
	}
	return out
}

// ComponentSummary is one annotated entry in Document's output: a
// component plus its incoming/outgoing relationship summaries.
type ComponentSummary struct {
	Component    Component `json:"component"`
	IncomingFrom []string  `json:"incoming_from"`
	OutgoingTo   []string  `json:"outgoing_to"`
}

// Doc is the annotated JSON-serializable flow document.
type Doc struct {
	Components     []ComponentSummary `json:"components"`
	DecisionPoints []DecisionPoint    `json:"decision_points"`
	Paths          []Path             `json:"paths"`
}

// Document builds the full annotated traversal for components/edges.
func Document(components []Component, edges []Edge) Doc {
	g := Build(components, edges)

	summaries := make([]ComponentSummary, 0, len(components))
	for _, c := range components {
		var in, out []string
		for _, e := range g.Incoming[c.ID] {
			in = append(in, e.SourceID)
		}
		for _, e := range g.Outgoing[c.ID] {
			out = append(out, e.DestinationID)
		}
		summaries = append(summaries, ComponentSummary{Component: c, IncomingFrom: in, OutgoingTo: out})
	}

	return Doc{
		Components:     summaries,
		DecisionPoints: g.DecisionPoints(),
		Paths:          g.Paths(),
	}
}
