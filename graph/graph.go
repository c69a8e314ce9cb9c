package graph

import "sort"

// END is a routing target meaning "stop", for edges, Goto and _next_node
// alike. Empty targets and "none" mean the same; none of them can name a node.
const END = "END"

// DefaultMaxSteps is the step budget used when a definition leaves it at zero.
const DefaultMaxSteps = 100

// Graph is a built workflow. It is not modified after Build.
type Graph struct {
	// ID identifies the graph in a GraphStore.
	ID string

	// Nodes holds the resolved node for every id in the definition.
	Nodes map[string]Node

	// Edges maps a node id to its default successor.
	Edges map[string]string

	// StartNode is executed first.
	StartNode string

	// MaxSteps bounds the number of node invocations per run.
	MaxSteps int
}

// Next returns the default successor of nodeID, or "" when the edge table
// says to stop.
func (g *Graph) Next(nodeID string) string {
	return normalizeTarget(g.Edges[nodeID])
}

// NodeIDs returns the node ids in sorted order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeTarget(target string) string {
	switch target {
	case "", "none", END:
		return ""
	default:
		return target
	}
}
