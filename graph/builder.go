package graph

import "fmt"

// Definition is the serialisable request to build a graph.
type Definition struct {
	ID        string             `json:"graph_id" yaml:"graph_id"`
	Nodes     []string           `json:"nodes" yaml:"nodes"`
	Edges     map[string]*string `json:"edges" yaml:"edges"`
	StartNode string             `json:"start_node" yaml:"start_node"`
	MaxSteps  int                `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
}

// Build resolves the definition's nodes through reg and returns the graph.
// Edge targets are not checked here; a dangling target fails the run that
// reaches it.
func Build(reg *Registry, def Definition) (*Graph, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("%w: graph_id is required", ErrInvalidDefinition)
	}
	if def.MaxSteps < 0 {
		return nil, fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidDefinition, def.MaxSteps)
	}

	nodes := make(map[string]Node, len(def.Nodes))
	for _, id := range def.Nodes {
		if normalizeTarget(id) == "" {
			return nil, fmt.Errorf("%w: %q is reserved as a stop target and cannot name a node", ErrInvalidDefinition, id)
		}
		node, err := reg.Resolve(id)
		if err != nil {
			return nil, err
		}
		nodes[id] = node
	}

	if _, ok := nodes[def.StartNode]; !ok {
		return nil, fmt.Errorf("%w: %q is not among the graph's nodes", ErrInvalidStartNode, def.StartNode)
	}

	edges := make(map[string]string, len(def.Edges))
	for from, to := range def.Edges {
		if to == nil {
			edges[from] = ""
			continue
		}
		edges[from] = normalizeTarget(*to)
	}

	maxSteps := def.MaxSteps
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}

	return &Graph{
		ID:        def.ID,
		Nodes:     nodes,
		Edges:     edges,
		StartNode: def.StartNode,
		MaxSteps:  maxSteps,
	}, nil
}

// Edge returns a pointer to target, for building Definition edge maps.
func Edge(target string) *string {
	return &target
}
