package graph

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps node ids to executable nodes. Graphs resolve their nodes
// through a Registry once, at build time.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]Node),
	}
}

// Register inserts or replaces the node registered under id.
func (r *Registry) Register(id string, node Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes[id] = node
}

// RegisterFunc registers a state-only function under id.
func (r *Registry) RegisterFunc(id string, fn StateFunc) {
	r.Register(id, fn)
}

// Resolve returns the node registered under id.
func (r *Registry) Resolve(id string) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	node, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredNode, id)
	}
	return node, nil
}

// Names returns the registered ids in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}
