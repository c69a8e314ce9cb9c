package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// GraphStore keeps built graphs by id. Graphs hold code, so only an
// in-process implementation exists.
type GraphStore interface {
	Save(ctx context.Context, g *Graph) error
	Get(ctx context.Context, graphID string) (*Graph, error)
	List(ctx context.Context) ([]*Graph, error)
}

// MemoryGraphStore is a mutex-guarded GraphStore.
type MemoryGraphStore struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

var _ GraphStore = (*MemoryGraphStore)(nil)

// NewMemoryGraphStore creates an empty graph store
func NewMemoryGraphStore() *MemoryGraphStore {
	return &MemoryGraphStore{
		graphs: make(map[string]*Graph),
	}
}

// Save stores g, replacing any graph with the same id.
func (s *MemoryGraphStore) Save(_ context.Context, g *Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graphs[g.ID] = g
	return nil
}

// Get returns the graph saved under graphID.
func (s *MemoryGraphStore) Get(_ context.Context, graphID string) (*Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.graphs[graphID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, graphID)
	}
	return g, nil
}

// List returns all graphs sorted by id.
func (s *MemoryGraphStore) List(_ context.Context) ([]*Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	graphs := make([]*Graph, 0, len(s.graphs))
	for _, g := range s.graphs {
		graphs = append(graphs, g)
	}
	sort.Slice(graphs, func(i, j int) bool {
		return graphs[i].ID < graphs[j].ID
	})
	return graphs, nil
}
