package graph

import (
	"context"
	"fmt"

	"github.com/smallnest/stepgraph/log"
	"github.com/smallnest/stepgraph/store"
)

// RunResult is returned by Service.RunGraph.
type RunResult struct {
	RunID  string
	State  State
	Log    []LogEntry
	Status store.RunStatus
}

// Service exposes the build, run and poll operations over a registry, a
// graph store, a run store and an executor.
type Service struct {
	registry *Registry
	graphs   GraphStore
	runs     store.RunStore
	executor *Executor
	logger   log.Logger
}

// NewService wires the collaborators together. A nil executor is replaced by
// NewExecutor(runs).
func NewService(registry *Registry, graphs GraphStore, runs store.RunStore, executor *Executor) *Service {
	if executor == nil {
		executor = NewExecutor(runs)
	}
	return &Service{
		registry: registry,
		graphs:   graphs,
		runs:     runs,
		executor: executor,
		logger:   executor.logger,
	}
}

// Registry returns the node registry used to build graphs.
func (s *Service) Registry() *Registry {
	return s.registry
}

// BuildGraph builds def and saves the graph, replacing one with the same id.
func (s *Service) BuildGraph(ctx context.Context, def Definition) (*Graph, error) {
	g, err := Build(s.registry, def)
	if err != nil {
		return nil, err
	}
	if err := s.graphs.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save graph %s: %w", g.ID, err)
	}

	s.logger.Info("graph %s built: %d nodes, start=%s, max_steps=%d", g.ID, len(g.Nodes), g.StartNode, g.MaxSteps)
	return g, nil
}

// RunGraph creates a run for graphID and executes it synchronously. When a
// node fails the error is returned and the run record is left as failed.
func (s *Service) RunGraph(ctx context.Context, graphID string, initial State) (*RunResult, error) {
	g, err := s.graphs.Get(ctx, graphID)
	if err != nil {
		return nil, err
	}

	runID, err := s.runs.Create(ctx, g.ID, initial)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunPersistence, err)
	}

	result, err := s.executor.Execute(ctx, g, initial, runID)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		RunID:  runID,
		State:  result.State,
		Log:    result.Log,
		Status: result.Status,
	}, nil
}

// GetRun returns the current snapshot of a run.
func (s *Service) GetRun(ctx context.Context, runID string) (*store.Run, error) {
	return s.runs.Get(ctx, runID)
}

// ListRuns returns runs matching filter, oldest first.
func (s *Service) ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error) {
	return s.runs.List(ctx, filter)
}

// Graph returns a built graph.
func (s *Service) Graph(ctx context.Context, graphID string) (*Graph, error) {
	return s.graphs.Get(ctx, graphID)
}

// Graphs returns every built graph, sorted by id.
func (s *Service) Graphs(ctx context.Context) ([]*Graph, error) {
	return s.graphs.List(ctx)
}
