package server

import (
	"time"

	"github.com/smallnest/stepgraph/graph"
	"github.com/smallnest/stepgraph/store"
)

// CreateGraphRequest is the body of POST /graph/create.
type CreateGraphRequest = graph.Definition

// CreateGraphResponse is returned by POST /graph/create.
type CreateGraphResponse struct {
	GraphID string `json:"graph_id"`
	Message string `json:"message"`
}

// RunGraphRequest is the body of POST /graph/run.
type RunGraphRequest struct {
	GraphID      string         `json:"graph_id"`
	InitialState map[string]any `json:"initial_state"`
}

// RunGraphResponse is returned by POST /graph/run.
type RunGraphResponse struct {
	RunID      string           `json:"run_id"`
	FinalState map[string]any   `json:"final_state"`
	Log        []store.LogEntry `json:"log"`
	Status     store.RunStatus  `json:"status"`
}

// RunStateResponse is returned by GET /graph/state/{run_id}.
type RunStateResponse struct {
	RunID     string           `json:"run_id"`
	GraphID   string           `json:"graph_id"`
	State     map[string]any   `json:"state"`
	Log       []store.LogEntry `json:"log"`
	Status    store.RunStatus  `json:"status"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// RunListResponse is returned by GET /graph/runs.
type RunListResponse struct {
	Runs []RunStateResponse `json:"runs"`
}

// GraphSummary describes a built graph.
type GraphSummary struct {
	GraphID   string            `json:"graph_id"`
	Nodes     []string          `json:"nodes"`
	Edges     map[string]string `json:"edges"`
	StartNode string            `json:"start_node"`
	MaxSteps  int               `json:"max_steps"`
}

// GraphListResponse is returned by GET /graphs.
type GraphListResponse struct {
	Graphs []GraphSummary `json:"graphs"`
}

// NodeListResponse is returned by GET /nodes.
type NodeListResponse struct {
	Nodes []string `json:"nodes"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	RunID  string `json:"run_id,omitempty"`
}

func newRunState(run *store.Run) RunStateResponse {
	return RunStateResponse{
		RunID:     run.ID,
		GraphID:   run.GraphID,
		State:     run.State,
		Log:       run.Log,
		Status:    run.Status,
		Error:     run.Error,
		CreatedAt: run.CreatedAt,
		UpdatedAt: run.UpdatedAt,
	}
}

func newGraphSummary(g *graph.Graph) GraphSummary {
	edges := make(map[string]string, len(g.Edges))
	for from := range g.Edges {
		edges[from] = g.Next(from)
	}
	return GraphSummary{
		GraphID:   g.ID,
		Nodes:     g.NodeIDs(),
		Edges:     edges,
		StartNode: g.StartNode,
		MaxSteps:  g.MaxSteps,
	}
}
