package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run ID is unknown to a RunStore.
var ErrRunNotFound = errors.New("run not found")

// RunStatus is the lifecycle status of a run.
type RunStatus string

const (
	// StatusCreated is set when the run record is allocated, before the first step.
	StatusCreated RunStatus = "created"

	// StatusRunning is written after every step while the run is in progress.
	StatusRunning RunStatus = "running"

	// StatusCompleted means a node finished the run or the edge chain ran out.
	StatusCompleted RunStatus = "completed"

	// StatusMaxStepsReached means the step budget was spent with a node still pending.
	StatusMaxStepsReached RunStatus = "max_steps_reached"

	// StatusFailed means a node returned an error and the run was aborted.
	StatusFailed RunStatus = "failed"
)

// Terminal reports whether no further updates are expected for a run in this status.
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusMaxStepsReached, StatusFailed:
		return true
	default:
		return false
	}
}

// LogEntry records a single executed step.
type LogEntry struct {
	Step       int     `json:"step"`
	NodeID     string  `json:"node_id"`
	DurationMs float64 `json:"duration_ms"`
	Summary    string  `json:"summary"`
}

// Run is one execution of a graph against an initial state.
type Run struct {
	ID        string         `json:"id"`
	GraphID   string         `json:"graph_id"`
	State     map[string]any `json:"state"`
	Log       []LogEntry     `json:"log"`
	Status    RunStatus      `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// RunUpdate carries the fields overwritten by RunStore.Update.
type RunUpdate struct {
	State  map[string]any
	Log    []LogEntry
	Status RunStatus
	Error  string
}

// RunFilter selects runs in RunStore.List. Empty fields do not filter.
type RunFilter struct {
	GraphID string
	Status  RunStatus
}

// Match reports whether run satisfies the filter.
func (f RunFilter) Match(run *Run) bool {
	if f.GraphID != "" && run.GraphID != f.GraphID {
		return false
	}
	if f.Status != "" && run.Status != f.Status {
		return false
	}
	return true
}

// RunStore defines the interface for run persistence
type RunStore interface {
	// Create allocates a new run in StatusCreated and returns its ID
	Create(ctx context.Context, graphID string, initialState map[string]any) (string, error)

	// Update overwrites state, log and status of an existing run
	Update(ctx context.Context, runID string, update RunUpdate) error

	// Get returns a snapshot of a run
	Get(ctx context.Context, runID string) (*Run, error)

	// List returns the runs matching filter, oldest first
	List(ctx context.Context, filter RunFilter) ([]*Run, error)
}

// NewRun returns a fresh run record in StatusCreated.
func NewRun(id, graphID string, initialState map[string]any, now time.Time) *Run {
	return &Run{
		ID:        id,
		GraphID:   graphID,
		State:     CloneState(initialState),
		Log:       []LogEntry{},
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply overwrites the mutable fields of r with a copy of update.
func (r *Run) Apply(update RunUpdate, now time.Time) {
	r.State = CloneState(update.State)
	r.Log = CloneLog(update.Log)
	r.Status = update.Status
	r.Error = update.Error
	r.UpdatedAt = now
}

// Clone returns a copy of r that shares no maps or slices with it.
func (r *Run) Clone() *Run {
	cp := *r
	cp.State = CloneState(r.State)
	cp.Log = CloneLog(r.Log)
	return &cp
}
