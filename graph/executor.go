package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/smallnest/stepgraph/log"
	"github.com/smallnest/stepgraph/store"
)

// LogEntry records a single executed step.
type LogEntry = store.LogEntry

// Result is the outcome of a finished execution.
type Result struct {
	State  State
	Log    []LogEntry
	Status store.RunStatus
}

// Executor drives the step loop of a graph.
type Executor struct {
	runs      store.RunStore
	logger    log.Logger
	summarize Summarizer
	listeners []NodeListener
}

// ExecutorOption configures an Executor
type ExecutorOption func(*Executor)

// WithLogger sets the logger used for step and run messages
func WithLogger(logger log.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithSummarizer replaces DefaultSummary
func WithSummarizer(fn Summarizer) ExecutorOption {
	return func(e *Executor) {
		e.summarize = fn
	}
}

// WithListener adds a listener notified around every step
func WithListener(listener NodeListener) ExecutorOption {
	return func(e *Executor) {
		e.listeners = append(e.listeners, listener)
	}
}

// NewExecutor creates an executor that persists progress to runs. runs may be
// nil when every Execute call passes an empty run id.
func NewExecutor(runs store.RunStore, opts ...ExecutorOption) *Executor {
	e := &Executor{
		runs:      runs,
		logger:    log.GetDefaultLogger(),
		summarize: DefaultSummary,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs g from its start node against a copy of initial. When runID is
// not empty, the run record is updated after every step and once more with
// the terminal status.
//
// Each node receives its own copy of the state, so a node that fails leaves
// the last persisted state in place. Execute does not check ctx between
// steps; it is handed to nodes and to the run store.
func (e *Executor) Execute(ctx context.Context, g *Graph, initial State, runID string) (*Result, error) {
	state := initial.Clone()
	if _, ok := state[IterationKey]; !ok {
		state[IterationKey] = 0
	}

	entries := []LogEntry{}
	current := g.StartNode
	step := 0
	status := store.StatusRunning

	for current != "" && step < g.MaxSteps {
		step++

		node, ok := g.Nodes[current]
		if !ok {
			return nil, e.fail(ctx, runID, state, entries, &NodeError{
				RunID: runID,
				Node:  current,
				Step:  step,
				Err:   fmt.Errorf("%w: %s", ErrUnknownNodeReference, current),
			})
		}

		e.notify(ctx, StepEvent{Event: NodeEventStart, RunID: runID, Step: step, NodeID: current, State: state})

		start := time.Now()
		next, route, err := node.Invoke(ctx, state.Clone())
		elapsed := time.Since(start)

		if err != nil {
			e.notify(ctx, StepEvent{Event: NodeEventError, RunID: runID, Step: step, NodeID: current, State: state, Duration: elapsed, Error: err})
			return nil, e.fail(ctx, runID, state, entries, &NodeError{RunID: runID, Node: current, Step: step, Err: err})
		}

		if next == nil {
			next = State{}
		}
		state = next
		override := state.popNextNode()

		entry := LogEntry{
			Step:       step,
			NodeID:     current,
			DurationMs: float64(elapsed) / float64(time.Millisecond),
			Summary:    e.summarize(state),
		}
		entries = append(entries, entry)
		e.logger.Debug("step %d: %s (%.3fms) %s", entry.Step, entry.NodeID, entry.DurationMs, entry.Summary)

		if err := e.persist(ctx, runID, state, entries, store.StatusRunning, ""); err != nil {
			return nil, err
		}

		e.notify(ctx, StepEvent{Event: NodeEventComplete, RunID: runID, Step: step, NodeID: current, State: state, Duration: elapsed, Summary: entry.Summary})

		if route.Kind == RouteFinish || state.Finished() {
			status = store.StatusCompleted
			break
		}

		switch {
		case route.Kind == RouteGoto:
			current = normalizeTarget(route.Target)
		case override != "":
			current = normalizeTarget(override)
		default:
			current = g.Next(current)
		}
	}

	if status == store.StatusRunning {
		if current == "" {
			status = store.StatusCompleted
		} else {
			status = store.StatusMaxStepsReached
		}
	}

	if err := e.persist(ctx, runID, state, entries, status, ""); err != nil {
		return nil, err
	}

	e.logger.Info("graph %s finished: run=%q status=%s steps=%d", g.ID, runID, status, step)

	return &Result{
		State:  state,
		Log:    entries,
		Status: status,
	}, nil
}

func (e *Executor) persist(ctx context.Context, runID string, state State, entries []LogEntry, status store.RunStatus, errMsg string) error {
	if runID == "" || e.runs == nil {
		return nil
	}

	err := e.runs.Update(ctx, runID, store.RunUpdate{
		State:  state,
		Log:    entries,
		Status: status,
		Error:  errMsg,
	})
	if err != nil {
		return fmt.Errorf("%w: run %s: %w", ErrRunPersistence, runID, err)
	}
	return nil
}

// fail records the failed status and returns nodeErr. A persistence error at
// this point is logged, not returned.
func (e *Executor) fail(ctx context.Context, runID string, state State, entries []LogEntry, nodeErr *NodeError) error {
	e.logger.Error("%v", nodeErr)

	if err := e.persist(ctx, runID, state, entries, store.StatusFailed, nodeErr.Err.Error()); err != nil {
		e.logger.Error("unable to mark run %s failed: %v", runID, err)
	}
	return nodeErr
}

func (e *Executor) notify(ctx context.Context, event StepEvent) {
	if len(e.listeners) == 0 {
		return
	}
	event.State = event.State.Clone()

	for _, l := range e.listeners {
		func() {
			// A panicking listener must not abort the run
			defer func() {
				if r := recover(); r != nil {
					e.logger.Warn("listener panicked on %s of %s: %v", event.Event, event.NodeID, r)
				}
			}()
			l.OnNodeEvent(ctx, event)
		}()
	}
}
