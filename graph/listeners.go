package graph

import (
	"context"
	"time"
)

// NodeEvent represents different types of node events
type NodeEvent string

const (
	// NodeEventStart indicates a node has started execution
	NodeEventStart NodeEvent = "start"

	// NodeEventComplete indicates a node has completed successfully
	NodeEventComplete NodeEvent = "complete"

	// NodeEventError indicates a node encountered an error
	NodeEventError NodeEvent = "error"
)

// StepEvent describes one notification from the executor.
type StepEvent struct {
	// Event is the type of event
	Event NodeEvent

	// RunID is empty for runs that are not persisted
	RunID string

	// Step is the 1-based step number
	Step int

	// NodeID is the node being executed
	NodeID string

	// State is a copy of the state at the time of the event
	State State

	// Duration is how long the node took (Complete and Error events)
	Duration time.Duration

	// Summary is the log summary (Complete events)
	Summary string

	// Error contains the node error (Error events)
	Error error
}

// NodeListener defines the interface for node event listeners
type NodeListener interface {
	// OnNodeEvent is called synchronously from the executing goroutine
	OnNodeEvent(ctx context.Context, event StepEvent)
}

// NodeListenerFunc is a function adapter for NodeListener
type NodeListenerFunc func(ctx context.Context, event StepEvent)

// OnNodeEvent implements the NodeListener interface
func (f NodeListenerFunc) OnNodeEvent(ctx context.Context, event StepEvent) {
	f(ctx, event)
}
