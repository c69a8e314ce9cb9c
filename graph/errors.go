package graph

import (
	"errors"
	"fmt"

	"github.com/smallnest/stepgraph/store"
)

var (
	// ErrUnregisteredNode is returned when a node id has no registered implementation.
	ErrUnregisteredNode = errors.New("node is not registered")

	// ErrInvalidStartNode is returned when the start node is not among the graph's nodes.
	ErrInvalidStartNode = errors.New("invalid start node")

	// ErrInvalidDefinition is returned for malformed graph definitions.
	ErrInvalidDefinition = errors.New("invalid graph definition")

	// ErrGraphNotFound is returned when a graph id is unknown to the GraphStore.
	ErrGraphNotFound = errors.New("graph not found")

	// ErrUnknownNodeReference is returned when routing reaches a node id the
	// graph does not contain.
	ErrUnknownNodeReference = errors.New("unknown node reference")

	// ErrRunPersistence is returned when the executor cannot write a run record.
	ErrRunPersistence = errors.New("run persistence failed")
)

// NodeError is returned when a step fails. The run is aborted and its record,
// if any, is marked failed.
type NodeError struct {
	RunID string
	Node  string
	Step  int
	Err   error
}

func (e *NodeError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("run %s: step %d: node %s: %v", e.RunID, e.Step, e.Node, e.Err)
	}
	return fmt.Sprintf("step %d: node %s: %v", e.Step, e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies errors for callers that map them onto a transport.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindNotFound
	KindExecution
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Execution failures win over whatever the failing
// node wrapped.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var nodeErr *NodeError
	switch {
	case errors.As(err, &nodeErr),
		errors.Is(err, ErrUnknownNodeReference),
		errors.Is(err, ErrRunPersistence):
		return KindExecution
	case errors.Is(err, ErrUnregisteredNode),
		errors.Is(err, ErrInvalidStartNode),
		errors.Is(err, ErrInvalidDefinition):
		return KindInvalidInput
	case errors.Is(err, ErrGraphNotFound),
		errors.Is(err, store.ErrRunNotFound):
		return KindNotFound
	default:
		return KindUnknown
	}
}
