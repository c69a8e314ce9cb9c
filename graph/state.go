package graph

import (
	"strings"

	"github.com/smallnest/stepgraph/store"
)

// Reserved state keys. Nodes that only return a State use them to steer the
// executor; nodes returning a Route should prefer the typed decision.
const (
	// FinishedKey, when truthy after a step, completes the run.
	FinishedKey = "_finished"

	// NextNodeKey overrides the default edge for the next step. The executor
	// removes it from state after every step.
	NextNodeKey = "_next_node"

	// IterationKey is seeded with 0 when absent from the initial state.
	IterationKey = "iteration"
)

// State is the open-ended working data threaded through a graph.
type State map[string]any

// Clone returns a deep copy of s. A nil state clones to an empty one.
func (s State) Clone() State {
	return store.CloneState(s)
}

// Finished reports whether the _finished control key is truthy.
func (s State) Finished() bool {
	return truthy(s[FinishedKey])
}

// popNextNode removes _next_node from s and returns its value, if it names a node.
func (s State) popNextNode() string {
	v, ok := s[NextNodeKey]
	if !ok {
		return ""
	}
	delete(s, NextNodeKey)

	id, _ := v.(string)
	return id
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "", "false", "0":
			return false
		}
		return true
	case int:
		return val != 0
	case int32:
		return val != 0
	case int64:
		return val != 0
	case float32:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
