package graph

import "context"

// Node is a named unit of work. It receives the working state and returns the
// next state together with a routing decision. Returning the same, mutated map
// is allowed; a nil state is treated as empty.
type Node interface {
	Invoke(ctx context.Context, state State) (State, Route, error)
}

// NodeFunc adapts a function with the full node signature.
type NodeFunc func(ctx context.Context, state State) (State, Route, error)

// Invoke implements Node
func (f NodeFunc) Invoke(ctx context.Context, state State) (State, Route, error) {
	return f(ctx, state)
}

// StateFunc adapts a function that only transforms state. Routing falls back
// to the _finished and _next_node control keys.
type StateFunc func(ctx context.Context, state State) (State, error)

// Invoke implements Node
func (f StateFunc) Invoke(ctx context.Context, state State) (State, Route, error) {
	next, err := f(ctx, state)
	return next, Continue(), err
}
