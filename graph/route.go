package graph

import "fmt"

// RouteKind tells the executor how to pick the next node.
type RouteKind int

const (
	// RouteContinue follows the default edge (or the _next_node key).
	RouteContinue RouteKind = iota

	// RouteGoto jumps to Route.Target regardless of the edge table.
	RouteGoto

	// RouteFinish completes the run after the current step.
	RouteFinish
)

// Route is the routing decision a node returns alongside its state.
// The zero value is Continue.
type Route struct {
	Kind   RouteKind
	Target string
}

// Continue follows the default edge.
func Continue() Route {
	return Route{Kind: RouteContinue}
}

// Goto jumps to the node with the given id.
func Goto(nodeID string) Route {
	return Route{Kind: RouteGoto, Target: nodeID}
}

// Finish completes the run.
func Finish() Route {
	return Route{Kind: RouteFinish}
}

func (r Route) String() string {
	switch r.Kind {
	case RouteContinue:
		return "continue"
	case RouteGoto:
		return fmt.Sprintf("goto(%s)", r.Target)
	case RouteFinish:
		return "finish"
	default:
		return fmt.Sprintf("route(%d)", int(r.Kind))
	}
}
