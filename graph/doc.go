// Package graph is the stepgraph execution engine.
//
// A Graph is a set of named nodes, a table of default edges, a start node and
// a step budget. The Executor runs one node per step against a shared State
// map, appends a LogEntry for every step and writes the run record to a
// store.RunStore after each step so callers can poll progress.
//
// # Nodes
//
// A node returns the next state and a Route:
//
//	reg := graph.NewRegistry()
//	reg.Register("decide", graph.NodeFunc(func(ctx context.Context, s graph.State) (graph.State, graph.Route, error) {
//		if s["quality_score"].(int) >= 80 {
//			return s, graph.Finish(), nil
//		}
//		return s, graph.Goto("extract"), nil
//	}))
//
// Nodes that only transform state can use StateFunc and steer with the
// reserved keys instead: a truthy "_finished" completes the run and
// "_next_node" overrides the default edge. "_next_node" is removed from
// state after every step.
//
// # Routing
//
// After each step the executor picks, in order:
//
//  1. stop with status completed on Finish() or a truthy "_finished"
//  2. the Goto target
//  3. the "_next_node" value
//  4. the default edge; a missing edge stops the run
//
// Whichever target wins, "none" and END mean stop. Build rejects both as node
// ids.
//
// When the budget runs out with a node still pending the status is
// max_steps_reached. A routing target that is not part of the graph fails the
// run with ErrUnknownNodeReference.
//
// # Building and running
//
//	svc := graph.NewService(reg, graph.NewMemoryGraphStore(), runs, graph.NewExecutor(runs))
//	_, err := svc.BuildGraph(ctx, graph.Definition{
//		ID:        "review",
//		Nodes:     []string{"extract", "decide"},
//		Edges:     map[string]*string{"extract": graph.Edge("decide")},
//		StartNode: "extract",
//	})
//	res, err := svc.RunGraph(ctx, "review", graph.State{"code": src})
//
// Errors are classified with KindOf into invalid input, not found and
// execution failures.
package graph
