// Stepgraph - a small stateful workflow engine
//
// Stepgraph executes a directed graph of named steps ("nodes") against a
// shared state map. Each node returns the next state and a routing decision;
// the engine follows the default edge table unless a node jumps elsewhere or
// finishes the run, and bounds every run by a step budget. Progress is written
// to a run store after every step so clients can poll a running execution.
//
// # Packages
//
//   - graph: registry, graph model, executor, service
//   - store: run records and the RunStore contract, with memory, redis,
//     postgres and sqlite backends
//   - server: HTTP/JSON transport for build, run and poll
//   - config: YAML, .env and environment configuration
//   - log: leveled logging with a golog adapter
//   - workflows/codereview: a sample review workflow
//
// # Quick Start
//
//	reg := graph.NewRegistry()
//	reg.RegisterFunc("a", func(ctx context.Context, s graph.State) (graph.State, error) {
//		s["x"] = 1
//		return s, nil
//	})
//	reg.RegisterFunc("b", func(ctx context.Context, s graph.State) (graph.State, error) {
//		s["_finished"] = true
//		return s, nil
//	})
//
//	runs := memory.NewMemoryRunStore()
//	svc := graph.NewService(reg, graph.NewMemoryGraphStore(), runs, nil)
//
//	_, err := svc.BuildGraph(ctx, graph.Definition{
//		ID:        "demo",
//		Nodes:     []string{"a", "b"},
//		Edges:     map[string]*string{"a": graph.Edge("b")},
//		StartNode: "a",
//	})
//	res, err := svc.RunGraph(ctx, "demo", graph.State{})
//	// res.Status == "completed", len(res.Log) == 2
//
// See showcases/code_review for a runnable server.
package stepgraph
