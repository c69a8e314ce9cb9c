// Package store defines run persistence for stepgraph.
//
// A run is one execution of a graph: its ID, the graph it belongs to, the
// latest state, the step log and a status. The executor writes a run after
// every step, so readers can observe an execution in progress.
//
// Backends live in sub-packages:
//   - memory: process-local map, IDs run_1, run_2, ...
//   - redis: go-redis, INCR-allocated IDs and sorted-set indexes
//   - postgres: pgx pool, JSONB columns
//   - sqlite: mattn/go-sqlite3, JSON text columns
//
// All backends hand out copies. A state map passed to Create or Update is
// copied before it is stored and Get returns a fresh copy on every call.
//
//	runs := memory.NewMemoryRunStore()
//	id, _ := runs.Create(ctx, "code_review_v1", map[string]any{"code": src})
//	run, _ := runs.Get(ctx, id)
//	fmt.Println(run.Status) // created
//
// Backends that round-trip through JSON return numbers as float64.
package store
