// Package codereview is a small static "code review" workflow built on the
// stepgraph engine.
//
// The nodes scan source text line by line, estimate complexity, flag a few
// code smells, turn the findings into suggestions and a quality score, render
// a sanitized HTML report and finally decide whether to loop again:
//
//	extract → complexity → issues → suggest → evaluate → report → loop
//
// loop finishes the run once quality_score reaches QualityThreshold or after
// MaxIterations passes; otherwise it jumps back to extract.
//
//	reg := graph.NewRegistry()
//	codereview.Register(reg)
//	svc := graph.NewService(reg, graph.NewMemoryGraphStore(), runs, nil)
//	_, err := svc.BuildGraph(ctx, codereview.Definition())
//	res, err := svc.RunGraph(ctx, codereview.GraphID, graph.State{"code": src})
package codereview
