package codereview

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/stepgraph/graph"
)

const (
	// QualityThreshold is the score at which the review stops looping.
	QualityThreshold = 80

	// MaxIterations bounds the number of review passes.
	MaxIterations = 3

	// GraphID is the id of the default review graph.
	GraphID = "code_review_v1"

	// MaxSteps is the step budget of the default review graph.
	MaxSteps = 50

	maxLineLength = 100
)

// Node ids
const (
	NodeExtract    = "extract"
	NodeComplexity = "complexity"
	NodeIssues     = "issues"
	NodeSuggest    = "suggest"
	NodeEvaluate   = "evaluate"
	NodeReport     = "report"
	NodeLoop       = "loop"
)

// ExtractFunctions collects function signatures ("def " and "func " lines)
// into state["functions"].
func ExtractFunctions(_ context.Context, state graph.State) (graph.State, error) {
	code, _ := state["code"].(string)

	functions := []string{}
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "def ") || strings.HasPrefix(trimmed, "func ") {
			functions = append(functions, trimmed)
		}
	}

	state["functions"] = functions
	return state, nil
}

// CheckComplexity estimates complexity as the function count plus one per
// loop and two per conditional.
func CheckComplexity(_ context.Context, state graph.State) (graph.State, error) {
	code, _ := state["code"].(string)
	functions := toStrings(state["functions"])

	complexity := len(functions)
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "for ") || strings.HasPrefix(trimmed, "while ") {
			complexity++
		}
		if strings.Contains(" "+trimmed+" ", " if ") {
			complexity += 2
		}
	}

	state["complexity_report"] = map[string]any{
		"estimated_complexity": complexity,
		"function_count":       len(functions),
	}
	return state, nil
}

// DetectIssues flags long lines, TODO comments and variables named temp.
func DetectIssues(_ context.Context, state graph.State) (graph.State, error) {
	code, _ := state["code"].(string)

	issues := []string{}
	if code != "" {
		for i, line := range strings.Split(code, "\n") {
			n := i + 1
			if len(line) > maxLineLength {
				issues = append(issues, fmt.Sprintf("Line %d: line too long (>%d chars)", n, maxLineLength))
			}
			if strings.Contains(line, "TODO") {
				issues = append(issues, fmt.Sprintf("Line %d: TODO comment present", n))
			}
			if strings.Contains(line, "temp") {
				issues = append(issues, fmt.Sprintf("Line %d: variable name 'temp' used", n))
			}
		}
	}

	state["issues"] = issues
	return state, nil
}

// SuggestImprovements turns complexity and issues into suggestions.
func SuggestImprovements(_ context.Context, state graph.State) (graph.State, error) {
	issues := toStrings(state["issues"])
	complexity := estimatedComplexity(state)

	var suggestions []string
	switch {
	case complexity > 15:
		suggestions = append(suggestions, "Overall complexity is high. Consider splitting large functions into smaller ones.")
	case complexity > 8:
		suggestions = append(suggestions, "Complexity is moderate. Look for opportunities to simplify nested conditions or loops.")
	default:
		suggestions = append(suggestions, "Complexity looks reasonable for this snippet.")
	}

	if len(issues) > 0 {
		suggestions = append(suggestions, "Address the following issues detected:")
		suggestions = append(suggestions, issues...)
	} else {
		suggestions = append(suggestions, "No obvious issues detected. Good job!")
	}

	state["suggestions"] = suggestions
	return state, nil
}

// EvaluateQuality scores the code from 0 to 100 and appends the score to
// state["score_history"].
func EvaluateQuality(_ context.Context, state graph.State) (graph.State, error) {
	complexity := estimatedComplexity(state)
	issues := toStrings(state["issues"])

	score := 100
	score -= max(0, (complexity-5)*3)
	score -= len(issues) * 5
	score = min(100, max(0, score))

	state["quality_score"] = score
	state["score_history"] = append(toInts(state["score_history"]), score)
	return state, nil
}

// LoopDecider finishes the run when the score is good enough or the
// iteration budget is spent, otherwise it starts another pass at extract.
func LoopDecider(_ context.Context, state graph.State) (graph.State, graph.Route, error) {
	score := toInt(state["quality_score"])
	iteration := toInt(state[graph.IterationKey])

	if score >= QualityThreshold {
		return state, graph.Finish(), nil
	}
	if iteration+1 < MaxIterations {
		state[graph.IterationKey] = iteration + 1
		return state, graph.Goto(NodeExtract), nil
	}
	return state, graph.Finish(), nil
}

// Register adds the review nodes to reg.
func Register(reg *graph.Registry) {
	reg.RegisterFunc(NodeExtract, ExtractFunctions)
	reg.RegisterFunc(NodeComplexity, CheckComplexity)
	reg.RegisterFunc(NodeIssues, DetectIssues)
	reg.RegisterFunc(NodeSuggest, SuggestImprovements)
	reg.RegisterFunc(NodeEvaluate, EvaluateQuality)
	reg.RegisterFunc(NodeReport, RenderReport)
	reg.Register(NodeLoop, graph.NodeFunc(LoopDecider))
}

// Definition returns the default review graph.
func Definition() graph.Definition {
	return graph.Definition{
		ID: GraphID,
		Nodes: []string{
			NodeExtract, NodeComplexity, NodeIssues, NodeSuggest,
			NodeEvaluate, NodeReport, NodeLoop,
		},
		Edges: map[string]*string{
			NodeExtract:    graph.Edge(NodeComplexity),
			NodeComplexity: graph.Edge(NodeIssues),
			NodeIssues:     graph.Edge(NodeSuggest),
			NodeSuggest:    graph.Edge(NodeEvaluate),
			NodeEvaluate:   graph.Edge(NodeReport),
			NodeReport:     graph.Edge(NodeLoop),
			NodeLoop:       nil,
		},
		StartNode: NodeExtract,
		MaxSteps:  MaxSteps,
	}
}

// Install registers the nodes on the service's registry and builds the
// default graph.
func Install(ctx context.Context, svc *graph.Service) (*graph.Graph, error) {
	Register(svc.Registry())
	return svc.BuildGraph(ctx, Definition())
}

func estimatedComplexity(state graph.State) int {
	report, _ := state["complexity_report"].(map[string]any)
	return toInt(report["estimated_complexity"])
}

// toInt accepts the numeric shapes produced by nodes and by JSON decoding.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toInts(v any) []int {
	switch list := v.(type) {
	case []int:
		return append([]int(nil), list...)
	case []any:
		out := make([]int, 0, len(list))
		for _, item := range list {
			out = append(out, toInt(item))
		}
		return out
	default:
		return nil
	}
}

func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
