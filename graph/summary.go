package graph

import (
	"fmt"
	"strings"
)

// Summarizer derives the advisory log summary for a step from the state the
// node returned. It must not modify the state.
type Summarizer func(state State) string

// DefaultSummary reports the well-known review fields when present.
func DefaultSummary(state State) string {
	var parts []string

	if v, ok := state["quality_score"]; ok {
		parts = append(parts, fmt.Sprintf("quality_score=%v", v))
	}
	if v, ok := state[IterationKey]; ok {
		parts = append(parts, fmt.Sprintf("iteration=%v", v))
	}
	if n, ok := listLen(state["issues"]); ok {
		parts = append(parts, fmt.Sprintf("issues=%d", n))
	}
	if report, ok := state["complexity_report"].(map[string]any); ok {
		if v, ok := report["estimated_complexity"]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("complexity=%v", v))
		}
		if v, ok := report["function_count"]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("functions=%v", v))
		}
	}

	if len(parts) == 0 {
		return "state updated"
	}
	return strings.Join(parts, ", ")
}

func listLen(v any) (int, bool) {
	switch list := v.(type) {
	case []any:
		return len(list), true
	case []string:
		return len(list), true
	default:
		return 0, false
	}
}
