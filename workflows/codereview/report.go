package codereview

import (
	"context"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/smallnest/stepgraph/graph"
)

// RenderReport writes the review as markdown to state["report_markdown"] and
// as sanitized HTML to state["report_html"].
func RenderReport(_ context.Context, state graph.State) (graph.State, error) {
	md := buildMarkdown(state)
	state["report_markdown"] = md
	state["report_html"] = renderHTML(md)
	return state, nil
}

func buildMarkdown(state graph.State) string {
	var sb strings.Builder

	title := "Code review"
	if t, ok := state["title"].(string); ok && t != "" {
		title += ": " + t
	}
	sb.WriteString("# " + title + "\n\n")

	sb.WriteString(fmt.Sprintf("**Quality score:** %d / 100 (iteration %d)\n\n",
		toInt(state["quality_score"]), toInt(state[graph.IterationKey])))

	report, _ := state["complexity_report"].(map[string]any)
	sb.WriteString("## Complexity\n\n")
	sb.WriteString(fmt.Sprintf("- Estimated complexity: %d\n", toInt(report["estimated_complexity"])))
	sb.WriteString(fmt.Sprintf("- Functions: %d\n\n", toInt(report["function_count"])))

	if functions := toStrings(state["functions"]); len(functions) > 0 {
		sb.WriteString("## Functions\n\n")
		for _, fn := range functions {
			sb.WriteString("- `" + strings.ReplaceAll(fn, "`", "'") + "`\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Suggestions\n\n")
	for _, s := range toStrings(state["suggestions"]) {
		sb.WriteString("- " + s + "\n")
	}

	if history := toInts(state["score_history"]); len(history) > 1 {
		parts := make([]string, len(history))
		for i, score := range history {
			parts[i] = fmt.Sprint(score)
		}
		sb.WriteString("\n## Score history\n\n")
		sb.WriteString(strings.Join(parts, " → ") + "\n")
	}

	return sb.String()
}

func renderHTML(md string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	out := markdown.Render(doc, renderer)

	return string(bluemonday.UGCPolicy().SanitizeBytes(out))
}
