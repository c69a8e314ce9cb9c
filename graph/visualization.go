package graph

import (
	"fmt"
	"sort"
	"strings"
)

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid flowchart of the graph's default edges
func (g *Graph) DrawMermaid() string {
	return g.DrawMermaidWithOptions(MermaidOptions{
		Direction: "TD",
	})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
// Only default edges are drawn; jumps chosen by nodes at run time are not
// visible in the edge table.
func (g *Graph) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	// Entry point
	if g.StartNode != "" {
		sb.WriteString(fmt.Sprintf("    %s[[\"%s\"]]\n", g.StartNode, g.StartNode))
		sb.WriteString(fmt.Sprintf("    START --> %s\n", g.StartNode))
		sb.WriteString("    START([\"START\"])\n")
		sb.WriteString("    style START fill:#90EE90\n")
	}

	ids := g.NodeIDs()
	for _, id := range ids {
		if id != g.StartNode {
			sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, id))
		}
	}

	sb.WriteString("    END([\"END\"])\n")
	sb.WriteString("    style END fill:#FFB6C1\n")

	// Edges, in node order so output is stable
	for _, id := range ids {
		next := g.Next(id)
		if next == "" {
			next = END
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", id, next))
	}

	// Edge sources that are not nodes are unreachable but still shown
	var orphans []string
	for from := range g.Edges {
		if _, ok := g.Nodes[from]; !ok {
			orphans = append(orphans, from)
		}
	}
	sort.Strings(orphans)
	for _, from := range orphans {
		if next := g.Next(from); next != "" {
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", from, next))
		}
	}

	if g.StartNode != "" {
		sb.WriteString(fmt.Sprintf("    style %s fill:#87CEEB\n", g.StartNode))
	}

	return sb.String()
}
