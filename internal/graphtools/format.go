package graphtools

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/mindgraph/internal/graph"
)

// Detail levels for read tools:
//   - summary: ids, titles and dimensions only
//   - standard: plus a truncated content snippet
//   - full: complete content, description, link and metadata
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// detailLevelValues returns the enum values for tool definitions.
func detailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// parseDetailLevel defaults empty or unknown values to standard.
func parseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

const snippetLength = 300

// summaryFooter is appended to summary-mode responses.
const summaryFooter = "\n---\nUse detail_level: standard or full for more detail."

// estimateTokens approximates a token count with the chars/4 heuristic.
func estimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	if n/4 == 0 {
		return 1
	}
	return n / 4
}

func tokenFooter(text string) string {
	return fmt.Sprintf("\n~%d tokens", estimateTokens(text))
}

// writeNode renders one node at the given detail level.
func writeNode(b *strings.Builder, n graph.Node, level string) {
	fmt.Fprintf(b, "#%d %s", n.ID, n.Title)
	if n.Type != "" {
		fmt.Fprintf(b, " (%s)", n.Type)
	}
	b.WriteString("\n")
	if len(n.Dimensions) > 0 {
		fmt.Fprintf(b, "    dimensions: %s\n", strings.Join(n.Dimensions, ", "))
	}
	switch level {
	case DetailSummary:
		return
	case DetailFull:
		if n.Description != "" {
			fmt.Fprintf(b, "    description: %s\n", n.Description)
		}
		if n.Link != "" {
			fmt.Fprintf(b, "    link: %s\n", n.Link)
		}
		if len(n.Metadata) > 0 {
			fmt.Fprintf(b, "    metadata: %v\n", map[string]any(n.Metadata))
		}
		fmt.Fprintf(b, "    created: %s | updated: %s\n", n.CreatedAt, n.UpdatedAt)
		if n.Content != "" {
			fmt.Fprintf(b, "    content:\n%s\n", n.Content)
		}
	default:
		if n.Description != "" {
			fmt.Fprintf(b, "    %s\n", graph.Truncate(n.Description, snippetLength))
		}
		if n.Content != "" {
			fmt.Fprintf(b, "    %s\n", graph.Truncate(n.Content, snippetLength))
		}
	}
}

func formatNodes(header string, nodes []graph.Node, level string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for _, n := range nodes {
		writeNode(&b, n, level)
		b.WriteString("\n")
	}
	if level == DetailSummary {
		b.WriteString(summaryFooter)
	}
	out := b.String()
	return out + tokenFooter(out)
}

func formatEdge(e graph.Edge) string {
	s := fmt.Sprintf("Edge #%d: #%d -> #%d: %s", e.ID, e.FromNodeID, e.ToNodeID, e.Context.Explanation)
	if e.Context.Type != "" {
		s += fmt.Sprintf(" [%s]", e.Context.Type)
	}
	if e.Source != "" {
		s += fmt.Sprintf(" (source: %s)", e.Source)
	}
	return s
}

func formatDimension(d graph.Dimension) string {
	s := fmt.Sprintf("%s (%d nodes)", d.Name, d.NodeCount)
	if d.IsPriority {
		s += " [priority]"
	}
	if d.Description != "" {
		s += " - " + d.Description
	}
	return s
}
