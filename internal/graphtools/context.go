package graphtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/mindgraph/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// GraphContextTool handles the graph_context MCP tool.
type GraphContextTool struct {
	svc *service.Service
}

// NewGraphContextTool creates a GraphContextTool.
func NewGraphContextTool(svc *service.Service) *GraphContextTool {
	return &GraphContextTool{svc: svc}
}

// Definition returns the MCP tool definition for graph_context.
func (t *GraphContextTool) Definition() mcp.Tool {
	return mcp.NewTool("graph_context",
		mcp.WithDescription(
			"Get an orientation snapshot of the knowledge graph: counts, recently added nodes, "+
				"the best-connected nodes and the priority dimensions. Call this at the start of a session.",
		),
	)
}

// Handle processes the graph_context tool call.
func (t *GraphContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gc, err := t.svc.Context(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Knowledge graph: %d nodes, %d edges, %d dimensions\n",
		gc.NodeCount, gc.EdgeCount, gc.DimensionCount)

	if len(gc.PriorityDimensions) > 0 {
		b.WriteString("\nPriority dimensions:\n")
		for _, d := range gc.PriorityDimensions {
			fmt.Fprintf(&b, "- %s\n", formatDimension(d))
		}
	}
	if len(gc.RecentNodes) > 0 {
		b.WriteString("\nRecently added:\n")
		for _, n := range gc.RecentNodes {
			fmt.Fprintf(&b, "- #%d %s (%s)\n", n.ID, n.Title, n.CreatedAt)
		}
	}
	if len(gc.HubNodes) > 0 {
		b.WriteString("\nMost connected:\n")
		for _, h := range gc.HubNodes {
			fmt.Fprintf(&b, "- #%d %s (%d edges)\n", h.ID, h.Title, h.Degree)
		}
	}
	if gc.NodeCount == 0 {
		b.WriteString("\nThe graph is empty. Use node_create to add the first node.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
