package graphtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/HendryAvila/mindgraph/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── EdgeCreateTool ──────────────────────────────────────────────────────────

// EdgeCreateTool handles the edge_create MCP tool.
type EdgeCreateTool struct {
	svc *service.Service
}

// NewEdgeCreateTool creates an EdgeCreateTool.
func NewEdgeCreateTool(svc *service.Service) *EdgeCreateTool {
	return &EdgeCreateTool{svc: svc}
}

// Definition returns the MCP tool definition for edge_create.
func (t *EdgeCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("edge_create",
		mcp.WithDescription(
			"Connect two nodes with a directed, explained edge. Every call creates a new edge, "+
				"even if the two nodes are already connected.",
		),
		mcp.WithNumber("from_id", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithNumber("to_id", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("explanation",
			mcp.Required(),
			mcp.Description("Why these nodes are connected"),
		),
		mcp.WithString("type",
			mcp.Description("Optional relation kind, e.g. supports, contradicts, part_of"),
		),
		mcp.WithString("source",
			mcp.Description("Who created the edge (default: user)"),
		),
	)
}

// Handle processes the edge_create tool call.
func (t *EdgeCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := t.svc.CreateEdge(ctx, service.CreateEdgeInput{
		FromNodeID:  int64Arg(req, "from_id"),
		ToNodeID:    int64Arg(req, "to_id"),
		Explanation: req.GetString("explanation", ""),
		Type:        req.GetString("type", ""),
		Source:      req.GetString("source", ""),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("Created " + formatEdge(*e)), nil
}

// ─── EdgeUpdateTool ──────────────────────────────────────────────────────────

// EdgeUpdateTool handles the edge_update MCP tool.
type EdgeUpdateTool struct {
	svc *service.Service
}

// NewEdgeUpdateTool creates an EdgeUpdateTool.
func NewEdgeUpdateTool(svc *service.Service) *EdgeUpdateTool {
	return &EdgeUpdateTool{svc: svc}
}

// Definition returns the MCP tool definition for edge_update.
func (t *EdgeUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("edge_update",
		mcp.WithDescription("Replace the explanation of an edge. Other edge fields are kept."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Edge id")),
		mcp.WithString("explanation", mcp.Required(), mcp.Description("New explanation")),
	)
}

// Handle processes the edge_update tool call.
func (t *EdgeUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	e, err := t.svc.UpdateEdge(ctx, service.UpdateEdgeInput{
		ID:          int64Arg(req, "id"),
		Explanation: req.GetString("explanation", ""),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("Updated " + formatEdge(*e)), nil
}

// ─── EdgeDeleteTool ──────────────────────────────────────────────────────────

// EdgeDeleteTool handles the edge_delete MCP tool.
type EdgeDeleteTool struct {
	svc *service.Service
}

// NewEdgeDeleteTool creates an EdgeDeleteTool.
func NewEdgeDeleteTool(svc *service.Service) *EdgeDeleteTool {
	return &EdgeDeleteTool{svc: svc}
}

// Definition returns the MCP tool definition for edge_delete.
func (t *EdgeDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("edge_delete",
		mcp.WithDescription("Delete one edge. Both nodes are kept."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Edge id")),
	)
}

// Handle processes the edge_delete tool call.
func (t *EdgeDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id")
	if err := t.svc.DeleteEdge(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Edge #%d deleted", id)), nil
}

// ─── EdgeQueryTool ───────────────────────────────────────────────────────────

// EdgeQueryTool handles the edge_query MCP tool.
type EdgeQueryTool struct {
	svc *service.Service
}

// NewEdgeQueryTool creates an EdgeQueryTool.
func NewEdgeQueryTool(svc *service.Service) *EdgeQueryTool {
	return &EdgeQueryTool{svc: svc}
}

// Definition returns the MCP tool definition for edge_query.
func (t *EdgeQueryTool) Definition() mcp.Tool {
	return mcp.NewTool("edge_query",
		mcp.WithDescription("List the edges of a node in both directions, newest first, with the connected node's title."),
		mcp.WithNumber("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max edges (default: %d, max: %d)", graph.DefaultEdgeLimit, graph.MaxEdgeLimit)),
		),
	)
}

// Handle processes the edge_query tool call.
func (t *EdgeQueryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := int64Arg(req, "node_id")
	views, err := t.svc.QueryEdges(ctx, service.QueryEdgesInput{
		NodeID: nodeID,
		Limit:  intArg(req, "limit", 0),
	})
	if err != nil {
		return errorResult(err), nil
	}
	if len(views) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Node #%d has no edges.", nodeID)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Node #%d has %d edges:\n\n", nodeID, len(views))
	for _, v := range views {
		arrow := "->"
		if v.Direction == graph.DirectionIncoming {
			arrow = "<-"
		}
		fmt.Fprintf(&b, "[edge #%d] %s #%d %s: %s", v.ID, arrow, v.PeerID, v.PeerTitle, v.Context.Explanation)
		if v.Context.Type != "" {
			fmt.Fprintf(&b, " [%s]", v.Context.Type)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
