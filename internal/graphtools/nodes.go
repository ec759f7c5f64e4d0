package graphtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/HendryAvila/mindgraph/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── NodeCreateTool ──────────────────────────────────────────────────────────

// NodeCreateTool handles the node_create MCP tool.
type NodeCreateTool struct {
	svc *service.Service
}

// NewNodeCreateTool creates a NodeCreateTool.
func NewNodeCreateTool(svc *service.Service) *NodeCreateTool {
	return &NodeCreateTool{svc: svc}
}

// Definition returns the MCP tool definition for node_create.
func (t *NodeCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("node_create",
		mcp.WithDescription(
			"Store a new piece of knowledge as a node. Tag it with 1-5 dimensions; unknown dimensions are created. "+
				`Reference other nodes inline with [NODE:<id>:"<title>"] tokens and an edge to each is created automatically.`,
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short, searchable title (max 160 chars)"),
		),
		mcp.WithArray("dimensions",
			mcp.Required(),
			mcp.Description("1-5 dimension names (array or comma-separated string)"),
			mcp.Items(stringItems),
		),
		mcp.WithString("content",
			mcp.Description("Main body text (max 20000 chars)"),
		),
		mcp.WithString("description",
			mcp.Description("One-paragraph summary (max 2000 chars)"),
		),
		mcp.WithString("link",
			mcp.Description("Source URL"),
		),
		mcp.WithString("type",
			mcp.Description("Free-form kind, e.g. note, article, idea, person"),
		),
		mcp.WithString("chunk",
			mcp.Description("Raw source text kept for later processing (max 50000 chars)"),
		),
		mcp.WithObject("metadata",
			mcp.Description("Arbitrary JSON object stored with the node"),
		),
	)
}

// Handle processes the node_create tool call.
func (t *NodeCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dims, _ := stringListArg(req, "dimensions")
	in := service.CreateNodeInput{
		Title:       req.GetString("title", ""),
		Content:     req.GetString("content", ""),
		Description: req.GetString("description", ""),
		Link:        req.GetString("link", ""),
		Type:        req.GetString("type", ""),
		Chunk:       req.GetString("chunk", ""),
		Dimensions:  dims,
	}
	if m, ok := req.GetArguments()["metadata"].(map[string]any); ok {
		in.Metadata = m
	}

	n, err := t.svc.CreateNode(ctx, in)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Node created: #%d %q\nDimensions: %s",
		n.ID, n.Title, strings.Join(n.Dimensions, ", "))), nil
}

// ─── NodeSearchTool ──────────────────────────────────────────────────────────

// NodeSearchTool handles the node_search MCP tool.
type NodeSearchTool struct {
	svc *service.Service
}

// NewNodeSearchTool creates a NodeSearchTool.
func NewNodeSearchTool(svc *service.Service) *NodeSearchTool {
	return &NodeSearchTool{svc: svc}
}

// Definition returns the MCP tool definition for node_search.
func (t *NodeSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("node_search",
		mcp.WithDescription(
			"Search nodes by text. Exact title matches rank first, then title prefixes, title substrings, "+
				"description matches and finally content matches. Optionally restrict to nodes tagged with any of the given dimensions.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text (max 400 chars)"),
		),
		mcp.WithArray("dimensions",
			mcp.Description("Up to 5 dimension names; nodes with any of them match"),
			mcp.Items(stringItems),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max results (default: %d, max: %d)", service.DefaultSearchLimit, service.MaxSearchLimit)),
		),
		mcp.WithNumber("offset",
			mcp.Description("Results to skip for pagination (default: 0)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary, standard (default) or full"),
			mcp.Enum(detailLevelValues()...),
		),
	)
}

// Handle processes the node_search tool call.
func (t *NodeSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dims, _ := stringListArg(req, "dimensions")
	nodes, err := t.svc.SearchNodes(ctx, service.SearchNodesInput{
		Query:      req.GetString("query", ""),
		Dimensions: dims,
		Limit:      intArg(req, "limit", 0),
		Offset:     intArg(req, "offset", 0),
	})
	if err != nil {
		return errorResult(err), nil
	}
	if len(nodes) == 0 {
		return mcp.NewToolResultText("No nodes found matching your query."), nil
	}

	level := parseDetailLevel(req.GetString("detail_level", ""))
	return mcp.NewToolResultText(formatNodes(fmt.Sprintf("Found %d nodes:", len(nodes)), nodes, level)), nil
}

// ─── NodeListTool ────────────────────────────────────────────────────────────

// NodeListTool handles the node_list MCP tool.
type NodeListTool struct {
	svc *service.Service
}

// NewNodeListTool creates a NodeListTool.
func NewNodeListTool(svc *service.Service) *NodeListTool {
	return &NodeListTool{svc: svc}
}

// Definition returns the MCP tool definition for node_list.
func (t *NodeListTool) Definition() mcp.Tool {
	return mcp.NewTool("node_list",
		mcp.WithDescription(
			"List the most recently updated nodes without a search query, optionally restricted to nodes tagged with any of the given dimensions.",
		),
		mcp.WithArray("dimensions",
			mcp.Description("Up to 5 dimension names; nodes with any of them match"),
			mcp.Items(stringItems),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max results (default: %d, max: 100)", graph.DefaultNodeLimit)),
		),
		mcp.WithNumber("offset",
			mcp.Description("Results to skip for pagination (default: 0)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary (default), standard or full"),
			mcp.Enum(detailLevelValues()...),
		),
	)
}

// Handle processes the node_list tool call.
func (t *NodeListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dims, _ := stringListArg(req, "dimensions")
	nodes, err := t.svc.ListNodes(ctx, service.ListNodesInput{
		Dimensions: dims,
		Limit:      intArg(req, "limit", 0),
		Offset:     intArg(req, "offset", 0),
	})
	if err != nil {
		return errorResult(err), nil
	}
	if len(nodes) == 0 {
		return mcp.NewToolResultText("No nodes found."), nil
	}

	level := req.GetString("detail_level", DetailSummary)
	return mcp.NewToolResultText(formatNodes(fmt.Sprintf("%d nodes:", len(nodes)), nodes, parseDetailLevel(level))), nil
}

// ─── NodeGetTool ─────────────────────────────────────────────────────────────

// NodeGetTool handles the node_get MCP tool.
type NodeGetTool struct {
	svc *service.Service
}

// NewNodeGetTool creates a NodeGetTool.
func NewNodeGetTool(svc *service.Service) *NodeGetTool {
	return &NodeGetTool{svc: svc}
}

// Definition returns the MCP tool definition for node_get.
func (t *NodeGetTool) Definition() mcp.Tool {
	return mcp.NewTool("node_get",
		mcp.WithDescription("Fetch up to 10 nodes by id. Missing ids are skipped."),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description(`Node ids (array of numbers or comma-separated string like "12,15")`),
			mcp.Items(map[string]any{"type": "number"}),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary, standard or full (default)"),
			mcp.Enum(detailLevelValues()...),
		),
	)
}

// Handle processes the node_get tool call.
func (t *NodeGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodes, err := t.svc.GetNodes(ctx, idListArg(req, "ids"))
	if err != nil {
		return errorResult(err), nil
	}
	if len(nodes) == 0 {
		return mcp.NewToolResultText("None of the requested nodes exist."), nil
	}

	level := req.GetString("detail_level", DetailFull)
	return mcp.NewToolResultText(formatNodes(fmt.Sprintf("%d nodes:", len(nodes)), nodes, parseDetailLevel(level))), nil
}

// ─── NodeUpdateTool ──────────────────────────────────────────────────────────

// NodeUpdateTool handles the node_update MCP tool.
type NodeUpdateTool struct {
	svc *service.Service
}

// NewNodeUpdateTool creates a NodeUpdateTool.
func NewNodeUpdateTool(svc *service.Service) *NodeUpdateTool {
	return &NodeUpdateTool{svc: svc}
}

// Definition returns the MCP tool definition for node_update.
func (t *NodeUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("node_update",
		mcp.WithDescription(
			"Update fields of a node. Only the fields you send change. Content is APPENDED after a blank line "+
				"unless replace_content is true. Sending dimensions replaces the whole set.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Node id"),
		),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("Content to append (or replace with replace_content)")),
		mcp.WithBoolean("replace_content", mcp.Description("Overwrite content instead of appending (default: false)")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("link", mcp.Description("New link")),
		mcp.WithString("type", mcp.Description("New type")),
		mcp.WithString("chunk", mcp.Description("New chunk")),
		mcp.WithObject("metadata", mcp.Description("Replacement metadata object")),
		mcp.WithArray("dimensions",
			mcp.Description("Replacement dimension set, 1-5 names"),
			mcp.Items(stringItems),
		),
	)
}

// Handle processes the node_update tool call.
func (t *NodeUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := service.UpdateNodeInput{
		ID:             int64Arg(req, "id"),
		Title:          optString(req, "title"),
		Content:        optString(req, "content"),
		Description:    optString(req, "description"),
		Link:           optString(req, "link"),
		Type:           optString(req, "type"),
		Chunk:          optString(req, "chunk"),
		ReplaceContent: boolArg(req, "replace_content", false),
	}
	if dims, ok := stringListArg(req, "dimensions"); ok {
		in.Dimensions = &dims
	}
	if m, ok := req.GetArguments()["metadata"].(map[string]any); ok {
		md := graph.Metadata(m)
		in.Metadata = &md
	}

	n, err := t.svc.UpdateNode(ctx, in)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Node updated: #%d %q\nDimensions: %s",
		n.ID, n.Title, strings.Join(n.Dimensions, ", "))), nil
}

// ─── NodeDeleteTool ──────────────────────────────────────────────────────────

// NodeDeleteTool handles the node_delete MCP tool.
type NodeDeleteTool struct {
	svc *service.Service
}

// NewNodeDeleteTool creates a NodeDeleteTool.
func NewNodeDeleteTool(svc *service.Service) *NodeDeleteTool {
	return &NodeDeleteTool{svc: svc}
}

// Definition returns the MCP tool definition for node_delete.
func (t *NodeDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("node_delete",
		mcp.WithDescription("Permanently delete a node together with all of its edges."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Node id"),
		),
	)
}

// Handle processes the node_delete tool call.
func (t *NodeDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id")
	if err := t.svc.DeleteNode(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Node #%d deleted", id)), nil
}

// ─── NodeInsertMentionTool ───────────────────────────────────────────────────

// NodeInsertMentionTool handles the node_insert_mention MCP tool.
type NodeInsertMentionTool struct {
	svc *service.Service
}

// NewNodeInsertMentionTool creates a NodeInsertMentionTool.
func NewNodeInsertMentionTool(svc *service.Service) *NodeInsertMentionTool {
	return &NodeInsertMentionTool{svc: svc}
}

// Definition returns the MCP tool definition for node_insert_mention.
func (t *NodeInsertMentionTool) Definition() mcp.Tool {
	return mcp.NewTool("node_insert_mention",
		mcp.WithDescription(
			"Replace a typed trigger (e.g. '@app') inside a node's content with a mention of another node, "+
				"then link the two nodes. start and end are byte offsets of the trigger.",
		),
		mcp.WithNumber("node_id", mcp.Required(), mcp.Description("Node whose content is edited")),
		mcp.WithNumber("target_id", mcp.Required(), mcp.Description("Node being mentioned")),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("Trigger start offset")),
		mcp.WithNumber("end", mcp.Required(), mcp.Description("Trigger end offset (exclusive)")),
	)
}

// Handle processes the node_insert_mention tool call.
func (t *NodeInsertMentionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := t.svc.InsertMention(ctx, service.InsertMentionInput{
		NodeID:   int64Arg(req, "node_id"),
		TargetID: int64Arg(req, "target_id"),
		Start:    intArg(req, "start", -1),
		End:      intArg(req, "end", -1),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Mention inserted into #%d %q\n\n%s",
		n.ID, n.Title, graph.Truncate(n.Content, snippetLength))), nil
}
