package graphtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/mindgraph/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── DimensionListTool ───────────────────────────────────────────────────────

// DimensionListTool handles the dimension_list MCP tool.
type DimensionListTool struct {
	svc *service.Service
}

// NewDimensionListTool creates a DimensionListTool.
func NewDimensionListTool(svc *service.Service) *DimensionListTool {
	return &DimensionListTool{svc: svc}
}

// Definition returns the MCP tool definition for dimension_list.
func (t *DimensionListTool) Definition() mcp.Tool {
	return mcp.NewTool("dimension_list",
		mcp.WithDescription("List every dimension with its node count. Priority dimensions come first. "+
			"Check this before tagging nodes to reuse existing names."),
	)
}

// Handle processes the dimension_list tool call.
func (t *DimensionListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dims, err := t.svc.ListDimensions(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	if len(dims) == 0 {
		return mcp.NewToolResultText("No dimensions yet."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d dimensions:\n\n", len(dims))
	for _, d := range dims {
		fmt.Fprintf(&b, "- %s\n", formatDimension(d))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── DimensionCreateTool ─────────────────────────────────────────────────────

// DimensionCreateTool handles the dimension_create MCP tool.
type DimensionCreateTool struct {
	svc *service.Service
}

// NewDimensionCreateTool creates a DimensionCreateTool.
func NewDimensionCreateTool(svc *service.Service) *DimensionCreateTool {
	return &DimensionCreateTool{svc: svc}
}

// Definition returns the MCP tool definition for dimension_create.
func (t *DimensionCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("dimension_create",
		mcp.WithDescription("Add a dimension to the shared vocabulary."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Dimension name")),
		mcp.WithString("description", mcp.Description("What belongs in this dimension")),
		mcp.WithBoolean("is_priority", mcp.Description("Pin the dimension to the top (default: false)")),
	)
}

// Handle processes the dimension_create tool call.
func (t *DimensionCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := t.svc.CreateDimension(ctx, service.CreateDimensionInput{
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		IsPriority:  boolArg(req, "is_priority", false),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("Dimension created: " + formatDimension(*d)), nil
}

// ─── DimensionUpdateTool ─────────────────────────────────────────────────────

// DimensionUpdateTool handles the dimension_update MCP tool.
type DimensionUpdateTool struct {
	svc *service.Service
}

// NewDimensionUpdateTool creates a DimensionUpdateTool.
func NewDimensionUpdateTool(svc *service.Service) *DimensionUpdateTool {
	return &DimensionUpdateTool{svc: svc}
}

// Definition returns the MCP tool definition for dimension_update.
func (t *DimensionUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("dimension_update",
		mcp.WithDescription("Rename a dimension or change its description or priority. "+
			"Renaming retags every node that carried the old name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Current dimension name")),
		mcp.WithString("new_name", mcp.Description("New name")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithBoolean("is_priority", mcp.Description("New priority flag")),
	)
}

// Handle processes the dimension_update tool call.
func (t *DimensionUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := t.svc.UpdateDimension(ctx, service.UpdateDimensionInput{
		Name:        req.GetString("name", ""),
		NewName:     optString(req, "new_name"),
		Description: optString(req, "description"),
		IsPriority:  optBool(req, "is_priority"),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("Dimension updated: " + formatDimension(*d)), nil
}

// ─── DimensionDeleteTool ─────────────────────────────────────────────────────

// DimensionDeleteTool handles the dimension_delete MCP tool.
type DimensionDeleteTool struct {
	svc *service.Service
}

// NewDimensionDeleteTool creates a DimensionDeleteTool.
func NewDimensionDeleteTool(svc *service.Service) *DimensionDeleteTool {
	return &DimensionDeleteTool{svc: svc}
}

// Definition returns the MCP tool definition for dimension_delete.
func (t *DimensionDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("dimension_delete",
		mcp.WithDescription("Delete a dimension and untag every node carrying it. Nodes themselves are kept."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Dimension name")),
	)
}

// Handle processes the dimension_delete tool call.
func (t *DimensionDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if err := t.svc.DeleteDimension(ctx, name); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Dimension %q deleted", strings.TrimSpace(name))), nil
}

// ─── DimensionTogglePriorityTool ─────────────────────────────────────────────

// DimensionTogglePriorityTool handles the dimension_toggle_priority MCP tool.
type DimensionTogglePriorityTool struct {
	svc *service.Service
}

// NewDimensionTogglePriorityTool creates a DimensionTogglePriorityTool.
func NewDimensionTogglePriorityTool(svc *service.Service) *DimensionTogglePriorityTool {
	return &DimensionTogglePriorityTool{svc: svc}
}

// Definition returns the MCP tool definition for dimension_toggle_priority.
func (t *DimensionTogglePriorityTool) Definition() mcp.Tool {
	return mcp.NewTool("dimension_toggle_priority",
		mcp.WithDescription("Flip the priority flag of a dimension."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Dimension name")),
	)
}

// Handle processes the dimension_toggle_priority tool call.
func (t *DimensionTogglePriorityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := t.svc.ToggleDimensionPriority(ctx, req.GetString("name", ""))
	if err != nil {
		return errorResult(err), nil
	}
	state := "no longer a priority"
	if d.IsPriority {
		state = "now a priority"
	}
	return mcp.NewToolResultText(fmt.Sprintf("Dimension %q is %s", d.Name, state)), nil
}
