// Package resources implements MCP resource handlers for the knowledge graph.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (mindgraph://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/HendryAvila/mindgraph/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	OverviewURI   = "mindgraph://graph/overview"
	DimensionsURI = "mindgraph://dimensions"
)

// Handler manages graph resource endpoints.
type Handler struct {
	svc *service.Service
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// OverviewResource returns the MCP resource definition for the graph overview.
func (h *Handler) OverviewResource() mcp.Resource {
	return mcp.NewResource(
		OverviewURI,
		"Knowledge Graph Overview",
		mcp.WithResourceDescription("Counts, recent nodes, hub nodes and priority dimensions"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleOverview returns the graph overview as JSON.
func (h *Handler) HandleOverview(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	gc, err := h.svc.Context(ctx)
	if err != nil {
		return errorResource(req.Params.URI, graph.Describe(err)), nil
	}
	return jsonResource(req.Params.URI, gc)
}

// DimensionsResource returns the MCP resource definition for the dimension vocabulary.
func (h *Handler) DimensionsResource() mcp.Resource {
	return mcp.NewResource(
		DimensionsURI,
		"Dimensions",
		mcp.WithResourceDescription("Every dimension with its node count, priority dimensions first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleDimensions returns the dimension list as JSON.
func (h *Handler) HandleDimensions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	dims, err := h.svc.ListDimensions(ctx)
	if err != nil {
		return errorResource(req.Params.URI, graph.Describe(err)), nil
	}
	if dims == nil {
		dims = []graph.Dimension{}
	}
	return jsonResource(req.Params.URI, dims)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
