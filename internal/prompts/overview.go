// Package prompts implements MCP prompt handlers for the knowledge graph.
//
// Prompts are user-triggered workflows (like slash commands) that tell the
// AI which graph tools to call and in what order.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// OverviewPrompt handles the mindgraph-overview MCP prompt.
type OverviewPrompt struct{}

// NewOverviewPrompt creates an OverviewPrompt.
func NewOverviewPrompt() *OverviewPrompt {
	return &OverviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *OverviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("mindgraph-overview",
		mcp.WithPromptDescription(
			"Summarize the knowledge graph: size, priority dimensions, recent additions "+
				"and the most connected nodes. Optionally zoom into one dimension.",
		),
		mcp.WithArgument("dimension",
			mcp.ArgumentDescription("Dimension to focus on (optional)"),
		),
	)
}

// Handle processes the mindgraph-overview prompt request.
func (p *OverviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	dimension := strings.TrimSpace(req.Params.Arguments["dimension"])

	var b strings.Builder
	b.WriteString("Give me an overview of my knowledge graph.\n\n")
	b.WriteString("Please:\n")
	b.WriteString("1. Run `graph_context` and report the node, edge and dimension counts\n")
	b.WriteString("2. List the priority dimensions and what they seem to be about\n")
	b.WriteString("3. Mention the recently added nodes and the most connected ones\n")
	if dimension != "" {
		fmt.Fprintf(&b, "4. Run `node_list` with dimensions=[%q] and summarize that area\n", dimension)
		b.WriteString("5. Point out nodes in it that have no edges yet and suggest links with `edge_create`\n")
	} else {
		b.WriteString("4. Suggest one or two areas that look under-connected\n")
	}

	desc := "Knowledge graph overview"
	if dimension != "" {
		desc = fmt.Sprintf("Knowledge graph overview: %s", dimension)
	}
	return &mcp.GetPromptResult{
		Description: desc,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(b.String()),
			},
		},
	}, nil
}
