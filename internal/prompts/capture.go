package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// CapturePrompt handles the mindgraph-capture MCP prompt.
// It walks the AI through filing a new idea into the graph without
// duplicating vocabulary.
type CapturePrompt struct{}

// NewCapturePrompt creates a CapturePrompt.
func NewCapturePrompt() *CapturePrompt {
	return &CapturePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *CapturePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("mindgraph-capture",
		mcp.WithPromptDescription(
			"Capture an idea as a node: reuse existing dimensions, "+
				"check for related nodes and connect them with explained edges.",
		),
		mcp.WithArgument("idea",
			mcp.ArgumentDescription("The idea, note or link to capture"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the mindgraph-capture prompt request.
func (p *CapturePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	idea := strings.TrimSpace(req.Params.Arguments["idea"])
	if idea == "" {
		return nil, fmt.Errorf("idea argument is required")
	}

	return &mcp.GetPromptResult{
		Description: "Capture an idea into the knowledge graph",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to save this in my knowledge graph:\n\n%s\n\n"+
						"Please:\n"+
						"1. Run `dimension_list` and pick at most 5 existing dimensions that fit; only invent a new one if nothing fits\n"+
						"2. Run `node_search` with the key terms to find related nodes\n"+
						"3. Create the node with `node_create` (short title, the full text as content)\n"+
						"4. For each genuinely related node, run `edge_create` with a one-sentence explanation of the relationship\n"+
						"5. Show me the new node id and the edges you created",
					idea,
				)),
			},
		},
	}, nil
}
