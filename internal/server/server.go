// Package server wires all components and creates the MCP server instance.
//
// This is the composition root: it opens the store, builds the graph
// service and injects it into the tools, prompts and resources that
// depend on it. No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/HendryAvila/mindgraph/internal/config"
	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/HendryAvila/mindgraph/internal/graphtools"
	"github.com/HendryAvila/mindgraph/internal/prompts"
	"github.com/HendryAvila/mindgraph/internal/resources"
	"github.com/HendryAvila/mindgraph/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Version is set at build time via ldflags.
var Version = "dev"

// OpenService opens the database described by cfg and builds the graph
// service on top of it.
//
// The returned cleanup function closes the database and must be called on
// shutdown (typically via defer). It is always non-nil.
func OpenService(ctx context.Context, cfg config.Config, logger *zap.Logger) (*service.Service, func(), error) {
	db, err := graph.Open(ctx, graph.Options{
		Path:        cfg.DBPath(),
		BusyTimeout: cfg.Store.BusyTimeout,
		Logger:      logger.Named("graph"),
	})
	if err != nil {
		return nil, noop, fmt.Errorf("opening graph store: %w", err)
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			logger.Warn("graph store close", zap.Error(err))
		}
	}

	edges := graph.NewEdges(db)
	nodes := graph.NewNodes(db, graph.NewResolver(edges, cfg.Graph.ResolverConcurrency))
	svc := service.New(nodes, edges, graph.NewDimensions(db), logger.Named("service"))
	return svc, cleanup, nil
}

// New creates the MCP server with every tool, prompt and resource
// registered against svc.
func New(svc *service.Service, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"mindgraph",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(graphtools.LoggingMiddleware(logger.Named("tools"))),
		server.WithInstructions(serverInstructions()),
	)

	registerGraphTools(s, svc)

	// --- Register prompts ---

	overviewPrompt := prompts.NewOverviewPrompt()
	s.AddPrompt(overviewPrompt.Definition(), overviewPrompt.Handle)

	capturePrompt := prompts.NewCapturePrompt()
	s.AddPrompt(capturePrompt.Definition(), capturePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(svc)
	s.AddResource(resourceHandler.OverviewResource(), resourceHandler.HandleOverview)
	s.AddResource(resourceHandler.DimensionsResource(), resourceHandler.HandleDimensions)

	return s
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

type tool interface {
	Definition() mcp.Tool
	Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// registerGraphTools registers the 17 graph MCP tools with the server.
func registerGraphTools(s *server.MCPServer, svc *service.Service) {
	tools := []tool{
		// --- Nodes ---
		graphtools.NewNodeCreateTool(svc),
		graphtools.NewNodeSearchTool(svc),
		graphtools.NewNodeListTool(svc),
		graphtools.NewNodeGetTool(svc),
		graphtools.NewNodeUpdateTool(svc),
		graphtools.NewNodeDeleteTool(svc),
		graphtools.NewNodeInsertMentionTool(svc),

		// --- Edges ---
		graphtools.NewEdgeCreateTool(svc),
		graphtools.NewEdgeUpdateTool(svc),
		graphtools.NewEdgeDeleteTool(svc),
		graphtools.NewEdgeQueryTool(svc),

		// --- Dimensions ---
		graphtools.NewDimensionListTool(svc),
		graphtools.NewDimensionCreateTool(svc),
		graphtools.NewDimensionUpdateTool(svc),
		graphtools.NewDimensionDeleteTool(svc),
		graphtools.NewDimensionTogglePriorityTool(svc),

		// --- Orientation ---
		graphtools.NewGraphContextTool(svc),
	}
	for _, t := range tools {
		s.AddTool(t.Definition(), t.Handle)
	}
}

// serverInstructions returns the system instructions that tell the AI
// how to use mindgraph effectively.
func serverInstructions() string {
	return `You have access to mindgraph, a personal knowledge graph.

## MODEL

- Nodes are notes, links or snippets. Each carries 1 to 5 dimensions (tags).
- Edges are directed and always carry a one-sentence explanation.
- Dimensions are a shared vocabulary. Priority dimensions are the user's focus areas.

## HOW TO WORK

1. Start a session with graph_context to see what exists.
2. Before creating a node, run dimension_list and reuse existing dimensions.
3. Before creating a node, run node_search to avoid near-duplicates.
   Use node_list to browse recent nodes or everything under a dimension.
4. Connect related nodes with edge_create and explain WHY they relate.
5. node_update appends content by default; pass replace_content=true to overwrite.

## MENTIONS

Content may reference another node with a mention token such as [NODE:12:"Title"].
Saving content with mention tokens creates an edge to each referenced node.
Use node_insert_mention to turn a partially typed "@name" into a token.

## DETAIL LEVELS

node_search and node_get accept detail_level: summary, standard or full.
node_search defaults to standard and node_get to full. Start with summary
when exploring and fetch full nodes only when needed.`
}
