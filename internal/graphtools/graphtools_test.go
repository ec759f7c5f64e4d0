package graphtools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/HendryAvila/mindgraph/internal/mention"
	"github.com/HendryAvila/mindgraph/internal/service"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

func newTestService(t *testing.T) *service.Service {
	t.Helper()
	db, err := graph.Open(context.Background(), graph.Options{Path: filepath.Join(t.TempDir(), "graph.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	edges := graph.NewEdges(db)
	nodes := graph.NewNodes(db, graph.NewResolver(edges, 2))
	return service.New(nodes, edges, graph.NewDimensions(db), zap.NewNop())
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

type handler interface {
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func call(t *testing.T, h handler, args map[string]any) (string, bool) {
	t.Helper()
	res, err := h.Handle(context.Background(), makeReq(args))
	require.NoError(t, err)
	require.NotNil(t, res)
	return resultText(res), res.IsError
}

func createNode(t *testing.T, svc *service.Service, title string, dims ...string) *graph.Node {
	t.Helper()
	if len(dims) == 0 {
		dims = []string{"general"}
	}
	n, err := svc.CreateNode(context.Background(), service.CreateNodeInput{Title: title, Dimensions: dims})
	require.NoError(t, err)
	return n
}

// ─── Definitions ─────────────────────────────────────────────────────────────

func TestDefinitions_NamesAndRequiredParams(t *testing.T) {
	svc := newTestService(t)
	tests := []struct {
		tool     interface{ Definition() mcp.Tool }
		name     string
		required []string
	}{
		{NewNodeCreateTool(svc), "node_create", []string{"title", "dimensions"}},
		{NewNodeSearchTool(svc), "node_search", []string{"query"}},
		{NewNodeGetTool(svc), "node_get", []string{"ids"}},
		{NewNodeUpdateTool(svc), "node_update", []string{"id"}},
		{NewNodeDeleteTool(svc), "node_delete", []string{"id"}},
		{NewNodeInsertMentionTool(svc), "node_insert_mention", []string{"node_id", "target_id", "start", "end"}},
		{NewEdgeCreateTool(svc), "edge_create", []string{"from_id", "to_id", "explanation"}},
		{NewEdgeUpdateTool(svc), "edge_update", []string{"id", "explanation"}},
		{NewEdgeDeleteTool(svc), "edge_delete", []string{"id"}},
		{NewEdgeQueryTool(svc), "edge_query", []string{"node_id"}},
		{NewDimensionListTool(svc), "dimension_list", nil},
		{NewDimensionCreateTool(svc), "dimension_create", []string{"name"}},
		{NewDimensionUpdateTool(svc), "dimension_update", []string{"name"}},
		{NewDimensionDeleteTool(svc), "dimension_delete", []string{"name"}},
		{NewDimensionTogglePriorityTool(svc), "dimension_toggle_priority", []string{"name"}},
		{NewGraphContextTool(svc), "graph_context", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := tt.tool.Definition()
			assert.Equal(t, tt.name, def.Name)
			assert.NotEmpty(t, def.Description)
			for _, r := range tt.required {
				assert.Contains(t, def.InputSchema.Properties, r)
				assert.Contains(t, def.InputSchema.Required, r)
			}
		})
	}
}

// ─── Nodes ───────────────────────────────────────────────────────────────────

func TestNodeCreateTool(t *testing.T) {
	svc := newTestService(t)
	tool := NewNodeCreateTool(svc)

	text, isErr := call(t, tool, map[string]any{
		"title":      "Graph theory",
		"dimensions": []any{"math", "Math", "cs"},
		"metadata":   map[string]any{"source": "book"},
	})
	assert.False(t, isErr, text)
	assert.Contains(t, text, `"Graph theory"`)
	assert.Contains(t, text, "Dimensions: math, cs")

	text, isErr = call(t, tool, map[string]any{"title": "Comma dims", "dimensions": "a, b"})
	assert.False(t, isErr, text)
	assert.Contains(t, text, "a, b")
}

func TestNodeCreateTool_ValidationRendersKind(t *testing.T) {
	tool := NewNodeCreateTool(newTestService(t))

	text, isErr := call(t, tool, map[string]any{"title": "No dims"})
	assert.True(t, isErr)
	assert.True(t, strings.HasPrefix(text, "validation: "), text)

	text, isErr = call(t, tool, map[string]any{"dimensions": []any{"x"}})
	assert.True(t, isErr)
	assert.Contains(t, text, "title is required")
}

func TestNodeSearchTool_DetailLevels(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.CreateNode(ctx, service.CreateNodeInput{
		Title: "Apple", Content: strings.Repeat("crunchy ", 100), Dimensions: []string{"fruit"},
	})
	require.NoError(t, err)
	tool := NewNodeSearchTool(svc)

	summary, isErr := call(t, tool, map[string]any{"query": "apple", "detail_level": "summary"})
	assert.False(t, isErr)
	assert.Contains(t, summary, "Apple")
	assert.Contains(t, summary, "detail_level")
	assert.NotContains(t, summary, "crunchy")

	standard, _ := call(t, tool, map[string]any{"query": "apple"})
	assert.Contains(t, standard, "crunchy")
	assert.Contains(t, standard, "...")

	full, _ := call(t, tool, map[string]any{"query": "apple", "detail_level": "full"})
	assert.Contains(t, full, strings.Repeat("crunchy ", 100))

	none, isErr := call(t, tool, map[string]any{"query": "banana"})
	assert.False(t, isErr)
	assert.Contains(t, none, "No nodes found")

	text, isErr := call(t, tool, map[string]any{"query": "apple", "limit": float64(100)})
	assert.True(t, isErr)
	assert.Contains(t, text, "limit")
}

func TestNodeListTool(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, in := range []service.CreateNodeInput{
		{Title: "Apple", Dimensions: []string{"fruit"}},
		{Title: "Carrot", Dimensions: []string{"vegetable"}},
	} {
		_, err := svc.CreateNode(ctx, in)
		require.NoError(t, err)
	}
	tool := NewNodeListTool(svc)

	all, isErr := call(t, tool, map[string]any{})
	assert.False(t, isErr)
	assert.Contains(t, all, "2 nodes")
	assert.Contains(t, all, "Apple")
	assert.Contains(t, all, "Carrot")

	fruit, isErr := call(t, tool, map[string]any{"dimensions": []any{"FRUIT"}})
	assert.False(t, isErr)
	assert.Contains(t, fruit, "Apple")
	assert.NotContains(t, fruit, "Carrot")

	none, _ := call(t, tool, map[string]any{"dimensions": "missing"})
	assert.Contains(t, none, "No nodes found")

	text, isErr := call(t, tool, map[string]any{"limit": float64(101)})
	assert.True(t, isErr)
	assert.Contains(t, text, "limit")
}

func TestNodeGetTool(t *testing.T) {
	svc := newTestService(t)
	a := createNode(t, svc, "Alpha")
	b := createNode(t, svc, "Beta")
	tool := NewNodeGetTool(svc)

	text, isErr := call(t, tool, map[string]any{"ids": []any{float64(b.ID), float64(a.ID), float64(999)}})
	assert.False(t, isErr)
	assert.Contains(t, text, "2 nodes")
	assert.Less(t, strings.Index(text, "Beta"), strings.Index(text, "Alpha"))

	text, isErr = call(t, tool, map[string]any{"ids": fmt.Sprintf("#%d", a.ID)})
	assert.False(t, isErr)
	assert.Contains(t, text, "Alpha")

	text, isErr = call(t, tool, map[string]any{"ids": "0,-1"})
	assert.True(t, isErr)
	assert.Contains(t, text, "validation")
}

func TestNodeUpdateTool_AppendsAndReplaces(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	n, err := svc.CreateNode(ctx, service.CreateNodeInput{Title: "Log", Content: "A", Dimensions: []string{"x"}})
	require.NoError(t, err)
	tool := NewNodeUpdateTool(svc)

	_, isErr := call(t, tool, map[string]any{"id": float64(n.ID), "content": "B"})
	require.False(t, isErr)
	got, err := svc.GetNode(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "A\n\nB", got.Content)

	_, isErr = call(t, tool, map[string]any{"id": float64(n.ID), "content": "C", "replace_content": true, "dimensions": []any{"y"}})
	require.False(t, isErr)
	got, err = svc.GetNode(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", got.Content)
	assert.Equal(t, []string{"y"}, got.Dimensions)

	text, isErr := call(t, tool, map[string]any{"id": float64(n.ID)})
	assert.True(t, isErr)
	assert.Contains(t, text, "at least one field")

	text, isErr = call(t, tool, map[string]any{"id": float64(999), "title": "x"})
	assert.True(t, isErr)
	assert.True(t, strings.HasPrefix(text, "not_found: "), text)
}

func TestNodeDeleteTool(t *testing.T) {
	svc := newTestService(t)
	n := createNode(t, svc, "Doomed")
	tool := NewNodeDeleteTool(svc)

	text, isErr := call(t, tool, map[string]any{"id": float64(n.ID)})
	assert.False(t, isErr)
	assert.Contains(t, text, "deleted")

	_, isErr = call(t, tool, map[string]any{"id": float64(n.ID)})
	assert.True(t, isErr)
}

func TestNodeInsertMentionTool(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	target := createNode(t, svc, "Apple")
	n, err := svc.CreateNode(ctx, service.CreateNodeInput{Title: "Draft", Content: "see @ap", Dimensions: []string{"x"}})
	require.NoError(t, err)

	text, isErr := call(t, NewNodeInsertMentionTool(svc), map[string]any{
		"node_id": float64(n.ID), "target_id": float64(target.ID), "start": float64(4), "end": float64(7),
	})
	assert.False(t, isErr, text)
	assert.Contains(t, text, "see "+mention.Format(target.ID, "Apple"))

	views, err := svc.QueryEdges(ctx, service.QueryEdgesInput{NodeID: n.ID})
	require.NoError(t, err)
	assert.Len(t, views, 1)
}

// ─── Edges ───────────────────────────────────────────────────────────────────

func TestEdgeTools(t *testing.T) {
	svc := newTestService(t)
	a := createNode(t, svc, "Cause")
	b := createNode(t, svc, "Effect")

	text, isErr := call(t, NewEdgeCreateTool(svc), map[string]any{
		"from_id": float64(a.ID), "to_id": float64(b.ID), "explanation": "leads to", "type": "causes",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "leads to [causes]")

	text, isErr = call(t, NewEdgeCreateTool(svc), map[string]any{
		"from_id": float64(a.ID), "to_id": float64(b.ID), "explanation": "",
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "explanation is required")

	views, err := svc.QueryEdges(context.Background(), service.QueryEdgesInput{NodeID: a.ID})
	require.NoError(t, err)
	require.Len(t, views, 1)
	edgeID := float64(views[0].ID)

	text, isErr = call(t, NewEdgeQueryTool(svc), map[string]any{"node_id": float64(b.ID)})
	assert.False(t, isErr)
	assert.Contains(t, text, "<- #")
	assert.Contains(t, text, "Cause")

	text, isErr = call(t, NewEdgeUpdateTool(svc), map[string]any{"id": edgeID, "explanation": "triggers"})
	assert.False(t, isErr)
	assert.Contains(t, text, "triggers [causes]")

	_, isErr = call(t, NewEdgeDeleteTool(svc), map[string]any{"id": edgeID})
	assert.False(t, isErr)

	text, isErr = call(t, NewEdgeQueryTool(svc), map[string]any{"node_id": float64(a.ID)})
	assert.False(t, isErr)
	assert.Contains(t, text, "no edges")
}

// ─── Dimensions ──────────────────────────────────────────────────────────────

func TestDimensionTools(t *testing.T) {
	svc := newTestService(t)
	createNode(t, svc, "Tagged", "ml")

	text, isErr := call(t, NewDimensionCreateTool(svc), map[string]any{"name": "ml"})
	assert.True(t, isErr)
	assert.True(t, strings.HasPrefix(text, "duplicate_name: "), text)

	text, isErr = call(t, NewDimensionUpdateTool(svc), map[string]any{"name": "ml", "new_name": "machine-learning"})
	assert.False(t, isErr, text)
	assert.Contains(t, text, "machine-learning (1 nodes)")

	text, isErr = call(t, NewDimensionTogglePriorityTool(svc), map[string]any{"name": "machine-learning"})
	assert.False(t, isErr)
	assert.Contains(t, text, "now a priority")

	text, isErr = call(t, NewDimensionListTool(svc), nil)
	assert.False(t, isErr)
	assert.Contains(t, text, "machine-learning (1 nodes) [priority]")

	text, isErr = call(t, NewGraphContextTool(svc), nil)
	assert.False(t, isErr)
	assert.Contains(t, text, "1 nodes, 0 edges, 1 dimensions")
	assert.Contains(t, text, "Priority dimensions")

	_, isErr = call(t, NewDimensionDeleteTool(svc), map[string]any{"name": "machine-learning"})
	assert.False(t, isErr)

	text, isErr = call(t, NewDimensionDeleteTool(svc), map[string]any{"name": "machine-learning"})
	assert.True(t, isErr)
	assert.True(t, strings.HasPrefix(text, "not_found: "), text)
}

// ─── Helpers & middleware ────────────────────────────────────────────────────

func TestArgHelpers(t *testing.T) {
	req := makeReq(map[string]any{
		"list":  []any{"a", 1.0, "b"},
		"csv":   " x , ,y ",
		"ids":   []any{1.0, "#2", "zz"},
		"idcsv": "3, #4",
		"s":     "",
		"n":     "#7",
	})

	list, ok := stringListArg(req, "list")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, list)

	list, ok = stringListArg(req, "csv")
	assert.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, list)

	_, ok = stringListArg(req, "missing")
	assert.False(t, ok)

	assert.Equal(t, []int64{1, 2, 0}, idListArg(req, "ids"))
	assert.Equal(t, []int64{3, 4}, idListArg(req, "idcsv"))

	require.NotNil(t, optString(req, "s"))
	assert.Nil(t, optString(req, "missing"))
	assert.Equal(t, int64(7), int64Arg(req, "n"))
	assert.Zero(t, int64Arg(req, "missing"))
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mw := LoggingMiddleware(zap.New(core))

	ok := mw(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("fine"), nil
	})
	bad := mw(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("validation: nope"), nil
	})

	req := makeReq(nil)
	req.Params.Name = "node_get"
	_, err := ok(context.Background(), req)
	require.NoError(t, err)
	_, err = bad(context.Background(), req)
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "node_get", entries[0].ContextMap()["tool"])
	assert.NotEmpty(t, entries[0].ContextMap()["call_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "validation: nope", entries[1].ContextMap()["result"])
}
