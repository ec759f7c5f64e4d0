package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/HendryAvila/mindgraph/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestServer(t *testing.T) (*mcpserver.MCPServer, *observer.ObservedLogs) {
	t.Helper()
	cfg := config.Default()
	cfg.Store.DataDir = t.TempDir()

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	svc, cleanup, err := OpenService(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	return New(svc, logger), logs
}

// call sends one JSON-RPC request and decodes the result into out.
func call(t *testing.T, s *mcpserver.MCPServer, method string, params any, out any) {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := s.HandleMessage(context.Background(), raw)
	b, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(b, &envelope))
	require.Nil(t, envelope.Error, string(b))
	require.NoError(t, json.Unmarshal(envelope.Result, out))
}

func TestNew_RegistersEverything(t *testing.T) {
	s, _ := newTestServer(t)

	var tools mcp.ListToolsResult
	call(t, s, "tools/list", map[string]any{}, &tools)
	names := make([]string, 0, len(tools.Tools))
	for _, tl := range tools.Tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{
		"node_create", "node_search", "node_list", "node_get", "node_update", "node_delete", "node_insert_mention",
		"edge_create", "edge_update", "edge_delete", "edge_query",
		"dimension_list", "dimension_create", "dimension_update", "dimension_delete", "dimension_toggle_priority",
		"graph_context",
	}, names)

	var prompts mcp.ListPromptsResult
	call(t, s, "prompts/list", map[string]any{}, &prompts)
	assert.Len(t, prompts.Prompts, 2)

	var resources mcp.ListResourcesResult
	call(t, s, "resources/list", map[string]any{}, &resources)
	uris := []string{}
	for _, r := range resources.Resources {
		uris = append(uris, r.URI)
	}
	assert.ElementsMatch(t, []string{"mindgraph://graph/overview", "mindgraph://dimensions"}, uris)
}

func TestToolCallsAreLogged(t *testing.T) {
	s, logs := newTestServer(t)

	var res struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	}
	call(t, s, "tools/call", map[string]any{
		"name": "node_create",
		"arguments": map[string]any{
			"title":      "Composition root",
			"dimensions": []string{"architecture"},
		},
	}, &res)
	assert.False(t, res.IsError)
	require.NotEmpty(t, res.Content)
	assert.Contains(t, res.Content[0].Text, "Composition root")

	entries := logs.FilterMessage("tool call").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "node_create", entries[0].ContextMap()["tool"])
	assert.NotEmpty(t, entries[0].ContextMap()["call_id"])

	call(t, s, "tools/call", map[string]any{
		"name":      "node_delete",
		"arguments": map[string]any{"id": 999},
	}, &res)
	assert.True(t, res.IsError)
	assert.Equal(t, 1, logs.FilterMessage("tool call rejected").Len())
}

func TestOpenService_BadPath(t *testing.T) {
	cfg := config.Default()
	cfg.Store.DataDir = "/dev/null/nope"

	_, cleanup, err := OpenService(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.NotNil(t, cleanup)
	cleanup()
}
