// Package graphtools provides MCP tool handlers for the knowledge graph.
//
// Each tool handler follows the same pattern:
// - A struct with its dependencies (the service) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Failures are returned as tool errors rendered "<kind>: <message>", never
// as protocol errors.
package graphtools

import (
	"strconv"
	"strings"

	"github.com/HendryAvila/mindgraph/internal/graph"
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func int64Arg(req mcp.CallToolRequest, key string) int64 {
	switch v := req.GetArguments()[key].(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(v), "#"), 10, 64)
		return n
	}
	return 0
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// optString returns nil when key is absent, so partial updates can tell
// "not sent" from "sent empty".
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func optBool(req mcp.CallToolRequest, key string) *bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

// stringListArg accepts a JSON array of strings or a comma-separated
// string. present is false when the key was not sent at all.
func stringListArg(req mcp.CallToolRequest, key string) (list []string, present bool) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, false
	}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
	case []string:
		list = append(list, v...)
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
	}
	return list, true
}

// idListArg accepts a JSON array of numbers or a comma-separated string
// such as "1,2,#3". Unparseable entries become 0 and are rejected later.
func idListArg(req mcp.CallToolRequest, key string) []int64 {
	var ids []int64
	switch v := req.GetArguments()[key].(type) {
	case []any:
		for _, item := range v {
			switch n := item.(type) {
			case float64:
				ids = append(ids, int64(n))
			case string:
				id, _ := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(n), "#"), 10, 64)
				ids = append(ids, id)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimPrefix(strings.TrimSpace(part), "#")
			if part == "" {
				continue
			}
			id, _ := strconv.ParseInt(part, 10, 64)
			ids = append(ids, id)
		}
	}
	return ids
}

// errorResult renders err for the caller without driver details.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(graph.Describe(err))
}

// stringItems is the JSON schema for an array of strings.
var stringItems = map[string]any{"type": "string"}
