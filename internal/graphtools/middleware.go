package graphtools

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// LoggingMiddleware logs every tool call with a correlation id, its
// duration and whether it failed.
func LoggingMiddleware(logger *zap.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			res, err := next(ctx, req)

			fields := []zap.Field{
				zap.String("tool", req.Params.Name),
				zap.String("call_id", uuid.NewString()),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case err != nil:
				logger.Error("tool call errored", append(fields, zap.Error(err))...)
			case res != nil && res.IsError:
				logger.Warn("tool call rejected", append(fields, zap.String("result", resultText(res)))...)
			default:
				logger.Info("tool call", fields...)
			}
			return res, err
		}
	}
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
