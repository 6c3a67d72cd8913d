package operation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-training/account-linker/pkg/account"
	"github.com/go-training/account-linker/pkg/operation/social"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
)

// NewServer creates the MCP server with the social tools registered.
func NewServer(version string, tools *social.Tools) *server.MCPServer {
	s := server.NewMCPServer(
		"account-linker",
		version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(ToolHandlerMiddleware()),
	)
	RegisterSocialTool(s, tools)
	return s
}

// ToolHandlerMiddleware records the tool name, status and duration of every
// tool call on the current span.
func ToolHandlerMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			account.AddRequestAttributes(ctx, attribute.String("mcp.tool", req.Params.Name))

			res, err := next(ctx, req)
			durationMs := float64(time.Since(start).Microseconds()) / 1000.0

			status := "ok"
			var errMsg string
			if err != nil {
				status = "error"
				errMsg = err.Error()
			} else if res != nil && res.IsError {
				status = "error"
				errMsg = resultText(res)
			}
			attrs := []attribute.KeyValue{
				attribute.String("mcp.status", status),
				attribute.Float64("mcp.duration_ms", durationMs),
			}
			if errMsg != "" {
				attrs = append(attrs, attribute.String("mcp.error", errMsg))
			}
			account.AddRequestAttributes(ctx, attrs...)

			return res, err
		}
	}
}

func resultText(res *mcp.CallToolResult) string {
	if len(res.Content) == 0 {
		return "unknown error with no content"
	}
	if txt, ok := res.Content[0].(mcp.TextContent); ok {
		return txt.Text
	}
	return fmt.Sprintf("unknown error with content type %T", res.Content[0])
}
