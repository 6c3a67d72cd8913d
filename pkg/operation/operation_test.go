package operation

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTool_WriteBeforeRead(t *testing.T) {
	tool := &Tool{}
	tool.RegisterRead(server.ServerTool{Tool: mcp.NewTool("read_a")})
	tool.RegisterWrite(server.ServerTool{Tool: mcp.NewTool("write_a")})
	tool.RegisterRead(server.ServerTool{Tool: mcp.NewTool("read_b")})

	var names []string
	for _, st := range tool.Tools() {
		names = append(names, st.Tool.Name)
	}
	assert.Equal(t, []string{"write_a", "read_a", "read_b"}, names)
}

func TestToolHandlerMiddleware(t *testing.T) {
	mw := ToolHandlerMiddleware()
	handler := mw(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("please login"), nil
	})

	res, err := handler(context.Background(), mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "get_social_account"}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "please login", resultText(res))
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "unknown error with no content", resultText(&mcp.CallToolResult{}))
	assert.Equal(t, "ok", resultText(mcp.NewToolResultText("ok")))
}
