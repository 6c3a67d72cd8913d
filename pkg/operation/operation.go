package operation

import (
	"github.com/go-training/account-linker/pkg/operation/social"

	"github.com/mark3labs/mcp-go/server"
)

/*
RegisterSocialTool registers the social account tools to the specified MCPServer instance.

Parameters:
  - s: Pointer to the MCPServer instance where the tools will be registered.
  - tools: Handlers bound to the backend the tools talk to.

sync_social_account is a write operation; get_social_account and
list_social_accounts are reads.
*/
func RegisterSocialTool(s *server.MCPServer, tools *social.Tools) {
	tool := &Tool{}

	tool.RegisterWrite(server.ServerTool{
		Tool:    social.SyncSocialAccountTool,
		Handler: tools.HandleSyncSocialAccountTool,
	})
	tool.RegisterRead(server.ServerTool{
		Tool:    social.GetSocialAccountTool,
		Handler: tools.HandleGetSocialAccountTool,
	})
	tool.RegisterRead(server.ServerTool{
		Tool:    social.ListSocialAccountsTool,
		Handler: tools.HandleListSocialAccountsTool,
	})

	s.AddTools(tool.Tools()...)
}

/*
Tool manages collections of tools to be registered with an MCPServer.

Fields:
  - write: ServerTools that change backend state.
  - read: ServerTools that only read it.
*/
type Tool struct {
	write []server.ServerTool
	read  []server.ServerTool
}

// RegisterWrite registers a ServerTool as a write operation.
func (t *Tool) RegisterWrite(s server.ServerTool) {
	t.write = append(t.write, s)
}

// RegisterRead registers a ServerTool as a read operation.
func (t *Tool) RegisterRead(s server.ServerTool) {
	t.read = append(t.read, s)
}

/*
Tools returns all registered ServerTools, write tools first followed by
read tools, for batch registration to the MCPServer.
*/
func (t *Tool) Tools() []server.ServerTool {
	tools := make([]server.ServerTool, 0, len(t.write)+len(t.read))
	tools = append(tools, t.write...)
	tools = append(tools, t.read...)
	return tools
}
