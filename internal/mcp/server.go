package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/mcp/mcpctx"
	"github.com/neboloop/cell/internal/mcp/tools"
	"github.com/neboloop/cell/internal/svc"
)

// NewServer creates an MCP server with all tools registered.
// This is a convenience wrapper around NewServerWithContext that discards the toolCtx.
func NewServer(svc *svc.ServiceContext, r *http.Request) *mcp.Server {
	server, _ := NewServerWithContext(svc, r)
	return server
}

// NewServerWithContext creates a new MCP server and returns both the server and the ToolContext.
func NewServerWithContext(svc *svc.ServiceContext, r *http.Request) (*mcp.Server, *mcpctx.ToolContext) {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "cell",
		Version: svc.Version,
	}, nil)

	sessionID := r.Header.Get("Mcp-Session-Id")
	logging.Debugf("[MCP] Creating server for session %s (%s)", sessionID, r.Header.Get("User-Agent"))

	toolCtx := mcpctx.NewToolContext(svc, sessionID)

	tools.RegisterPredictTool(server, toolCtx)
	tools.RegisterChatTool(server, toolCtx)
	tools.RegisterSessionTool(server, toolCtx)

	return server, toolCtx
}
