package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neboloop/cell/internal/mcp/mcpctx"
	"github.com/neboloop/cell/internal/types"
)

// ChatInput defines input for the chat_about_activity tool.
type ChatInput struct {
	Message  string          `json:"message" jsonschema:"The question to ask about the API activity."`
	APICalls []types.APICall `json:"apiCalls,omitempty" jsonschema:"Recent API calls the answer should take into account."`
}

type ChatOutput struct {
	Message string `json:"message"`
}

func RegisterChatTool(server *mcp.Server, toolCtx *mcpctx.ToolContext) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat_about_activity",
		Title:       "Chat About API Activity",
		Description: "Ask the assistant about recent API activity: what the user has been doing, what an endpoint is for, or what to try next.",
	}, chatHandler(toolCtx))
}

func chatHandler(toolCtx *mcpctx.ToolContext) func(ctx context.Context, req *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ChatInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Message) == "" {
			return nil, nil, mcpctx.NewValidationError("message is required", "message")
		}

		messages := []types.ChatMessage{{Role: types.RoleUser, Content: input.Message}}
		text, err := toolCtx.Svc().Chat().Complete(ctx, messages, input.APICalls)
		if err != nil {
			return nil, nil, fmt.Errorf("chat failed: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, ChatOutput{Message: text}, nil
	}
}
