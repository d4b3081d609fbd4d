package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neboloop/cell/internal/mcp/mcpctx"
	"github.com/neboloop/cell/internal/session"
)

var sessionActions = []string{"capture", "accept", "dismiss", "chat", "clear", "snapshot"}

// SessionInput defines input for the session MCP tool.
type SessionInput struct {
	Action string `json:"action" jsonschema:"Action: capture, accept, dismiss, chat, clear, snapshot"`

	// Defaults to the MCP session
	SessionID string `json:"sessionId,omitempty" jsonschema:"Prediction session to act on. Defaults to one bound to this MCP connection."`

	// Capture
	Endpoint   string         `json:"endpoint,omitempty" jsonschema:"Endpoint that was called. Required for capture."`
	Method     string         `json:"method,omitempty" jsonschema:"HTTP method (default GET)."`
	Parameters map[string]any `json:"parameters,omitempty" jsonschema:"Request parameters."`

	// Chat
	Content string `json:"content,omitempty" jsonschema:"Message text. Required for chat."`
}

func RegisterSessionTool(server *mcp.Server, toolCtx *mcpctx.ToolContext) {
	mcp.AddTool(server, &mcp.Tool{
		Name:  "session",
		Title: "Prediction Session",
		Description: `Drive a server-side prediction session: record calls, act on the suggestion, and chat.

Actions:
- capture: Record a call and predict the next (requires: endpoint; optional: method, parameters)
- accept: Execute the current prediction as a GET call
- dismiss: Drop the current prediction
- chat: Ask about the session's activity (requires: content)
- clear: Empty the call log
- snapshot: Return the session state

Every action returns the session snapshot.`,
	}, sessionHandler(toolCtx))
}

func sessionHandler(toolCtx *mcpctx.ToolContext) func(ctx context.Context, req *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionInput) (*mcp.CallToolResult, any, error) {
		if !slices.Contains(sessionActions, input.Action) {
			return nil, nil, mcpctx.NewValidationError(
				fmt.Sprintf("invalid action '%s', must be: %s", input.Action, strings.Join(sessionActions, ", ")),
				"action")
		}

		s, err := resolveSession(toolCtx, input.SessionID)
		if err != nil {
			return nil, nil, err
		}

		switch input.Action {
		case "capture":
			if strings.TrimSpace(input.Endpoint) == "" {
				return nil, nil, mcpctx.NewValidationError("endpoint is required for capture action", "endpoint")
			}
			s.Capture(ctx, input.Endpoint, input.Method, input.Parameters)
		case "accept":
			if _, err := s.AcceptPrediction(ctx); err != nil {
				if errors.Is(err, session.ErrNoPrediction) {
					return nil, nil, mcpctx.NewConflictError(err.Error())
				}
				return nil, nil, err
			}
		case "dismiss":
			s.Dismiss()
		case "chat":
			if _, err := s.Submit(ctx, input.Content); err != nil {
				if errors.Is(err, session.ErrEmptyMessage) {
					return nil, nil, mcpctx.NewValidationError("content is required for chat action", "content")
				}
				return nil, nil, err
			}
		case "clear":
			s.Clear()
		}
		return nil, s.Snapshot(), nil
	}
}

// resolveSession looks up an explicit session, or binds one to the MCP
// connection on first use.
func resolveSession(toolCtx *mcpctx.ToolContext, id string) (*session.Session, error) {
	sessions := toolCtx.Svc().Sessions
	if id == "" {
		return sessions.GetOrCreate(toolCtx.SessionID()), nil
	}
	s, err := sessions.Get(id)
	if err != nil {
		return nil, mcpctx.NewNotFoundError(fmt.Sprintf("no session with id '%s'", id))
	}
	return s, nil
}
