package mcpctx

import (
	"github.com/neboloop/cell/internal/svc"
)

// ToolContext carries the per-connection state shared by all MCP tools.
type ToolContext struct {
	svc       *svc.ServiceContext
	sessionID string
}

// NewToolContext creates a tool context for one MCP session.
func NewToolContext(svc *svc.ServiceContext, sessionID string) *ToolContext {
	return &ToolContext{
		svc:       svc,
		sessionID: sessionID,
	}
}

// SessionID returns the MCP session ID. It doubles as the default
// prediction session for the session tool.
func (t *ToolContext) SessionID() string {
	return t.sessionID
}

// Svc returns the service context.
func (t *ToolContext) Svc() *svc.ServiceContext {
	return t.svc
}

// ToolError represents a structured error for MCP tool responses.
type ToolError struct {
	Code    string `json:"code"`    // "not_found", "validation" or "conflict"
	Message string `json:"message"` // Human-readable description
	Field   string `json:"field"`   // For validation errors
}

func (e *ToolError) Error() string {
	if e.Field != "" {
		return e.Code + ": " + e.Message + " (field: " + e.Field + ")"
	}
	return e.Code + ": " + e.Message
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(message, field string) *ToolError {
	return &ToolError{Code: "validation", Message: message, Field: field}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *ToolError {
	return &ToolError{Code: "not_found", Message: message}
}

// NewConflictError creates a conflict error, e.g. accepting with nothing predicted.
func NewConflictError(message string) *ToolError {
	return &ToolError{Code: "conflict", Message: message}
}
