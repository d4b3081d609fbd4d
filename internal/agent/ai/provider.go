package ai

import (
	"context"
	"errors"
	"strings"
)

// StreamEventType defines the type of streaming event
type StreamEventType string

const (
	EventTypeText  StreamEventType = "text"
	EventTypeError StreamEventType = "error"
	EventTypeDone  StreamEventType = "done"
)

// StreamEvent represents a streaming response event
type StreamEvent struct {
	Type  StreamEventType `json:"type"`
	Text  string          `json:"text,omitempty"`
	Error error           `json:"error,omitempty"`
}

// Message is a single conversational turn sent to a provider.
type Message struct {
	Role    string `json:"role"` // "user", "assistant" or "system"
	Content string `json:"content"`
}

// UserMessage is shorthand for a single user turn.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// ChatRequest represents a request to the AI provider
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Model       string    `json:"model,omitempty"` // Model override; empty uses the provider default
}

// Provider interface for AI providers
type Provider interface {
	// ID returns the provider identifier (e.g., "anthropic", "openai")
	ID() string

	// Stream sends a request and returns a channel of streaming events.
	// The channel is closed after a done or error event.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error)
}

// ProviderError represents an error from a provider
type ProviderError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

func (e *ProviderError) Error() string {
	return e.Message
}

// IsRateLimitOrAuth checks if an error is due to rate limiting or auth issues
func IsRateLimitOrAuth(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code == "rate_limit_exceeded" ||
			pe.Code == "authentication_error" ||
			pe.Type == "rate_limit_error" ||
			pe.Type == "authentication_error"
	}
	reason := ClassifyErrorReason(err)
	return reason == "rate_limit" || reason == "auth"
}

// ClassifyErrorReason determines the category of a backend failure for logging.
// Returns: "billing", "rate_limit", "auth", "timeout", or "other"
func ClassifyErrorReason(err error) string {
	if err == nil {
		return "other"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout"
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Code {
		case "rate_limit_exceeded":
			return "rate_limit"
		case "authentication_error", "invalid_api_key", "unauthorized":
			return "auth"
		case "insufficient_quota", "billing_error", "payment_required":
			return "billing"
		}

		switch pe.Type {
		case "rate_limit_error":
			return "rate_limit"
		case "authentication_error":
			return "auth"
		}
	}

	lowerMsg := strings.ToLower(err.Error())

	billingPatterns := []string{
		"billing", "quota", "payment", "credit", "insufficient",
		"subscription", "exceeded your", "spending limit",
	}
	if containsAny(lowerMsg, billingPatterns) {
		return "billing"
	}

	rateLimitPatterns := []string{
		"rate limit", "rate_limit", "too many requests", "429",
		"throttle", "throttling", "slow down",
	}
	if containsAny(lowerMsg, rateLimitPatterns) {
		return "rate_limit"
	}

	authPatterns := []string{
		"authentication", "unauthorized", "api key", "401",
		"forbidden", "403", "invalid credentials",
	}
	if containsAny(lowerMsg, authPatterns) {
		return "auth"
	}

	timeoutPatterns := []string{
		"timeout", "timed out", "deadline exceeded", "context deadline",
		"etimedout", "esockettimedout", "context canceled",
	}
	if containsAny(lowerMsg, timeoutPatterns) {
		return "timeout"
	}

	return "other"
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
