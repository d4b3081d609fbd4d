package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyErrorReason(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "other"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"wrapped deadline", fmt.Errorf("openai: %w", context.DeadlineExceeded), "timeout"},
		{"provider code rate limit", &ProviderError{Code: "rate_limit_exceeded", Message: "slow"}, "rate_limit"},
		{"provider code auth", &ProviderError{Code: "invalid_api_key", Message: "bad"}, "auth"},
		{"provider code billing", &ProviderError{Code: "insufficient_quota", Message: "nope"}, "billing"},
		{"provider type", &ProviderError{Type: "authentication_error", Message: "x"}, "auth"},
		{"message 429", errors.New("POST /v1/chat/completions: 429 Too Many Requests"), "rate_limit"},
		{"message 401", errors.New("401 Unauthorized"), "auth"},
		{"message quota", errors.New("You exceeded your current quota"), "billing"},
		{"message timeout", errors.New("dial tcp: i/o timeout"), "timeout"},
		{"unknown", errors.New("something odd"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyErrorReason(tt.err); got != tt.expected {
				t.Errorf("ClassifyErrorReason(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestIsRateLimitOrAuth(t *testing.T) {
	if !IsRateLimitOrAuth(&ProviderError{Type: "rate_limit_error", Message: "x"}) {
		t.Error("expected rate_limit_error to match")
	}
	if !IsRateLimitOrAuth(errors.New("401 Unauthorized")) {
		t.Error("expected 401 message to match")
	}
	if IsRateLimitOrAuth(errors.New("connection reset")) {
		t.Error("connection reset should not match")
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Code: "c", Message: "boom", Type: "t"}
	if err.Error() != "boom" {
		t.Errorf("expected message 'boom', got %q", err.Error())
	}
}
