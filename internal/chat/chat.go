package chat

import (
	"context"
	"errors"
	"time"

	"github.com/neboloop/cell/internal/agent/ai"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/prompt"
	"github.com/neboloop/cell/internal/types"
)

const (
	DefaultMaxTokens = 500
	DefaultTimeout   = 30 * time.Second

	// Apology is the assistant reply shown when the backend fails.
	Apology = "Sorry, there was an error processing your request."
)

// ErrNoMessages is returned when a chat request carries no messages.
var ErrNoMessages = errors.New("no messages")

// Service answers user messages with the recent call history as context.
type Service struct {
	provider  ai.Provider
	maxTokens int
	timeout   time.Duration
	model     string
	loc       *time.Location
	log       logging.Logger
}

type Option func(*Service)

func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithModel(model string) Option {
	return func(s *Service) { s.model = model }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(provider ai.Provider, opts ...Option) *Service {
	s := &Service{
		provider:  provider,
		maxTokens: DefaultMaxTokens,
		timeout:   DefaultTimeout,
		loc:       time.Local,
		log:       logging.With("component", "chat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Complete returns the backend's reply to the latest message. Earlier turns
// are accepted but only the latest message content goes into the prompt.
func (s *Service) Complete(ctx context.Context, messages []types.ChatMessage, calls []types.APICall) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}
	latest := messages[len(messages)-1].Content

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return ai.Complete(ctx, s.provider, &ai.ChatRequest{
		Messages:  []ai.Message{ai.UserMessage(prompt.Chat(calls, latest, s.loc))},
		MaxTokens: s.maxTokens,
		Model:     s.model,
	})
}

// Reply is Complete with failures logged and replaced by Apology.
func (s *Service) Reply(ctx context.Context, messages []types.ChatMessage, calls []types.APICall) string {
	text, err := s.Complete(ctx, messages, calls)
	if err != nil {
		s.log.Errorf("Error in chat (%s): %v", ai.ClassifyErrorReason(err), err)
		return Apology
	}
	return text
}
