package predict

import (
	"context"
	"strings"
	"time"

	"github.com/neboloop/cell/internal/agent/ai"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/prompt"
	"github.com/neboloop/cell/internal/types"
)

const (
	DefaultMaxTokens = 50
	DefaultTimeout   = 10 * time.Second
)

// Service turns a call history into a single predicted endpoint.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	provider  ai.Provider
	validator Validator
	maxTokens int
	timeout   time.Duration
	model     string
	loc       *time.Location
	log       logging.Logger
}

type Option func(*Service)

func WithValidator(v Validator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

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

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(s *Service) { s.model = model }
}

// WithLocation sets the zone call times are rendered in.
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
		validator: PrefixValidator{Prefix: DefaultPrefix},
		maxTokens: DefaultMaxTokens,
		timeout:   DefaultTimeout,
		loc:       time.Local,
		log:       logging.With("component", "predict"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictNext asks the backend for the most likely next endpoint.
// It returns nil for an empty history, a backend failure, or an answer
// that does not pass validation. It never returns an error.
func (s *Service) PredictNext(ctx context.Context, calls []types.APICall) *string {
	if len(calls) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := ai.Complete(ctx, s.provider, &ai.ChatRequest{
		Messages:  []ai.Message{ai.UserMessage(prompt.Prediction(calls, s.loc))},
		MaxTokens: s.maxTokens,
		Model:     s.model,
	})
	if err != nil {
		s.log.Errorf("Error predicting next API call (%s): %v", ai.ClassifyErrorReason(err), err)
		return nil
	}

	endpoint := Clean(text)
	if !s.validator.Validate(endpoint) {
		s.log.Debugf("Discarding prediction %q", endpoint)
		return nil
	}
	return &endpoint
}

// Clean trims whitespace, then removes one pair of matching surrounding
// quotes (' or "). Unmatched and inner quotes are kept.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	if n := len(text); n >= 2 && isQuote(text[0]) && text[0] == text[n-1] {
		text = text[1 : n-1]
	}
	return text
}

func isQuote(b byte) bool {
	return b == '"' || b == '\''
}
