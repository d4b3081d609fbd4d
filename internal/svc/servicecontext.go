package svc

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/neboloop/cell/internal/agent/ai"
	"github.com/neboloop/cell/internal/chat"
	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/middleware"
	"github.com/neboloop/cell/internal/predict"
	"github.com/neboloop/cell/internal/realtime"
	"github.com/neboloop/cell/internal/session"
	"github.com/neboloop/cell/internal/types"
)

// services is the provider-dependent part of the context, swapped as a
// whole when the config is reloaded.
type services struct {
	config   config.Config
	provider ai.Provider
	predict  *predict.Service
	chat     *chat.Service
}

type ServiceContext struct {
	Version     string
	Sessions    *session.Manager
	Hub         *realtime.Hub
	RateLimiter *middleware.RateLimiter

	current atomic.Pointer[services]
}

// NewServiceContext wires the services around provider. Sessions publish
// their events to Hub and resolve predictions through the current services,
// so a later Reload takes effect for existing sessions too.
func NewServiceContext(c config.Config, provider ai.Provider) (*ServiceContext, error) {
	s, err := buildServices(c, provider)
	if err != nil {
		return nil, err
	}

	svcCtx := &ServiceContext{
		Version: c.App.Version,
		Hub:     realtime.NewHub(),
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimitConfig{
			Requests: c.Security.RateLimitRequests,
			Interval: time.Duration(c.Security.RateLimitInterval) * time.Second,
			Burst:    c.Security.RateLimitBurst,
		}),
	}
	svcCtx.current.Store(s)
	svcCtx.Sessions = session.NewManager(c.CallLog.Capacity, svcCtx, svcCtx,
		session.WithListener(svcCtx.Hub.Publish))
	svcCtx.Hub.SetHandler(realtime.SessionHandler(svcCtx.Sessions))
	return svcCtx, nil
}

func buildServices(c config.Config, provider ai.Provider) (*services, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	validator := predict.FromEndpoints(c.Prediction.AllowedEndpoints)
	if c.Prediction.SchemaFile != "" {
		schema, err := predict.LoadSchema(c.Prediction.SchemaFile)
		if err != nil {
			return nil, err
		}
		validator = predict.AllowListFromSchema(schema, c.Prediction.AllowedEndpoints...)
	}
	return &services{
		config:   c,
		provider: provider,
		predict: predict.New(provider,
			predict.WithMaxTokens(c.Prediction.MaxTokens),
			predict.WithTimeout(c.PredictionTimeout()),
			predict.WithLocation(loc),
			predict.WithValidator(validator),
		),
		chat: chat.New(provider,
			chat.WithMaxTokens(c.Chat.MaxTokens),
			chat.WithTimeout(c.ChatTimeout()),
			chat.WithLocation(loc),
		),
	}, nil
}

// Reload swaps in services built from c and provider. In-flight requests
// finish on the services they started with.
func (s *ServiceContext) Reload(c config.Config, provider ai.Provider) error {
	next, err := buildServices(c, provider)
	if err != nil {
		return err
	}
	s.current.Store(next)
	logging.Infof("[svc] using provider %s", provider.ID())
	return nil
}

func (s *ServiceContext) Config() config.Config {
	return s.current.Load().config
}

func (s *ServiceContext) Predict() *predict.Service {
	return s.current.Load().predict
}

func (s *ServiceContext) Chat() *chat.Service {
	return s.current.Load().chat
}

func (s *ServiceContext) ProviderID() string {
	if p := s.current.Load().provider; p != nil {
		return p.ID()
	}
	return ""
}

// PredictNext implements session.Predictor with the current services.
func (s *ServiceContext) PredictNext(ctx context.Context, calls []types.APICall) *string {
	return s.Predict().PredictNext(ctx, calls)
}

// Reply implements session.Chatter with the current services.
func (s *ServiceContext) Reply(ctx context.Context, messages []types.ChatMessage, calls []types.APICall) string {
	return s.Chat().Reply(ctx, messages, calls)
}
