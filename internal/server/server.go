package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/neboloop/cell/internal/config"
	"github.com/neboloop/cell/internal/handler"
	"github.com/neboloop/cell/internal/handler/chat"
	"github.com/neboloop/cell/internal/handler/predict"
	"github.com/neboloop/cell/internal/handler/session"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/mcp"
	"github.com/neboloop/cell/internal/middleware"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/websocket"
)

// ServerOptions configures optional behavior of Run.
type ServerOptions struct {
	// Quiet suppresses request logging and startup banners.
	Quiet bool
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, c config.Config, svcCtx *svc.ServiceContext, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	if err := checkPortAvailable(c.Addr()); err != nil {
		return fmt.Errorf("address %s is already in use: %w", c.Addr(), err)
	}

	mcpHandler := mcp.NewHandler(svcCtx)

	go svcCtx.Hub.Run(ctx)
	go svcCtx.RateLimiter.Run(ctx)
	go pruneSessions(ctx, svcCtx, mcpHandler, c.SessionIdleTimeout())

	// No ReadTimeout/WriteTimeout: they would cut hijacked WebSocket connections.
	httpServer := &http.Server{
		Addr:        c.Addr(),
		Handler:     newRouter(c, svcCtx, o, mcpHandler),
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if !o.Quiet {
		logging.Infof("Server ready at http://%s (provider %s)", c.Addr(), svcCtx.ProviderID())
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	if !o.Quiet {
		logging.Info("Shutting down server gracefully...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// NewRouter builds the HTTP routes without starting anything.
func NewRouter(c config.Config, svcCtx *svc.ServiceContext, o ServerOptions) http.Handler {
	return newRouter(c, svcCtx, o, mcp.NewHandler(svcCtx))
}

func newRouter(c config.Config, svcCtx *svc.ServiceContext, o ServerOptions, mcpHandler *mcp.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(requestIDMiddleware)
	if !o.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS(c.AllowedOrigins()))

	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	r.Route("/api", func(r chi.Router) {
		if c.IsRateLimitEnabled() {
			r.Use(svcCtx.RateLimiter.Middleware())
		}
		r.Post("/predict", predict.PredictHandler(svcCtx))
		r.Post("/chat", chat.ChatHandler(svcCtx))

		r.Post("/sessions", session.CreateSessionHandler(svcCtx))
		r.Get("/sessions/{id}", session.GetSessionHandler(svcCtx))
		r.Delete("/sessions/{id}", session.DeleteSessionHandler(svcCtx))
		r.Post("/sessions/{id}/calls", session.CaptureCallHandler(svcCtx))
		r.Delete("/sessions/{id}/calls", session.ClearCallsHandler(svcCtx))
		r.Post("/sessions/{id}/accept", session.AcceptPredictionHandler(svcCtx))
		r.Post("/sessions/{id}/dismiss", session.DismissPredictionHandler(svcCtx))
		r.Post("/sessions/{id}/messages", session.SendMessageHandler(svcCtx))
	})

	r.Get("/ws", websocket.Handler(svcCtx.Hub, svcCtx.Sessions, c.AllowedOrigins()))
	r.Group(func(r chi.Router) {
		if c.IsRateLimitEnabled() {
			r.Use(svcCtx.RateLimiter.Middleware())
		}
		r.Handle("/mcp", mcpHandler)
	})

	return r
}

// requestIDMiddleware hands the chi request id to logic loggers.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logging.ContextWithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func pruneSessions(ctx context.Context, svcCtx *svc.ServiceContext, mcpHandler *mcp.Handler, maxIdle time.Duration) {
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := svcCtx.Sessions.Prune(maxIdle); n > 0 {
				logging.Infof("Pruned %d idle sessions", n)
			}
			if n := mcpHandler.Prune(maxIdle); n > 0 {
				logging.Debugf("Pruned %d idle MCP servers", n)
			}
		}
	}
}

// checkPortAvailable checks if an address is available for binding
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}
