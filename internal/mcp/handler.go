package mcp

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/svc"
)

// DefaultMaxServers bounds the per-session server cache.
const DefaultMaxServers = 256

type mintedSessionKey struct{}

type cachedServer struct {
	server   *mcp.Server
	lastSeen time.Time
}

// Handler serves MCP over streamable HTTP.
type Handler struct {
	svc         *svc.ServiceContext
	httpHandler http.Handler
	maxServers  int

	// servers holds MCP servers for sessions the client keeps using.
	mu      sync.Mutex
	servers map[string]*cachedServer
}

func NewHandler(svc *svc.ServiceContext) *Handler {
	h := &Handler{
		svc:        svc,
		maxServers: DefaultMaxServers,
		servers:    make(map[string]*cachedServer),
	}

	// Stateless mode means the SDK doesn't validate session IDs - we handle it ourselves.
	streamHandler := mcp.NewStreamableHTTPHandler(
		h.getServerForRequest,
		&mcp.StreamableHTTPOptions{Stateless: true},
	)
	h.httpHandler = h.sessionMiddleware(streamHandler)
	return h
}

// sessionMiddleware assigns a session ID when the client has none and echoes
// it back so later requests reuse the same server and prediction session.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("Mcp-Session-Id")
		if sessionID == "" {
			sessionID = uuid.New().String()
			r.Header.Set("Mcp-Session-Id", sessionID)
			r = r.WithContext(context.WithValue(r.Context(), mintedSessionKey{}, true))
		}
		logging.Debugf("[MCP] %s %s | Session: %s", r.Method, r.URL.Path, sessionID)

		w.Header().Set("Mcp-Session-Id", sessionID)
		if r.Method == http.MethodDelete {
			h.Forget(sessionID)
		}
		next.ServeHTTP(w, r)
	})
}

// getServerForRequest returns the cached server for a client-supplied
// session. Freshly minted sessions get an uncached server; the cache entry
// is only made once the client sends the ID back.
func (h *Handler) getServerForRequest(r *http.Request) *mcp.Server {
	if minted, _ := r.Context().Value(mintedSessionKey{}).(bool); minted {
		return NewServer(h.svc, r)
	}

	sessionID := r.Header.Get("Mcp-Session-Id")
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()
	if cached, ok := h.servers[sessionID]; ok {
		cached.lastSeen = now
		return cached.server
	}

	if len(h.servers) >= h.maxServers {
		h.pruneLocked(h.svc.Config().SessionIdleTimeout())
		if len(h.servers) >= h.maxServers {
			h.evictOldestLocked()
		}
	}
	server := NewServer(h.svc, r)
	h.servers[sessionID] = &cachedServer{server: server, lastSeen: now}
	return server
}

// Forget drops the cached server for sessionID.
func (h *Handler) Forget(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.servers, sessionID)
}

// Prune drops servers unused for longer than maxIdle and returns how many
// were removed.
func (h *Handler) Prune(maxIdle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pruneLocked(maxIdle)
}

func (h *Handler) pruneLocked(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	n := 0
	for id, c := range h.servers {
		if c.lastSeen.Before(cutoff) {
			delete(h.servers, id)
			n++
		}
	}
	return n
}

func (h *Handler) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, c := range h.servers {
		if oldestID == "" || c.lastSeen.Before(oldest) {
			oldestID, oldest = id, c.lastSeen
		}
	}
	if oldestID != "" {
		logging.Debugf("[MCP] server cache full, evicting session %s", oldestID)
		delete(h.servers, oldestID)
	}
}

// Len returns the number of cached servers.
func (h *Handler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.servers)
}

// ServeHTTP handles all MCP HTTP requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.httpHandler.ServeHTTP(w, r)
}
