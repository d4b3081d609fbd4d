package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/session"
)

// Message is a server to client frame.
type Message struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is a client to server frame.
type ClientMessage struct {
	Type       string         `json:"type"` // capture, accept, dismiss, chat, close_chat, clear, ping
	Endpoint   string         `json:"endpoint,omitempty"`
	Method     string         `json:"method,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Content    string         `json:"content,omitempty"`
}

// MessageHandler processes a client frame. It runs on its own goroutine.
type MessageHandler func(c *Client, msg *ClientMessage)

type outbound struct {
	sessionID string
	data      []byte
}

// Hub fans session events out to the websocket clients watching that session.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}
	mu         sync.RWMutex

	handler   MessageHandler
	handlerMu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
	}
}

// SetHandler installs the handler for client frames.
func (h *Hub) SetHandler(fn MessageHandler) {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.handler = fn
}

func (h *Hub) messageHandler() MessageHandler {
	h.handlerMu.RLock()
	defer h.handlerMu.RUnlock()
	return h.handler
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logging.Debugf("[Hub] client %s joined session %s", client.ID, client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if client.SessionID != msg.sessionID {
					continue
				}
				if err := client.sendRaw(msg.data); err != nil {
					logging.Warnf("[Hub] dropping event for client %s: %v", client.ID, err)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Publish forwards a session event to that session's clients. It never
// blocks; events are dropped when the broadcast queue is full.
func (h *Hub) Publish(e session.Event) {
	data, err := json.Marshal(&Message{
		Type:      string(e.Type),
		SessionID: e.SessionID,
		Data:      e.Data,
		Timestamp: time.Now(),
	})
	if err != nil {
		logging.Errorf("[Hub] marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- outbound{sessionID: e.SessionID, data: data}:
	default:
		logging.Warnf("[Hub] broadcast queue full, dropping %s event", e.Type)
	}
}

func (h *Hub) add(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
