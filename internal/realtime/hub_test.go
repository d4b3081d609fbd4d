package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/cell/internal/session"
)

// dial connects a websocket client bound to sessionID through hub.
func dial(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ServeWS(hub, conn, "client-"+sessionID, sessionID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishRoutesBySession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	a := dial(t, hub, "a")
	b := dial(t, hub, "b")
	waitForClients(t, hub, 2)

	hub.Publish(session.Event{Type: session.EventCleared, SessionID: "a"})
	hub.Publish(session.Event{Type: session.EventState, SessionID: "b", Data: session.StateIdle})

	var msg Message
	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, a.ReadJSON(&msg))
	assert.Equal(t, "cleared", msg.Type)
	assert.Equal(t, "a", msg.SessionID)

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, b.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)
	assert.Equal(t, "idle", msg.Data)
}

func TestPingAndHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	got := make(chan *ClientMessage, 1)
	hub.SetHandler(func(c *Client, msg *ClientMessage) { got <- msg })
	go hub.Run(ctx)

	conn := dial(t, hub, "s")
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	var msg Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "capture", Endpoint: "/api/x"}))
	select {
	case m := <-got:
		assert.Equal(t, "/api/x", m.Endpoint)
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)

	conn := dial(t, hub, "s")
	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)
}

func TestPublishDoesNotBlockWithoutRun(t *testing.T) {
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(session.Event{Type: session.EventCleared, SessionID: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked")
	}
}
