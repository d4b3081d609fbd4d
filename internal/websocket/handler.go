package websocket

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/middleware"
	"github.com/neboloop/cell/internal/realtime"
	"github.com/neboloop/cell/internal/session"
)

// Handler upgrades /ws?session=<id> connections and binds them to that
// session, creating it when needed. The first frame is a snapshot of the
// session so the client can render its current state.
func Handler(hub *realtime.Hub, sessions *session.Manager, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		clientID := r.URL.Query().Get("clientId")
		if clientID == "" {
			clientID = "client-" + uuid.New().String()[:8]
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Errorf("WebSocket upgrade error: %v", err)
			return
		}

		var s *session.Session
		if id := r.URL.Query().Get("session"); id != "" {
			s = sessions.GetOrCreate(id)
		} else {
			s = sessions.Create()
		}
		logging.Infof("Serving WebSocket for clientID: %s, session: %s", clientID, s.ID())

		client := realtime.ServeWS(hub, conn, clientID, s.ID())
		client.SendMessage(&realtime.Message{
			Type:      "snapshot",
			SessionID: s.ID(),
			Data:      s.Snapshot(),
			Timestamp: time.Now(),
		})
	}
}
