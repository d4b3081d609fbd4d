package realtime

import (
	"time"

	"github.com/neboloop/cell/internal/session"
)

// SessionHandler applies client frames to the client's session. Results
// reach the client through the session listener, not as direct replies.
func SessionHandler(sessions *session.Manager) MessageHandler {
	return func(c *Client, msg *ClientMessage) {
		s, err := sessions.Get(c.SessionID)
		if err != nil {
			c.SendError(err.Error())
			return
		}
		ctx := c.Context()

		switch msg.Type {
		case "capture":
			if msg.Endpoint == "" {
				c.SendError("endpoint is required")
				return
			}
			s.Capture(ctx, msg.Endpoint, msg.Method, msg.Parameters)
		case "accept":
			if _, err := s.AcceptPrediction(ctx); err != nil {
				c.SendError(err.Error())
			}
		case "dismiss":
			s.Dismiss()
		case "chat":
			if _, err := s.Submit(ctx, msg.Content); err != nil {
				c.SendError(err.Error())
			}
		case "close_chat":
			s.CloseChat()
		case "clear":
			s.Clear()
		case "snapshot":
			c.SendMessage(&Message{
				Type:      "snapshot",
				SessionID: s.ID(),
				Data:      s.Snapshot(),
				Timestamp: time.Now(),
			})
		default:
			c.SendError("unknown message type: " + msg.Type)
		}
	}
}
