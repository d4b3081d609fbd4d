package session

// EventType names a session change pushed to realtime subscribers.
type EventType string

const (
	EventPrediction EventType = "prediction" // Data: *string
	EventState      EventType = "state"      // Data: State
	EventMessage    EventType = "message"    // Data: types.ChatMessage
	EventCleared    EventType = "cleared"    // Data: nil
)

type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Data      any       `json:"data"`
}
