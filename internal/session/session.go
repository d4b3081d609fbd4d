package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/neboloop/cell/internal/calllog"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/types"
)

var (
	ErrNoPrediction = errors.New("no prediction to accept")
	ErrEmptyMessage = errors.New("message is empty")
)

// State is where a session is in the capture, predict and accept cycle.
type State string

const (
	StateIdle      State = "idle"
	StateAwaiting  State = "awaiting"
	StatePredicted State = "predicted"
	StateExecuted  State = "executed"
	StateDismissed State = "dismissed"
)

// Predictor produces the next likely endpoint, or nil when there is none.
type Predictor interface {
	PredictNext(ctx context.Context, calls []types.APICall) *string
}

// Chatter answers the conversation so far. It returns a user-facing
// apology rather than an error when the backend fails.
type Chatter interface {
	Reply(ctx context.Context, messages []types.ChatMessage, calls []types.APICall) string
}

// Snapshot is a point-in-time copy of a session, as served to clients.
type Snapshot struct {
	Id         string              `json:"id"`
	State      State               `json:"state"`
	Prediction *string             `json:"prediction"`
	Calls      []types.APICall     `json:"calls"`
	Messages   []types.ChatMessage `json:"messages"`
	ChatOpen   bool                `json:"chatOpen"`
	UpdatedAt  string              `json:"updatedAt"`
}

// Session is one user's controller: its own call log, current prediction
// and chat transcript. Backend calls run without the lock held; when
// captures overlap, only the result of the newest one is kept.
type Session struct {
	id        string
	log       *calllog.Log
	predictor Predictor
	chatter   Chatter
	listener  func(Event)
	now       func() time.Time
	logger    logging.Logger

	mu         sync.Mutex
	state      State
	prediction *string
	messages   []types.ChatMessage
	chatOpen   bool
	seq        uint64
	updatedAt  time.Time
}

type Option func(*Session)

// WithListener registers fn to observe every state change. fn is called
// without the session lock held and must not block for long.
func WithListener(fn func(Event)) Option {
	return func(s *Session) { s.listener = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func New(id string, log *calllog.Log, p Predictor, c Chatter, opts ...Option) *Session {
	if log == nil {
		log = calllog.New(calllog.DefaultCapacity)
	}
	s := &Session{
		id:        id,
		log:       log,
		predictor: p,
		chatter:   c,
		now:       time.Now,
		state:     StateIdle,
		logger:    logging.With("component", "session", "session", id),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updatedAt = s.now()
	return s
}

func (s *Session) ID() string { return s.id }

// Capture records a call, then asks the predictor for the next one using
// the full updated log. An empty method means GET. The returned value is
// the prediction made for this capture, which is discarded (not stored)
// if a newer capture or Clear happened meanwhile.
func (s *Session) Capture(ctx context.Context, endpoint, method string, params map[string]any) *string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = "GET"
	}
	if params == nil {
		params = map[string]any{}
	}

	s.mu.Lock()
	s.log.Append(types.APICall{
		Endpoint:   endpoint,
		Method:     method,
		Timestamp:  s.now().UTC().Format(time.RFC3339Nano),
		Parameters: params,
	})
	s.seq++
	seq := s.seq
	s.state = StateAwaiting
	s.touch()
	s.mu.Unlock()
	s.emit(EventState, StateAwaiting)

	prediction := s.predictor.PredictNext(ctx, s.log.All())

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.logger.Debugf("Dropping stale prediction for %s", endpoint)
		return prediction
	}
	s.prediction = prediction
	s.state = StatePredicted
	s.touch()
	s.mu.Unlock()

	s.emit(EventPrediction, prediction)
	return prediction
}

// AcceptPrediction executes the current prediction as a GET capture and
// returns the prediction that follows from it.
func (s *Session) AcceptPrediction(ctx context.Context) (*string, error) {
	s.mu.Lock()
	if s.prediction == nil {
		s.mu.Unlock()
		return nil, ErrNoPrediction
	}
	endpoint := *s.prediction
	s.prediction = nil
	s.state = StateExecuted
	s.touch()
	s.mu.Unlock()

	s.logger.Infof("Executing predicted call %s", endpoint)
	s.emit(EventState, StateExecuted)
	return s.Capture(ctx, endpoint, "GET", nil), nil
}

// Dismiss drops the current suggestion and returns to idle.
func (s *Session) Dismiss() {
	s.mu.Lock()
	s.prediction = nil
	s.state = StateDismissed
	s.touch()
	s.mu.Unlock()
	s.emit(EventState, StateDismissed)

	s.mu.Lock()
	idle := s.state == StateDismissed
	if idle {
		s.state = StateIdle
	}
	s.mu.Unlock()
	if idle {
		s.emit(EventState, StateIdle)
	}
}

// Submit appends text as a user message, opens the chat and appends the
// assistant reply, which is returned. The call log and prediction are
// left alone.
func (s *Session) Submit(ctx context.Context, text string) (types.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return types.ChatMessage{}, ErrEmptyMessage
	}

	userMsg := types.ChatMessage{Role: types.RoleUser, Content: text}
	s.mu.Lock()
	s.messages = append(s.messages, userMsg)
	s.chatOpen = true
	messages := append([]types.ChatMessage(nil), s.messages...)
	s.touch()
	s.mu.Unlock()
	s.emit(EventMessage, userMsg)

	reply := types.ChatMessage{
		Role:    types.RoleAssistant,
		Content: s.chatter.Reply(ctx, messages, s.log.All()),
	}

	s.mu.Lock()
	s.messages = append(s.messages, reply)
	s.touch()
	s.mu.Unlock()
	s.emit(EventMessage, reply)
	return reply, nil
}

// CloseChat hides the chat; the transcript is kept.
func (s *Session) CloseChat() {
	s.mu.Lock()
	s.chatOpen = false
	s.touch()
	state := s.state
	s.mu.Unlock()
	s.emit(EventState, state)
}

// Clear empties the call log and drops the prediction, including any
// still in flight.
func (s *Session) Clear() {
	s.mu.Lock()
	s.log.Clear()
	s.prediction = nil
	s.seq++
	s.state = StateIdle
	s.touch()
	s.mu.Unlock()
	s.emit(EventCleared, nil)
}

func (s *Session) Prediction() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prediction == nil {
		return nil
	}
	p := *s.prediction
	return &p
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatMessage(nil), s.messages...)
}

func (s *Session) Calls() []types.APICall {
	return s.log.All()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prediction *string
	if s.prediction != nil {
		p := *s.prediction
		prediction = &p
	}
	messages := append([]types.ChatMessage{}, s.messages...)
	return Snapshot{
		Id:         s.id,
		State:      s.state,
		Prediction: prediction,
		Calls:      s.log.All(),
		Messages:   messages,
		ChatOpen:   s.chatOpen,
		UpdatedAt:  s.updatedAt.UTC().Format(time.RFC3339),
	}
}

// LastActive is when the session last changed.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.updatedAt = s.now()
}

func (s *Session) emit(t EventType, data any) {
	if s.listener == nil {
		return
	}
	s.listener(Event{Type: t, SessionID: s.id, Data: data})
}
