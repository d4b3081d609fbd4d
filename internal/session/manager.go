package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neboloop/cell/internal/calllog"
)

var ErrSessionNotFound = errors.New("session not found")

// Manager owns the server-side sessions, each with its own call log.
type Manager struct {
	capacity  int
	predictor Predictor
	chatter   Chatter
	opts      []Option

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates sessions whose logs hold capacity calls. opts are
// applied to every session the manager creates.
func NewManager(capacity int, p Predictor, c Chatter, opts ...Option) *Manager {
	return &Manager{
		capacity:  capacity,
		predictor: p,
		chatter:   c,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// Create starts a session with a fresh random id.
func (m *Manager) Create() *Session {
	return m.GetOrCreate(uuid.NewString())
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// GetOrCreate returns the session for id, creating it if needed.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := New(id, calllog.New(m.capacity), m.predictor, m.chatter, m.opts...)
	m.sessions[id] = s
	return s
}

// Delete removes a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs lists session ids in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Prune deletes sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
