package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(2, &scriptedPredictor{}, &echoChatter{})

	s := m.Create()
	require.NotEmpty(t, s.ID())
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	assert.Same(t, s, m.GetOrCreate(s.ID()))

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.True(t, m.Delete(s.ID()))
	assert.False(t, m.Delete(s.ID()))
	assert.Equal(t, 0, m.Len())
}

func TestManagerSessionsAreIsolated(t *testing.T) {
	m := NewManager(2, &scriptedPredictor{}, &echoChatter{})
	a := m.GetOrCreate("a")
	b := m.GetOrCreate("b")

	for _, e := range []string{"/api/1", "/api/2", "/api/3"} {
		a.Capture(context.Background(), e, "GET", nil)
	}

	assert.Len(t, a.Calls(), 2, "capacity applies per session")
	assert.Empty(t, b.Calls())
	assert.Equal(t, []string{"a", "b"}, m.IDs())
}

func TestManagerAppliesOptions(t *testing.T) {
	rec := &recorder{}
	m := NewManager(0, &scriptedPredictor{}, &echoChatter{}, WithListener(rec.listen))

	m.GetOrCreate("x").Clear()
	require.Len(t, rec.events, 1)
	assert.Equal(t, "x", rec.events[0].SessionID)
	assert.Equal(t, EventCleared, rec.events[0].Type)
}

func TestManagerPrune(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	m := NewManager(0, &scriptedPredictor{}, &echoChatter{})
	m.GetOrCreate("fresh")

	m.opts = []Option{WithClock(func() time.Time { return old })}
	m.GetOrCreate("stale")

	assert.Equal(t, 1, m.Prune(time.Hour))
	assert.Equal(t, []string{"fresh"}, m.IDs())
}
