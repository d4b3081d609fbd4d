// Package calllog keeps the rolling window of recent API calls that
// predictions and chat replies are based on.
package calllog

import (
	"sync"

	"github.com/neboloop/cell/internal/types"
)

// DefaultCapacity is the number of calls retained when none is configured.
const DefaultCapacity = 50

// Log is a bounded FIFO of API calls. When full, the oldest call is dropped.
// It is safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	calls    []types.APICall
	capacity int
}

// New creates a log holding at most capacity calls. A capacity of zero or
// less uses DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Append records call as the newest entry, evicting from the front while
// the log is over capacity.
func (l *Log) Append(call types.APICall) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, call)
	if over := len(l.calls) - l.capacity; over > 0 {
		// Copy down so the backing array does not grow without bound.
		n := copy(l.calls, l.calls[over:])
		clear(l.calls[n:])
		l.calls = l.calls[:n]
	}
}

// All returns a copy of the calls, oldest first.
func (l *Log) All() []types.APICall {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.APICall, len(l.calls))
	copy(out, l.calls)
	return out
}

// Clear removes every call.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func (l *Log) Capacity() int {
	return l.capacity
}
