package calllog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neboloop/cell/internal/types"
)

func call(i int) types.APICall {
	return types.APICall{
		Endpoint:  fmt.Sprintf("/api/items/%d", i),
		Method:    "GET",
		Timestamp: "2024-01-01T10:00:00Z",
	}
}

func TestNewDefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-3).Capacity())
	assert.Equal(t, 5, New(5).Capacity())
}

func TestAppendEvictsOldest(t *testing.T) {
	log := New(DefaultCapacity)
	for i := 0; i < 51; i++ {
		log.Append(call(i))
	}

	calls := log.All()
	require.Len(t, calls, 50)
	assert.Equal(t, "/api/items/1", calls[0].Endpoint, "oldest call should be dropped")
	assert.Equal(t, "/api/items/50", calls[49].Endpoint)
	for i := 1; i < len(calls); i++ {
		assert.Equal(t, fmt.Sprintf("/api/items/%d", i+1), calls[i].Endpoint, "order must be preserved")
	}
}

func TestAppendNeverExceedsCapacity(t *testing.T) {
	log := New(3)
	for i := 0; i < 100; i++ {
		log.Append(call(i))
		assert.LessOrEqual(t, log.Len(), 3)
	}
	calls := log.All()
	assert.Equal(t, []string{"/api/items/97", "/api/items/98", "/api/items/99"},
		[]string{calls[0].Endpoint, calls[1].Endpoint, calls[2].Endpoint})
}

func TestAllReturnsCopy(t *testing.T) {
	log := New(2)
	log.Append(call(1))

	snapshot := log.All()
	snapshot[0].Endpoint = "/api/mutated"

	assert.Equal(t, "/api/items/1", log.All()[0].Endpoint)
}

func TestClear(t *testing.T) {
	log := New(2)
	log.Append(call(1))
	log.Clear()

	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.All())
}

func TestConcurrentAppend(t *testing.T) {
	log := New(DefaultCapacity)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				log.Append(call(i))
				_ = log.All()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, DefaultCapacity, log.Len())
}
