package executor

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerKeyOrdering(t *testing.T) {
	e := NewSequenced(4)
	defer e.Close()

	const perKey = 500
	keys := []uint64{0, 1, 2, 3, 7, 11}

	var mu sync.Mutex
	got := make(map[uint64][]int)

	for i := 0; i < perKey; i++ {
		i := i
		for _, key := range keys {
			key := key
			e.Execute(key, func() {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			})
		}
	}
	e.Sync()

	for _, key := range keys {
		require.Len(t, got[key], perKey, "key %d", key)
		for i, v := range got[key] {
			require.Equal(t, i, v, "key %d out of order", key)
		}
	}
}

func TestSyncIsFullBarrier(t *testing.T) {
	e := NewSequenced(3, WithQueueCapacity(16))
	defer e.Close()

	var done atomic.Int64
	const n = 200
	for i := 0; i < n; i++ {
		e.Execute(uint64(i), func() { done.Add(1) })
	}
	e.Sync()

	assert.Equal(t, int64(n), done.Load())
}

func TestExecuteNameStableMapping(t *testing.T) {
	e := NewSequenced(4)
	defer e.Close()

	// Tasks under one name must serialize: a racing counter would trip -race
	// and break the max check if two ran concurrently.
	var current, peak atomic.Int64
	for i := 0; i < 300; i++ {
		e.ExecuteName("title", func() {
			if c := current.Add(1); c > peak.Load() {
				peak.Store(c)
			}
			current.Add(-1)
		})
	}
	e.Sync()

	assert.Equal(t, int64(1), peak.Load())
}

func TestDifferentKeysRunConcurrently(t *testing.T) {
	e := NewSequenced(2)
	defer e.Close()

	// Key 0 blocks until key 1 has run: only possible with parallel workers.
	release := make(chan struct{})
	e.Execute(0, func() { <-release })
	e.Execute(1, func() { close(release) })
	e.Sync()
}

func TestCloseDrainsQueuedWork(t *testing.T) {
	e := NewSequenced(2, WithQueueCapacity(64))

	var done atomic.Int64
	for i := 0; i < 50; i++ {
		e.Execute(uint64(i), func() { done.Add(1) })
	}
	e.Close()

	assert.Equal(t, int64(50), done.Load())
}

func TestCloseIdempotent(t *testing.T) {
	e := NewSequenced(2)
	e.Close()
	e.Close()
}

func TestExecuteAfterClosePanics(t *testing.T) {
	e := NewSequenced(1)
	e.Close()

	assert.Panics(t, func() {
		e.Execute(0, func() {})
	})
}

func TestSyncAfterCloseReturns(t *testing.T) {
	e := NewSequenced(2)
	e.Close()
	e.Sync()
}

func TestDefaultWorkerCount(t *testing.T) {
	e := NewSequenced(0)
	defer e.Close()

	require.NotEmpty(t, e.queues)
	e.Sync()
}
