package resource

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	assert.True(t, c.TryAcquireMemory(60))
	assert.Equal(t, int64(60), c.MemoryUsage())

	assert.False(t, c.TryAcquireMemory(50), "over limit")
	assert.Equal(t, int64(60), c.MemoryUsage(), "failed acquire must not track")

	c.ReleaseMemory(60)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.True(t, c.TryAcquireMemory(100))
	assert.Equal(t, int64(100), c.MemoryLimit())
}

func TestAcquireMemoryOversized(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})

	err := c.AcquireMemory(context.Background(), 11)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestControllerMemoryUnlimited(t *testing.T) {
	c := NewController(Config{})

	assert.True(t, c.TryAcquireMemory(1<<40), "no limit: tracking only")
	assert.Equal(t, int64(1<<40), c.MemoryUsage())
	c.ReleaseMemory(1 << 40)
}

func TestControllerDumpSlots(t *testing.T) {
	c := NewController(Config{MaxConcurrentDumps: 1})

	require.NoError(t, c.AcquireDump(context.Background()))
	assert.False(t, c.TryAcquireDump(), "single slot taken")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireDump(ctx), "blocked acquire honors ctx")

	c.ReleaseDump()
	assert.True(t, c.TryAcquireDump())
	c.ReleaseDump()
}

func TestControllerIO(t *testing.T) {
	c := NewController(Config{DumpIOLimitBytesPerSec: 1024})

	// First burst fits, an oversized follow-up does not.
	assert.True(t, c.TryAcquireIO(1024))
	assert.False(t, c.TryAcquireIO(1024))

	require.NoError(t, c.AcquireIO(context.Background(), 1), "small waits succeed")
}

func TestControllerNilSafe(t *testing.T) {
	var c *Controller

	assert.True(t, c.TryAcquireMemory(1))
	assert.NoError(t, c.AcquireMemory(context.Background(), 1))
	c.ReleaseMemory(1)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
	assert.NoError(t, c.AcquireDump(context.Background()))
	assert.True(t, c.TryAcquireDump())
	c.ReleaseDump()
	assert.NoError(t, c.AcquireIO(context.Background(), 10))
	assert.True(t, c.TryAcquireIO(10))
}

func TestThrottledWriter(t *testing.T) {
	c := NewController(Config{DumpIOLimitBytesPerSec: 1 << 20})
	var buf bytes.Buffer

	w := NewThrottledWriter(context.Background(), &buf, c)
	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", buf.String())
}

func TestThrottledWriterCanceled(t *testing.T) {
	// Tiny budget: the burst is consumed, the next write must wait and the
	// canceled context surfaces as an error.
	c := NewController(Config{DumpIOLimitBytesPerSec: 1})
	require.True(t, c.TryAcquireIO(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	w := NewThrottledWriter(ctx, &buf, c)
	_, err := w.Write([]byte("x"))
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}
