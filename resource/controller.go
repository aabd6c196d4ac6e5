package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the
// configured memory limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits for a memory index deployment.
type Config struct {
	// MemoryLimitBytes is the hard limit for index memory reservations.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxConcurrentDumps is the maximum number of index dumps running at
	// once. If 0, defaults to 1.
	MaxConcurrentDumps int64

	// DumpIOLimitBytesPerSec is the maximum dump write throughput.
	// If 0, unlimited.
	DumpIOLimitBytesPerSec int64
}

// Controller manages global resources shared by one or more memory indexes:
// reserved memory, dump admission and dump IO throughput.
//
// All methods are safe for concurrent use and handle a nil *Controller
// gracefully, so resource limiting stays optional without nil checks at
// every call site.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	dumpSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a resource controller from cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentDumps <= 0 {
		cfg.MaxConcurrentDumps = 1
	}

	c := &Controller{
		cfg:     cfg,
		dumpSem: semaphore.NewWeighted(cfg.MaxConcurrentDumps),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.DumpIOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.DumpIOLimitBytesPerSec), int(cfg.DumpIOLimitBytesPerSec))
	}

	return c
}

// TryAcquireMemory attempts to reserve memory without blocking. It reports
// whether the reservation fit under the limit; usage tracking is updated
// only on success. The index write path must never stall on governance, so
// this is the variant it uses.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// AcquireMemory reserves memory, blocking until it fits under the limit or
// ctx is canceled. Requests larger than the whole limit fail with
// ErrMemoryLimitExceeded instead of blocking forever.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return fmt.Errorf("%w: need %d bytes, limit is %d", ErrMemoryLimitExceeded, bytes, c.cfg.MemoryLimitBytes)
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory returns a reservation made by TryAcquireMemory or
// AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the currently reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireDump reserves a dump slot, blocking while all slots are busy.
func (c *Controller) AcquireDump(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.dumpSem.Acquire(ctx, 1)
}

// TryAcquireDump reserves a dump slot without blocking.
func (c *Controller) TryAcquireDump() bool {
	if c == nil {
		return true
	}
	return c.dumpSem.TryAcquire(1)
}

// ReleaseDump returns a dump slot.
func (c *Controller) ReleaseDump() {
	if c == nil {
		return
	}
	c.dumpSem.Release(1)
}

// AcquireIO waits until the dump IO limit allows the given number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}

// TryAcquireIO attempts to take IO tokens without blocking.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}
