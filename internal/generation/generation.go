package generation

import "sync"

// Handler tracks the write generation of one index structure and defers
// resource reclamation until no reader can still observe the retired state.
//
// Writers bump the generation with Increment after publishing structural
// changes and park retired memory with Hold. Readers pin the current
// generation with TakeGuard before walking shared structures. A hold
// registered at generation g runs only when every guard pinning a
// generation <= g has been released.
type Handler struct {
	mu        sync.Mutex
	current   uint64
	pinned    map[uint64]int
	holds     []hold
	holdBytes uint64
}

type hold struct {
	gen     uint64
	bytes   uint64
	release func()
}

// NewHandler creates a handler starting at generation 1.
func NewHandler() *Handler {
	return &Handler{
		current: 1,
		pinned:  make(map[uint64]int),
	}
}

// Current returns the current write generation.
func (h *Handler) Current() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// TakeGuard pins the current generation until the returned guard is
// released.
func (h *Handler) TakeGuard() *Guard {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pinned[h.current]++
	return &Guard{h: h, gen: h.current}
}

// Hold registers a deferred release of bytes no longer reachable from the
// current structure. The release callback runs during a later Increment or
// guard release, once no live guard can still reach the memory.
func (h *Handler) Hold(bytes uint64, release func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.holds = append(h.holds, hold{gen: h.current, bytes: bytes, release: release})
	h.holdBytes += bytes
}

// Increment advances the generation and reclaims every hold no guard can
// reach anymore.
func (h *Handler) Increment() {
	h.mu.Lock()
	h.current++
	fired := h.reclaimLocked()
	h.mu.Unlock()
	runAll(fired)
}

// OldestUsed returns the oldest pinned generation, or current+1 when
// nothing is pinned.
func (h *Handler) OldestUsed() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.oldestUsedLocked()
}

// OnHoldBytes returns the bytes parked behind unreclaimed holds.
func (h *Handler) OnHoldBytes() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.holdBytes
}

func (h *Handler) oldestUsedLocked() uint64 {
	oldest := h.current + 1
	for gen := range h.pinned {
		if gen < oldest {
			oldest = gen
		}
	}
	return oldest
}

// reclaimLocked pops every hold older than the oldest pinned generation.
// Holds are appended with nondecreasing tags, so the reclaimable ones form
// a prefix. Callbacks are returned instead of run so callers can invoke
// them outside the lock.
func (h *Handler) reclaimLocked() []func() {
	oldest := h.oldestUsedLocked()
	n := 0
	for n < len(h.holds) && h.holds[n].gen < oldest {
		n++
	}
	if n == 0 {
		return nil
	}
	fired := make([]func(), n)
	for i := range fired {
		fired[i] = h.holds[i].release
		h.holdBytes -= h.holds[i].bytes
	}
	rest := copy(h.holds, h.holds[n:])
	for i := rest; i < len(h.holds); i++ {
		h.holds[i] = hold{}
	}
	h.holds = h.holds[:rest]
	return fired
}

func runAll(fns []func()) {
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

// Guard pins one generation. The zero value is invalid; guards come from
// TakeGuard. Release is idempotent.
type Guard struct {
	h        *Handler
	gen      uint64
	released bool
}

// Generation returns the pinned generation.
func (g *Guard) Generation() uint64 {
	return g.gen
}

// Release unpins the generation and reclaims anything that became
// unreachable.
func (g *Guard) Release() {
	g.h.mu.Lock()
	if g.released {
		g.h.mu.Unlock()
		return
	}
	g.released = true
	g.h.pinned[g.gen]--
	if g.h.pinned[g.gen] <= 0 {
		delete(g.h.pinned, g.gen)
	}
	fired := g.h.reclaimLocked()
	g.h.mu.Unlock()
	runAll(fired)
}
