package generation

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestHoldWithoutGuards(t *testing.T) {
	h := NewHandler()

	released := false
	h.Hold(16, func() { released = true })
	assert.False(t, released, "holds fire on increment, not on registration")
	assert.Equal(t, uint64(16), h.OnHoldBytes())

	h.Increment()
	assert.True(t, released)
	assert.Equal(t, uint64(0), h.OnHoldBytes())
}

func TestGuardBlocksReclaim(t *testing.T) {
	h := NewHandler()

	g := h.TakeGuard()
	released := false
	h.Hold(8, func() { released = true })

	h.Increment()
	assert.False(t, released, "guard pins the hold's generation")

	h.Increment()
	assert.False(t, released, "later increments do not help while the guard lives")

	g.Release()
	assert.True(t, released)
}

func TestGuardTakenAfterHoldDoesNotBlock(t *testing.T) {
	h := NewHandler()

	released := false
	h.Hold(8, func() { released = true })
	h.Increment()
	require.True(t, released)

	// A guard taken now pins the new generation only.
	g := h.TakeGuard()
	released2 := false
	h.Hold(8, func() { released2 = true })
	h.Increment()
	assert.False(t, released2)
	g.Release()
	assert.True(t, released2)
}

func TestOldestGuardRules(t *testing.T) {
	h := NewHandler()

	g1 := h.TakeGuard()
	h.Increment()
	g2 := h.TakeGuard()
	require.Less(t, g1.Generation(), g2.Generation())

	released := false
	h.Hold(8, func() { released = true })
	h.Increment()

	g2.Release()
	assert.False(t, released, "older guard still pins")

	g1.Release()
	assert.True(t, released)
}

func TestReleaseIdempotent(t *testing.T) {
	h := NewHandler()

	g := h.TakeGuard()
	g.Release()
	g.Release()

	released := false
	h.Hold(8, func() { released = true })
	h.Increment()
	assert.True(t, released, "double release must not leave a phantom pin")
}

func TestHoldsFireInOrder(t *testing.T) {
	h := NewHandler()

	var order []int
	h.Hold(1, func() { order = append(order, 1) })
	h.Increment()
	h.Hold(1, func() { order = append(order, 2) })
	h.Hold(1, func() { order = append(order, 3) })
	h.Increment()

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestOldestUsed(t *testing.T) {
	h := NewHandler()
	assert.Equal(t, h.Current()+1, h.OldestUsed())

	g := h.TakeGuard()
	assert.Equal(t, g.Generation(), h.OldestUsed())

	h.Increment()
	assert.Equal(t, g.Generation(), h.OldestUsed())

	g.Release()
	assert.Equal(t, h.Current()+1, h.OldestUsed())
}

func TestConcurrentGuards(t *testing.T) {
	h := NewHandler()

	var fired atomic.Int64
	var wantFired atomic.Int64

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 200; j++ {
				guard := h.TakeGuard()
				guard.Release()
			}
			return nil
		})
	}
	g.Go(func() error {
		for j := 0; j < 200; j++ {
			wantFired.Add(1)
			h.Hold(1, func() { fired.Add(1) })
			h.Increment()
		}
		return nil
	})
	require.NoError(t, g.Wait())

	// Nothing pinned anymore: one final bump reclaims any stragglers.
	h.Increment()
	assert.Equal(t, wantFired.Load(), fired.Load())
	assert.Equal(t, uint64(0), h.OnHoldBytes())
}
