package memoryindex

// MemoryUsage breaks down the memory of an index structure.
//
// Allocated covers bytes owned by live structures, Used the written subset,
// Dead the written bytes no longer referenced by any posting, and OnHold the
// retired bytes parked until outstanding generation guards drain.
type MemoryUsage struct {
	Allocated uint64
	Used      uint64
	Dead      uint64
	OnHold    uint64
}

// Add accumulates o into u.
func (u *MemoryUsage) Add(o MemoryUsage) {
	u.Allocated += o.Allocated
	u.Used += o.Used
	u.Dead += o.Dead
	u.OnHold += o.OnHold
}
