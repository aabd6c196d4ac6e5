// Package executor provides sequenced task executors: fixed worker pools
// that partition work by key and preserve submission order within a key.
//
// The memory index runs two independent executors, one for the invert stage
// and one for the push stage, both keyed by field name. Per-field work is
// therefore FIFO end to end while different fields proceed in parallel.
//
//	invert := executor.NewSequenced(4)
//	push := executor.NewSequenced(4)
//
//	invert.ExecuteName("title", func() { /* tokenize + stage */ })
//	invert.Sync() // full barrier across all workers
//
// # Ordering
//
// Execute guarantees FIFO order per key and nothing across keys. Sync is a
// full barrier: it returns only after every task enqueued before the call
// has run. Calling Sync from inside a task deadlocks the calling worker.
//
// # Shutdown
//
// Close drains queued work and stops the workers. Execute on a closed
// executor panics; writers are expected to stop feeding an executor before
// closing it.
package executor
