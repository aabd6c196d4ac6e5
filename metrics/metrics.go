package metrics

import "time"

// Observer receives memory index lifecycle events. Implementations must be
// safe for concurrent use; commit and dump events fire from background
// goroutines.
type Observer interface {
	// OnInsert is called for every accepted document insert.
	OnInsert()

	// OnRemove is called for every accepted document remove.
	OnRemove()

	// OnRejectedWrite is called when a write is dropped because the index
	// is frozen. op names the rejected operation.
	OnRejectedWrite(op string)

	// OnCommit is called when a commit's push work completes.
	OnCommit(duration time.Duration)

	// OnDump is called when an index dump finishes.
	OnDump(duration time.Duration, words uint64, err error)

	// OnIndexStats reports index gauges after a commit completes.
	OnIndexStats(docs, words, memoryBytes uint64)
}

// NoopObserver is a no-op implementation of Observer.
type NoopObserver struct{}

func (o *NoopObserver) OnInsert()                                              {}
func (o *NoopObserver) OnRemove()                                              {}
func (o *NoopObserver) OnRejectedWrite(op string)                              {}
func (o *NoopObserver) OnCommit(duration time.Duration)                        {}
func (o *NoopObserver) OnDump(duration time.Duration, words uint64, err error) {}
func (o *NoopObserver) OnIndexStats(docs, words, memoryBytes uint64)           {}
