package executor

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Task is a unit of work.
type Task func()

// SequencedExecutor runs tasks on a fixed set of workers with FIFO ordering
// per key. Tasks with the same key never run concurrently; tasks with
// different keys may.
type SequencedExecutor interface {
	// Execute enqueues a task for the worker owning key. It blocks while
	// that worker's queue is full.
	Execute(key uint64, task Task)
	// ExecuteName enqueues a task keyed by a stable hash of name.
	ExecuteName(name string, task Task)
	// Sync blocks until every task enqueued before the call has run.
	// It must not be called from a task.
	Sync()
}

const defaultQueueCapacity = 128

type options struct {
	queueCapacity int
}

// Option customizes a Sequenced executor.
type Option func(*options)

// WithQueueCapacity sets the per-worker queue capacity. Submitters block
// once a worker's queue is full.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueCapacity = n
		}
	}
}

// Sequenced is the channel-based SequencedExecutor implementation. Each
// worker owns one FIFO queue; keys map to workers by modulo, so the mapping
// is stable for the executor's lifetime.
type Sequenced struct {
	queues   []chan Task
	wg       sync.WaitGroup
	closed   atomic.Bool
	submitMu sync.RWMutex
}

// NewSequenced creates a sequenced executor with the given number of
// workers. A non-positive count defaults to GOMAXPROCS.
func NewSequenced(workers int, opts ...Option) *Sequenced {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	opt := options{queueCapacity: defaultQueueCapacity}
	for _, fn := range opts {
		fn(&opt)
	}

	e := &Sequenced{
		queues: make([]chan Task, workers),
	}

	e.wg.Add(workers)
	for i := range e.queues {
		q := make(chan Task, opt.queueCapacity)
		e.queues[i] = q
		go e.worker(q)
	}

	return e
}

func (e *Sequenced) worker(q chan Task) {
	defer e.wg.Done()
	for task := range q {
		task()
	}
}

// Execute enqueues a task for the worker owning key. Calling Execute on a
// closed executor is a programming error and panics.
func (e *Sequenced) Execute(key uint64, task Task) {
	e.submitMu.RLock()
	defer e.submitMu.RUnlock()

	if e.closed.Load() {
		panic("executor: Execute on closed executor")
	}

	e.queues[key%uint64(len(e.queues))] <- task
}

// ExecuteName enqueues a task keyed by a stable hash of name. All tasks
// submitted under the same name land on the same worker.
func (e *Sequenced) ExecuteName(name string, task Task) {
	e.Execute(xxhash.Sum64String(name), task)
}

// Sync blocks until every task enqueued before the call has run, across all
// workers. On a closed executor it returns immediately. Sync must not be
// called from a task: the barrier would wait for itself.
func (e *Sequenced) Sync() {
	e.submitMu.RLock()
	defer e.submitMu.RUnlock()

	if e.closed.Load() {
		return
	}

	var barrier sync.WaitGroup
	barrier.Add(len(e.queues))
	for _, q := range e.queues {
		q <- barrier.Done
	}
	barrier.Wait()
}

// Close drains all queues and stops the workers. It is idempotent and safe
// to call concurrently with Execute and Sync.
func (e *Sequenced) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}

	e.submitMu.Lock()
	for _, q := range e.queues {
		close(q)
	}
	e.submitMu.Unlock()

	e.wg.Wait()
}
