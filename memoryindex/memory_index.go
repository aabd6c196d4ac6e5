package memoryindex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/executor"
	"github.com/hupe1980/lexgo/metrics"
	"github.com/hupe1980/lexgo/resource"
	"github.com/hupe1980/lexgo/schema"
)

// MemoryIndex is a real-time in-memory inverted index. Documents staged
// through InsertDocument and RemoveDocument become visible to queries at
// the next Commit; queries read frozen, generation-guarded posting
// snapshots and never block on writers.
//
// Insert, remove, commit, freeze and prune calls must be serialized by the
// caller (one writer at a time). The invert/push pipeline behind them and
// any number of concurrent CreateBlueprint callers are internally safe.
type MemoryIndex struct {
	schema     *schema.Schema
	invertExec executor.SequencedExecutor
	pushExec   executor.SequencedExecutor

	// Double buffer: inverters[active] absorbs writes, the other slot is
	// empty or being pushed. active changes only inside Commit, after both
	// executor barriers.
	inverters [2]*DocumentInverter
	active    int

	fieldIndexes *fieldIndexCollection

	frozen      atomic.Bool
	indexedDocs *roaring.Bitmap
	numDocs     atomic.Uint64
	maxDocID    atomic.Uint32

	pruneMu      sync.Mutex
	prunedSchema *schema.Schema
	hidden       []bool

	staticFootprint uint64
	reserved        int64 // bytes reserved with the resource controller

	logger    *slog.Logger
	metrics   metrics.Observer
	resources *resource.Controller
}

// New creates a memory index over s. The two executors drive the invert
// and push stages; the caller owns them and must keep them open for the
// index's lifetime.
func New(s *schema.Schema, invertExec, pushExec executor.SequencedExecutor, optFns ...Option) *MemoryIndex {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	mi := &MemoryIndex{
		schema:       s,
		invertExec:   invertExec,
		pushExec:     pushExec,
		fieldIndexes: newFieldIndexCollection(s, opts.featureBufferSize),
		indexedDocs:  roaring.New(),
		hidden:       make([]bool, s.NumFields()),
		logger:       opts.logger.With("component", "memoryindex"),
		metrics:      opts.metrics,
		resources:    opts.resources,
	}
	mi.inverters[0] = newDocumentInverter(s, invertExec, pushExec)
	mi.inverters[1] = newDocumentInverter(s, invertExec, pushExec)
	mi.staticFootprint = mi.fieldIndexes.memoryUsage().Allocated

	return mi
}

// InsertDocument stages docID for indexing with the given field values.
// Re-inserting a live id replaces its content without changing the document
// count. On a frozen index the call is dropped with a warning. Document id
// 0 is reserved and panics.
func (mi *MemoryIndex) InsertDocument(docID uint32, doc document.Document) {
	if docID == InvalidDocID {
		panic("memoryindex: document id 0 is reserved")
	}
	if mi.frozen.Load() {
		mi.logger.Warn("insert dropped, index is frozen", "docID", docID)
		mi.metrics.OnRejectedWrite("insert")
		return
	}

	if docID > mi.maxDocID.Load() {
		mi.maxDocID.Store(docID)
	}

	mi.inverters[mi.active].invertDocument(docID, doc)

	if mi.indexedDocs.CheckedAdd(docID) {
		mi.numDocs.Add(1)
	}
	mi.metrics.OnInsert()
}

// RemoveDocument stages the removal of docID. Removing an id that was
// never inserted leaves the document count untouched. On a frozen index
// the call is dropped with a warning.
func (mi *MemoryIndex) RemoveDocument(docID uint32) {
	if docID == InvalidDocID {
		panic("memoryindex: document id 0 is reserved")
	}
	if mi.frozen.Load() {
		mi.logger.Warn("remove dropped, index is frozen", "docID", docID)
		mi.metrics.OnRejectedWrite("remove")
		return
	}

	mi.inverters[mi.active].removeDocument(docID)

	if mi.indexedDocs.CheckedRemove(docID) {
		mi.numDocs.Add(^uint64(0))
	}
	mi.metrics.OnRemove()
}

// Commit makes everything staged since the previous commit queryable. It
// drains both executor stages, hands the active inverter's staging to the
// push stage, and flips the double buffer, so writes arriving afterwards
// accumulate toward the next commit.
//
// Commit returns after the flip without waiting for the push work; onDone
// fires once all of this commit's postings are visible. Use CommitAndWait
// to block. On a frozen index nothing is pushed and onDone fires
// immediately.
func (mi *MemoryIndex) Commit(onDone func()) {
	if mi.frozen.Load() {
		mi.logger.Warn("commit dropped, index is frozen")
		mi.metrics.OnRejectedWrite("commit")
		if onDone != nil {
			onDone()
		}
		return
	}

	start := time.Now()

	// Full barriers on both stages. This is deliberately conservative: it
	// also drains push work of the previous cycle that still references
	// the standby inverter, which is what makes the flip below safe.
	mi.invertExec.Sync()
	mi.pushExec.Sync()

	committing := mi.inverters[mi.active]
	committing.pushDocuments(mi.fieldIndexes, func() {
		mi.accountMemory()
		mi.metrics.OnCommit(time.Since(start))
		mi.metrics.OnIndexStats(mi.NumDocs(), mi.NumWords(), mi.MemoryUsage().Allocated)
		if onDone != nil {
			onDone()
		}
	})

	mi.active = 1 - mi.active
}

// CommitAndWait runs Commit and blocks until its push work has completed
// or ctx is canceled. On cancellation the commit still completes in the
// background; only the wait is abandoned.
func (mi *MemoryIndex) CommitAndWait(ctx context.Context) error {
	done := make(chan struct{})
	mi.Commit(func() { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for commit: %w", ctx.Err())
	}
}

// accountMemory reconciles the resource controller's reservation with the
// index's current allocation. Runs on the push worker that completed the
// commit; commits are serialized, so reserved needs no locking.
func (mi *MemoryIndex) accountMemory() {
	if mi.resources == nil {
		return
	}

	allocated := int64(mi.MemoryUsage().Allocated)
	delta := allocated - mi.reserved
	switch {
	case delta > 0:
		if mi.resources.TryAcquireMemory(delta) {
			mi.reserved += delta
		} else {
			mi.logger.Warn("index memory exceeds configured limit",
				"allocated", allocated,
				"limit", mi.resources.MemoryLimit(),
			)
		}
	case delta < 0:
		mi.resources.ReleaseMemory(-delta)
		mi.reserved += delta
	}
}

// Freeze makes the index read-only. Irreversible; later inserts, removes
// and commits are dropped with a warning. Queries are unaffected.
func (mi *MemoryIndex) Freeze() {
	if mi.frozen.CompareAndSwap(false, true) {
		mi.logger.Info("index frozen",
			"docs", mi.NumDocs(),
			"words", mi.NumWords(),
		)
	}
}

// Frozen reports whether Freeze has been called.
func (mi *MemoryIndex) Frozen() bool {
	return mi.frozen.Load()
}

// Dump streams the whole index into b: fields in schema order, words
// sorted lexicographically, postings by ascending document id with decoded
// occurrence data. Empty fields are skipped.
//
// Dump requires a frozen index and panics otherwise; dumping concurrently
// with writers is not supported.
func (mi *MemoryIndex) Dump(ctx context.Context, b IndexBuilder) error {
	if !mi.frozen.Load() {
		panic("memoryindex: Dump requires a frozen index")
	}

	if err := mi.resources.AcquireDump(ctx); err != nil {
		return fmt.Errorf("acquire dump slot: %w", err)
	}
	defer mi.resources.ReleaseDump()

	start := time.Now()
	words, err := mi.fieldIndexes.dump(ctx, b)
	mi.metrics.OnDump(time.Since(start), words, err)
	if err != nil {
		return fmt.Errorf("dump index: %w", err)
	}

	mi.logger.Info("index dumped", "words", words, "took", time.Since(start))
	return nil
}

// MemoryUsage reports the index's current memory accounting, including the
// static footprint captured at construction.
func (mi *MemoryIndex) MemoryUsage() MemoryUsage {
	u := mi.fieldIndexes.memoryUsage()
	u.Allocated += mi.staticFootprint
	u.Used += mi.staticFootprint
	return u
}

// StaticMemoryFootprint returns the bytes attributed to the empty index
// structure at construction time.
func (mi *MemoryIndex) StaticMemoryFootprint() uint64 {
	return mi.staticFootprint
}

// NumWords returns the number of distinct terms across all field
// dictionaries.
func (mi *MemoryIndex) NumWords() uint64 {
	return mi.fieldIndexes.numUniqueWords()
}

// NumDocs returns the number of live (inserted, not removed) documents.
func (mi *MemoryIndex) NumDocs() uint64 {
	return mi.numDocs.Load()
}

// MaxDocID returns the highest document id ever inserted.
func (mi *MemoryIndex) MaxDocID() uint32 {
	return mi.maxDocID.Load()
}

// PruneRemovedFields narrows the effective schema to its intersection with
// newSchema. Fields that fall out of the intersection disappear from query
// planning (blueprints for them match nothing) while their postings stay
// in memory until the index is rebuilt elsewhere.
//
// Pruning is monotone: each call intersects with the previously pruned
// schema, never the original, so the effective field set only shrinks.
// Pruning with a schema covering the current effective schema is a no-op.
func (mi *MemoryIndex) PruneRemovedFields(newSchema *schema.Schema) {
	mi.pruneMu.Lock()
	defer mi.pruneMu.Unlock()

	base := mi.prunedSchema
	if base == nil {
		base = mi.schema
	}

	next := schema.Intersect(base, newSchema)
	if next.Equal(base) {
		return
	}

	mi.prunedSchema = next
	for id := range mi.hidden {
		mi.hidden[id] = !next.HasField(mi.schema.Field(uint32(id)).Name)
	}

	mi.logger.Info("schema pruned",
		"fields", mi.schema.NumFields(),
		"remaining", next.NumFields(),
	)
}

// PrunedSchema returns the current pruned schema, or nil when no pruning
// has taken place.
func (mi *MemoryIndex) PrunedSchema() *schema.Schema {
	mi.pruneMu.Lock()
	defer mi.pruneMu.Unlock()
	return mi.prunedSchema
}

func (mi *MemoryIndex) fieldHidden(fieldID uint32) bool {
	mi.pruneMu.Lock()
	defer mi.pruneMu.Unlock()
	return mi.hidden[fieldID]
}
