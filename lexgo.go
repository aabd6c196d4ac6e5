package lexgo

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/executor"
	"github.com/hupe1980/lexgo/memoryindex"
	"github.com/hupe1980/lexgo/query"
	"github.com/hupe1980/lexgo/schema"
)

// ErrEmptySchema is returned by New for a nil schema or one without fields.
var ErrEmptySchema = errors.New("lexgo: schema has no indexed fields")

// Index bundles a memory index with the two executors driving its invert
// and push stages. Use New to create one and Close to shut it down.
//
// The write surface (Insert, Remove, Commit, Freeze, PruneRemovedFields,
// Close) must be serialized by the caller; queries are concurrency-safe.
type Index struct {
	mi         *memoryindex.MemoryIndex
	invertExec *executor.Sequenced
	pushExec   *executor.Sequenced
}

// New creates an index over s with its own executor pair.
func New(s *schema.Schema, optFns ...Option) (*Index, error) {
	if s == nil || s.NumFields() == 0 {
		return nil, ErrEmptySchema
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	execOpts := []executor.Option{executor.WithQueueCapacity(opts.queueCapacity)}
	invertExec := executor.NewSequenced(opts.invertWorkers, execOpts...)
	pushExec := executor.NewSequenced(opts.pushWorkers, execOpts...)

	mi := memoryindex.New(s, invertExec, pushExec, opts.index...)

	return &Index{
		mi:         mi,
		invertExec: invertExec,
		pushExec:   pushExec,
	}, nil
}

// Insert stages docID with the given field values for the next commit.
func (idx *Index) Insert(docID uint32, doc document.Document) {
	idx.mi.InsertDocument(docID, doc)
}

// Remove stages the removal of docID for the next commit.
func (idx *Index) Remove(docID uint32) {
	idx.mi.RemoveDocument(docID)
}

// Commit makes everything staged so far queryable. It returns once new
// writes are routed to the next cycle; onDone fires when the committed
// postings are visible.
func (idx *Index) Commit(onDone func()) {
	idx.mi.Commit(onDone)
}

// CommitAndWait commits and blocks until the postings are visible.
func (idx *Index) CommitAndWait(ctx context.Context) error {
	return idx.mi.CommitAndWait(ctx)
}

// Freeze makes the index read-only. Irreversible.
func (idx *Index) Freeze() {
	idx.mi.Freeze()
}

// Frozen reports whether the index is read-only.
func (idx *Index) Frozen() bool {
	return idx.mi.Frozen()
}

// CreateBlueprint plans the evaluation of node against field. The result
// must be closed when the query is done.
func (idx *Index) CreateBlueprint(field query.FieldSpec, node query.Node) memoryindex.Blueprint {
	return idx.mi.CreateBlueprint(field, node)
}

// PruneRemovedFields hides fields absent from newSchema from query
// planning. Monotone: the effective field set only shrinks.
func (idx *Index) PruneRemovedFields(newSchema *schema.Schema) {
	idx.mi.PruneRemovedFields(newSchema)
}

// PrunedSchema returns the effective schema after pruning, or nil when no
// pruning has taken place.
func (idx *Index) PrunedSchema() *schema.Schema {
	return idx.mi.PrunedSchema()
}

// Dump serializes the frozen index through b.
func (idx *Index) Dump(ctx context.Context, b memoryindex.IndexBuilder) error {
	return idx.mi.Dump(ctx, b)
}

// NumDocs returns the number of live documents.
func (idx *Index) NumDocs() uint64 {
	return idx.mi.NumDocs()
}

// NumWords returns the number of distinct terms across all fields.
func (idx *Index) NumWords() uint64 {
	return idx.mi.NumWords()
}

// MaxDocID returns the highest document id ever inserted.
func (idx *Index) MaxDocID() uint32 {
	return idx.mi.MaxDocID()
}

// MemoryUsage reports the index's memory accounting.
func (idx *Index) MemoryUsage() memoryindex.MemoryUsage {
	return idx.mi.MemoryUsage()
}

// Close flushes staged writes with a final commit and stops the executors.
// The index must not be used afterwards.
func (idx *Index) Close() error {
	err := idx.mi.CommitAndWait(context.Background())

	idx.invertExec.Close()
	idx.pushExec.Close()

	if err != nil {
		return fmt.Errorf("final commit: %w", err)
	}
	return nil
}
