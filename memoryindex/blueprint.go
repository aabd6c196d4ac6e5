package memoryindex

import (
	"github.com/hupe1980/lexgo/internal/generation"
	"github.com/hupe1980/lexgo/query"
	"github.com/hupe1980/lexgo/schema"
)

// HitEstimate is the cost input for upstream query planning: how many hits
// a blueprint will produce, and whether it produces any at all. Estimates
// are computed when the blueprint is built, not when it is searched.
type HitEstimate struct {
	Estimate uint32
	Empty    bool
}

// Blueprint is a planned term search bound to a frozen posting snapshot.
// It owns the generation guard keeping that snapshot alive: iterators
// created from it are valid until Close, and must not be used afterwards.
type Blueprint interface {
	// HitEstimate returns the eagerly computed hit estimate.
	HitEstimate() HitEstimate
	// CreateSearch builds an iterator over the snapshot.
	CreateSearch() SearchIterator
	// Close releases the snapshot. Idempotent.
	Close() error
}

// EmptyBlueprint matches nothing. It stands in for unknown fields, hidden
// fields and query nodes the memory index cannot serve.
var EmptyBlueprint Blueprint = emptyBlueprint{}

type emptyBlueprint struct{}

func (emptyBlueprint) HitEstimate() HitEstimate     { return HitEstimate{Empty: true} }
func (emptyBlueprint) CreateSearch() SearchIterator { return emptySearch{} }
func (emptyBlueprint) Close() error                 { return nil }

// termBlueprint serves one term in one field from a pinned snapshot.
type termBlueprint struct {
	guard    *generation.Guard
	postings []Posting
	features *FeatureStore
	isFilter bool
	estimate HitEstimate
}

func newTermBlueprint(guard *generation.Guard, postings []Posting, features *FeatureStore, isFilter bool) *termBlueprint {
	return &termBlueprint{
		guard:    guard,
		postings: postings,
		features: features,
		isFilter: isFilter,
		estimate: HitEstimate{
			Estimate: uint32(len(postings)),
			Empty:    len(postings) == 0,
		},
	}
}

func (b *termBlueprint) HitEstimate() HitEstimate {
	return b.estimate
}

// CreateSearch builds the iterator matching the field's static
// configuration: presence-only for filter fields, feature-unpacking
// otherwise.
func (b *termBlueprint) CreateSearch() SearchIterator {
	if b.isFilter {
		return newBitVectorIterator(b.postings)
	}
	return newPostingIterator(b.postings, b.features)
}

func (b *termBlueprint) Close() error {
	b.guard.Release()
	return nil
}

// CreateBlueprint plans the evaluation of node against the named field.
//
// Unknown fields, fields hidden by schema pruning, and nodes without a term
// form (predicate queries) yield EmptyBlueprint — planning limitations are
// never errors. Every other node kind resolves through its literal term
// text: the memory index does not expand prefixes, ranges or regular
// expressions, it looks the text up in the field dictionary as-is.
//
// The returned blueprint pins the field's current generation; the caller
// must Close it when the query is done.
func (mi *MemoryIndex) CreateBlueprint(field query.FieldSpec, node query.Node) Blueprint {
	fieldID := mi.schema.FieldID(field.Name)
	if fieldID == schema.UnknownFieldID || mi.fieldHidden(fieldID) {
		return EmptyBlueprint
	}

	term, ok := query.TermAsString(node)
	if !ok {
		return EmptyBlueprint
	}

	fi := mi.fieldIndexes.fieldIndex(fieldID)
	guard := fi.TakeGuard()
	postings := fi.FindFrozen(term)

	return newTermBlueprint(guard, postings, fi.features, field.IsFilter)
}
