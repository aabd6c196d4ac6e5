package memoryindex

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// InvalidDocID is the reserved document id 0. It never appears in posting
// lists and doubles as the "no current hit" value of iterators.
const InvalidDocID uint32 = 0

// Posting is one document entry in a term's posting list. Lists are sorted
// by ascending DocID and immutable once published.
type Posting struct {
	DocID    uint32
	Features FeatureRef
}

// Occurrence is a single term hit inside a field value.
type Occurrence struct {
	Position uint32
	Weight   int32
}

// TermFieldMatchData receives the unpacked occurrence data of the current
// hit. The Occurrences slice is reused across Unpack calls.
type TermFieldMatchData struct {
	DocID       uint32
	FieldLength uint32
	Occurrences []Occurrence
}

// SearchIterator walks the hits of one term blueprint in ascending DocID
// order. DocID is valid only after Next or Seek returned true. Iterators
// must not outlive the blueprint they came from: the blueprint's generation
// guard is what keeps the underlying snapshot alive.
type SearchIterator interface {
	// Next advances to the following hit.
	Next() bool
	// Seek advances to the first hit with id >= docID. It never moves
	// backwards.
	Seek(docID uint32) bool
	// DocID returns the current hit.
	DocID() uint32
	// Unpack fills md with the current hit's match data.
	Unpack(md *TermFieldMatchData)
}

// postingIterator is the feature-aware iterator used for ranking-relevant
// fields.
type postingIterator struct {
	postings []Posting
	features *FeatureStore
	pos      int
}

func newPostingIterator(postings []Posting, features *FeatureStore) *postingIterator {
	return &postingIterator{postings: postings, features: features, pos: -1}
}

func (it *postingIterator) Next() bool {
	it.pos++
	return it.pos < len(it.postings)
}

func (it *postingIterator) Seek(docID uint32) bool {
	from := it.pos
	if from < 0 {
		from = 0
	}
	it.pos = from + sort.Search(len(it.postings)-from, func(i int) bool {
		return it.postings[from+i].DocID >= docID
	})
	return it.pos < len(it.postings)
}

func (it *postingIterator) DocID() uint32 {
	if it.pos < 0 || it.pos >= len(it.postings) {
		return InvalidDocID
	}
	return it.postings[it.pos].DocID
}

func (it *postingIterator) Unpack(md *TermFieldMatchData) {
	p := it.postings[it.pos]
	f := it.features.DecodeFeatures(p.Features)
	md.DocID = p.DocID
	md.FieldLength = f.FieldLength
	md.Occurrences = append(md.Occurrences[:0], f.Occurrences...)
}

// bitVectorIterator serves filter fields: it answers presence only and
// never touches the feature store. The posting snapshot is materialized
// into a bitmap up front, which keeps seeks cheap for dense lists.
type bitVectorIterator struct {
	iter  roaring.IntPeekable
	cur   uint32
	valid bool
}

func newBitVectorIterator(postings []Posting) *bitVectorIterator {
	bm := roaring.New()
	for _, p := range postings {
		bm.Add(p.DocID)
	}
	return &bitVectorIterator{iter: bm.Iterator()}
}

func (it *bitVectorIterator) Next() bool {
	if !it.iter.HasNext() {
		it.valid = false
		return false
	}
	it.cur = it.iter.Next()
	it.valid = true
	return true
}

func (it *bitVectorIterator) Seek(docID uint32) bool {
	if it.valid && it.cur >= docID {
		return true
	}
	it.iter.AdvanceIfNeeded(docID)
	return it.Next()
}

func (it *bitVectorIterator) DocID() uint32 {
	if !it.valid {
		return InvalidDocID
	}
	return it.cur
}

func (it *bitVectorIterator) Unpack(md *TermFieldMatchData) {
	md.DocID = it.cur
	md.FieldLength = 0
	md.Occurrences = md.Occurrences[:0]
}

// emptySearch is the iterator of an EmptyBlueprint.
type emptySearch struct{}

func (emptySearch) Next() bool                 { return false }
func (emptySearch) Seek(uint32) bool           { return false }
func (emptySearch) DocID() uint32              { return InvalidDocID }
func (emptySearch) Unpack(*TermFieldMatchData) {}
