package memoryindex

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/lexgo/internal/generation"
	"github.com/hupe1980/lexgo/schema"
)

const (
	postingByteSize       = 16 // docID + feature ref, aligned
	dictEntryOverhead     = 64 // map bucket share + entry header
	docTermsSliceOverhead = 48
)

// postingEntry is one dictionary slot. The posting list is swapped
// atomically: readers load an immutable snapshot, the push worker publishes
// a freshly merged replacement.
type postingEntry struct {
	list atomic.Pointer[[]Posting]
}

func (e *postingEntry) load() []Posting {
	if p := e.list.Load(); p != nil {
		return *p
	}
	return nil
}

// FieldIndex is the live inverted index of a single schema field: a term
// dictionary pointing at immutable posting snapshots, plus the feature
// store holding the occurrence data those postings reference.
//
// All mutation happens on the push executor's worker for this field, one
// batch per commit. Readers resolve terms lock-free apart from the
// dictionary read lock, protected by generation guards.
type FieldIndex struct {
	fieldID uint32
	field   schema.Field

	gen      *generation.Handler
	features *FeatureStore

	dictMu sync.RWMutex
	dict   map[string]*postingEntry

	// docTerms maps a live document to the terms it contributed, so a
	// removal can find the posting lists to scrub. Push-worker owned.
	docTerms map[uint32][]string

	postingBytes  atomic.Uint64
	dictBytes     atomic.Uint64
	docTermsBytes atomic.Uint64
}

func newFieldIndex(fieldID uint32, field schema.Field, featureBufSize int) *FieldIndex {
	gen := generation.NewHandler()
	return &FieldIndex{
		fieldID:  fieldID,
		field:    field,
		gen:      gen,
		features: newFeatureStore(gen, featureBufSize),
		dict:     make(map[string]*postingEntry),
		docTerms: make(map[uint32][]string),
	}
}

// Field returns the schema field this index serves.
func (fi *FieldIndex) Field() schema.Field {
	return fi.field
}

// TakeGuard pins the field's current generation. Callers must hold the
// guard for as long as they use posting snapshots or feature refs obtained
// afterwards.
func (fi *FieldIndex) TakeGuard() *generation.Guard {
	return fi.gen.TakeGuard()
}

// FindFrozen returns the published posting snapshot of term, or nil when
// the dictionary has no live postings for it. The result is immutable; a
// generation guard taken before the call keeps its feature refs valid.
func (fi *FieldIndex) FindFrozen(term string) []Posting {
	fi.dictMu.RLock()
	entry := fi.dict[term]
	fi.dictMu.RUnlock()

	if entry == nil {
		return nil
	}
	return entry.load()
}

// NumWords returns the number of words ever added to the dictionary.
// Words whose posting lists emptied out stay counted, like the dictionary
// itself keeps them.
func (fi *FieldIndex) NumWords() uint64 {
	fi.dictMu.RLock()
	defer fi.dictMu.RUnlock()
	return uint64(len(fi.dict))
}

// MemoryUsage reports the field's memory accounting.
func (fi *FieldIndex) MemoryUsage() MemoryUsage {
	u := fi.features.MemoryUsage()
	structural := fi.postingBytes.Load() + fi.dictBytes.Load() + fi.docTermsBytes.Load()
	u.Allocated += structural
	u.Used += structural
	u.OnHold = fi.gen.OnHoldBytes()
	return u
}

// applyPush merges one commit's staged batch into the live structures. It
// runs on the push executor keyed by this field's name; there is never more
// than one applyPush in flight per field.
func (fi *FieldIndex) applyPush(staged map[uint32]*stagedDoc) {
	docIDs := make([]uint32, 0, len(staged))
	for docID := range staged {
		docIDs = append(docIDs, docID)
	}
	slices.Sort(docIDs)

	// Every staged doc that is already live gets its old postings scrubbed:
	// tombstones obviously, but also re-inserts, whose terms may have
	// changed.
	removes := make(map[uint32]struct{})
	adds := make(map[string][]Posting)
	for _, docID := range docIDs {
		sd := staged[docID]
		if _, live := fi.docTerms[docID]; live {
			removes[docID] = struct{}{}
		}
		if sd.removed {
			continue
		}
		for term, occs := range sd.terms {
			ref := fi.features.EncodeFeatures(TermFeatures{
				FieldLength: sd.fieldLength,
				Occurrences: occs,
			})
			adds[term] = append(adds[term], Posting{DocID: docID, Features: ref})
		}
	}

	for term, postings := range adds {
		fi.mergeTerm(term, postings, removes)
	}

	// Terms the removed docs contributed to but nothing re-adds still need
	// scrubbing.
	for docID := range removes {
		for _, term := range fi.docTerms[docID] {
			if _, handled := adds[term]; !handled {
				adds[term] = nil
				fi.mergeTerm(term, nil, removes)
			}
		}
	}

	for _, docID := range docIDs {
		sd := staged[docID]
		if old, ok := fi.docTerms[docID]; ok {
			fi.docTermsBytes.Add(^(termsFootprint(old) - 1))
			delete(fi.docTerms, docID)
		}
		if sd.removed || len(sd.terms) == 0 {
			continue
		}
		terms := make([]string, 0, len(sd.terms))
		for term := range sd.terms {
			terms = append(terms, term)
		}
		fi.docTerms[docID] = terms
		fi.docTermsBytes.Add(termsFootprint(terms))
	}

	fi.gen.Increment()
}

func termsFootprint(terms []string) uint64 {
	size := uint64(docTermsSliceOverhead)
	for _, t := range terms {
		size += uint64(len(t)) + 16
	}
	return size
}

// mergeTerm publishes a new posting snapshot for term: the old snapshot
// minus the docs in removes, plus adds (sorted by docID). Feature blobs of
// dropped postings are marked dead.
func (fi *FieldIndex) mergeTerm(term string, adds []Posting, removes map[uint32]struct{}) {
	fi.dictMu.RLock()
	entry := fi.dict[term]
	fi.dictMu.RUnlock()

	if entry == nil {
		if len(adds) == 0 {
			return
		}
		entry = &postingEntry{}
		fi.dictMu.Lock()
		fi.dict[term] = entry
		fi.dictMu.Unlock()
		fi.dictBytes.Add(uint64(len(term)) + dictEntryOverhead)
	}

	old := entry.load()
	merged := make([]Posting, 0, len(old)+len(adds))
	i, j := 0, 0
	for i < len(old) || j < len(adds) {
		switch {
		case j == len(adds) || (i < len(old) && old[i].DocID < adds[j].DocID):
			if _, drop := removes[old[i].DocID]; drop {
				fi.features.MarkDead(old[i].Features)
			} else {
				merged = append(merged, old[i])
			}
			i++
		case i == len(old) || adds[j].DocID < old[i].DocID:
			merged = append(merged, adds[j])
			j++
		default:
			// Same doc on both sides: the add wins, the old blob dies.
			fi.features.MarkDead(old[i].Features)
			merged = append(merged, adds[j])
			i++
			j++
		}
	}

	entry.list.Store(&merged)

	fi.postingBytes.Add(uint64(cap(merged)) * postingByteSize)
	if old != nil {
		oldBytes := uint64(cap(old)) * postingByteSize
		fi.postingBytes.Add(^(oldBytes - 1))
		fi.gen.Hold(oldBytes, nil)
	}
}

// dump streams the field's words and postings into b in sorted word order.
// It returns the number of words written. Empty fields produce no builder
// calls at all.
func (fi *FieldIndex) dump(ctx context.Context, b IndexBuilder) (uint64, error) {
	guard := fi.gen.TakeGuard()
	defer guard.Release()

	fi.dictMu.RLock()
	words := make([]string, 0, len(fi.dict))
	for word := range fi.dict {
		words = append(words, word)
	}
	fi.dictMu.RUnlock()
	slices.Sort(words)

	var dumped uint64
	began := false
	for _, word := range words {
		if err := ctx.Err(); err != nil {
			return dumped, err
		}
		postings := fi.FindFrozen(word)
		if len(postings) == 0 {
			continue
		}
		if !began {
			if err := b.BeginField(fi.field); err != nil {
				return dumped, fmt.Errorf("begin field %q: %w", fi.field.Name, err)
			}
			began = true
		}
		if err := b.BeginWord(word); err != nil {
			return dumped, fmt.Errorf("field %q: begin word %q: %w", fi.field.Name, word, err)
		}
		for _, p := range postings {
			f := fi.features.DecodeFeatures(p.Features)
			if err := b.AddPosting(p.DocID, f.FieldLength, f.Occurrences); err != nil {
				return dumped, fmt.Errorf("field %q, word %q, doc %d: %w", fi.field.Name, word, p.DocID, err)
			}
		}
		if err := b.EndWord(); err != nil {
			return dumped, fmt.Errorf("field %q: end word %q: %w", fi.field.Name, word, err)
		}
		dumped++
	}
	if began {
		if err := b.EndField(); err != nil {
			return dumped, fmt.Errorf("end field %q: %w", fi.field.Name, err)
		}
	}
	return dumped, nil
}
