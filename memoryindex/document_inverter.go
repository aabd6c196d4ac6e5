package memoryindex

import (
	"slices"
	"sync/atomic"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/executor"
	"github.com/hupe1980/lexgo/internal/tokenizer"
	"github.com/hupe1980/lexgo/schema"
)

// stagedDoc is one document's inverted contribution to one field, parked
// between the invert and push stages. A tombstone has removed set and no
// terms.
type stagedDoc struct {
	removed     bool
	fieldLength uint32
	terms       map[string][]Occurrence
}

func (sd *stagedDoc) add(tokens []tokenizer.Token, base uint32, weight int32) {
	for _, t := range tokens {
		sd.terms[t.Term] = append(sd.terms[t.Term], Occurrence{
			Position: base + t.Position,
			Weight:   weight,
		})
	}
}

// fieldInverter stages one field of one double-buffer slot. Its map is
// touched only by invert-stage tasks keyed by the field name, and swapped
// out whole by pushDocuments after the invert stage has drained.
type fieldInverter struct {
	field  schema.Field
	staged map[uint32]*stagedDoc
}

func newFieldInverter(field schema.Field) *fieldInverter {
	return &fieldInverter{
		field:  field,
		staged: make(map[uint32]*stagedDoc),
	}
}

// invert stages the field value of one document. A nil value stages a
// tombstone, so re-inserting a document without the field erases what the
// field held before.
func (fv *fieldInverter) invert(docID uint32, value document.Value) {
	sd := &stagedDoc{terms: make(map[string][]Occurrence)}

	switch v := value.(type) {
	case nil:
		sd.removed = true
	case document.Text:
		tokens := tokenizer.Tokenize(string(v))
		sd.add(tokens, 0, 1)
		sd.fieldLength = uint32(len(tokens))
	case document.Array:
		// Position bases advance past each element plus a gap, so tokens
		// of neighboring elements are never adjacent.
		base := uint32(0)
		for _, elem := range v {
			tokens := tokenizer.Tokenize(elem)
			sd.add(tokens, base, 1)
			sd.fieldLength += uint32(len(tokens))
			base += uint32(len(tokens)) + 1
		}
	case document.WeightedSet:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		base := uint32(0)
		for _, key := range keys {
			tokens := tokenizer.Tokenize(key)
			sd.add(tokens, base, v[key])
			sd.fieldLength += uint32(len(tokens))
			base += uint32(len(tokens)) + 1
		}
	}

	if !sd.removed && len(sd.terms) == 0 {
		// Nothing tokenized: same effect as an absent field.
		sd.removed = true
	}
	fv.staged[docID] = sd
}

func (fv *fieldInverter) remove(docID uint32) {
	fv.staged[docID] = &stagedDoc{removed: true}
}

// DocumentInverter turns documents into staged per-field postings. Two
// instances alternate roles across commits: the active one absorbs inserts
// and removes, the other is either empty or being pushed.
//
// Staging runs on the invert executor, merging into the live field indexes
// on the push executor, both keyed by field name. Per-field work is
// therefore FIFO across both stages while different fields proceed in
// parallel.
type DocumentInverter struct {
	schema     *schema.Schema
	invertExec executor.SequencedExecutor
	pushExec   executor.SequencedExecutor
	fields     []*fieldInverter
}

func newDocumentInverter(s *schema.Schema, invertExec, pushExec executor.SequencedExecutor) *DocumentInverter {
	fields := make([]*fieldInverter, s.NumFields())
	for id := range fields {
		fields[id] = newFieldInverter(s.Field(uint32(id)))
	}
	return &DocumentInverter{
		schema:     s,
		invertExec: invertExec,
		pushExec:   pushExec,
		fields:     fields,
	}
}

// invertDocument stages the inversion of doc under docID. Schema fields
// absent from doc stage tombstones, erasing prior content of those fields.
func (di *DocumentInverter) invertDocument(docID uint32, doc document.Document) {
	for _, fv := range di.fields {
		fv := fv
		value := doc[fv.field.Name]
		di.invertExec.ExecuteName(fv.field.Name, func() {
			fv.invert(docID, value)
		})
	}
}

// removeDocument stages tombstones for docID on every field.
func (di *DocumentInverter) removeDocument(docID uint32) {
	for _, fv := range di.fields {
		fv := fv
		di.invertExec.ExecuteName(fv.field.Name, func() {
			fv.remove(docID)
		})
	}
}

// pushDocuments hands everything staged so far to the push executor, which
// merges it into the live field indexes. onDone fires exactly once, after
// the last push task of this batch has completed, or immediately when
// nothing was staged.
//
// The caller must have drained the invert executor first; pushDocuments
// swaps the staged maps out without synchronization of its own.
func (di *DocumentInverter) pushDocuments(c *fieldIndexCollection, onDone func()) {
	type batch struct {
		fi     *FieldIndex
		staged map[uint32]*stagedDoc
	}

	var batches []batch
	for id, fv := range di.fields {
		if len(fv.staged) == 0 {
			continue
		}
		staged := fv.staged
		fv.staged = make(map[uint32]*stagedDoc)
		batches = append(batches, batch{fi: c.fieldIndex(uint32(id)), staged: staged})
	}

	if len(batches) == 0 {
		if onDone != nil {
			onDone()
		}
		return
	}

	var pending atomic.Int64
	pending.Store(int64(len(batches)))
	for _, b := range batches {
		b := b
		di.pushExec.ExecuteName(b.fi.field.Name, func() {
			b.fi.applyPush(b.staged)
			if pending.Add(-1) == 0 && onDone != nil {
				onDone()
			}
		})
	}
}
