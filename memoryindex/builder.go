package memoryindex

import "github.com/hupe1980/lexgo/schema"

// IndexBuilder consumes a full index dump. Dump drives it strictly nested:
// BeginField, then per word BeginWord, AddPosting ascending by document id,
// EndWord (words in sorted order), then EndField, fields in schema order.
// Fields without postings are skipped entirely.
//
// Builder errors abort the dump and propagate to the Dump caller.
type IndexBuilder interface {
	BeginField(field schema.Field) error
	BeginWord(word string) error
	AddPosting(docID uint32, fieldLength uint32, occurrences []Occurrence) error
	EndWord() error
	EndField() error
}
