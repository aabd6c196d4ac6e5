package memoryindex

import (
	"context"

	"github.com/hupe1980/lexgo/schema"
)

// fieldIndexCollection holds one FieldIndex per schema field, addressed by
// field ID. The set is fixed at construction; schema pruning hides fields
// from queries without touching the collection.
type fieldIndexCollection struct {
	fields []*FieldIndex
}

func newFieldIndexCollection(s *schema.Schema, featureBufSize int) *fieldIndexCollection {
	fields := make([]*FieldIndex, s.NumFields())
	for id := uint32(0); id < uint32(s.NumFields()); id++ {
		fields[id] = newFieldIndex(id, s.Field(id), featureBufSize)
	}
	return &fieldIndexCollection{fields: fields}
}

func (c *fieldIndexCollection) fieldIndex(fieldID uint32) *FieldIndex {
	if fieldID >= uint32(len(c.fields)) {
		return nil
	}
	return c.fields[fieldID]
}

func (c *fieldIndexCollection) numUniqueWords() uint64 {
	var n uint64
	for _, fi := range c.fields {
		n += fi.NumWords()
	}
	return n
}

func (c *fieldIndexCollection) memoryUsage() MemoryUsage {
	var u MemoryUsage
	for _, fi := range c.fields {
		u.Add(fi.MemoryUsage())
	}
	return u
}

// dump streams every field in schema order and returns the total number of
// words written.
func (c *fieldIndexCollection) dump(ctx context.Context, b IndexBuilder) (uint64, error) {
	var words uint64
	for _, fi := range c.fields {
		n, err := fi.dump(ctx, b)
		words += n
		if err != nil {
			return words, err
		}
	}
	return words, nil
}
