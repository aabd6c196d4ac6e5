package schema

import (
	"fmt"
	"math"
)

// UnknownFieldID is returned by FieldID for names that are not part of the
// schema. It never collides with a real field id.
const UnknownFieldID uint32 = math.MaxUint32

// DataType defines the value type of an index field.
type DataType uint8

const (
	TypeString DataType = iota
	TypeInt64
	TypeFloat
	TypeBool
)

// String returns the string representation of the DataType.
func (t DataType) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeInt64:
		return "Int64"
	case TypeFloat:
		return "Float"
	case TypeBool:
		return "Bool"
	default:
		return "Unknown"
	}
}

// CollectionType defines how many values a field holds per document.
type CollectionType uint8

const (
	CollectionSingle CollectionType = iota
	CollectionArray
	CollectionWeightedSet
)

// String returns the string representation of the CollectionType.
func (c CollectionType) String() string {
	switch c {
	case CollectionSingle:
		return "Single"
	case CollectionArray:
		return "Array"
	case CollectionWeightedSet:
		return "WeightedSet"
	default:
		return "Unknown"
	}
}

// Field describes one index field.
type Field struct {
	Name       string
	Type       DataType
	Collection CollectionType
}

// TextField is a convenience constructor for a single-valued string field.
func TextField(name string) Field {
	return Field{Name: name, Type: TypeString, Collection: CollectionSingle}
}

// Schema is an ordered set of index fields. Field ids are positional and
// stable for the lifetime of the schema. A Schema is immutable after New.
type Schema struct {
	fields []Field
	byName map[string]uint32
}

// New creates a schema from the given fields. Empty or duplicate field
// names are a programming error and panic.
func New(fields ...Field) *Schema {
	s := &Schema{
		fields: make([]Field, len(fields)),
		byName: make(map[string]uint32, len(fields)),
	}
	copy(s.fields, fields)
	for i, f := range fields {
		if f.Name == "" {
			panic("schema: empty field name")
		}
		if _, ok := s.byName[f.Name]; ok {
			panic(fmt.Sprintf("schema: duplicate field %q", f.Name))
		}
		s.byName[f.Name] = uint32(i)
	}
	return s
}

// NumFields returns the number of fields in the schema.
func (s *Schema) NumFields() int {
	return len(s.fields)
}

// Field returns the field with the given id.
func (s *Schema) Field(id uint32) Field {
	return s.fields[id]
}

// Fields returns a copy of the field list in schema order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldID returns the id of the named field, or UnknownFieldID if the schema
// has no such field.
func (s *Schema) FieldID(name string) uint32 {
	if id, ok := s.byName[name]; ok {
		return id
	}
	return UnknownFieldID
}

// HasField reports whether the schema contains the named field.
func (s *Schema) HasField(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Equal reports whether both schemas contain the same fields in the same
// order with identical definitions.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.fields) != len(o.fields) {
		return false
	}
	for i, f := range s.fields {
		if o.fields[i] != f {
			return false
		}
	}
	return true
}

// Intersect returns a new schema containing the fields of a that are also
// present in b with an identical definition, preserving a's field order.
func Intersect(a, b *Schema) *Schema {
	var kept []Field
	for _, f := range a.fields {
		id := b.FieldID(f.Name)
		if id == UnknownFieldID {
			continue
		}
		if b.fields[id] != f {
			continue
		}
		kept = append(kept, f)
	}
	return New(kept...)
}
