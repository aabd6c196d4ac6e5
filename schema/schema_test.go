package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTypeString(t *testing.T) {
	tests := []struct {
		dt       DataType
		expected string
	}{
		{TypeString, "String"},
		{TypeInt64, "Int64"},
		{TypeFloat, "Float"},
		{TypeBool, "Bool"},
		{DataType(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.dt.String())
	}
}

func TestCollectionTypeString(t *testing.T) {
	tests := []struct {
		ct       CollectionType
		expected string
	}{
		{CollectionSingle, "Single"},
		{CollectionArray, "Array"},
		{CollectionWeightedSet, "WeightedSet"},
		{CollectionType(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.ct.String())
	}
}

func TestSchemaFieldID(t *testing.T) {
	s := New(TextField("title"), TextField("body"))

	assert.Equal(t, uint32(0), s.FieldID("title"))
	assert.Equal(t, uint32(1), s.FieldID("body"))
	assert.Equal(t, UnknownFieldID, s.FieldID("missing"))
	assert.True(t, s.HasField("title"))
	assert.False(t, s.HasField("missing"))
	assert.Equal(t, 2, s.NumFields())
	assert.Equal(t, "body", s.Field(1).Name)
}

func TestSchemaDuplicateFieldPanics(t *testing.T) {
	assert.Panics(t, func() {
		New(TextField("title"), TextField("title"))
	})
}

func TestSchemaEmptyFieldNamePanics(t *testing.T) {
	assert.Panics(t, func() {
		New(TextField(""))
	})
}

func TestSchemaEqual(t *testing.T) {
	a := New(TextField("title"), TextField("body"))
	b := New(TextField("title"), TextField("body"))
	c := New(TextField("body"), TextField("title"))
	d := New(TextField("title"))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c), "order matters")
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(nil))

	var nilSchema *Schema
	assert.True(t, nilSchema.Equal(nil))
}

func TestIntersect(t *testing.T) {
	s0 := New(TextField("f1"), TextField("f2"), TextField("f3"))
	s1 := New(TextField("f1"), TextField("f3"))
	s2 := New(TextField("f3"))

	got := Intersect(s0, s1)
	require.Equal(t, 2, got.NumFields())
	assert.Equal(t, "f1", got.Field(0).Name)
	assert.Equal(t, "f3", got.Field(1).Name)

	// Repeated intersection narrows monotonically.
	got = Intersect(got, s2)
	require.Equal(t, 1, got.NumFields())
	assert.Equal(t, "f3", got.Field(0).Name)

	// Associativity: intersecting in any grouping yields the same set.
	alt := Intersect(s0, Intersect(s1, s2))
	assert.True(t, got.Equal(alt))
}

func TestIntersectDefinitionMismatch(t *testing.T) {
	a := New(Field{Name: "tags", Type: TypeString, Collection: CollectionArray})
	b := New(Field{Name: "tags", Type: TypeString, Collection: CollectionSingle})

	// Same name but different collection type is not a match.
	got := Intersect(a, b)
	assert.Equal(t, 0, got.NumFields())
}

func TestIntersectWithSelf(t *testing.T) {
	s := New(TextField("title"), TextField("body"))
	assert.True(t, s.Equal(Intersect(s, s)))
}
