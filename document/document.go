package document

// Value is a field value that can be inverted into the index. It is a sealed
// union: Text, Array and WeightedSet are the only implementations.
type Value interface {
	isValue()
}

// Text is a single string field value.
type Text string

func (Text) isValue() {}

// Array is an ordered multi-value string field. Token positions restart at
// an element boundary, so tokens of different elements are never adjacent.
type Array []string

func (Array) isValue() {}

// WeightedSet maps string keys to signed integer weights. Every token of a
// key is indexed with the entry's weight.
type WeightedSet map[string]int32

func (WeightedSet) isValue() {}

// Document maps field names to values. Fields absent from the document are
// inverted to nothing; on re-insertion this erases previously indexed
// content of those fields.
type Document map[string]Value
