package query

import "strconv"

// Node is a term-level query node. It is a sealed union; the memory index
// matches it exhaustively when building blueprints.
type Node interface {
	isNode()
}

// StringTerm matches documents containing the exact term.
type StringTerm struct {
	Term string
}

// PrefixTerm carries a term prefix. The memory index resolves it by literal
// dictionary lookup of the prefix text; prefix expansion happens in disk
// index layers, not here.
type PrefixTerm struct {
	Term string
}

// SuffixTerm carries a term suffix, resolved literally like PrefixTerm.
type SuffixTerm struct {
	Term string
}

// SubstringTerm carries an infix, resolved literally like PrefixTerm.
type SubstringTerm struct {
	Term string
}

// RegexpTerm carries a regular expression, resolved literally like
// PrefixTerm.
type RegexpTerm struct {
	Term string
}

// FuzzyTerm carries an approximate-match term, resolved literally like
// PrefixTerm.
type FuzzyTerm struct {
	Term string
}

// LocationTerm carries the serialized text form of a location query.
type LocationTerm struct {
	Term string
}

// RangeTerm carries the bounds of a range query. Its term form is the
// bracketed range literal, which plain term dictionaries do not contain.
type RangeTerm struct {
	From string
	To   string
}

// NumberTerm carries the decimal text form of a numeric term. Memory index
// fields store numbers as text, so it resolves like a string term.
type NumberTerm struct {
	Term string
}

// PredicateQuery selects documents by stored boolean constraints. It has no
// term form and contributes nothing to a memory index search.
type PredicateQuery struct{}

func (StringTerm) isNode()     {}
func (PrefixTerm) isNode()     {}
func (SuffixTerm) isNode()     {}
func (SubstringTerm) isNode()  {}
func (RegexpTerm) isNode()     {}
func (FuzzyTerm) isNode()      {}
func (LocationTerm) isNode()   {}
func (RangeTerm) isNode()      {}
func (NumberTerm) isNode()     {}
func (PredicateQuery) isNode() {}

// Number is a convenience constructor turning a numeric value into its
// term form.
func Number(v int64) NumberTerm {
	return NumberTerm{Term: strconv.FormatInt(v, 10)}
}

// TermAsString returns the literal dictionary key a node resolves to, and
// whether the node has a term form at all.
func TermAsString(n Node) (string, bool) {
	switch t := n.(type) {
	case StringTerm:
		return t.Term, true
	case PrefixTerm:
		return t.Term, true
	case SuffixTerm:
		return t.Term, true
	case SubstringTerm:
		return t.Term, true
	case RegexpTerm:
		return t.Term, true
	case FuzzyTerm:
		return t.Term, true
	case LocationTerm:
		return t.Term, true
	case RangeTerm:
		return "[" + t.From + ";" + t.To + "]", true
	case NumberTerm:
		return t.Term, true
	case PredicateQuery:
		return "", false
	}
	return "", false
}

// FieldSpec binds a query node to an index field. IsFilter mirrors the
// field's static configuration and selects the iterator flavor: filter
// fields get a presence-only iterator, everything else a feature-unpacking
// one.
type FieldSpec struct {
	Name     string
	IsFilter bool
}
