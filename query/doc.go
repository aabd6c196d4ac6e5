// Package query defines the term-level query nodes a memory index can build
// search blueprints for.
//
// The Node union is sealed. All text-like kinds (string, prefix, suffix,
// substring, regexp, fuzzy, location) and NumberTerm share one resolution
// path: TermAsString yields the literal dictionary key, and the index looks
// it up verbatim. PredicateQuery has no term form and always resolves to an
// empty blueprint.
//
// FieldSpec names the field a node searches and whether that field is
// configured as a filter field.
package query
