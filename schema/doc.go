// Package schema defines the index schema: the ordered set of fields a
// memory index accepts documents for and answers queries against.
//
// Field ids are positional, assigned by New in declaration order, and stable
// for the lifetime of the schema. Lookups by name return UnknownFieldID for
// absent fields instead of an error, so callers on the query path can treat
// unknown and removed fields uniformly.
//
// Intersect computes the common subset of two schemas and is the building
// block for pruning fields out of a live index without rebuilding it:
//
//	pruned := schema.Intersect(current, newSchema)
package schema
