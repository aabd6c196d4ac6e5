// Package document defines the value model for documents fed into a memory
// index.
//
// A Document is a plain map from field name to Value. The Value union covers
// the three collection shapes an index field can have:
//
//	doc := document.Document{
//	    "title": document.Text("red car"),
//	    "tags":  document.Array{"fast", "cheap"},
//	    "likes": document.WeightedSet{"alice": 3, "bob": 1},
//	}
//
// Only fields present in the index schema are inverted; extra fields are
// ignored.
package document
