// Package indexfile is a reference consumer for memory index dumps: a
// streaming, block-compressed file format holding fields, words and
// postings exactly as Dump emits them, plus a reader that walks the stream
// back for verification and downstream index building.
package indexfile
