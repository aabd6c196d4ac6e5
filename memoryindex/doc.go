// Package memoryindex implements a real-time in-memory inverted index.
//
// Documents are inverted into per-field term postings through a two-stage
// pipeline of keyed sequenced executors: an invert stage tokenizes field
// values into staging buffers, a push stage merges staged postings into the
// live field indexes. Two staging inverters alternate roles across commits
// (double buffering), so ingestion never waits for a commit's push work.
//
// Queries plan through CreateBlueprint, which pins a generation-guarded
// snapshot of one field's postings. Readers never block on writers: a
// blueprint keeps returning its snapshot's results even while commits
// mutate the dictionary, until the blueprint is closed.
package memoryindex
