// Package lexgo provides a real-time, in-memory inverted index for Go.
//
// Documents become searchable at commit boundaries: inserts and removes are
// staged through a double-buffered inversion pipeline and pushed into the
// live per-field indexes by Commit, while queries plan against frozen,
// generation-guarded posting snapshots and never block on writers.
//
// # Quick Start
//
//	s := schema.New(schema.TextField("title"))
//	idx, err := lexgo.New(s)
//	if err != nil {
//	    panic(err)
//	}
//	defer idx.Close()
//
//	idx.Insert(1, document.Document{"title": document.Text("red car")})
//	idx.Insert(2, document.Document{"title": document.Text("blue car")})
//	idx.CommitAndWait(ctx)
//
//	bp := idx.CreateBlueprint(query.FieldSpec{Name: "title"}, query.StringTerm{Term: "car"})
//	defer bp.Close()
//	it := bp.CreateSearch()
//	for it.Next() {
//	    fmt.Println(it.DocID())
//	}
//
// # Lifecycle
//
// An index accepts writes until Freeze, which is terminal; frozen indexes
// reject further writes with a log entry, never an error. A frozen index
// can be serialized with Dump, for example through the indexfile package.
//
// # Concurrency
//
// Insert, Remove, Commit, Freeze and PruneRemovedFields must be serialized
// by the caller. CreateBlueprint and the iterators it produces are safe to
// use from any number of goroutines concurrently with writes.
package lexgo
