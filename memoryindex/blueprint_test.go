package memoryindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/query"
	"github.com/hupe1980/lexgo/schema"
)

func TestBlueprintUnknownField(t *testing.T) {
	mi := newTestIndex(t, titleSchema())

	bp := mi.CreateBlueprint(query.FieldSpec{Name: "no_such_field"}, query.StringTerm{Term: "car"})
	defer bp.Close()

	assert.True(t, bp.HitEstimate().Empty)
	assert.Empty(t, searchDocs(bp))

	it := bp.CreateSearch()
	assert.False(t, it.Seek(1))
	assert.Equal(t, InvalidDocID, it.DocID())
}

func TestBlueprintPredicateQuery(t *testing.T) {
	mi := newTestIndex(t, titleSchema())

	bp := mi.CreateBlueprint(query.FieldSpec{Name: "title"}, query.PredicateQuery{})
	defer bp.Close()

	assert.Equal(t, EmptyBlueprint, bp, "predicate queries contribute nothing here")
	assert.True(t, bp.HitEstimate().Empty)
}

func TestBlueprintUnknownTerm(t *testing.T) {
	mi := newTestIndex(t, titleSchema())

	mi.InsertDocument(1, document.Document{"title": document.Text("hello")})
	commitAndWait(t, mi)

	bp := mi.CreateBlueprint(query.FieldSpec{Name: "title"}, query.StringTerm{Term: "absent"})
	defer bp.Close()

	est := bp.HitEstimate()
	assert.True(t, est.Empty)
	assert.Zero(t, est.Estimate)
	assert.False(t, bp.CreateSearch().Next())
}

func TestBlueprintEstimateIsEager(t *testing.T) {
	mi := newTestIndex(t, titleSchema())

	mi.InsertDocument(1, document.Document{"title": document.Text("car")})
	mi.InsertDocument(2, document.Document{"title": document.Text("car")})
	commitAndWait(t, mi)

	bp := mi.CreateBlueprint(query.FieldSpec{Name: "title"}, query.StringTerm{Term: "car"})
	defer bp.Close()

	mi.RemoveDocument(1)
	mi.RemoveDocument(2)
	commitAndWait(t, mi)

	est := bp.HitEstimate()
	assert.Equal(t, uint32(2), est.Estimate, "estimate was taken at construction time")
	assert.False(t, est.Empty)
}

func TestBlueprintTermKinds(t *testing.T) {
	mi := newTestIndex(t, titleSchema())

	mi.InsertDocument(1, document.Document{"title": document.Text("abc 42")})
	commitAndWait(t, mi)

	// All text-like kinds resolve by literal dictionary lookup; none of
	// them expands its pattern.
	tests := []struct {
		name string
		node query.Node
		want []uint32
	}{
		{"string", query.StringTerm{Term: "abc"}, []uint32{1}},
		{"prefix", query.PrefixTerm{Term: "abc"}, []uint32{1}},
		{"prefix no expansion", query.PrefixTerm{Term: "ab"}, nil},
		{"suffix", query.SuffixTerm{Term: "abc"}, []uint32{1}},
		{"substring", query.SubstringTerm{Term: "abc"}, []uint32{1}},
		{"regexp", query.RegexpTerm{Term: "abc"}, []uint32{1}},
		{"fuzzy", query.FuzzyTerm{Term: "abc"}, []uint32{1}},
		{"location", query.LocationTerm{Term: "abc"}, []uint32{1}},
		{"number", query.Number(42), []uint32{1}},
		{"range literal", query.RangeTerm{From: "1", To: "9"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bp := mi.CreateBlueprint(query.FieldSpec{Name: "title"}, tt.node)
			defer bp.Close()
			assert.Equal(t, tt.want, searchDocs(bp))
		})
	}
}

func TestFilterFieldIterator(t *testing.T) {
	mi := newTestIndex(t, titleSchema())

	mi.InsertDocument(1, document.Document{"title": document.Text("tag tag tag")})
	mi.InsertDocument(2, document.Document{"title": document.Text("tag")})
	commitAndWait(t, mi)

	bp := mi.CreateBlueprint(query.FieldSpec{Name: "title", IsFilter: true}, query.StringTerm{Term: "tag"})
	defer bp.Close()

	it := bp.CreateSearch()
	_, isBitVector := it.(*bitVectorIterator)
	require.True(t, isBitVector, "filter fields use the presence-only iterator")

	var md TermFieldMatchData
	require.True(t, it.Next())
	it.Unpack(&md)
	assert.Equal(t, uint32(1), md.DocID)
	assert.Zero(t, md.FieldLength, "filter iterators carry no features")
	assert.Empty(t, md.Occurrences)

	assert.True(t, it.Seek(2))
	assert.Equal(t, uint32(2), it.DocID())
	assert.False(t, it.Next())
}

func TestPostingIteratorUnpack(t *testing.T) {
	s := schema.New(
		schema.TextField("title"),
		schema.Field{Name: "tags", Type: schema.TypeString, Collection: schema.CollectionWeightedSet},
	)
	mi := newTestIndex(t, s)

	mi.InsertDocument(1, document.Document{
		"title": document.Text("red car red"),
		"tags":  document.WeightedSet{"fast": 10, "red": -3},
	})
	commitAndWait(t, mi)

	bp := mi.CreateBlueprint(query.FieldSpec{Name: "title"}, query.StringTerm{Term: "red"})
	defer bp.Close()

	est := bp.HitEstimate()
	assert.Equal(t, uint32(1), est.Estimate)

	it := bp.CreateSearch()
	require.True(t, it.Next())

	var md TermFieldMatchData
	it.Unpack(&md)
	assert.Equal(t, uint32(1), md.DocID)
	assert.Equal(t, uint32(3), md.FieldLength)
	require.Len(t, md.Occurrences, 2)
	assert.Equal(t, Occurrence{Position: 0, Weight: 1}, md.Occurrences[0])
	assert.Equal(t, Occurrence{Position: 2, Weight: 1}, md.Occurrences[1])

	wbp := mi.CreateBlueprint(query.FieldSpec{Name: "tags"}, query.StringTerm{Term: "red"})
	defer wbp.Close()

	wit := wbp.CreateSearch()
	require.True(t, wit.Next())
	wit.Unpack(&md)
	require.Len(t, md.Occurrences, 1)
	assert.Equal(t, int32(-3), md.Occurrences[0].Weight, "weighted set weight rides on the occurrence")
}

func TestArrayElementPositionsNotAdjacent(t *testing.T) {
	s := schema.New(schema.Field{Name: "lines", Type: schema.TypeString, Collection: schema.CollectionArray})
	mi := newTestIndex(t, s)

	mi.InsertDocument(1, document.Document{
		"lines": document.Array{"alpha beta", "gamma"},
	})
	commitAndWait(t, mi)

	var md TermFieldMatchData
	position := func(term string) uint32 {
		bp := mi.CreateBlueprint(query.FieldSpec{Name: "lines"}, query.StringTerm{Term: term})
		defer bp.Close()
		it := bp.CreateSearch()
		require.True(t, it.Next())
		it.Unpack(&md)
		return md.Occurrences[0].Position
	}

	beta := position("beta")
	gamma := position("gamma")
	assert.Greater(t, gamma, beta+1, "element boundary leaves a position gap")
	assert.Equal(t, uint32(3), md.FieldLength, "field length counts tokens, not the gap")
}

func TestPostingIteratorSeek(t *testing.T) {
	mi := newTestIndex(t, titleSchema())

	for _, docID := range []uint32{2, 5, 9, 40} {
		mi.InsertDocument(docID, document.Document{"title": document.Text("word")})
	}
	commitAndWait(t, mi)

	bp := mi.CreateBlueprint(query.FieldSpec{Name: "title"}, query.StringTerm{Term: "word"})
	defer bp.Close()

	it := bp.CreateSearch()
	require.True(t, it.Seek(3))
	assert.Equal(t, uint32(5), it.DocID())
	require.True(t, it.Seek(9))
	assert.Equal(t, uint32(9), it.DocID())
	require.True(t, it.Seek(10))
	assert.Equal(t, uint32(40), it.DocID())
	assert.False(t, it.Seek(41))
}

func TestPruneHidesFields(t *testing.T) {
	s := schema.New(
		schema.TextField("title"),
		schema.TextField("body"),
		schema.TextField("tags"),
	)
	mi := newTestIndex(t, s)

	mi.InsertDocument(1, document.Document{
		"title": document.Text("car"),
		"body":  document.Text("car"),
		"tags":  document.Text("car"),
	})
	commitAndWait(t, mi)

	require.Nil(t, mi.PrunedSchema())

	mi.PruneRemovedFields(schema.New(schema.TextField("title"), schema.TextField("body")))

	pruned := mi.PrunedSchema()
	require.NotNil(t, pruned)
	assert.Equal(t, 2, pruned.NumFields())

	assert.Equal(t, []uint32{1}, queryDocs(mi, "title", "car"))
	assert.Equal(t, []uint32{1}, queryDocs(mi, "body", "car"))
	assert.Empty(t, queryDocs(mi, "tags", "car"), "pruned field matches nothing")

	// Postings survive pruning; only planning is affected.
	assert.Equal(t, uint64(3), mi.NumWords())
}

func TestPruneIsMonotone(t *testing.T) {
	s0 := schema.New(
		schema.TextField("a"),
		schema.TextField("b"),
		schema.TextField("c"),
	)
	mi := newTestIndex(t, s0)

	s1 := schema.New(schema.TextField("a"), schema.TextField("b"))
	s2 := schema.New(schema.TextField("a"), schema.TextField("c"))

	mi.PruneRemovedFields(s1)
	mi.PruneRemovedFields(s2)

	// Effective schema is intersect(intersect(s0,s1),s2) = {a}: c cannot
	// come back just because s2 names it again.
	got := mi.PrunedSchema()
	require.NotNil(t, got)
	assert.True(t, got.Equal(schema.New(schema.TextField("a"))))

	assert.False(t, mi.fieldHidden(0))
	assert.True(t, mi.fieldHidden(1))
	assert.True(t, mi.fieldHidden(2))
}

func TestPruneNoopKeepsState(t *testing.T) {
	s0 := schema.New(schema.TextField("a"), schema.TextField("b"))
	mi := newTestIndex(t, s0)

	// Pruning with a superset of the current effective schema changes
	// nothing, including the very first call.
	mi.PruneRemovedFields(schema.New(schema.TextField("a"), schema.TextField("b"), schema.TextField("x")))
	assert.Nil(t, mi.PrunedSchema())

	mi.PruneRemovedFields(schema.New(schema.TextField("a")))
	first := mi.PrunedSchema()
	require.NotNil(t, first)

	mi.PruneRemovedFields(schema.New(schema.TextField("a")))
	assert.Same(t, first, mi.PrunedSchema(), "equal intersection short-circuits")
}

func TestPruneIgnoresChangedFieldDefinition(t *testing.T) {
	s0 := schema.New(schema.TextField("a"), schema.TextField("b"))
	mi := newTestIndex(t, s0)

	// b still exists by name but with a different definition: no
	// counterpart, so it is hidden.
	mi.PruneRemovedFields(schema.New(
		schema.TextField("a"),
		schema.Field{Name: "b", Type: schema.TypeString, Collection: schema.CollectionArray},
	))

	assert.False(t, mi.fieldHidden(0))
	assert.True(t, mi.fieldHidden(1))
}
