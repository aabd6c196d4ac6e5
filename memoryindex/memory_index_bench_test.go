package memoryindex

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/lexgo/document"
	"github.com/hupe1980/lexgo/executor"
	"github.com/hupe1980/lexgo/query"
)

func BenchmarkInsertCommit(b *testing.B) {
	invertExec := executor.NewSequenced(4)
	defer invertExec.Close()
	pushExec := executor.NewSequenced(4)
	defer pushExec.Close()

	mi := New(titleSchema(), invertExec, pushExec)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		docID := uint32(i + 1)
		mi.InsertDocument(docID, document.Document{
			"title": document.Text(fmt.Sprintf("quick brown fox number %d", docID)),
		})
		if docID%100 == 0 {
			if err := mi.CommitAndWait(ctx); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkCreateBlueprint(b *testing.B) {
	invertExec := executor.NewSequenced(4)
	defer invertExec.Close()
	pushExec := executor.NewSequenced(4)
	defer pushExec.Close()

	mi := New(titleSchema(), invertExec, pushExec)
	for docID := uint32(1); docID <= 10_000; docID++ {
		mi.InsertDocument(docID, document.Document{"title": document.Text("common term")})
	}
	if err := mi.CommitAndWait(context.Background()); err != nil {
		b.Fatal(err)
	}

	spec := query.FieldSpec{Name: "title"}
	node := query.StringTerm{Term: "common"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bp := mi.CreateBlueprint(spec, node)
		if bp.HitEstimate().Empty {
			b.Fatal("unexpected empty estimate")
		}
		_ = bp.Close()
	}
}
