package resolver

import (
	"testing"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

func addNode(store *graphstore.Store, file, name string, e entity.Entity) {
	e.FilePath = file
	e.Name = name
	store.AddNode(&graphstore.Node{Entity: e})
}

func TestResolverCrossFileCallHighConfidence(t *testing.T) {
	store := graphstore.New()
	addNode(store, "a.py", "util", entity.Entity{Type: entity.KindFunction})
	addNode(store, "b.py", "go", entity.Entity{Type: entity.KindFunction,
		Calls: []string{"util"}, Imports: nil})

	bEntities := []entity.Entity{
		{Type: entity.KindImport, Name: "util", FilePath: "b.py", Imports: []entity.Import{{Module: "a", Symbol: "util"}}},
		{Type: entity.KindFunction, Name: "go", FilePath: "b.py", Calls: []string{"util"}},
	}

	r := New(store)
	r.ResolveFile("b.py", bEntities)

	edges := store.Outgoing("b.py::go", graphstore.EdgeCalls)
	if len(edges) != 1 {
		t.Fatalf("expected 1 calls edge, got %d", len(edges))
	}
	if edges[0].TargetID != "a.py::util" || edges[0].Confidence != entity.ConfidenceHigh {
		t.Errorf("expected high-confidence edge to a.py::util, got %+v", edges[0])
	}
}

func TestResolverUnresolvedThenPromoted(t *testing.T) {
	store := graphstore.New()
	bEntities := []entity.Entity{
		{Type: entity.KindImport, Name: "util", FilePath: "b.py", Imports: []entity.Import{{Module: "a", Symbol: "util"}}},
		{Type: entity.KindFunction, Name: "go", FilePath: "b.py", Calls: []string{"util"}},
	}
	for _, e := range bEntities {
		e := e
		store.AddNode(&graphstore.Node{Entity: e})
	}

	r := New(store)
	r.ResolveFile("b.py", bEntities)

	edges := store.Outgoing("b.py::go", graphstore.EdgeImports)
	// the import entity itself is the source of the imports edge, not "go"
	importEdges := store.Outgoing("b.py::util", graphstore.EdgeImports)
	if len(importEdges) != 1 || importEdges[0].Confidence != entity.ConfidenceLow {
		t.Fatalf("expected low-confidence unresolved imports edge, got %+v", importEdges)
	}
	if !graphstore.IsUnresolved(importEdges[0].TargetID) {
		t.Fatalf("expected placeholder target, got %s", importEdges[0].TargetID)
	}
	_ = edges

	// Now "a" defines util.
	addNode(store, "a.py", "util", entity.Entity{Type: entity.KindFunction})
	r.PromotePass([]string{"util"})

	importEdges = store.Outgoing("b.py::util", graphstore.EdgeImports)
	if len(importEdges) != 1 || importEdges[0].Confidence != entity.ConfidenceHigh {
		t.Fatalf("expected promotion to high confidence, got %+v", importEdges)
	}
	if importEdges[0].TargetID != "a.py::util" {
		t.Errorf("expected promoted target a.py::util, got %s", importEdges[0].TargetID)
	}
}

func TestResolverInFileClassMethodSelfCall(t *testing.T) {
	store := graphstore.New()
	entities := []entity.Entity{
		{Type: entity.KindClass, Name: "Foo", FilePath: "a.py"},
		{Type: entity.KindFunction, Name: "Foo.helper", FilePath: "a.py"},
		{Type: entity.KindFunction, Name: "Foo.caller", FilePath: "a.py", Calls: []string{"helper"}},
	}
	for _, e := range entities {
		e := e
		store.AddNode(&graphstore.Node{Entity: e})
	}

	r := New(store)
	r.ResolveFile("a.py", entities)

	edges := store.Outgoing("a.py::Foo.caller", graphstore.EdgeCalls)
	if len(edges) != 1 || edges[0].TargetID != "a.py::Foo.helper" {
		t.Fatalf("expected self-call resolved to Foo.helper, got %+v", edges)
	}
	if edges[0].Confidence != entity.ConfidenceHigh {
		t.Errorf("expected high confidence, got %s", edges[0].Confidence)
	}
}
