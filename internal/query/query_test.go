package query

import (
	"testing"
	"time"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

func addFunc(s *graphstore.Store, name, file string) *graphstore.Node {
	e := entity.Entity{
		Type: entity.KindFunction, Name: name, FilePath: file,
		LineStart: 1, LineEnd: 2,
		RawText: "def " + name + "():\n    pass",
	}
	e.ComputeHashes()
	n := &graphstore.Node{Entity: e, LastSeen: time.Now()}
	s.AddNode(n)
	return n
}

func link(s *graphstore.Store, from, to *graphstore.Node, kind graphstore.EdgeKind) {
	s.AddEdge(&graphstore.Edge{
		SourceID: from.ID(), TargetID: to.ID(), Kind: kind,
		Confidence: entity.ConfidenceHigh, SourceFile: from.FilePath,
	})
}

// chainStore builds the file chain a <- b <- c <- d: each file's single
// function calls the previous file's, so b depends on a, and so on.
func chainStore() *graphstore.Store {
	s := graphstore.New()
	fa := addFunc(s, "fa", "a.py")
	fb := addFunc(s, "fb", "b.py")
	fc := addFunc(s, "fc", "c.py")
	fd := addFunc(s, "fd", "d.py")
	link(s, fb, fa, graphstore.EdgeCalls)
	link(s, fc, fb, graphstore.EdgeCalls)
	link(s, fd, fc, graphstore.EdgeCalls)
	return s
}

func TestCallersAndCallees(t *testing.T) {
	s := chainStore()
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	callers := q.Callers("fa")
	if callers.Status != StatusOK {
		t.Fatalf("status = %s", callers.Status)
	}
	if len(callers.Hits) != 1 || callers.Hits[0].Node.ID != "b.py::fb" {
		t.Errorf("callers of fa = %+v, want b.py::fb", callers.Hits)
	}
	if callers.Hits[0].Kind != "calls" || callers.Hits[0].Confidence != "high" {
		t.Errorf("hit kind/confidence = %s/%s", callers.Hits[0].Kind, callers.Hits[0].Confidence)
	}

	callees := q.Callees("fb")
	if len(callees.Hits) != 1 || callees.Hits[0].Node.ID != "a.py::fa" {
		t.Errorf("callees of fb = %+v, want a.py::fa", callees.Hits)
	}
}

func TestCallersNotFound(t *testing.T) {
	q := New(graphstore.New(), map[string]map[string]bool{}, map[string]bool{}, nil)
	if res := q.Callers("missing"); res.Status != StatusNotFound {
		t.Errorf("status = %s, want not_found", res.Status)
	}
}

func TestCalleesUnresolvedPlaceholder(t *testing.T) {
	s := graphstore.New()
	f := addFunc(s, "go", "b.py")
	s.AddEdge(&graphstore.Edge{
		SourceID: f.ID(), TargetID: graphstore.UnresolvedTarget("util"),
		Kind: graphstore.EdgeCalls, Confidence: entity.ConfidenceLow, SourceFile: "b.py",
	})
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	res := q.Callees("go")
	if len(res.Hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(res.Hits))
	}
	if res.Hits[0].Node.ID != "unresolved:util" || res.Hits[0].Confidence != "low" {
		t.Errorf("placeholder hit = %+v", res.Hits[0])
	}
}

func TestDepsAndRDeps(t *testing.T) {
	s := chainStore()
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	if deps := q.Deps("b.py"); len(deps.Files) != 1 || deps.Files[0] != "a.py" {
		t.Errorf("deps(b) = %v, want [a.py]", deps.Files)
	}
	if rdeps := q.RDeps("b.py"); len(rdeps.Files) != 1 || rdeps.Files[0] != "c.py" {
		t.Errorf("rdeps(b) = %v, want [c.py]", rdeps.Files)
	}
}

func TestImpactChain(t *testing.T) {
	s := chainStore()
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	got := q.Impact("a.py", "").Files
	want := []string{"b.py", "c.py", "d.py"}
	if len(got) != len(want) {
		t.Fatalf("impact(a) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("impact(a)[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if got := q.Impact("d.py", "").Files; len(got) != 0 {
		t.Errorf("impact(d) = %v, want empty", got)
	}
}

func TestImpactNameFilter(t *testing.T) {
	s := chainStore()
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	// Only b.py has an edge landing on fa.
	if got := q.Impact("a.py", "fa").Files; len(got) != 1 || got[0] != "b.py" {
		t.Errorf("impact(a, fa) = %v, want [b.py]", got)
	}
}

func TestPath(t *testing.T) {
	s := chainStore()
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	res := q.Path("fd", "fa")
	if res.Status != StatusOK {
		t.Fatalf("status = %s", res.Status)
	}
	want := []string{"d.py::fd", "c.py::fc", "b.py::fb", "a.py::fa"}
	if len(res.Path) != len(want) {
		t.Fatalf("path = %+v, want length %d", res.Path, len(want))
	}
	for i, id := range want {
		if res.Path[i].ID != id {
			t.Errorf("path[%d] = %s, want %s", i, res.Path[i].ID, id)
		}
	}

	if rev := q.Path("fa", "fd"); rev.Status != StatusNotFound {
		t.Errorf("no forward path expected, got status %s", rev.Status)
	}
}

func TestDead(t *testing.T) {
	s := graphstore.New()
	addFunc(s, "orphan", "x.py")
	addFunc(s, "main", "x.py")
	addFunc(s, "published", "x.py")
	exports := map[string]map[string]bool{"x.py": {"published": true}}
	explicit := map[string]bool{"x.py": true}
	q := New(s, exports, explicit, []string{"^(main|run|start|handler|init)$"})

	res := q.Dead()
	if len(res.Nodes) != 1 || res.Nodes[0].Name != "orphan" {
		t.Errorf("dead = %+v, want only orphan", res.Nodes)
	}
}

// Without an explicit export marker, the fallback all-top-level export
// set does not shield a symbol from dead-code reporting.
func TestDeadIgnoresFallbackExports(t *testing.T) {
	s := graphstore.New()
	addFunc(s, "orphan", "x.py")
	exports := map[string]map[string]bool{"x.py": {"orphan": true}}
	q := New(s, exports, map[string]bool{}, nil)

	res := q.Dead()
	if len(res.Nodes) != 1 || res.Nodes[0].Name != "orphan" {
		t.Errorf("dead = %+v, want orphan despite fallback export set", res.Nodes)
	}
}

func TestCycles(t *testing.T) {
	s := graphstore.New()
	fx := addFunc(s, "fx", "x.py")
	fy := addFunc(s, "fy", "y.py")
	link(s, fx, fy, graphstore.EdgeImports)
	link(s, fy, fx, graphstore.EdgeImports)
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	res := q.Cycles()
	if len(res.Cycles) != 1 {
		t.Fatalf("cycles = %v, want one", res.Cycles)
	}
	if len(res.Cycles[0]) != 2 || res.Cycles[0][0] != "x.py" || res.Cycles[0][1] != "y.py" {
		t.Errorf("cycle = %v, want [x.py y.py]", res.Cycles[0])
	}
}

func TestSearchWordBoundary(t *testing.T) {
	s := graphstore.New()
	addFunc(s, "parse", "x.py")
	addFunc(s, "reparse_all", "x.py")
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	res := q.Search("parse")
	if len(res.Nodes) != 1 || res.Nodes[0].Name != "parse" {
		t.Errorf("search(parse) = %+v, want only the exact word", res.Nodes)
	}

	anchored := q.Search("^reparse")
	if len(anchored.Nodes) != 1 || anchored.Nodes[0].Name != "reparse_all" {
		t.Errorf("search(^reparse) = %+v", anchored.Nodes)
	}
}

func TestSearchBadPattern(t *testing.T) {
	q := New(graphstore.New(), map[string]map[string]bool{}, map[string]bool{}, nil)
	if res := q.Search("("); res.Status != StatusNotFound {
		t.Errorf("status = %s, want not_found for bad regex", res.Status)
	}
}

type fakeAccel struct{ ids []string }

func (f *fakeAccel) Search(query string, limit int) ([]string, error) { return f.ids, nil }

func TestSearchUsesAccelerantForMultiTerm(t *testing.T) {
	s := graphstore.New()
	addFunc(s, "load_config", "x.py")
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)
	q.SetAccelerant(&fakeAccel{ids: []string{"x.py::load_config"}})

	res := q.Search("load config")
	if len(res.Nodes) != 1 || res.Nodes[0].ID != "x.py::load_config" {
		t.Errorf("accelerated search = %+v", res.Nodes)
	}
}

func TestExports(t *testing.T) {
	exports := map[string]map[string]bool{"a.py": {"util": true, "Helper": true}}
	q := New(graphstore.New(), exports, map[string]bool{}, nil)

	res := q.Exports("a.py")
	if res.Status != StatusOK || len(res.Names) != 2 || res.Names[0] != "Helper" {
		t.Errorf("exports = %+v", res)
	}
	if missing := q.Exports("b.py"); missing.Status != StatusNotFound {
		t.Errorf("status = %s, want not_found", missing.Status)
	}
}

func TestFileAndEntity(t *testing.T) {
	s := chainStore()
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	file := q.File("b.py")
	if file.Status != StatusOK || len(file.Nodes) != 1 {
		t.Fatalf("file(b.py) = %+v", file)
	}
	if len(file.Deps) != 1 || file.Deps[0] != "a.py" {
		t.Errorf("file deps = %v", file.Deps)
	}

	ent := q.Entity("fb")
	if ent.Status != StatusOK || len(ent.Incoming) != 1 || len(ent.Outgoing) != 1 {
		t.Errorf("entity(fb) = %+v", ent)
	}
}

func TestSummary(t *testing.T) {
	s := chainStore()
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, []string{"^main$"})

	res := q.Summary(3)
	if res.NodeCount != 4 || res.EdgeCount != 3 || res.FileCount != 4 {
		t.Errorf("counts = %d/%d/%d", res.NodeCount, res.EdgeCount, res.FileCount)
	}
	if len(res.TopInDegree) == 0 || res.TopInDegree[0].ID != "a.py::fa" {
		t.Errorf("top in-degree = %+v, want a.py::fa first", res.TopInDegree)
	}
	if len(res.TopPageRank) == 0 || res.TopPageRank[0].ID != "a.py::fa" {
		t.Errorf("top pagerank = %+v, want a.py::fa first", res.TopPageRank)
	}
	if len(res.Cycles) != 0 {
		t.Errorf("cycles = %v, want none", res.Cycles)
	}
}

func TestStats(t *testing.T) {
	s := chainStore()
	q := New(s, map[string]map[string]bool{}, map[string]bool{}, nil)

	res := q.Stats()
	if res.Nodes != 4 || res.Edges != 3 {
		t.Errorf("stats = %d nodes %d edges", res.Nodes, res.Edges)
	}
	if res.EdgesByKind["calls"] != 3 {
		t.Errorf("calls edges = %d, want 3", res.EdgesByKind["calls"])
	}
	if res.NodesByType["function"] != 4 {
		t.Errorf("function nodes = %d, want 4", res.NodesByType["function"])
	}
}
