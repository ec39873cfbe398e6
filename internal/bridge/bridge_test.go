package bridge

import (
	"testing"

	"github.com/arcbyte/codegraph/internal/config"
	"github.com/arcbyte/codegraph/internal/extract"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

func newTestBridge() (*Bridge, *graphstore.Store) {
	store := graphstore.New()
	registry := extract.NewRegistry()
	return New(store, registry, config.DefaultConfig().Engine), store
}

func edit(t *testing.T, b *Bridge, file, text string) EventReport {
	t.Helper()
	return b.ProcessChange(file, &text, KindEdit)
}

func TestRenameDetection(t *testing.T) {
	b, store := newTestBridge()
	edit(t, b, "a.py", "def foo():\n    return bar()\n")
	edit(t, b, "c.py", "from a import foo\n\ndef call_foo():\n    foo()\n")

	// Sanity: the call edge resolved before the rename.
	if in := store.IncomingAll("a.py::foo"); len(in) == 0 {
		t.Fatal("no incoming edges on foo before rename")
	}

	report := edit(t, b, "a.py", "def baz():\n    return bar()\n")

	if report.Renamed != 1 || report.Added != 0 || report.Removed != 0 || report.Modified != 0 {
		t.Fatalf("delta = added %d removed %d modified %d renamed %d, want pure rename",
			report.Added, report.Removed, report.Modified, report.Renamed)
	}
	if store.Node("a.py::foo") != nil {
		t.Error("old node survived the rename")
	}
	baz := store.Node("a.py::baz")
	if baz == nil {
		t.Fatal("renamed node missing")
	}

	// The previous callers of foo are now callers of baz.
	callerSeen := false
	for _, e := range store.IncomingAll("a.py::baz") {
		if e.SourceID == "c.py::call_foo" && e.Kind == graphstore.EdgeCalls {
			callerSeen = true
			if e.TargetID != "a.py::baz" {
				t.Errorf("carried edge still targets %s", e.TargetID)
			}
		}
	}
	if !callerSeen {
		t.Error("caller edge not preserved across rename")
	}
}

func TestCrossFileCallHighConfidence(t *testing.T) {
	b, store := newTestBridge()
	edit(t, b, "a.py", "def util():\n    pass\n")
	edit(t, b, "b.py", "from a import util\n\ndef go():\n    util()\n")

	var callEdge *graphstore.Edge
	for _, e := range store.IncomingAll("a.py::util") {
		if e.Kind == graphstore.EdgeCalls {
			callEdge = e
		}
	}
	if callEdge == nil {
		t.Fatal("no calls edge into a.py::util")
	}
	if callEdge.SourceID != "b.py::go" || callEdge.Confidence != "high" {
		t.Errorf("call edge = %+v, want b.py::go at high confidence", callEdge)
	}
}

func TestUnresolvedThenResolved(t *testing.T) {
	b, store := newTestBridge()
	// b.py arrives first; a.py does not exist yet.
	edit(t, b, "b.py", "from a import util\n\ndef go():\n    util()\n")

	importEdges := store.Outgoing("b.py::util", graphstore.EdgeImports)
	if len(importEdges) != 1 {
		t.Fatalf("import edges = %d, want 1", len(importEdges))
	}
	if importEdges[0].TargetID != graphstore.UnresolvedTarget("util") || importEdges[0].Confidence != "low" {
		t.Fatalf("import edge before resolution = %+v", importEdges[0])
	}

	// Now a.py defines util; pass-two promotion fires.
	edit(t, b, "a.py", "def util():\n    pass\n")

	importEdges = store.Outgoing("b.py::util", graphstore.EdgeImports)
	if importEdges[0].TargetID != "a.py::util" || importEdges[0].Confidence != "high" {
		t.Errorf("import edge after resolution = %+v, want a.py::util at high", importEdges[0])
	}

	// The call edge was promoted too; callers of util list both.
	sources := map[string]bool{}
	for _, e := range store.IncomingAll("a.py::util") {
		sources[e.SourceID] = true
	}
	if !sources["b.py::go"] || !sources["b.py::util"] {
		t.Errorf("incoming sources = %v, want the call and the import", sources)
	}
}

func TestNewlyDeadWarning(t *testing.T) {
	b, _ := newTestBridge()
	edit(t, b, "a.py", "def orphan():\n    pass\n")
	edit(t, b, "b.py", "from a import orphan\n\ndef go():\n    orphan()\n")

	report := edit(t, b, "b.py", "def go():\n    pass\n")

	found := false
	for _, w := range report.Warnings {
		if w.Kind == WarningNewlyDead && w.Name == "orphan" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %+v, want newly_dead for orphan", report.Warnings)
	}
}

func TestFileCycleWarningAndClearing(t *testing.T) {
	b, store := newTestBridge()
	edit(t, b, "x.py", "from y import fy\n\ndef fx():\n    fy()\n")
	report := edit(t, b, "y.py", "from x import fx\n\ndef fy():\n    fx()\n")

	cycleWarned := false
	for _, w := range report.Warnings {
		if w.Kind == WarningNewCycle {
			cycleWarned = true
		}
	}
	if !cycleWarned {
		t.Errorf("warnings = %+v, want a new_cycle warning", report.Warnings)
	}

	sccs := store.FileLevelSCCs()
	if len(sccs) != 1 || len(sccs[0]) != 2 {
		t.Fatalf("sccs = %v, want the {x.py, y.py} pair", sccs)
	}

	// Removing one import clears the cycle.
	edit(t, b, "x.py", "def fx():\n    pass\n")
	if sccs := store.FileLevelSCCs(); len(sccs) != 0 {
		t.Errorf("sccs after removing the import = %v, want none", sccs)
	}
}

func TestIdempotence(t *testing.T) {
	b, _ := newTestBridge()
	src := "def foo():\n    return bar()\n\ndef bar():\n    pass\n"
	edit(t, b, "a.py", src)
	report := edit(t, b, "a.py", src)

	if report.Added+report.Removed+report.Modified+report.Renamed != 0 {
		t.Errorf("second identical edit produced changes: %+v", report)
	}
}

func TestWhitespaceOnlyEditIsNoop(t *testing.T) {
	b, _ := newTestBridge()
	edit(t, b, "a.py", "def foo():\n    # a comment\n    return 1\n")
	report := edit(t, b, "a.py", "def foo():\n        # reworded comment\n        return 1\n")

	if report.Modified != 0 {
		t.Errorf("comment/indent-only edit reported %d modified entities", report.Modified)
	}
}

func TestBreakingChangeWarning(t *testing.T) {
	b, _ := newTestBridge()
	edit(t, b, "a.py", "def api(a, b):\n    return a + b\n")
	report := edit(t, b, "a.py", "def api(a):\n    return a\n")

	found := false
	for _, w := range report.Warnings {
		if w.Kind == WarningBreakingChange && w.Name == "api" {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %+v, want breaking_change for api", report.Warnings)
	}
}

func TestDeleteRemovesNodesAndDemotesIncoming(t *testing.T) {
	b, store := newTestBridge()
	edit(t, b, "a.py", "def util():\n    pass\n")
	edit(t, b, "b.py", "from a import util\n\ndef go():\n    util()\n")

	b.ProcessChange("a.py", nil, KindDelete)

	if len(store.NodesInFile("a.py")) != 0 {
		t.Error("a.py nodes survived delete")
	}
	// b.py's edges now point at placeholders again.
	for _, e := range store.EdgesFromFile("b.py") {
		if e.TargetID == "a.py::util" {
			t.Errorf("edge still targets deleted node: %+v", e)
		}
	}
	demoted := false
	for _, e := range store.Outgoing("b.py::go", graphstore.EdgeCalls) {
		if e.TargetID == graphstore.UnresolvedTarget("util") && e.Confidence == "low" {
			demoted = true
		}
	}
	if !demoted {
		t.Error("call edge not demoted to unresolved placeholder on delete")
	}
}

func TestUnknownExtensionIgnored(t *testing.T) {
	b, store := newTestBridge()
	text := "some readme prose"
	report := b.ProcessChange("README.md", &text, KindEdit)

	if report.Added != 0 || store.NodeCount() != 0 {
		t.Errorf("unsupported file entered the graph: %+v", report)
	}
}

// After an edit, every node in the file either exists in the new
// extraction or is gone.
func TestNodeSetMatchesExtractionAfterEdit(t *testing.T) {
	b, store := newTestBridge()
	edit(t, b, "a.py", "def one():\n    pass\n\ndef two():\n    pass\n")
	edit(t, b, "a.py", "def one():\n    pass\n\ndef three():\n    pass\n")

	names := map[string]bool{}
	for _, n := range store.NodesInFile("a.py") {
		names[n.Name] = true
	}
	if !names["one"] || !names["three"] || names["two"] {
		t.Errorf("nodes in file = %v, want {one, three}", names)
	}
}
