package graphstore

import (
	"testing"
	"time"

	"github.com/arcbyte/codegraph/internal/entity"
)

func makeNode(name, file string) *Node {
	e := entity.Entity{
		Type: entity.KindFunction, Name: name, FilePath: file,
		LineStart: 1, LineEnd: 2,
		RawText: "def " + name + "():\n    pass",
	}
	e.ComputeHashes()
	return &Node{Entity: e, LastSeen: time.Now()}
}

func edge(from, to *Node, kind EdgeKind) *Edge {
	return &Edge{
		SourceID: from.ID(), TargetID: to.ID(), Kind: kind,
		Confidence: entity.ConfidenceHigh, SourceFile: from.FilePath,
	}
}

func TestAddAndLookupNode(t *testing.T) {
	s := New()
	n := makeNode("util", "a.py")
	s.AddNode(n)

	if got := s.Node("a.py::util"); got != n {
		t.Fatal("exact id lookup failed")
	}
	if ids := s.NodeIDsByBareName("util"); len(ids) != 1 || ids[0] != "a.py::util" {
		t.Errorf("bare-name index = %v", ids)
	}
}

func TestBareNameIndexStripsScope(t *testing.T) {
	s := New()
	method := makeNode("Server.start", "a.py")
	s.AddNode(method)

	if ids := s.NodeIDsByBareName("start"); len(ids) != 1 {
		t.Errorf("suffix index for method = %v", ids)
	}
}

func TestAddEdgeDedupesPerKind(t *testing.T) {
	s := New()
	a, b := makeNode("a", "x.py"), makeNode("b", "x.py")
	s.AddNode(a)
	s.AddNode(b)

	s.AddEdge(edge(a, b, EdgeCalls))
	s.AddEdge(edge(a, b, EdgeCalls))
	s.AddEdge(edge(a, b, EdgeUsesType))

	if n := len(s.Outgoing(a.ID(), EdgeCalls)); n != 1 {
		t.Errorf("calls edges = %d, want 1 (deduped)", n)
	}
	if s.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2 (distinct kinds coexist)", s.EdgeCount())
	}
}

// Every outgoing edge is indexed incoming at
// its target, per kind.
func TestOutgoingIncomingSymmetry(t *testing.T) {
	s := New()
	a, b, c := makeNode("a", "x.py"), makeNode("b", "y.py"), makeNode("c", "z.py")
	for _, n := range []*Node{a, b, c} {
		s.AddNode(n)
	}
	s.AddEdge(edge(a, c, EdgeCalls))
	s.AddEdge(edge(b, c, EdgeCalls))
	s.AddEdge(edge(a, b, EdgeImports))

	for _, n := range []*Node{a, b, c} {
		for _, kind := range AllEdgeKinds {
			for _, e := range s.Outgoing(n.ID(), kind) {
				found := false
				for _, in := range s.Incoming(e.TargetID, kind) {
					if in == e {
						found = true
					}
				}
				if !found {
					t.Errorf("edge %s -%s-> %s missing from incoming index", e.SourceID, kind, e.TargetID)
				}
			}
		}
	}

	if n := len(s.IncomingAll(c.ID())); n != 2 {
		t.Errorf("incoming(c) = %d, want 2", n)
	}
}

func TestRemoveNodeReturnsIncomingEdges(t *testing.T) {
	s := New()
	a, b := makeNode("a", "x.py"), makeNode("b", "y.py")
	s.AddNode(a)
	s.AddNode(b)
	s.AddEdge(edge(a, b, EdgeCalls))
	s.AddEdge(edge(b, a, EdgeImports))

	returned := s.RemoveNode(b.ID())
	if len(returned) != 1 || returned[0].SourceID != a.ID() {
		t.Fatalf("returned = %+v, want the a->b edge", returned)
	}
	if s.Node(b.ID()) != nil {
		t.Error("node b still present")
	}
	// b's outgoing edge is gone entirely.
	if n := len(s.IncomingAll(a.ID())); n != 0 {
		t.Errorf("incoming(a) = %d, want 0", n)
	}
	if ids := s.NodeIDsByBareName("b"); len(ids) != 0 {
		t.Errorf("name index still holds b: %v", ids)
	}
}

func TestRenameNodePreservesIncomingEdges(t *testing.T) {
	s := New()
	caller, old := makeNode("caller", "x.py"), makeNode("foo", "y.py")
	s.AddNode(caller)
	s.AddNode(old)
	s.AddEdge(edge(caller, old, EdgeCalls))

	renamed := old.Entity
	renamed.Name = "baz"
	renamed.ComputeHashes()
	s.RenameNode(old.ID(), renamed)

	if s.Node("y.py::foo") != nil {
		t.Error("old id still present")
	}
	newNode := s.Node("y.py::baz")
	if newNode == nil {
		t.Fatal("renamed node missing")
	}
	in := s.IncomingAll(newNode.ID())
	if len(in) != 1 || in[0].SourceID != caller.ID() {
		t.Errorf("incoming after rename = %+v, want preserved caller edge", in)
	}
	if in[0].TargetID != "y.py::baz" {
		t.Errorf("edge target = %s, want rewritten to new id", in[0].TargetID)
	}
}

func TestRemoveEdgesBySourceFile(t *testing.T) {
	s := New()
	a, b := makeNode("a", "x.py"), makeNode("b", "y.py")
	s.AddNode(a)
	s.AddNode(b)
	s.AddEdge(edge(a, b, EdgeCalls))
	s.AddEdge(edge(b, a, EdgeCalls))

	removed := s.RemoveEdgesBySourceFile("x.py")
	if len(removed) != 1 {
		t.Fatalf("removed = %d, want 1", len(removed))
	}
	if s.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", s.EdgeCount())
	}
	if n := len(s.IncomingAll(b.ID())); n != 0 {
		t.Errorf("incoming(b) = %d, want 0 after bulk delete", n)
	}
}

func TestRetargetEdgePromotesPlaceholder(t *testing.T) {
	s := New()
	a := makeNode("a", "x.py")
	s.AddNode(a)
	e := &Edge{
		SourceID: a.ID(), TargetID: UnresolvedTarget("util"),
		Kind: EdgeCalls, Confidence: entity.ConfidenceLow, SourceFile: "x.py",
	}
	s.AddEdge(e)

	util := makeNode("util", "y.py")
	s.AddNode(util)
	s.RetargetEdge(e, util.ID(), entity.ConfidenceHigh)

	if e.TargetID != util.ID() || e.Confidence != entity.ConfidenceHigh {
		t.Errorf("edge after retarget = %+v", e)
	}
	if n := len(s.IncomingAll(util.ID())); n != 1 {
		t.Errorf("incoming(util) = %d, want 1", n)
	}
	if n := len(s.Incoming(UnresolvedTarget("util"), EdgeCalls)); n != 0 {
		t.Errorf("placeholder still indexed: %d", n)
	}
}

func TestFileDepsAndReverse(t *testing.T) {
	s := New()
	a, b := makeNode("a", "x.py"), makeNode("b", "y.py")
	s.AddNode(a)
	s.AddNode(b)
	s.AddEdge(edge(a, b, EdgeCalls))
	// Unresolved edges never contribute to file deps.
	s.AddEdge(&Edge{SourceID: a.ID(), TargetID: UnresolvedTarget("ghost"),
		Kind: EdgeImports, Confidence: entity.ConfidenceLow, SourceFile: "x.py"})

	if deps := s.FileDeps("x.py"); len(deps) != 1 || deps[0] != "y.py" {
		t.Errorf("FileDeps = %v, want [y.py]", deps)
	}
	if rdeps := s.ReverseFileDeps("y.py"); len(rdeps) != 1 || rdeps[0] != "x.py" {
		t.Errorf("ReverseFileDeps = %v, want [x.py]", rdeps)
	}
}

func TestFileLevelSCCs(t *testing.T) {
	s := New()
	fx, fy, fz := makeNode("fx", "x.py"), makeNode("fy", "y.py"), makeNode("fz", "z.py")
	for _, n := range []*Node{fx, fy, fz} {
		s.AddNode(n)
	}
	s.AddEdge(edge(fx, fy, EdgeImports))
	s.AddEdge(edge(fy, fx, EdgeImports))
	s.AddEdge(edge(fz, fx, EdgeImports))

	sccs := s.FileLevelSCCs()
	if len(sccs) != 1 {
		t.Fatalf("sccs = %v, want one cycle", sccs)
	}
	if len(sccs[0]) != 2 || sccs[0][0] != "x.py" || sccs[0][1] != "y.py" {
		t.Errorf("cycle = %v, want [x.py y.py]", sccs[0])
	}
}

func TestShortestPath(t *testing.T) {
	s := New()
	a, b, c := makeNode("a", "x.py"), makeNode("b", "y.py"), makeNode("c", "z.py")
	for _, n := range []*Node{a, b, c} {
		s.AddNode(n)
	}
	s.AddEdge(edge(a, b, EdgeCalls))
	s.AddEdge(edge(b, c, EdgeCalls))
	s.AddEdge(edge(a, c, EdgeCalls))

	path := s.ShortestPath(a.ID(), c.ID())
	if len(path) != 2 || path[0] != a.ID() || path[1] != c.ID() {
		t.Errorf("path = %v, want direct two-node path", path)
	}
	if s.ShortestPath(c.ID(), a.ID()) != nil {
		t.Error("reverse path should not exist")
	}
}

func TestBFSWithDepth(t *testing.T) {
	s := New()
	a, b, c := makeNode("a", "x.py"), makeNode("b", "y.py"), makeNode("c", "z.py")
	for _, n := range []*Node{a, b, c} {
		s.AddNode(n)
	}
	s.AddEdge(edge(a, b, EdgeCalls))
	s.AddEdge(edge(b, c, EdgeCalls))

	if got := s.BFSWithDepth(a.ID(), false, 1); len(got) != 1 || got[0] != b.ID() {
		t.Errorf("depth-1 BFS = %v, want [%s]", got, b.ID())
	}
	if got := s.BFSWithDepth(a.ID(), false, 2); len(got) != 2 {
		t.Errorf("depth-2 BFS = %v, want 2 nodes", got)
	}
}

func TestLookupProgressive(t *testing.T) {
	s := New()
	s.AddNode(makeNode("Server.start", "a.py"))
	s.AddNode(makeNode("Worker.start", "b.py"))

	// Bare-name match finds both, deterministically ordered.
	nodes := s.Lookup("start")
	if len(nodes) != 2 || nodes[0].FilePath != "a.py" {
		t.Fatalf("lookup(start) = %d nodes, first %+v", len(nodes), nodes[0])
	}

	// Suffix match on scoped name.
	nodes = s.Lookup("Server.start")
	if len(nodes) != 1 || nodes[0].Name != "Server.start" {
		t.Errorf("lookup(Server.start) = %+v", nodes)
	}

	// Exact id wins over everything.
	nodes = s.Lookup("b.py::Worker.start")
	if len(nodes) != 1 || nodes[0].FilePath != "b.py" {
		t.Errorf("lookup by id = %+v", nodes)
	}

	// Regex fallback.
	nodes = s.Lookup("Wor.*start")
	if len(nodes) != 1 || nodes[0].Name != "Worker.start" {
		t.Errorf("regex lookup = %+v", nodes)
	}
}
