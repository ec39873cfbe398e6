package mermaid

import (
	"strings"
	"testing"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

func node(name, file string, kind entity.Kind) *graphstore.Node {
	e := entity.Entity{Type: kind, Name: name, FilePath: file, LineStart: 1, LineEnd: 1, RawText: name}
	e.ComputeHashes()
	return &graphstore.Node{Entity: e}
}

func TestGenerateSmallGraph(t *testing.T) {
	a := node("fa", "a.py", entity.KindFunction)
	b := node("Klass", "b.py", entity.KindClass)
	edges := []*graphstore.Edge{{
		SourceID: a.ID(), TargetID: b.ID(),
		Kind: graphstore.EdgeCalls, Confidence: entity.ConfidenceHigh, SourceFile: "a.py",
	}}

	out := Generate([]*graphstore.Node{a, b}, edges, DefaultOptions())

	if !strings.HasPrefix(out, "flowchart LR\n") {
		t.Errorf("missing flowchart header: %q", out)
	}
	if !strings.Contains(out, `a_py__fa["fa"]`) {
		t.Errorf("function node missing: %q", out)
	}
	if !strings.Contains(out, `b_py__Klass{{"Klass"}}`) {
		t.Errorf("class node shape missing: %q", out)
	}
	if !strings.Contains(out, "a_py__fa --> b_py__Klass") {
		t.Errorf("edge missing: %q", out)
	}
}

func TestGenerateCollapsesLargeGraph(t *testing.T) {
	var nodes []*graphstore.Node
	for i := 0; i < 5; i++ {
		nodes = append(nodes, node("f"+string(rune('a'+i)), "big.py", entity.KindFunction))
	}
	opts := Options{MaxNodes: 3, Direction: "LR"}

	out := Generate(nodes, nil, opts)

	if !strings.Contains(out, `big_py["big.py (5)"]`) {
		t.Errorf("collapsed file node missing: %q", out)
	}
	if strings.Contains(out, `["fa"]`) {
		t.Errorf("individual nodes should not appear when collapsed: %q", out)
	}
}

func TestSanitizeID(t *testing.T) {
	if got := sanitizeID("a.py::Foo.bar"); got != "a_py__Foo_bar" {
		t.Errorf("sanitizeID = %q", got)
	}
	if got := sanitizeID("1start"); got != "_1start" {
		t.Errorf("leading digit not prefixed: %q", got)
	}
}
