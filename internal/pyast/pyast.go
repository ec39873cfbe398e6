// Package pyast wraps tree-sitter's Python grammar behind the narrow
// surface the reference extractor needs: parse, walk, and node-text
// lookup. Python is the only language with a full AST path; the other
// extractors are pattern-based, so this package never grows a second
// grammar.
package pyast

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Parser wraps a tree-sitter parser configured for Python. Parser
// instances are immutable after construction and safe for reuse across
// calls, but ParseCtx itself is not
// reentrant, so a single Parser should not be called concurrently.
type Parser struct {
	inner *sitter.Parser
}

// NewParser returns a Parser configured with the Python grammar.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{inner: p}
}

// Tree holds a parsed AST together with the source it was parsed from,
// since tree-sitter nodes carry only byte ranges, not text.
type Tree struct {
	Root   *sitter.Node
	Source []byte
}

// ParseError wraps a tree-sitter parse failure with the offending path.
type ParseError struct {
	FilePath string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.FilePath, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses sourceText and returns the resulting tree. Tree-sitter's
// error-recovery nodes mean Parse essentially never fails outright; the
// caller should additionally check Tree.HasError for best-effort degraded
// parses.
func (p *Parser) Parse(sourceText []byte, filePath string) (*Tree, error) {
	tree, err := p.inner.ParseCtx(context.Background(), nil, sourceText)
	if err != nil {
		return nil, &ParseError{FilePath: filePath, Err: err}
	}
	return &Tree{Root: tree.RootNode(), Source: sourceText}, nil
}

// ParseFile reads filePath from disk and parses it.
func (p *Parser) ParseFile(filePath string) (*Tree, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return p.Parse(data, filePath)
}

// HasError reports whether the parse tree contains an ERROR node
// anywhere, tree-sitter's signal for unrecoverable syntax.
func (t *Tree) HasError() bool {
	if t == nil || t.Root == nil {
		return false
	}
	return t.Root.HasError()
}

// WalkNodes visits every node in the tree depth-first. Traversal stops
// early if visit returns false.
func (t *Tree) WalkNodes(visit func(*sitter.Node) bool) {
	if t == nil || t.Root == nil {
		return
	}
	walk(t.Root, visit)
}

func walk(n *sitter.Node, visit func(*sitter.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if !walk(n.Child(i), visit) {
			return false
		}
	}
	return true
}

// FindNodesByType returns every node of the given tree-sitter node type,
// in document order.
func (t *Tree) FindNodesByType(nodeType string) []*sitter.Node {
	var out []*sitter.Node
	t.WalkNodes(func(n *sitter.Node) bool {
		if n.Type() == nodeType {
			out = append(out, n)
		}
		return true
	})
	return out
}

// NodeText returns the verbatim source text spanned by n.
func (t *Tree) NodeText(n *sitter.Node) string {
	if n == nil || t.Source == nil {
		return ""
	}
	return n.Content(t.Source)
}

// LineRange returns the 1-indexed inclusive start/end lines of n.
func LineRange(n *sitter.Node) (start, end int) {
	return int(n.StartPoint().Row) + 1, int(n.EndPoint().Row) + 1
}

// ChildByField returns n's child with the given tree-sitter field name,
// or nil.
func ChildByField(n *sitter.Node, field string) *sitter.Node {
	if n == nil {
		return nil
	}
	return n.ChildByFieldName(field)
}

// DirectChildrenByType returns n's direct (non-recursive) children of the
// given node type, in order.
func DirectChildrenByType(n *sitter.Node, nodeType string) []*sitter.Node {
	if n == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == nodeType {
			out = append(out, c)
		}
	}
	return out
}
