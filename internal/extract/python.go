package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/pyast"
)

// pythonBuiltinDenySet filters builtin call targets and language-standard
// decorators out of calls/decorators so the resulting lists only carry
// names meaningful for cross-entity linking. Not exhaustive, but it
// covers the names common enough that leaving them in would flood
// every file with identical unresolved edges.
var pythonBuiltinDenySet = map[string]bool{
	"print": true, "len": true, "range": true, "enumerate": true,
	"zip": true, "map": true, "filter": true, "sorted": true, "reversed": true,
	"isinstance": true, "issubclass": true, "hasattr": true, "getattr": true,
	"setattr": true, "delattr": true, "super": true, "type": true,
	"int": true, "str": true, "float": true, "bool": true, "list": true,
	"dict": true, "set": true, "tuple": true, "frozenset": true, "bytes": true,
	"open": true, "iter": true, "next": true, "abs": true, "min": true,
	"max": true, "sum": true, "any": true, "all": true, "repr": true,
	"format": true, "vars": true, "dir": true, "id": true, "hash": true,
	"staticmethod": true, "classmethod": true, "property": true,
}

// pythonStandardDecorators are annotations the language itself defines;
// they are filtered from the reported Decorators list.
var pythonStandardDecorators = map[string]bool{
	"staticmethod": true, "classmethod": true, "property": true,
	"abstractmethod": true, "override": true,
}

// PythonExtractor is the reference full-AST extractor, backed by
// tree-sitter via internal/pyast. It is the only extractor with
// complete feature coverage: function, class, decorator, import,
// type annotation, variable and __all__ export.
type PythonExtractor struct {
	parser *pyast.Parser
}

// NewPythonExtractor constructs the reference extractor. The underlying
// tree-sitter parser is built once and reused.
func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{parser: pyast.NewParser()}
}

func (p *PythonExtractor) Name() string { return "python-ast" }

func (p *PythonExtractor) CanHandle(filePath string) bool {
	return strings.HasSuffix(filePath, ".py") || strings.HasSuffix(filePath, ".pyi")
}

// Extract parses sourceText and walks the module body, recursing into
// class bodies to emit scoped method entities. On total parse failure
// (the tree-sitter parser itself erroring, as opposed to error-recovery
// nodes within an otherwise-usable tree) it returns an empty slice rather
// than raising.
func (p *PythonExtractor) Extract(sourceText, filePath string) []entity.Entity {
	tree, err := p.parser.Parse([]byte(sourceText), filePath)
	if err != nil || tree == nil || tree.Root == nil {
		return nil
	}

	ex := &pyExtraction{tree: tree, filePath: filePath}
	ex.walkBlock(tree.Root, "")

	out := dedupeLatestWins(ex.entities)
	for i := range out {
		fillDefaults(&out[i], filePath)
	}
	return out
}

type pyExtraction struct {
	tree     *pyast.Tree
	filePath string
	entities []entity.Entity
}

// walkBlock visits the direct statement children of a module or class
// body, recursing into class_definition bodies with class set to the
// enclosing class name so methods come out scoped as "Class.method".
func (ex *pyExtraction) walkBlock(block *sitter.Node, class string) {
	for i := 0; i < int(block.ChildCount()); i++ {
		ex.visitStatement(block.Child(i), class)
	}
}

func (ex *pyExtraction) visitStatement(n *sitter.Node, class string) {
	switch n.Type() {
	case "decorated_definition":
		decorators := ex.collectDecorators(n)
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			switch child.Type() {
			case "function_definition":
				ex.emitFunction(child, class, decorators)
			case "class_definition":
				ex.emitClass(child, decorators)
			}
		}
	case "function_definition":
		ex.emitFunction(n, class, nil)
	case "class_definition":
		ex.emitClass(n, nil)
	case "import_statement", "import_from_statement":
		ex.emitImport(n)
	case "expression_statement":
		ex.emitAssignmentOrModuleCode(n, class)
	}
}

func (ex *pyExtraction) collectDecorators(decorated *sitter.Node) []string {
	var out []string
	for _, d := range pyast.DirectChildrenByType(decorated, "decorator") {
		name := decoratorName(ex.tree, d)
		if name != "" && !pythonStandardDecorators[name] {
			out = append(out, name)
		}
	}
	return out
}

func decoratorName(tree *pyast.Tree, d *sitter.Node) string {
	// decorator: "@" (identifier | attribute | call) NEWLINE
	for i := 0; i < int(d.ChildCount()); i++ {
		c := d.Child(i)
		switch c.Type() {
		case "identifier":
			return tree.NodeText(c)
		case "attribute":
			return tree.NodeText(c)
		case "call":
			if fn := pyast.ChildByField(c, "function"); fn != nil {
				return tree.NodeText(fn)
			}
		}
	}
	return ""
}

func (ex *pyExtraction) emitFunction(n *sitter.Node, class string, decorators []string) {
	nameNode := pyast.ChildByField(n, "name")
	if nameNode == nil {
		return
	}
	bareName := ex.tree.NodeText(nameNode)
	start, end := pyast.LineRange(n)

	e := entity.Entity{
		Type:       entity.KindFunction,
		Name:       scopedName(class, bareName),
		LineStart:  start,
		LineEnd:    end,
		RawText:    ex.tree.NodeText(n),
		Decorators: decorators,
		Params:     ex.functionParams(n),
		Calls:      ex.bodyCalls(n),
		TypeRefs:   ex.functionTypeRefs(n),
	}
	ex.entities = append(ex.entities, e)
}

func (ex *pyExtraction) functionParams(n *sitter.Node) []string {
	paramsNode := pyast.ChildByField(n, "parameters")
	if paramsNode == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(paramsNode.ChildCount()); i++ {
		c := paramsNode.Child(i)
		switch c.Type() {
		case "identifier":
			out = append(out, ex.tree.NodeText(c))
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if id := firstChildOfType(c, "identifier"); id != nil {
				out = append(out, ex.tree.NodeText(id))
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			if id := firstChildOfType(c, "identifier"); id != nil {
				out = append(out, ex.tree.NodeText(id))
			}
		}
	}
	return out
}

func firstChildOfType(n *sitter.Node, t string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == t {
			return n.Child(i)
		}
	}
	return nil
}

// functionTypeRefs collects the bare type names used in parameter
// annotations and the return-type annotation.
func (ex *pyExtraction) functionTypeRefs(n *sitter.Node) []string {
	var out []string
	seen := map[string]bool{}
	add := func(t *sitter.Node) {
		for _, name := range typeNamesIn(ex.tree, t) {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	if ret := pyast.ChildByField(n, "return_type"); ret != nil {
		add(ret)
	}
	if params := pyast.ChildByField(n, "parameters"); params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			c := params.Child(i)
			if t := pyast.ChildByField(c, "type"); t != nil {
				add(t)
			}
		}
	}
	return out
}

// typeNamesIn recovers bare identifier names from a type expression,
// e.g. "Optional[List[Foo]]" -> [Optional, List, Foo].
func typeNamesIn(tree *pyast.Tree, t *sitter.Node) []string {
	var out []string
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "identifier":
			out = append(out, tree.NodeText(n))
			return
		case "attribute":
			if attr := pyast.ChildByField(n, "attribute"); attr != nil {
				out = append(out, tree.NodeText(attr))
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(t)
	return out
}

// bodyCalls walks a function body collecting the callee name of every
// call expression, skipping names in the builtin deny-set.
func (ex *pyExtraction) bodyCalls(fn *sitter.Node) []string {
	body := pyast.ChildByField(fn, "body")
	if body == nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call" {
			if target := ex.callTargetName(n); target != "" && !pythonBuiltinDenySet[target] && !seen[target] {
				seen[target] = true
				out = append(out, target)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(body)
	return out
}

// callTargetName reduces a call's "function" child to the single name
// meaningful for resolution: the attribute's rightmost member for
// "obj.method(...)", or the bare identifier otherwise.
func (ex *pyExtraction) callTargetName(call *sitter.Node) string {
	fn := pyast.ChildByField(call, "function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return ex.tree.NodeText(fn)
	case "attribute":
		if attr := pyast.ChildByField(fn, "attribute"); attr != nil {
			return ex.tree.NodeText(attr)
		}
	}
	return ""
}

func (ex *pyExtraction) emitClass(n *sitter.Node, decorators []string) {
	nameNode := pyast.ChildByField(n, "name")
	if nameNode == nil {
		return
	}
	className := ex.tree.NodeText(nameNode)
	start, end := pyast.LineRange(n)

	e := entity.Entity{
		Type:       entity.KindClass,
		Name:       className,
		LineStart:  start,
		LineEnd:    end,
		RawText:    ex.classHeaderText(n),
		Decorators: decorators,
		Inherits:   ex.baseClasses(n),
	}
	ex.entities = append(ex.entities, e)

	if body := pyast.ChildByField(n, "body"); body != nil {
		ex.walkBlock(body, className)
	}
}

// classHeaderText hashes only the class signature (name + bases), not its
// full body: the body is reported as independently-diffed method
// entities, and including it here would make every method edit also
// appear as a class signature change.
func (ex *pyExtraction) classHeaderText(n *sitter.Node) string {
	nameNode := pyast.ChildByField(n, "name")
	superclasses := pyast.ChildByField(n, "superclasses")
	start := n.StartByte()
	var end uint32
	if superclasses != nil {
		end = superclasses.EndByte()
	} else if nameNode != nil {
		end = nameNode.EndByte()
	} else {
		end = n.EndByte()
	}
	return string(ex.tree.Source[start:end])
}

func (ex *pyExtraction) baseClasses(n *sitter.Node) []string {
	superclasses := pyast.ChildByField(n, "superclasses")
	if superclasses == nil {
		return nil
	}
	var out []string
	for i := 0; i < int(superclasses.ChildCount()); i++ {
		c := superclasses.Child(i)
		switch c.Type() {
		case "identifier":
			out = append(out, ex.tree.NodeText(c))
		case "attribute":
			if attr := pyast.ChildByField(c, "attribute"); attr != nil {
				out = append(out, ex.tree.NodeText(attr))
			}
		case "keyword_argument":
			// metaclass=X and similar: not a real base, skip.
		}
	}
	return out
}

func (ex *pyExtraction) emitImport(n *sitter.Node) {
	start, end := pyast.LineRange(n)
	imports := ex.importBindings(n)
	if len(imports) == 0 {
		return
	}
	for _, imp := range imports {
		name := imp.Symbol
		if name == "" {
			name = imp.Module
		}
		e := entity.Entity{
			Type:      entity.KindImport,
			Name:      name,
			LineStart: start,
			LineEnd:   end,
			RawText:   ex.tree.NodeText(n),
			Imports:   []entity.Import{imp},
		}
		ex.entities = append(ex.entities, e)
	}
}

// importBindings extracts (module, symbol) pairs: module
// is empty for a bare "import x" and set for "from x import y".
func (ex *pyExtraction) importBindings(n *sitter.Node) []entity.Import {
	var out []entity.Import
	switch n.Type() {
	case "import_statement":
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			switch c.Type() {
			case "dotted_name":
				out = append(out, entity.Import{Module: "", Symbol: ex.tree.NodeText(c)})
			case "aliased_import":
				if name := pyast.ChildByField(c, "name"); name != nil {
					out = append(out, entity.Import{Module: "", Symbol: ex.tree.NodeText(name)})
				}
			}
		}
	case "import_from_statement":
		moduleNode := pyast.ChildByField(n, "module_name")
		module := ""
		if moduleNode != nil {
			module = ex.tree.NodeText(moduleNode)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			switch c.Type() {
			case "dotted_name":
				if c == moduleNode {
					continue
				}
				out = append(out, entity.Import{Module: module, Symbol: ex.tree.NodeText(c)})
			case "aliased_import":
				if name := pyast.ChildByField(c, "name"); name != nil {
					out = append(out, entity.Import{Module: module, Symbol: ex.tree.NodeText(name)})
				}
			case "wildcard_import":
				out = append(out, entity.Import{Module: module, Symbol: "*"})
			}
		}
	}
	return out
}

// emitAssignmentOrModuleCode classifies a top-level expression statement:
// an assignment becomes a variable entity (or contributes to __all__'s
// export list, handled by the bridge from the raw entity list); anything
// else is reported as free module_code so side-effecting top-level
// statements are not silently dropped from the graph.
func (ex *pyExtraction) emitAssignmentOrModuleCode(n *sitter.Node, class string) {
	inner := firstChildOfType(n, "assignment")
	if inner == nil {
		start, end := pyast.LineRange(n)
		ex.entities = append(ex.entities, entity.Entity{
			Type:      entity.KindModuleCode,
			Name:      moduleCodeName(start),
			LineStart: start,
			LineEnd:   end,
			RawText:   ex.tree.NodeText(n),
		})
		return
	}

	left := pyast.ChildByField(inner, "left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := ex.tree.NodeText(left)
	start, end := pyast.LineRange(n)
	e := entity.Entity{
		Type:      entity.KindVariable,
		Name:      scopedName(class, name),
		LineStart: start,
		LineEnd:   end,
		RawText:   ex.tree.NodeText(n),
	}
	if right := pyast.ChildByField(inner, "right"); right != nil {
		e.Calls = ex.collectRightHandCalls(right)
	}
	if typeNode := pyast.ChildByField(inner, "type"); typeNode != nil {
		e.TypeRefs = typeNamesIn(ex.tree, typeNode)
	}
	ex.entities = append(ex.entities, e)
}

func (ex *pyExtraction) collectRightHandCalls(n *sitter.Node) []string {
	if n.Type() != "call" {
		return nil
	}
	if target := ex.callTargetName(n); target != "" && !pythonBuiltinDenySet[target] {
		return []string{target}
	}
	return nil
}

func moduleCodeName(line int) string {
	return "__module_code__:" + itoa(line)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
