// Package resolver implements two-pass edge resolution. After a file is
// re-extracted, pass one materializes calls, inherits, uses_type,
// decorated_by and imports edges for every entity in that file; pass two
// walks the store's unresolved placeholder edges looking for promotions
// against any newly added or renamed name.
package resolver

import (
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

// Resolver materializes edges against a graphstore.Store.
type Resolver struct {
	store *graphstore.Store
}

// New returns a Resolver bound to store.
func New(store *graphstore.Store) *Resolver {
	return &Resolver{store: store}
}

// ResolveFile runs pass one for every entity in file: it assumes the
// caller has already added/updated file's nodes and bulk-deleted its
// previous outgoing edges. fileEntities must be
// the complete, freshly extracted entity list for file, used to resolve
// in-file name references and import bindings.
func (r *Resolver) ResolveFile(file string, fileEntities []entity.Entity) {
	importBindings := collectImportBindings(fileEntities)
	inFileNames := collectInFileNames(fileEntities)

	for _, e := range fileEntities {
		sourceID := e.ID()
		if r.store.Node(sourceID) == nil {
			// Resolution only applies to entities that materialized
			// nodes; anything the bridge skipped has nothing to hang
			// an edge off.
			continue
		}

		for _, target := range e.Calls {
			r.resolveAndLink(sourceID, file, e.Name, target, graphstore.EdgeCalls, inFileNames, importBindings)
		}
		for _, target := range e.Inherits {
			r.resolveAndLink(sourceID, file, e.Name, target, graphstore.EdgeInherits, inFileNames, importBindings)
		}
		for _, target := range e.TypeRefs {
			r.resolveAndLink(sourceID, file, e.Name, target, graphstore.EdgeUsesType, inFileNames, importBindings)
		}
		for _, target := range e.Decorators {
			r.resolveAndLink(sourceID, file, e.Name, target, graphstore.EdgeDecoratedBy, inFileNames, importBindings)
		}
		for _, imp := range e.Imports {
			r.resolveImportEdge(sourceID, file, imp)
		}
	}
}

type importBinding struct {
	module string
}

// collectImportBindings maps a symbol name to the module it was
// explicitly imported from in this file entity list.
func collectImportBindings(entities []entity.Entity) map[string]importBinding {
	out := make(map[string]importBinding)
	for _, e := range entities {
		if e.Type != entity.KindImport {
			continue
		}
		for _, imp := range e.Imports {
			if imp.Symbol != "" && imp.Symbol != "*" {
				out[imp.Symbol] = importBinding{module: imp.Module}
			}
		}
	}
	return out
}

// collectInFileNames indexes every definition entity in the file by
// bare name and by its full scoped name, for step (i)/(ii) of the
// resolution ladder. Import entities are deliberately left out: an
// import is a binding, not a definition, and consulting it belongs to
// step (iii).
func collectInFileNames(entities []entity.Entity) map[string][]entity.Entity {
	out := make(map[string][]entity.Entity)
	for _, e := range entities {
		if e.Type == entity.KindImport {
			continue
		}
		out[bareName(e.Name)] = append(out[bareName(e.Name)], e)
		out[e.Name] = append(out[e.Name], e)
	}
	return out
}

// definitionIDs filters a bare-name lookup down to nodes that define
// the name: import nodes (which mirror the symbol they bind) and the
// resolving entity itself are never valid targets.
func (r *Resolver) definitionIDs(name, excludeID string) []string {
	var out []string
	for _, id := range r.store.NodeIDsByBareName(name) {
		if id == excludeID {
			continue
		}
		n := r.store.Node(id)
		if n == nil || n.Type == entity.KindImport {
			continue
		}
		out = append(out, id)
	}
	return out
}

func bareName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func classOf(scopedName string) string {
	if idx := strings.LastIndex(scopedName, "."); idx >= 0 {
		return scopedName[:idx]
	}
	return ""
}

// resolveAndLink implements the four-step resolution ladder shared by
// calls/inherits/uses_type/decorated_by, then records the
// resulting edge (real or placeholder) in the store.
func (r *Resolver) resolveAndLink(sourceID, sourceFile, sourceName, target string, kind graphstore.EdgeKind,
	inFile map[string][]entity.Entity, imports map[string]importBinding) {

	// (i) in-file exact name.
	if candidates, ok := inFile[target]; ok {
		if id := r.pickInFileNode(sourceFile, candidates); id != "" && id != sourceID {
			r.store.AddEdge(&graphstore.Edge{SourceID: sourceID, TargetID: id, Kind: kind,
				Confidence: entity.ConfidenceHigh, SourceFile: sourceFile})
			return
		}
	}

	// (ii) in-file class method: caller is a method, target is an
	// unqualified name equal to a sibling method of the same class.
	if class := classOf(sourceName); class != "" {
		scoped := class + "." + target
		if candidates, ok := inFile[scoped]; ok {
			if id := r.pickInFileNode(sourceFile, candidates); id != "" && id != sourceID {
				r.store.AddEdge(&graphstore.Edge{SourceID: sourceID, TargetID: id, Kind: kind,
					Confidence: entity.ConfidenceHigh, SourceFile: sourceFile})
				return
			}
		}
	}

	// (iii) cross-file via an explicit import binding in this file.
	if _, bound := imports[target]; bound {
		if ids := r.definitionIDs(target, sourceID); len(ids) == 1 {
			r.store.AddEdge(&graphstore.Edge{SourceID: sourceID, TargetID: ids[0], Kind: kind,
				Confidence: entity.ConfidenceHigh, SourceFile: sourceFile})
			return
		}
	}

	// (iv) fallback: any node in the project with a matching bare name.
	if ids := r.definitionIDs(target, sourceID); len(ids) == 1 {
		r.store.AddEdge(&graphstore.Edge{SourceID: sourceID, TargetID: ids[0], Kind: kind,
			Confidence: entity.ConfidenceMedium, SourceFile: sourceFile})
		return
	}

	r.store.AddEdge(&graphstore.Edge{SourceID: sourceID, TargetID: graphstore.UnresolvedTarget(target),
		Kind: kind, Confidence: entity.ConfidenceLow, SourceFile: sourceFile})
}

// pickInFileNode deterministically picks among same-file candidates
// sharing a name, so repeated queries give stable answers.
func (r *Resolver) pickInFileNode(file string, candidates []entity.Entity) string {
	var best string
	for _, c := range candidates {
		if c.FilePath != "" && c.FilePath != file {
			continue
		}
		id := entity.NodeID(file, c.Name)
		if r.store.Node(id) == nil {
			continue
		}
		if best == "" || id < best {
			best = id
		}
	}
	return best
}

// resolveImportEdge materializes the imports edge for a single (module,
// symbol) binding: once a node with matching bare name exists anywhere
// in the project, the edge is resolved at high confidence; otherwise it
// is recorded against the unresolved placeholder for that symbol.
func (r *Resolver) resolveImportEdge(sourceID, sourceFile string, imp entity.Import) {
	if imp.Symbol == "" || imp.Symbol == "*" {
		return
	}
	if ids := r.definitionIDs(imp.Symbol, sourceID); len(ids) == 1 {
		r.store.AddEdge(&graphstore.Edge{SourceID: sourceID, TargetID: ids[0], Kind: graphstore.EdgeImports,
			Confidence: entity.ConfidenceHigh, SourceFile: sourceFile})
		return
	}
	r.store.AddEdge(&graphstore.Edge{SourceID: sourceID, TargetID: graphstore.UnresolvedTarget(imp.Symbol),
		Kind: graphstore.EdgeImports, Confidence: entity.ConfidenceLow, SourceFile: sourceFile})
}

// PromotePass is pass two: walk every currently-unresolved
// edge in the store whose placeholder name matches one of
// promotedNames (the bare names of entities just added or renamed) and
// attempt to resolve it against the store's current node set. Promotion
// only ever raises confidence, never lowers it.
func (r *Resolver) PromotePass(promotedNames []string) {
	names := make(map[string]bool, len(promotedNames))
	for _, n := range promotedNames {
		names[bareName(n)] = true
	}
	if len(names) == 0 {
		return
	}

	for _, node := range r.store.Nodes() {
		for _, kind := range graphstore.AllEdgeKinds {
			for _, e := range r.store.Outgoing(node.ID(), kind) {
				if !graphstore.IsUnresolved(e.TargetID) {
					continue
				}
				placeholderName := graphstore.UnresolvedName(e.TargetID)
				if !names[placeholderName] {
					continue
				}
				r.promoteEdge(e, placeholderName)
			}
		}
	}
}

func (r *Resolver) promoteEdge(e *graphstore.Edge, name string) {
	ids := r.definitionIDs(name, e.SourceID)
	if len(ids) != 1 {
		return
	}
	r.store.RetargetEdge(e, ids[0], entity.ConfidenceHigh)
}
