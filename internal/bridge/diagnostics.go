package bridge

import (
	"sort"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

// affectedTargets returns the resolved node ids targeted by edges sourced
// from file, captured before a mutation so newly-dead status can be
// compared afterward.
func (b *Bridge) affectedTargets(file string) []string {
	var ids []string
	for _, e := range b.store.EdgesFromFile(file) {
		if !graphstore.IsUnresolved(e.TargetID) {
			ids = append(ids, e.TargetID)
		}
	}
	return ids
}

func (b *Bridge) hadIncoming(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = len(b.store.IncomingAll(id)) > 0
	}
	return out
}

// newlyDeadWarnings reports nodes that had at least one incoming edge
// before this change and have none now, though they still exist.
func (b *Bridge) newlyDeadWarnings(before map[string]bool) []Warning {
	var warnings []Warning
	for id, had := range before {
		if !had {
			continue
		}
		node := b.store.Node(id)
		if node == nil {
			continue
		}
		if len(b.store.IncomingAll(id)) == 0 {
			warnings = append(warnings, Warning{Kind: WarningNewlyDead, File: node.FilePath, Name: node.Name,
				Message: id + " lost its last incoming edge"})
		}
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Name < warnings[j].Name })
	return warnings
}

func sccKey(scc []string) string { return strings.Join(scc, "\x00") }

// newCycleWarnings reports any file-level SCC present after the change
// that was not present before it.
func (b *Bridge) newCycleWarnings(before [][]string) []Warning {
	beforeSet := make(map[string]bool, len(before))
	for _, c := range before {
		beforeSet[sccKey(c)] = true
	}
	var warnings []Warning
	for _, c := range b.store.FileLevelSCCs() {
		if beforeSet[sccKey(c)] {
			continue
		}
		warnings = append(warnings, Warning{Kind: WarningNewCycle,
			Message: "new file-level cycle: " + strings.Join(c, ", ")})
	}
	return warnings
}

// seedFilesForNames scans every non-high-confidence edge in the store and
// collects the source files of those whose unresolved placeholder name,
// or whose currently-resolved target's bare name, is in names; these
// are the files the propagator should revisit.
func (b *Bridge) seedFilesForNames(names []string) []string {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[bareName(n)] = true
	}

	seen := make(map[string]bool)
	var files []string
	for _, node := range b.store.Nodes() {
		for _, kind := range graphstore.AllEdgeKinds {
			for _, e := range b.store.Outgoing(node.ID(), kind) {
				if e.Confidence == entity.ConfidenceHigh {
					continue
				}
				var targetName string
				if graphstore.IsUnresolved(e.TargetID) {
					targetName = graphstore.UnresolvedName(e.TargetID)
				} else if target := b.store.Node(e.TargetID); target != nil {
					targetName = bareName(target.Name)
				}
				if targetName == "" || !wanted[targetName] || seen[e.SourceFile] {
					continue
				}
				seen[e.SourceFile] = true
				files = append(files, e.SourceFile)
			}
		}
	}
	sort.Strings(files)
	return files
}

// breakingChangeWarnings flags modified entities that look like a public
// API break: a public (non "_"-prefixed) function/method/class whose
// parameter list lost arguments or changed their order. A heuristic:
// it cannot see keyword-only usage or defaults added elsewhere.
func (b *Bridge) breakingChangeWarnings(filePath string, previous []entity.Entity, modified []entity.Entity) []Warning {
	oldByKey := make(map[string]entity.Entity, len(previous))
	for _, e := range previous {
		oldByKey[string(e.Type)+"::"+e.Name] = e
	}

	var warnings []Warning
	for _, newE := range modified {
		oldE, ok := oldByKey[string(newE.Type)+"::"+newE.Name]
		if !ok || !isPublicName(newE.Name) {
			continue
		}
		if paramsLostOrReordered(oldE.Params, newE.Params) {
			warnings = append(warnings, Warning{Kind: WarningBreakingChange, File: filePath, Name: newE.Name,
				Message: "public entity's parameter list lost or reordered arguments"})
		}
	}
	return warnings
}

func isPublicName(name string) bool {
	bare := bareName(name)
	return bare != "" && !strings.HasPrefix(bare, "_")
}

func paramsLostOrReordered(oldParams, newParams []string) bool {
	if len(newParams) < len(oldParams) {
		return true
	}
	n := len(oldParams)
	for i := 0; i < n; i++ {
		if oldParams[i] != newParams[i] {
			return true
		}
	}
	return false
}
