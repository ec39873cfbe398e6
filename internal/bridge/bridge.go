// Package bridge implements the incremental update pipeline: the
// single entry point that turns one file's new text into a sequence of
// graph-store patches, edge re-resolution, bounded propagation, and
// warning events. It is the orchestrator that ties together
// internal/extract, internal/differ, internal/resolver,
// internal/propagator and internal/graphstore.
package bridge

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arcbyte/codegraph/internal/config"
	"github.com/arcbyte/codegraph/internal/differ"
	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/extract"
	"github.com/arcbyte/codegraph/internal/graphstore"
	"github.com/arcbyte/codegraph/internal/propagator"
	"github.com/arcbyte/codegraph/internal/resolver"
)

// Bridge is the stateful orchestrator bound to one graphstore.Store. It
// is not safe for concurrent use; callers serialize access,
// typically via internal/engine's mutex.
type Bridge struct {
	store      *graphstore.Store
	registry   *extract.Registry
	resolver   *resolver.Resolver
	propagator *propagator.Propagator
	partialPy  *extract.PartialPythonExtractor
	cfg        config.EngineConfig

	// snapshots holds the last entity list extracted for each file, used
	// both by the differ (to compute the next delta) and by the
	// propagator (edge-only re-resolution needs no re-parse). Persistence
	// (internal/persist) saves and restores this map verbatim.
	snapshots map[string][]entity.Entity
	// exports holds the last computed exported-symbol set per file;
	// explicitExports flags the files whose set came from an explicit
	// marker rather than the all-top-level-definitions fallback.
	exports         map[string]map[string]bool
	explicitExports map[string]bool
}

// New builds a Bridge over store using cfg's propagator bounds.
func New(store *graphstore.Store, registry *extract.Registry, cfg config.EngineConfig) *Bridge {
	res := resolver.New(store)
	return &Bridge{
		store:           store,
		registry:        registry,
		resolver:        res,
		propagator:      propagator.New(store, res, cfg.PropagatorFanout, cfg.PropagatorDepth),
		partialPy:       extract.NewPartialPythonExtractor(extract.NewPythonExtractor()),
		cfg:             cfg,
		snapshots:       make(map[string][]entity.Entity),
		exports:         make(map[string]map[string]bool),
		explicitExports: make(map[string]bool),
	}
}

// Snapshots exposes the per-file entity cache for persistence to save.
func (b *Bridge) Snapshots() map[string][]entity.Entity { return b.snapshots }

// Exports exposes the per-file export-set cache for persistence to save.
func (b *Bridge) Exports() map[string]map[string]bool { return b.exports }

// ExplicitExports exposes which files publish via an explicit marker;
// only those sets exempt symbols from dead-code reporting.
func (b *Bridge) ExplicitExports() map[string]bool { return b.explicitExports }

// LoadSnapshots seeds the entity cache from a restored snapshot and
// rebuilds the explicit-marker flags from the entity lists.
func (b *Bridge) LoadSnapshots(s map[string][]entity.Entity) {
	if s == nil {
		return
	}
	b.snapshots = s
	for file, entities := range s {
		if hasExplicitExportMarker(entities) {
			b.explicitExports[file] = true
		}
	}
}

// LoadExports seeds the export cache from a restored snapshot.
func (b *Bridge) LoadExports(e map[string]map[string]bool) {
	if e != nil {
		b.exports = e
	}
}

// ProcessChange is the engine's sole mutation entry point. newText is
// nil for a delete.
func (b *Bridge) ProcessChange(filePath string, newText *string, kind Kind) EventReport {
	report := EventReport{TraceID: uuid.New().String(), FilePath: filePath}

	if kind == KindDelete || newText == nil {
		b.processDelete(filePath, &report)
		return report
	}

	extractor := b.registry.For(filePath)
	if extractor == nil {
		// Unknown extension: silently skipped, never enters the graph.
		return report
	}

	newEntities := extractor.Extract(*newText, filePath)
	if len(newEntities) == 0 && strings.TrimSpace(*newText) != "" && extractor.Name() == "python-ast" {
		newEntities = b.partialPy.Extract(*newText, filePath)
		if len(newEntities) == 0 {
			report.Warnings = append(report.Warnings, Warning{
				Kind: WarningUnparseable, File: filePath,
				Message: "file left unparseable after partial-recovery reduction; previous entities retained",
			})
			return report
		}
	}

	previous := b.snapshots[filePath]
	delta := differ.Diff(previous, newEntities, b.cfg.RenameLineWindow)

	beforeTargets := b.affectedTargets(filePath)
	hadIncoming := b.hadIncoming(beforeTargets)
	beforeSCCs := b.store.FileLevelSCCs()

	now := time.Now()
	b.applyDelta(delta, now)

	// Bulk-delete this file's outgoing edges, then pass-one
	// resolution against the freshly extracted entity list.
	b.store.RemoveEdgesBySourceFile(filePath)
	b.resolver.ResolveFile(filePath, newEntities)

	// Pass-two promotion against added/renamed names.
	b.resolver.PromotePass(promotedNames(delta))

	// Propagate if the exported-symbol set changed.
	oldExports := b.exports[filePath]
	newExports, explicit := computeExports(newEntities)
	if changed := symmetricDiffNames(oldExports, newExports); len(changed) > 0 {
		seeds := removeString(b.seedFilesForNames(changed), filePath)
		if len(seeds) > 0 {
			result := b.propagator.Propagate(seeds, b.snapshots)
			report.Propagated = result.ReExtracted
			if result.Dropped > 0 {
				report.Warnings = append(report.Warnings, Warning{
					Kind: WarningPropagatorBudgetExceeded, File: filePath,
					Message: fmt.Sprintf("%d dependent files dropped from propagation past the fan-out budget", result.Dropped),
				})
			}
		}
	}
	b.exports[filePath] = newExports
	if explicit {
		b.explicitExports[filePath] = true
	} else {
		delete(b.explicitExports, filePath)
	}
	b.snapshots[filePath] = newEntities

	// Warnings.
	report.Warnings = append(report.Warnings, b.newlyDeadWarnings(hadIncoming)...)
	report.Warnings = append(report.Warnings, b.newCycleWarnings(beforeSCCs)...)
	report.Warnings = append(report.Warnings, b.breakingChangeWarnings(filePath, previous, delta.Modified)...)

	report.Added = len(delta.Added)
	report.Removed = len(delta.Removed)
	report.Modified = len(delta.Modified)
	report.Renamed = len(delta.Renamed)

	return report
}

func (b *Bridge) processDelete(filePath string, report *EventReport) {
	beforeTargets := b.affectedTargets(filePath)
	hadIncoming := b.hadIncoming(beforeTargets)
	beforeSCCs := b.store.FileLevelSCCs()

	for _, node := range b.store.NodesInFile(filePath) {
		placeholder := graphstore.UnresolvedTarget(bareName(node.Name))
		for _, e := range b.store.RemoveNode(node.ID()) {
			e.TargetID, e.Confidence = placeholder, entity.ConfidenceLow
			b.store.AddEdge(e)
		}
	}
	b.store.RemoveEdgesBySourceFile(filePath)

	delete(b.snapshots, filePath)
	delete(b.exports, filePath)
	delete(b.explicitExports, filePath)

	report.Warnings = append(report.Warnings, b.newlyDeadWarnings(hadIncoming)...)
	report.Warnings = append(report.Warnings, b.newCycleWarnings(beforeSCCs)...)
}

// applyDelta patches the graph store for one bucketed delta.
func (b *Bridge) applyDelta(delta differ.Delta, now time.Time) {
	for _, e := range delta.Removed {
		placeholder := graphstore.UnresolvedTarget(bareName(e.Name))
		for _, edge := range b.store.RemoveNode(e.ID()) {
			edge.TargetID, edge.Confidence = placeholder, entity.ConfidenceLow
			b.store.AddEdge(edge)
		}
	}
	for _, r := range delta.Renamed {
		newNode := b.store.RenameNode(r.Old.ID(), r.New)
		newNode.LastSeen = now
	}
	for _, e := range delta.Modified {
		b.store.AddNode(&graphstore.Node{Entity: e, LastSeen: now})
	}
	for _, e := range delta.Added {
		b.store.AddNode(&graphstore.Node{Entity: e, LastSeen: now})
	}
}

// promotedNames collects the bare names pass-two promotion should retry:
// every newly added entity and every rename's new name.
func promotedNames(delta differ.Delta) []string {
	names := make([]string, 0, len(delta.Added)+len(delta.Renamed))
	for _, e := range delta.Added {
		names = append(names, e.Name)
	}
	for _, r := range delta.Renamed {
		names = append(names, r.New.Name)
	}
	return names
}

func bareName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func removeString(ss []string, victim string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != victim {
			out = append(out, s)
		}
	}
	return out
}
