// Package engine assembles the full incremental code-graph engine
// behind the three-method host API: ProcessChange, Query, Shutdown. It
// owns the single mutex that serializes edits and queries, the cold
// start project scan with its file-count and wall-clock ceilings, and
// the snapshot checkpointing that makes restarts cheap.
package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/arcbyte/codegraph/internal/bridge"
	"github.com/arcbyte/codegraph/internal/config"
	"github.com/arcbyte/codegraph/internal/engmetrics"
	"github.com/arcbyte/codegraph/internal/exclude"
	"github.com/arcbyte/codegraph/internal/extract"
	"github.com/arcbyte/codegraph/internal/ftsindex"
	"github.com/arcbyte/codegraph/internal/graphstore"
	"github.com/arcbyte/codegraph/internal/persist"
	"github.com/arcbyte/codegraph/internal/query"
)

// ErrShutdown is returned by every call after Shutdown.
var ErrShutdown = errors.New("engine is shut down")

// ErrUnknownCommand is returned by Query for an unrecognized command.
var ErrUnknownCommand = errors.New("unknown query command")

// Options tunes engine construction.
type Options struct {
	// Config overrides the configuration loaded from the project root.
	Config *config.Config
	// SnapshotPath overrides the default snapshot location under the
	// user config root.
	SnapshotPath string
	// DisableFTS skips the in-memory FTS accelerant entirely.
	DisableFTS bool
}

// Engine is one project's code-graph engine instance. All methods are
// safe for concurrent use: a single mutex serializes edits and queries,
// and each ProcessChange runs to completion, propagation included,
// before the lock is released.
type Engine struct {
	mu sync.Mutex

	projectRoot  string
	cfg          *config.Config
	snapshotPath string

	store    *graphstore.Store
	registry *extract.Registry
	bridge   *bridge.Bridge
	queries  *query.Engine
	fts      *ftsindex.Index
	met      *engmetrics.Metrics

	restored bool
	closed   bool
}

// New builds an engine for projectRoot, restoring the previous snapshot
// when a usable one exists and cold-starting otherwise.
func New(projectRoot string, opts Options) (*Engine, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.Load(projectRoot)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	snapshotPath := opts.SnapshotPath
	if snapshotPath == "" {
		p, err := persist.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving snapshot path: %w", err)
		}
		snapshotPath = p
	}

	e := &Engine{
		projectRoot:  projectRoot,
		cfg:          cfg,
		snapshotPath: snapshotPath,
		registry:     extract.NewRegistry(),
		met:          engmetrics.New(),
	}

	if restored, ok := persist.Load(snapshotPath); ok {
		e.store = restored.Store
		e.bridge = bridge.New(e.store, e.registry, cfg.Engine)
		e.bridge.LoadSnapshots(restored.Snapshots)
		e.bridge.LoadExports(restored.Exports)
		e.restored = true
	} else {
		e.store = graphstore.New()
		e.bridge = bridge.New(e.store, e.registry, cfg.Engine)
	}

	e.queries = query.New(e.store, e.bridge.Exports(), e.bridge.ExplicitExports(), cfg.Engine.EntryPointPatterns)

	if !opts.DisableFTS {
		if ix, err := ftsindex.Open(":memory:"); err == nil {
			e.fts = ix
			if err := e.fts.Rebuild(e.store); err == nil {
				e.queries.SetAccelerant(e.fts)
			}
		}
		// FTS failing to open is not an error: search falls back to the
		// regex scan.
	}

	e.met.NodesTotal.Set(float64(e.store.NodeCount()))
	e.met.EdgesTotal.Set(float64(e.store.EdgeCount()))

	return e, nil
}

// Restored reports whether the engine started from a usable snapshot.
func (e *Engine) Restored() bool { return e.restored }

// Config returns the engine's effective configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Metrics exposes the Prometheus registry for hosts that scrape.
func (e *Engine) Metrics() *engmetrics.Metrics { return e.met }

// SnapshotPath returns where the engine checkpoints its state.
func (e *Engine) SnapshotPath() string { return e.snapshotPath }

// FTSCount returns the accelerant's row count, or -1 when no accelerant
// is active. Used by doctor to detect index drift.
func (e *Engine) FTSCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fts == nil {
		return -1
	}
	n, err := e.fts.Count()
	if err != nil {
		return -1
	}
	return n
}

// NodeCount returns the store's node count.
func (e *Engine) NodeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.NodeCount()
}

// ProcessChange applies one file change. newText is nil for a delete;
// a nil newText with kind edit is treated as a delete too, covering the
// file-vanished-between-hook-and-read race.
func (e *Engine) ProcessChange(filePath string, newText *string, kind bridge.Kind) (bridge.EventReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return bridge.EventReport{}, ErrShutdown
	}
	report := e.processChangeLocked(filePath, newText, kind)
	e.checkpointLocked()
	return report, nil
}

func (e *Engine) processChangeLocked(filePath string, newText *string, kind bridge.Kind) bridge.EventReport {
	start := time.Now()
	if newText == nil {
		kind = bridge.KindDelete
	}

	report := e.bridge.ProcessChange(filePath, newText, kind)

	e.met.ProcessChangeDuration.Observe(time.Since(start).Seconds())
	e.met.NodesTotal.Set(float64(e.store.NodeCount()))
	e.met.EdgesTotal.Set(float64(e.store.EdgeCount()))
	for _, w := range report.Warnings {
		if w.Kind == bridge.WarningPropagatorBudgetExceeded {
			e.met.PropagatorDropped.Inc()
		}
	}

	if e.fts != nil {
		if kind == bridge.KindDelete {
			e.fts.RemoveFile(filePath)
		} else {
			e.fts.ReplaceFile(filePath, e.store.NodesInFile(filePath))
		}
	}

	return report
}

func (e *Engine) checkpointLocked() {
	// Checkpoint failures are deliberately non-fatal: the in-memory
	// graph stays correct and the next successful save catches up.
	_ = persist.Save(e.snapshotPath, e.store, e.bridge.Snapshots(), e.bridge.Exports())
}

// Query dispatches a named read-only query by command string. The
// result is one of the internal/query result structs.
func (e *Engine) Query(command string, args []string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrShutdown
	}

	arg := func(i int) string {
		if i < len(args) {
			return args[i]
		}
		return ""
	}

	switch command {
	case "callers":
		return e.queries.Callers(arg(0)), nil
	case "callees":
		return e.queries.Callees(arg(0)), nil
	case "deps":
		return e.queries.Deps(arg(0)), nil
	case "rdeps":
		return e.queries.RDeps(arg(0)), nil
	case "file":
		return e.queries.File(arg(0)), nil
	case "entity":
		return e.queries.Entity(arg(0)), nil
	case "impact":
		return e.queries.Impact(arg(0), arg(1)), nil
	case "path":
		return e.queries.Path(arg(0), arg(1)), nil
	case "dead":
		return e.queries.Dead(), nil
	case "cycles":
		return e.queries.Cycles(), nil
	case "search":
		return e.queries.Search(arg(0)), nil
	case "exports":
		return e.queries.Exports(arg(0)), nil
	case "summary":
		return e.queries.Summary(query.DefaultTopK), nil
	case "stats":
		return e.queries.Stats(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

// Queries exposes the typed query engine for in-process callers (the
// CLI) that prefer static types over the string-dispatch surface.
func (e *Engine) Queries() *query.Engine { return e.queries }

// GraphSlice returns the nodes of one file (or every node when file is
// empty) together with the edges among them, for rendering.
func (e *Engine) GraphSlice(file string) ([]*graphstore.Node, []*graphstore.Edge) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var nodes []*graphstore.Node
	if file == "" {
		nodes = e.store.Nodes()
	} else {
		nodes = e.store.NodesInFile(file)
	}

	inSlice := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		inSlice[n.ID()] = true
	}
	var edges []*graphstore.Edge
	for _, n := range nodes {
		for _, edge := range e.store.OutgoingAll(n.ID()) {
			edges = append(edges, edge)
			// Pull cross-file targets into the slice so file-scoped
			// renderings show where the edges land.
			if !inSlice[edge.TargetID] {
				if target := e.store.Node(edge.TargetID); target != nil {
					inSlice[edge.TargetID] = true
					nodes = append(nodes, target)
				}
			}
		}
	}
	return nodes, edges
}

// Shutdown flushes a final snapshot and refuses further calls.
// In-flight calls complete first by virtue of the mutex.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	err := persist.Save(e.snapshotPath, e.store, e.bridge.Snapshots(), e.bridge.Exports())
	if e.fts != nil {
		e.fts.Close()
	}
	if err != nil {
		return fmt.Errorf("flushing final snapshot: %w", err)
	}
	return nil
}

// Close refuses further calls without flushing a snapshot, for
// read-only callers that have nothing new to persist.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.fts != nil {
		e.fts.Close()
	}
}

// ScanResult reports what a cold-start scan covered.
type ScanResult struct {
	FilesScanned int      `json:"files_scanned" yaml:"files_scanned"`
	FilesSkipped int      `json:"files_skipped" yaml:"files_skipped"`
	HitCeiling   bool     `json:"hit_ceiling" yaml:"hit_ceiling"`
	TimedOut     bool     `json:"timed_out" yaml:"timed_out"`
	Excluded     []string `json:"excluded" yaml:"excluded"`
}

// Scan walks the project root and processes every supported file,
// bounded by the configured file-count ceiling and wall-clock budget.
// Files left unscanned stay outside the graph until edited.
func (e *Engine) Scan() (ScanResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ScanResult{}, ErrShutdown
	}

	matcher := exclude.NewMatcher(e.projectRoot, e.cfg.Scan.Exclude)
	deadline := time.Now().Add(time.Duration(e.cfg.Engine.ScanWallClockSeconds) * time.Second)
	ceiling := e.cfg.Engine.ScanFileCeiling

	res := ScanResult{Excluded: matcher.Detected()}

	err := filepath.WalkDir(e.projectRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		rel, relErr := filepath.Rel(e.projectRoot, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.Skip(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.Skip(rel) || !e.registry.Supported(rel) {
			return nil
		}
		if res.FilesScanned >= ceiling {
			res.HitCeiling = true
			res.FilesSkipped++
			return nil
		}
		if time.Now().After(deadline) {
			res.TimedOut = true
			res.FilesSkipped++
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			res.FilesSkipped++
			return nil
		}
		text := string(data)
		e.processChangeLocked(rel, &text, bridge.KindCreate)
		res.FilesScanned++
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walking project root: %w", err)
	}

	e.checkpointLocked()
	return res, nil
}

// RelPath converts an absolute path inside the project to the
// project-relative, forward-slash form node identities use. Paths
// outside the root pass through slash-normalized.
func (e *Engine) RelPath(path string) string {
	rel, err := filepath.Rel(e.projectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
