package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/arcbyte/codegraph/internal/bridge"
	"github.com/arcbyte/codegraph/internal/config"
	"github.com/arcbyte/codegraph/internal/query"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return newTestEngineAt(t, t.TempDir())
}

func newTestEngineAt(t *testing.T, root string) *Engine {
	t.Helper()
	e, err := New(root, Options{
		Config:       config.DefaultConfig(),
		SnapshotPath: filepath.Join(root, ".codegraph-test", "graph.json"),
		DisableFTS:   true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func process(t *testing.T, e *Engine, file, text string) bridge.EventReport {
	t.Helper()
	report, err := e.ProcessChange(file, &text, bridge.KindEdit)
	if err != nil {
		t.Fatalf("ProcessChange(%s): %v", file, err)
	}
	return report
}

func TestProcessAndQuery(t *testing.T) {
	e := newTestEngine(t)
	process(t, e, "a.py", "def util():\n    pass\n")
	process(t, e, "b.py", "from a import util\n\ndef go():\n    util()\n")

	res, err := e.Query("callers", []string{"util"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	callers := res.(query.EdgesResult)
	if callers.Status != query.StatusOK {
		t.Fatalf("status = %s", callers.Status)
	}
	found := false
	for _, h := range callers.Hits {
		if h.Node.ID == "b.py::go" && h.Kind == "calls" && h.Confidence == "high" {
			found = true
		}
	}
	if !found {
		t.Errorf("callers(util) = %+v, want b.py::go calls/high", callers.Hits)
	}
}

func TestDeadQuery(t *testing.T) {
	e := newTestEngine(t)
	process(t, e, "x.py", "def orphan():\n    pass\n")

	res, err := e.Query("dead", nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	dead := res.(query.DeadResult)
	if len(dead.Nodes) != 1 || dead.Nodes[0].Name != "orphan" {
		t.Errorf("dead = %+v, want orphan", dead.Nodes)
	}
}

func TestDeadQueryRespectsExplicitExports(t *testing.T) {
	e := newTestEngine(t)
	process(t, e, "x.py", "__all__ = [\"published\"]\n\ndef published():\n    pass\n\ndef orphan():\n    pass\n")

	res, err := e.Query("dead", nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	dead := res.(query.DeadResult)
	if len(dead.Nodes) != 1 || dead.Nodes[0].Name != "orphan" {
		t.Errorf("dead = %+v, want only orphan (published is exported)", dead.Nodes)
	}
}

func TestQueryUnknownCommand(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Query("explode", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("err = %v, want ErrUnknownCommand", err)
	}
}

func TestNilTextOnEditDeletes(t *testing.T) {
	e := newTestEngine(t)
	process(t, e, "a.py", "def util():\n    pass\n")

	if _, err := e.ProcessChange("a.py", nil, bridge.KindEdit); err != nil {
		t.Fatalf("ProcessChange: %v", err)
	}
	if n := e.NodeCount(); n != 0 {
		t.Errorf("NodeCount = %d after delete-by-missing-text, want 0", n)
	}
}

func TestRestartRestoresSnapshot(t *testing.T) {
	root := t.TempDir()
	snapshot := filepath.Join(root, "state", "graph.json")

	first, err := New(root, Options{Config: config.DefaultConfig(), SnapshotPath: snapshot, DisableFTS: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text := "def util():\n    pass\n"
	if _, err := first.ProcessChange("a.py", &text, bridge.KindCreate); err != nil {
		t.Fatalf("ProcessChange: %v", err)
	}
	if err := first.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	second, err := New(root, Options{Config: config.DefaultConfig(), SnapshotPath: snapshot, DisableFTS: true})
	if err != nil {
		t.Fatalf("New after restart: %v", err)
	}
	if !second.Restored() {
		t.Fatal("second engine did not restore the snapshot")
	}
	if n := second.NodeCount(); n != 1 {
		t.Errorf("NodeCount = %d after restore, want 1", n)
	}

	// The differ's per-file snapshot survived too: an identical edit is
	// a no-op (idempotence across restart).
	report, err := second.ProcessChange("a.py", &text, bridge.KindEdit)
	if err != nil {
		t.Fatalf("ProcessChange: %v", err)
	}
	if report.Added+report.Removed+report.Modified+report.Renamed != 0 {
		t.Errorf("identical re-edit after restore produced changes: %+v", report)
	}
}

func TestShutdownRefusesFurtherCalls(t *testing.T) {
	e := newTestEngine(t)
	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Errorf("second Shutdown should be a no-op, got %v", err)
	}

	text := "def f(): pass"
	if _, err := e.ProcessChange("a.py", &text, bridge.KindEdit); !errors.Is(err, ErrShutdown) {
		t.Errorf("ProcessChange after shutdown: err = %v, want ErrShutdown", err)
	}
	if _, err := e.Query("stats", nil); !errors.Is(err, ErrShutdown) {
		t.Errorf("Query after shutdown: err = %v, want ErrShutdown", err)
	}
}

func TestScanRespectsFileCeiling(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 5; i++ {
		path := filepath.Join(root, fmt.Sprintf("f%d.py", i))
		if err := os.WriteFile(path, []byte("def f(): pass\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Engine.ScanFileCeiling = 3
	e, err := New(root, Options{Config: cfg, SnapshotPath: filepath.Join(root, ".cg", "graph.json"), DisableFTS: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := e.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.FilesScanned != 3 || !res.HitCeiling {
		t.Errorf("scan = %+v, want 3 scanned with ceiling hit", res)
	}
}

func TestScanSkipsUnsupportedAndExcluded(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.py"), []byte("def f(): pass\n"), 0644)
	os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0644)
	os.MkdirAll(filepath.Join(root, "vendor"), 0755)
	os.WriteFile(filepath.Join(root, "vendor", "dep.py"), []byte("def g(): pass\n"), 0644)

	e := newTestEngineAt(t, root)
	res, err := e.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.FilesScanned != 1 {
		t.Errorf("FilesScanned = %d, want 1 (a.py only)", res.FilesScanned)
	}
}

func TestRelPath(t *testing.T) {
	root := t.TempDir()
	e := newTestEngineAt(t, root)

	if got := e.RelPath(filepath.Join(root, "pkg", "a.py")); got != "pkg/a.py" {
		t.Errorf("RelPath = %q, want pkg/a.py", got)
	}
}
