package persist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

func testEntity(name, file string) entity.Entity {
	e := entity.Entity{
		Type:      entity.KindFunction,
		Name:      name,
		FilePath:  file,
		LineStart: 1,
		LineEnd:   2,
		Calls:     []string{"helper"},
		Params:    []string{"x"},
		RawText:   "def " + name + "(x):\n    return helper(x)",
	}
	e.ComputeHashes()
	return e
}

func buildState() (*graphstore.Store, map[string][]entity.Entity, map[string]map[string]bool) {
	store := graphstore.New()
	util := testEntity("util", "a.py")
	caller := testEntity("go", "b.py")

	store.AddNode(&graphstore.Node{Entity: util, LastSeen: time.Now()})
	store.AddNode(&graphstore.Node{Entity: caller, LastSeen: time.Now()})
	store.AddEdge(&graphstore.Edge{
		SourceID: caller.ID(), TargetID: util.ID(),
		Kind: graphstore.EdgeCalls, Confidence: entity.ConfidenceHigh, SourceFile: "b.py",
	})
	store.AddEdge(&graphstore.Edge{
		SourceID: caller.ID(), TargetID: graphstore.UnresolvedTarget("ghost"),
		Kind: graphstore.EdgeCalls, Confidence: entity.ConfidenceLow, SourceFile: "b.py",
	})

	snapshots := map[string][]entity.Entity{
		"a.py": {util},
		"b.py": {caller},
	}
	exports := map[string]map[string]bool{
		"a.py": {"util": true},
	}
	return store, snapshots, exports
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, snapshots, exports := buildState()
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := Save(path, store, snapshots, exports); err != nil {
		t.Fatalf("Save: %v", err)
	}

	res, ok := Load(path)
	if !ok {
		t.Fatal("Load reported no usable snapshot")
	}

	if res.Store.NodeCount() != 2 {
		t.Errorf("NodeCount = %d, want 2", res.Store.NodeCount())
	}
	if res.Store.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", res.Store.EdgeCount())
	}

	n := res.Store.Node("a.py::util")
	if n == nil {
		t.Fatal("node a.py::util missing after load")
	}
	if n.SignatureHash == "" || n.StructureHash == "" {
		t.Error("hashes not restored")
	}

	// The unresolved placeholder edge survives the round trip.
	placeholderSeen := false
	for _, e := range res.Store.OutgoingAll("b.py::go") {
		if graphstore.IsUnresolved(e.TargetID) && graphstore.UnresolvedName(e.TargetID) == "ghost" {
			placeholderSeen = true
		}
	}
	if !placeholderSeen {
		t.Error("unresolved edge lost in round trip")
	}

	if len(res.Snapshots["b.py"]) != 1 || res.Snapshots["b.py"][0].Name != "go" {
		t.Errorf("file snapshot for b.py not restored: %+v", res.Snapshots["b.py"])
	}
	if !res.Exports["a.py"]["util"] {
		t.Errorf("exports for a.py not restored: %v", res.Exports["a.py"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, ok := Load(filepath.Join(t.TempDir(), "nope.json")); ok {
		t.Error("Load of missing file should report no snapshot")
	}
}

func TestLoadCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	if _, ok := Load(path); ok {
		t.Error("Load of corrupt JSON should report no snapshot")
	}
}

func TestLoadChecksumMismatch(t *testing.T) {
	store, snapshots, exports := buildState()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := Save(path, store, snapshots, exports); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, _ := os.ReadFile(path)
	var snap map[string]any
	json.Unmarshal(data, &snap)
	snap["exports"] = map[string]any{"tampered.py": []string{"x"}}
	tampered, _ := json.Marshal(snap)
	os.WriteFile(path, tampered, 0644)

	if _, ok := Load(path); ok {
		t.Error("Load of tampered snapshot should report no snapshot")
	}
}

func TestLoadSchemaVersionMismatch(t *testing.T) {
	store, snapshots, exports := buildState()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := Save(path, store, snapshots, exports); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, _ := os.ReadFile(path)
	var snap map[string]any
	json.Unmarshal(data, &snap)
	snap["schema_version"] = SchemaVersion + 1
	bumped, _ := json.Marshal(snap)
	os.WriteFile(path, bumped, 0644)

	if _, ok := Load(path); ok {
		t.Error("Load with future schema version should report no snapshot")
	}
}

func TestSaveIsAtomicOverExisting(t *testing.T) {
	store, snapshots, exports := buildState()
	path := filepath.Join(t.TempDir(), "graph.json")

	if err := Save(path, store, snapshots, exports); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := Save(path, store, snapshots, exports); err != nil {
		t.Fatalf("second Save over existing file: %v", err)
	}
	if _, ok := Load(path); !ok {
		t.Error("snapshot unreadable after overwrite")
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if e.Name() != "graph.json" {
			t.Errorf("stray file after save: %s", e.Name())
		}
	}
}
