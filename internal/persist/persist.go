// Package persist serializes the graph store, the per-file entity
// snapshots the differ needs, and the per-file export sets to a single
// JSON document, and restores them on process start. Load is defensive:
// a missing file, unreadable JSON, schema-version mismatch or checksum
// mismatch all yield a clean start rather than an error the engine would
// have to surface.
package persist

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/arcbyte/codegraph/internal/config"
	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

// SchemaVersion is bumped whenever the snapshot layout changes in a way
// old readers cannot tolerate; a mismatch on load discards the snapshot.
const SchemaVersion = 1

// SnapshotFileName is the file the snapshot lives in under the config root.
const SnapshotFileName = "graph.json"

// Snapshot is the on-disk document: schema_version, saved_at, checksum,
// nodes, edges, file_snapshots, exports.
type Snapshot struct {
	SchemaVersion int                       `json:"schema_version"`
	SavedAt       int64                     `json:"saved_at"`
	Checksum      string                    `json:"checksum"`
	Nodes         []NodeRecord              `json:"nodes"`
	Edges         []EdgeRecord              `json:"edges"`
	FileSnapshots map[string][]EntityRecord `json:"file_snapshots"`
	Exports       map[string][]string       `json:"exports"`
}

// EntityRecord is the serialized form of an entity.
type EntityRecord struct {
	EntityType    string         `json:"entity_type"`
	Name          string         `json:"name"`
	FilePath      string         `json:"file_path"`
	LineStart     int            `json:"line_start"`
	LineEnd       int            `json:"line_end"`
	SignatureHash string         `json:"signature_hash"`
	StructureHash string         `json:"structure_hash"`
	Calls         []string       `json:"calls"`
	Inherits      []string       `json:"inherits"`
	TypeRefs      []string       `json:"type_refs"`
	Decorators    []string       `json:"decorators"`
	Imports       []ImportRecord `json:"imports"`
	Params        []string       `json:"params"`
	Confidence    string         `json:"confidence"`
}

// ImportRecord is one (module, symbol) import binding.
type ImportRecord struct {
	Module string `json:"module"`
	Symbol string `json:"symbol"`
}

// NodeRecord is an EntityRecord plus the node-only attributes.
type NodeRecord struct {
	EntityRecord
	LastSeen int64 `json:"last_seen"`
}

// EdgeRecord is the serialized form of an edge. The target may be an
// "unresolved:" placeholder rather than a node id.
type EdgeRecord struct {
	SourceID   string `json:"source_id"`
	TargetID   string `json:"target_id_or_placeholder"`
	Kind       string `json:"kind"`
	Confidence string `json:"confidence"`
	SourceFile string `json:"source_file"`
}

// DefaultPath returns the snapshot location under the user config root
// (overridable via the CODEGRAPH_CONFIG_ROOT environment variable).
func DefaultPath() (string, error) {
	root, err := config.ConfigRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, SnapshotFileName), nil
}

// Save writes the snapshot atomically: marshal to a temp file in the
// same directory, then rename over the destination.
func Save(path string, store *graphstore.Store, snapshots map[string][]entity.Entity, exports map[string]map[string]bool) error {
	snap := build(store, snapshots, exports)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".graph-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return nil
}

func build(store *graphstore.Store, snapshots map[string][]entity.Entity, exports map[string]map[string]bool) *Snapshot {
	snap := &Snapshot{
		SchemaVersion: SchemaVersion,
		SavedAt:       time.Now().Unix(),
		FileSnapshots: make(map[string][]EntityRecord, len(snapshots)),
		Exports:       make(map[string][]string, len(exports)),
	}

	nodes := store.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	for _, n := range nodes {
		snap.Nodes = append(snap.Nodes, NodeRecord{
			EntityRecord: toEntityRecord(n.Entity),
			LastSeen:     n.LastSeen.Unix(),
		})
		for _, e := range store.OutgoingAll(n.ID()) {
			snap.Edges = append(snap.Edges, EdgeRecord{
				SourceID:   e.SourceID,
				TargetID:   e.TargetID,
				Kind:       string(e.Kind),
				Confidence: string(e.Confidence),
				SourceFile: e.SourceFile,
			})
		}
	}
	sort.Slice(snap.Edges, func(i, j int) bool {
		a, b := snap.Edges[i], snap.Edges[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.TargetID != b.TargetID {
			return a.TargetID < b.TargetID
		}
		return a.Kind < b.Kind
	})

	for file, entities := range snapshots {
		records := make([]EntityRecord, 0, len(entities))
		for _, e := range entities {
			records = append(records, toEntityRecord(e))
		}
		snap.FileSnapshots[file] = records
	}

	for file, names := range exports {
		list := make([]string, 0, len(names))
		for name := range names {
			list = append(list, name)
		}
		sort.Strings(list)
		snap.Exports[file] = list
	}

	snap.Checksum = checksum(snap)
	return snap
}

// checksum hashes the snapshot's JSON encoding with the Checksum field
// blanked, so the stored value covers everything else in the document.
func checksum(snap *Snapshot) string {
	clone := *snap
	clone.Checksum = ""
	data, err := json.Marshal(&clone)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadResult is a fully restored engine state.
type LoadResult struct {
	Store     *graphstore.Store
	Snapshots map[string][]entity.Entity
	Exports   map[string]map[string]bool
	SavedAt   time.Time
}

// Load restores a snapshot from path. The second return is false when no
// usable snapshot exists for any reason (missing file, bad JSON, wrong
// schema version, checksum mismatch) and the caller should cold-start.
func Load(path string) (*LoadResult, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	if snap.SchemaVersion != SchemaVersion {
		return nil, false
	}
	if snap.Checksum == "" || snap.Checksum != checksum(&snap) {
		return nil, false
	}

	res := &LoadResult{
		Store:     graphstore.New(),
		Snapshots: make(map[string][]entity.Entity, len(snap.FileSnapshots)),
		Exports:   make(map[string]map[string]bool, len(snap.Exports)),
		SavedAt:   time.Unix(snap.SavedAt, 0),
	}

	for _, rec := range snap.Nodes {
		res.Store.AddNode(&graphstore.Node{
			Entity:   fromEntityRecord(rec.EntityRecord),
			LastSeen: time.Unix(rec.LastSeen, 0),
		})
	}
	for _, rec := range snap.Edges {
		res.Store.AddEdge(&graphstore.Edge{
			SourceID:   rec.SourceID,
			TargetID:   rec.TargetID,
			Kind:       graphstore.EdgeKind(rec.Kind),
			Confidence: entity.Confidence(rec.Confidence),
			SourceFile: rec.SourceFile,
		})
	}
	for file, records := range snap.FileSnapshots {
		entities := make([]entity.Entity, 0, len(records))
		for _, rec := range records {
			entities = append(entities, fromEntityRecord(rec))
		}
		res.Snapshots[file] = entities
	}
	for file, names := range snap.Exports {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		res.Exports[file] = set
	}

	return res, true
}

func toEntityRecord(e entity.Entity) EntityRecord {
	imports := make([]ImportRecord, 0, len(e.Imports))
	for _, imp := range e.Imports {
		imports = append(imports, ImportRecord{Module: imp.Module, Symbol: imp.Symbol})
	}
	return EntityRecord{
		EntityType:    string(e.Type),
		Name:          e.Name,
		FilePath:      e.FilePath,
		LineStart:     e.LineStart,
		LineEnd:       e.LineEnd,
		SignatureHash: e.SignatureHash,
		StructureHash: e.StructureHash,
		Calls:         emptyIfNil(e.Calls),
		Inherits:      emptyIfNil(e.Inherits),
		TypeRefs:      emptyIfNil(e.TypeRefs),
		Decorators:    emptyIfNil(e.Decorators),
		Imports:       imports,
		Params:        emptyIfNil(e.Params),
		Confidence:    string(e.Confidence),
	}
}

func fromEntityRecord(rec EntityRecord) entity.Entity {
	imports := make([]entity.Import, 0, len(rec.Imports))
	for _, imp := range rec.Imports {
		imports = append(imports, entity.Import{Module: imp.Module, Symbol: imp.Symbol})
	}
	return entity.Entity{
		Type:          entity.Kind(rec.EntityType),
		Name:          rec.Name,
		FilePath:      rec.FilePath,
		LineStart:     rec.LineStart,
		LineEnd:       rec.LineEnd,
		SignatureHash: rec.SignatureHash,
		StructureHash: rec.StructureHash,
		Calls:         emptyIfNil(rec.Calls),
		Inherits:      emptyIfNil(rec.Inherits),
		TypeRefs:      emptyIfNil(rec.TypeRefs),
		Decorators:    emptyIfNil(rec.Decorators),
		Imports:       imports,
		Params:        emptyIfNil(rec.Params),
		Confidence:    entity.Confidence(rec.Confidence),
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
