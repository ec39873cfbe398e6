// Package graphstore implements the typed directed multigraph that is the
// engine's single source of truth while the process runs: nodes are the
// persistent view of extracted entities, edges are directed, kinded
// relationships between them, and a handful of indices keep common lookups
// (by name, by source file, by direction) at or near O(1).
package graphstore

import (
	"sort"
	"strings"
	"time"

	"github.com/arcbyte/codegraph/internal/entity"
)

// EdgeKind is the label on a directed relationship between two nodes.
type EdgeKind string

const (
	EdgeCalls       EdgeKind = "calls"
	EdgeImports     EdgeKind = "imports"
	EdgeInherits    EdgeKind = "inherits"
	EdgeUsesType    EdgeKind = "uses_type"
	EdgeDecoratedBy EdgeKind = "decorated_by"
)

// AllEdgeKinds lists every edge kind, in the order queries report them.
var AllEdgeKinds = []EdgeKind{EdgeCalls, EdgeImports, EdgeInherits, EdgeUsesType, EdgeDecoratedBy}

// UnresolvedPrefix marks a synthetic placeholder target used when an
// edge's real target is not yet known.
const UnresolvedPrefix = "unresolved:"

// UnresolvedTarget formats the placeholder target id for a bare name.
func UnresolvedTarget(name string) string {
	return UnresolvedPrefix + name
}

// IsUnresolved reports whether a target id is a placeholder.
func IsUnresolved(targetID string) bool {
	return strings.HasPrefix(targetID, UnresolvedPrefix)
}

// UnresolvedName extracts the bare name from a placeholder target id.
func UnresolvedName(targetID string) string {
	return strings.TrimPrefix(targetID, UnresolvedPrefix)
}

// Node is the graph's persistent view of an entity.
type Node struct {
	entity.Entity
	LastSeen time.Time
}

// ID returns the node's graph identity: file_path + "::" + scoped_name.
func (n *Node) ID() string { return n.Entity.ID() }

// Edge is a directed labeled arc between two node ids. TargetID may be a
// synthetic unresolved placeholder rather than a real node id.
type Edge struct {
	SourceID   string
	TargetID   string
	Kind       EdgeKind
	Confidence entity.Confidence
	SourceFile string
}

// Store is the directed labeled multigraph. It is not safe for concurrent
// use; the engine serializes all access on its own mutex (see internal/engine).
type Store struct {
	nodesByID   map[string]*Node
	nodesByName map[string]map[string]struct{} // bare name -> set of node ids

	outgoing map[string]map[EdgeKind][]*Edge // node id -> kind -> edges
	incoming map[string]map[EdgeKind][]*Edge // node id -> kind -> edges

	edgesBySourceFile map[string]map[*Edge]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		nodesByID:         make(map[string]*Node),
		nodesByName:       make(map[string]map[string]struct{}),
		outgoing:          make(map[string]map[EdgeKind][]*Edge),
		incoming:          make(map[string]map[EdgeKind][]*Edge),
		edgesBySourceFile: make(map[string]map[*Edge]struct{}),
	}
}

// NodeCount returns the number of nodes currently in the store.
func (s *Store) NodeCount() int { return len(s.nodesByID) }

// EdgeCount returns the number of edges currently in the store.
func (s *Store) EdgeCount() int {
	total := 0
	for _, byKind := range s.outgoing {
		for _, edges := range byKind {
			total += len(edges)
		}
	}
	return total
}

// Node returns the node with the given id, or nil.
func (s *Store) Node(id string) *Node { return s.nodesByID[id] }

// Nodes returns every node in the store. Order is unspecified; callers
// that need determinism should sort by (FilePath, Name).
func (s *Store) Nodes() []*Node {
	out := make([]*Node, 0, len(s.nodesByID))
	for _, n := range s.nodesByID {
		out = append(out, n)
	}
	return out
}

// NodesInFile returns all nodes whose FilePath equals file.
func (s *Store) NodesInFile(file string) []*Node {
	var out []*Node
	for _, n := range s.nodesByID {
		if n.FilePath == file {
			out = append(out, n)
		}
	}
	sortNodesDeterministic(out)
	return out
}

func sortNodesDeterministic(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].FilePath != nodes[j].FilePath {
			return nodes[i].FilePath < nodes[j].FilePath
		}
		return nodes[i].Name < nodes[j].Name
	})
}

// AddNode inserts or replaces a node. Replacing preserves nothing
// automatically; callers that want to carry over incoming edges across a
// rename must do so explicitly (see RenameNode).
func (s *Store) AddNode(n *Node) {
	id := n.ID()
	s.nodesByID[id] = n
	s.indexName(id, n.Name)
}

func (s *Store) indexName(id, name string) {
	bare := bareName(name)
	if s.nodesByName[bare] == nil {
		s.nodesByName[bare] = make(map[string]struct{})
	}
	s.nodesByName[bare][id] = struct{}{}
}

func (s *Store) unindexName(id, name string) {
	bare := bareName(name)
	if set, ok := s.nodesByName[bare]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(s.nodesByName, bare)
		}
	}
}

func bareName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// RemoveNode deletes a node and every edge touching it (in either
// direction), returning the edges that pointed into it so the caller
// (typically the bridge) can promote them to unresolved placeholders.
func (s *Store) RemoveNode(id string) []*Edge {
	n, ok := s.nodesByID[id]
	if !ok {
		return nil
	}
	incomingEdges := s.IncomingAll(id)

	// Drop outgoing edges entirely: their source no longer exists.
	for _, kindMap := range s.outgoing[id] {
		for _, e := range kindMap {
			s.unindexIncoming(e)
			s.unindexSourceFile(e)
		}
	}
	delete(s.outgoing, id)

	// Incoming edges are returned for promotion; remove them from the
	// outgoing side of their sources and from this node's incoming index.
	for _, e := range incomingEdges {
		s.removeFromOutgoing(e)
		s.unindexSourceFile(e)
	}
	delete(s.incoming, id)

	s.unindexName(id, n.Name)
	delete(s.nodesByID, id)

	return incomingEdges
}

// RenameNode moves a node from oldID to the id implied by newEntity,
// carrying over all of its incoming edges (their source is unchanged;
// their TargetID is rewritten here to the new id).
func (s *Store) RenameNode(oldID string, newEntity entity.Entity) *Node {
	old, ok := s.nodesByID[oldID]
	var lastSeen time.Time
	if ok {
		lastSeen = old.LastSeen
	} else {
		lastSeen = time.Time{}
	}

	incomingEdges := s.IncomingAll(oldID)
	outgoingByKind := s.outgoing[oldID]

	if ok {
		s.unindexName(oldID, old.Name)
		delete(s.nodesByID, oldID)
	}
	for _, kindMap := range outgoingByKind {
		for _, e := range kindMap {
			s.unindexSourceFile(e)
		}
	}
	delete(s.outgoing, oldID)
	delete(s.incoming, oldID)

	newNode := &Node{Entity: newEntity, LastSeen: lastSeen}
	newID := newNode.ID()
	s.nodesByID[newID] = newNode
	s.indexName(newID, newNode.Name)

	for _, e := range incomingEdges {
		e.TargetID = newID
		s.addIncoming(e)
	}

	return newNode
}

// AddEdge inserts e, enforcing at most one edge of a given kind between a
// given ordered pair: an existing edge with the same (source, target,
// kind) is replaced in place rather than duplicated.
func (s *Store) AddEdge(e *Edge) {
	if existing := s.findEdge(e.SourceID, e.TargetID, e.Kind); existing != nil {
		existing.Confidence = e.Confidence
		existing.SourceFile = e.SourceFile
		return
	}
	s.addOutgoing(e)
	s.addIncoming(e)
	s.indexSourceFile(e)
}

func (s *Store) findEdge(sourceID, targetID string, kind EdgeKind) *Edge {
	for _, e := range s.outgoing[sourceID][kind] {
		if e.TargetID == targetID {
			return e
		}
	}
	return nil
}

func (s *Store) addOutgoing(e *Edge) {
	if s.outgoing[e.SourceID] == nil {
		s.outgoing[e.SourceID] = make(map[EdgeKind][]*Edge)
	}
	s.outgoing[e.SourceID][e.Kind] = append(s.outgoing[e.SourceID][e.Kind], e)
}

func (s *Store) addIncoming(e *Edge) {
	if s.incoming[e.TargetID] == nil {
		s.incoming[e.TargetID] = make(map[EdgeKind][]*Edge)
	}
	s.incoming[e.TargetID][e.Kind] = append(s.incoming[e.TargetID][e.Kind], e)
}

func (s *Store) indexSourceFile(e *Edge) {
	if s.edgesBySourceFile[e.SourceFile] == nil {
		s.edgesBySourceFile[e.SourceFile] = make(map[*Edge]struct{})
	}
	s.edgesBySourceFile[e.SourceFile][e] = struct{}{}
}

func (s *Store) unindexSourceFile(e *Edge) {
	if set, ok := s.edgesBySourceFile[e.SourceFile]; ok {
		delete(set, e)
		if len(set) == 0 {
			delete(s.edgesBySourceFile, e.SourceFile)
		}
	}
}

func (s *Store) unindexIncoming(e *Edge) {
	kindMap := s.incoming[e.TargetID]
	if kindMap == nil {
		return
	}
	kindMap[e.Kind] = removeEdge(kindMap[e.Kind], e)
}

func (s *Store) removeFromOutgoing(e *Edge) {
	kindMap := s.outgoing[e.SourceID]
	if kindMap == nil {
		return
	}
	kindMap[e.Kind] = removeEdge(kindMap[e.Kind], e)
}

func removeEdge(edges []*Edge, target *Edge) []*Edge {
	out := edges[:0]
	for _, e := range edges {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

// RemoveEdgesBySourceFile bulk-deletes every edge sourced from file and
// returns them, for re-resolution on the next extraction pass.
func (s *Store) RemoveEdgesBySourceFile(file string) []*Edge {
	set := s.edgesBySourceFile[file]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Edge, 0, len(set))
	for e := range set {
		s.removeFromOutgoing(e)
		s.unindexIncoming(e)
		out = append(out, e)
	}
	delete(s.edgesBySourceFile, file)
	return out
}

// RetargetEdge moves e from its current (placeholder) target to newTargetID
// and raises its confidence, used by the edge resolver's pass-two
// promotion. The edge's identity (same *Edge pointer) is
// preserved; only the incoming index changes, since outgoing/
// edgesBySourceFile are keyed by source, not target.
func (s *Store) RetargetEdge(e *Edge, newTargetID string, confidence entity.Confidence) {
	if e.TargetID == newTargetID {
		if confidence != "" {
			e.Confidence = confidence
		}
		return
	}
	s.unindexIncoming(e)
	e.TargetID = newTargetID
	if confidence != "" {
		e.Confidence = confidence
	}
	s.addIncoming(e)
}

// EdgesFromFile returns the edges currently sourced from file.
func (s *Store) EdgesFromFile(file string) []*Edge {
	set := s.edgesBySourceFile[file]
	out := make([]*Edge, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	return out
}

// Outgoing returns outgoing edges of the given kind from nodeID.
func (s *Store) Outgoing(nodeID string, kind EdgeKind) []*Edge {
	return s.outgoing[nodeID][kind]
}

// OutgoingAll returns every outgoing edge from nodeID, across all kinds.
func (s *Store) OutgoingAll(nodeID string) []*Edge {
	var out []*Edge
	for _, kind := range AllEdgeKinds {
		out = append(out, s.outgoing[nodeID][kind]...)
	}
	return out
}

// Incoming returns incoming edges of the given kind into nodeID.
func (s *Store) Incoming(nodeID string, kind EdgeKind) []*Edge {
	return s.incoming[nodeID][kind]
}

// IncomingAll returns every incoming edge into nodeID, across all kinds.
func (s *Store) IncomingAll(nodeID string) []*Edge {
	var out []*Edge
	for _, kind := range AllEdgeKinds {
		out = append(out, s.incoming[nodeID][kind]...)
	}
	return out
}

// NodeIDsByBareName returns the node ids whose bare (unscoped) name
// matches name exactly.
func (s *Store) NodeIDsByBareName(name string) []string {
	set := s.nodesByName[name]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FileDeps returns the distinct files targeted by outgoing edges from any
// node defined in file.
func (s *Store) FileDeps(file string) []string {
	seen := make(map[string]struct{})
	for _, n := range s.NodesInFile(file) {
		for _, e := range s.OutgoingAll(n.ID()) {
			if IsUnresolved(e.TargetID) {
				continue
			}
			if target := s.nodesByID[e.TargetID]; target != nil && target.FilePath != file {
				seen[target.FilePath] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

// ReverseFileDeps returns the distinct files whose nodes have outgoing
// edges landing on a node defined in file.
func (s *Store) ReverseFileDeps(file string) []string {
	seen := make(map[string]struct{})
	for _, n := range s.NodesInFile(file) {
		for _, e := range s.IncomingAll(n.ID()) {
			if src := s.nodesByID[e.SourceID]; src != nil && src.FilePath != file {
				seen[src.FilePath] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AllFiles returns the distinct set of files with at least one node.
func (s *Store) AllFiles() []string {
	seen := make(map[string]struct{})
	for _, n := range s.nodesByID {
		seen[n.FilePath] = struct{}{}
	}
	return sortedKeys(seen)
}
