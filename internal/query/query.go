// Package query implements the read-only query surface over the graph
// store: callers, callees, file dependencies, impact, shortest path,
// dead code, cycles, search, exports and summaries. Queries never mutate
// the graph; name-resolution failures are reported through a status flag
// on the result instead of an error.
package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
)

// Status flags whether a query resolved its subject.
type Status string

const (
	StatusOK       Status = "ok"
	StatusNotFound Status = "not_found"
)

// ImpactDepth bounds the reverse-dependency BFS in Impact.
const ImpactDepth = 5

// Accelerant is an optional full-text index consulted by Search for
// plain multi-term queries before falling back to the regex scan.
type Accelerant interface {
	// Search returns matching node ids ranked by relevance.
	Search(query string, limit int) ([]string, error)
}

// Engine answers structural queries against a store. The exports and
// explicitExports maps are shared with the bridge, which keeps them
// current as files change; explicitExports flags the files whose export
// set came from an explicit marker (only those shield symbols from
// dead-code reporting; a fallback all-top-level set would otherwise
// exempt everything).
type Engine struct {
	store           *graphstore.Store
	exports         map[string]map[string]bool
	explicitExports map[string]bool
	entryPatterns   []*regexp.Regexp
	accel           Accelerant
}

// New builds a query engine. entryPatterns are the configured regexes
// that exempt entry points from dead-code reporting; patterns that fail
// to compile are dropped.
func New(store *graphstore.Store, exports map[string]map[string]bool, explicitExports map[string]bool, entryPatterns []string) *Engine {
	q := &Engine{store: store, exports: exports, explicitExports: explicitExports}
	for _, p := range entryPatterns {
		if re, err := regexp.Compile(p); err == nil {
			q.entryPatterns = append(q.entryPatterns, re)
		}
	}
	return q
}

// SetAccelerant installs a full-text index for Search to try first.
func (q *Engine) SetAccelerant(a Accelerant) { q.accel = a }

// NodeInfo is the query-result view of a node.
type NodeInfo struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	File      string `json:"file" yaml:"file"`
	LineStart int    `json:"line_start" yaml:"line_start"`
	LineEnd   int    `json:"line_end" yaml:"line_end"`
}

func nodeInfo(n *graphstore.Node) NodeInfo {
	return NodeInfo{
		ID:        n.ID(),
		Name:      n.Name,
		Type:      string(n.Type),
		File:      n.FilePath,
		LineStart: n.LineStart,
		LineEnd:   n.LineEnd,
	}
}

// EdgeHit is one edge touching a queried node. For unresolved targets
// Node carries the "unresolved:<name>" placeholder in its ID with the
// other fields blank.
type EdgeHit struct {
	Node       NodeInfo `json:"node" yaml:"node"`
	Kind       string   `json:"kind" yaml:"kind"`
	Confidence string   `json:"confidence" yaml:"confidence"`
}

// EdgesResult answers callers/callees.
type EdgesResult struct {
	Status  Status     `json:"status" yaml:"status"`
	Query   string     `json:"query" yaml:"query"`
	Matches []NodeInfo `json:"matches" yaml:"matches"`
	Hits    []EdgeHit  `json:"hits" yaml:"hits"`
}

// Callers returns, for every node the name resolves to, the incoming
// edges of every kind with their source node identity and confidence.
func (q *Engine) Callers(name string) EdgesResult {
	return q.edgeQuery(name, true)
}

// Callees is the symmetric outgoing query.
func (q *Engine) Callees(name string) EdgesResult {
	return q.edgeQuery(name, false)
}

func (q *Engine) edgeQuery(name string, incoming bool) EdgesResult {
	res := EdgesResult{Status: StatusNotFound, Query: name, Matches: []NodeInfo{}, Hits: []EdgeHit{}}
	nodes := q.store.Lookup(name)
	if len(nodes) == 0 {
		return res
	}
	res.Status = StatusOK

	for _, n := range nodes {
		res.Matches = append(res.Matches, nodeInfo(n))
		var edges []*graphstore.Edge
		if incoming {
			edges = q.store.IncomingAll(n.ID())
		} else {
			edges = q.store.OutgoingAll(n.ID())
		}
		for _, e := range edges {
			otherID := e.SourceID
			if !incoming {
				otherID = e.TargetID
			}
			hit := EdgeHit{Kind: string(e.Kind), Confidence: string(e.Confidence)}
			if other := q.store.Node(otherID); other != nil {
				hit.Node = nodeInfo(other)
			} else {
				hit.Node = NodeInfo{ID: otherID}
			}
			res.Hits = append(res.Hits, hit)
		}
	}
	sort.Slice(res.Hits, func(i, j int) bool {
		if res.Hits[i].Node.ID != res.Hits[j].Node.ID {
			return res.Hits[i].Node.ID < res.Hits[j].Node.ID
		}
		return res.Hits[i].Kind < res.Hits[j].Kind
	})
	return res
}

// FilesResult answers deps/rdeps/impact.
type FilesResult struct {
	Status Status   `json:"status" yaml:"status"`
	Query  string   `json:"query" yaml:"query"`
	Files  []string `json:"files" yaml:"files"`
}

// Deps returns the distinct files that file's nodes point into.
func (q *Engine) Deps(file string) FilesResult {
	return q.fileQuery(file, q.store.FileDeps(file))
}

// RDeps returns the distinct files whose nodes point into file.
func (q *Engine) RDeps(file string) FilesResult {
	return q.fileQuery(file, q.store.ReverseFileDeps(file))
}

func (q *Engine) fileQuery(file string, files []string) FilesResult {
	res := FilesResult{Status: StatusOK, Query: file, Files: files}
	if res.Files == nil {
		res.Files = []string{}
	}
	if len(q.store.NodesInFile(file)) == 0 {
		res.Status = StatusNotFound
	}
	return res
}

// Impact runs a BFS over file-level reverse dependencies up to
// ImpactDepth, returning the files that could be affected by a change
// to file. With a non-empty name, only files that actually reference a
// node of that bare name are kept.
func (q *Engine) Impact(file, name string) FilesResult {
	res := FilesResult{Status: StatusOK, Query: file, Files: []string{}}
	if len(q.store.NodesInFile(file)) == 0 {
		res.Status = StatusNotFound
		return res
	}

	reverse := reverseFileGraph(q.store.FileGraph())
	visited := map[string]bool{file: true}
	type item struct {
		file  string
		depth int
	}
	queue := []item{{file, 0}}
	var reached []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= ImpactDepth {
			continue
		}
		deps := make([]string, 0, len(reverse[cur.file]))
		for f := range reverse[cur.file] {
			deps = append(deps, f)
		}
		sort.Strings(deps)
		for _, f := range deps {
			if visited[f] {
				continue
			}
			visited[f] = true
			reached = append(reached, f)
			queue = append(queue, item{f, cur.depth + 1})
		}
	}

	if name != "" {
		reached = q.filterFilesReferencing(reached, name)
	}
	sort.Strings(reached)
	res.Files = reached
	if res.Files == nil {
		res.Files = []string{}
	}
	return res
}

func reverseFileGraph(g map[string]map[string]struct{}) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(g))
	for from, targets := range g {
		for to := range targets {
			if out[to] == nil {
				out[to] = make(map[string]struct{})
			}
			out[to][from] = struct{}{}
		}
	}
	return out
}

// filterFilesReferencing keeps the files with at least one edge landing
// on a node whose bare name equals name.
func (q *Engine) filterFilesReferencing(files []string, name string) []string {
	bare := bareName(name)
	var out []string
	for _, f := range files {
		if q.fileReferences(f, bare) {
			out = append(out, f)
		}
	}
	return out
}

func (q *Engine) fileReferences(file, bare string) bool {
	for _, e := range q.store.EdgesFromFile(file) {
		if graphstore.IsUnresolved(e.TargetID) {
			if graphstore.UnresolvedName(e.TargetID) == bare {
				return true
			}
			continue
		}
		if target := q.store.Node(e.TargetID); target != nil && bareName(target.Name) == bare {
			return true
		}
	}
	return false
}

// PathResult answers path queries.
type PathResult struct {
	Status Status     `json:"status" yaml:"status"`
	Path   []NodeInfo `json:"path" yaml:"path"`
}

// Path returns one shortest edge path from src to dst in the node
// graph. When either name resolves to several nodes, candidates are
// tried in lexicographic id order and the first path found wins.
func (q *Engine) Path(src, dst string) PathResult {
	res := PathResult{Status: StatusNotFound, Path: []NodeInfo{}}
	srcNodes := q.store.Lookup(src)
	dstNodes := q.store.Lookup(dst)
	if len(srcNodes) == 0 || len(dstNodes) == 0 {
		return res
	}

	for _, s := range srcNodes {
		for _, d := range dstNodes {
			ids := q.store.ShortestPath(s.ID(), d.ID())
			if ids == nil {
				continue
			}
			res.Status = StatusOK
			for _, id := range ids {
				if n := q.store.Node(id); n != nil {
					res.Path = append(res.Path, nodeInfo(n))
				}
			}
			return res
		}
	}
	return res
}

// DeadResult answers dead-code queries.
type DeadResult struct {
	Status Status     `json:"status" yaml:"status"`
	Nodes  []NodeInfo `json:"nodes" yaml:"nodes"`
}

// Dead returns function and class nodes with no incoming edges of any
// kind, excluding explicitly exported symbols and names matching the configured
// entry-point patterns.
func (q *Engine) Dead() DeadResult {
	res := DeadResult{Status: StatusOK, Nodes: []NodeInfo{}}
	for _, n := range q.store.Nodes() {
		if n.Type != entity.KindFunction && n.Type != entity.KindClass {
			continue
		}
		if len(q.store.IncomingAll(n.ID())) > 0 {
			continue
		}
		if q.isExported(n.FilePath, n.Name) || q.isEntryPoint(bareName(n.Name)) {
			continue
		}
		res.Nodes = append(res.Nodes, nodeInfo(n))
	}
	sort.Slice(res.Nodes, func(i, j int) bool { return res.Nodes[i].ID < res.Nodes[j].ID })
	return res
}

func (q *Engine) isExported(file, name string) bool {
	if !q.explicitExports[file] {
		return false
	}
	set := q.exports[file]
	return set != nil && (set[name] || set[bareName(name)])
}

func (q *Engine) isEntryPoint(bare string) bool {
	for _, re := range q.entryPatterns {
		if re.MatchString(bare) {
			return true
		}
	}
	return false
}

// CyclesResult answers cycle queries.
type CyclesResult struct {
	Status Status     `json:"status" yaml:"status"`
	Cycles [][]string `json:"cycles" yaml:"cycles"`
}

// Cycles reports file-level strongly connected components with more
// than one file, plus self-loops.
func (q *Engine) Cycles() CyclesResult {
	res := CyclesResult{Status: StatusOK, Cycles: q.store.FileLevelSCCs()}
	if res.Cycles == nil {
		res.Cycles = [][]string{}
	}
	return res
}

// SearchResult answers search queries.
type SearchResult struct {
	Status Status     `json:"status" yaml:"status"`
	Nodes  []NodeInfo `json:"nodes" yaml:"nodes"`
}

// searchAccelLimit bounds how many ids the accelerant is asked for.
const searchAccelLimit = 50

var plainTermsRe = regexp.MustCompile(`^[\w\s]+$`)

// Search scans node names for a regex match, anchored at word
// boundaries when the pattern carries no anchors of its own. A plain
// multi-term query (letters and spaces only) is first offered to the
// full-text accelerant when one is installed; the regex scan remains
// the contract path and handles everything else.
func (q *Engine) Search(pattern string) SearchResult {
	res := SearchResult{Status: StatusOK, Nodes: []NodeInfo{}}

	if q.accel != nil && strings.Contains(strings.TrimSpace(pattern), " ") && plainTermsRe.MatchString(pattern) {
		if ids, err := q.accel.Search(pattern, searchAccelLimit); err == nil && len(ids) > 0 {
			for _, id := range ids {
				if n := q.store.Node(id); n != nil {
					res.Nodes = append(res.Nodes, nodeInfo(n))
				}
			}
			return res
		}
	}

	nodes, err := q.store.Search(pattern)
	if err != nil {
		res.Status = StatusNotFound
		return res
	}
	for _, n := range nodes {
		res.Nodes = append(res.Nodes, nodeInfo(n))
	}
	return res
}

// ExportsResult answers exports queries.
type ExportsResult struct {
	Status Status   `json:"status" yaml:"status"`
	File   string   `json:"file" yaml:"file"`
	Names  []string `json:"names" yaml:"names"`
}

// Exports returns the exported-symbol set the bridge recorded for file.
func (q *Engine) Exports(file string) ExportsResult {
	res := ExportsResult{Status: StatusNotFound, File: file, Names: []string{}}
	set, ok := q.exports[file]
	if !ok {
		return res
	}
	res.Status = StatusOK
	for name := range set {
		res.Names = append(res.Names, name)
	}
	sort.Strings(res.Names)
	return res
}

// FileResult answers per-file queries.
type FileResult struct {
	Status Status     `json:"status" yaml:"status"`
	File   string     `json:"file" yaml:"file"`
	Nodes  []NodeInfo `json:"nodes" yaml:"nodes"`
	Deps   []string   `json:"deps" yaml:"deps"`
	RDeps  []string   `json:"rdeps" yaml:"rdeps"`
}

// File describes every node in a file plus its file-level dependencies.
func (q *Engine) File(file string) FileResult {
	res := FileResult{Status: StatusNotFound, File: file, Nodes: []NodeInfo{}, Deps: []string{}, RDeps: []string{}}
	nodes := q.store.NodesInFile(file)
	if len(nodes) == 0 {
		return res
	}
	res.Status = StatusOK
	for _, n := range nodes {
		res.Nodes = append(res.Nodes, nodeInfo(n))
	}
	res.Deps = q.store.FileDeps(file)
	res.RDeps = q.store.ReverseFileDeps(file)
	return res
}

// EntityResult answers per-entity queries.
type EntityResult struct {
	Status   Status     `json:"status" yaml:"status"`
	Matches  []NodeInfo `json:"matches" yaml:"matches"`
	Incoming []EdgeHit  `json:"incoming" yaml:"incoming"`
	Outgoing []EdgeHit  `json:"outgoing" yaml:"outgoing"`
}

// Entity resolves name and reports the node(s) with their immediate
// edges in both directions.
func (q *Engine) Entity(name string) EntityResult {
	res := EntityResult{Status: StatusNotFound, Matches: []NodeInfo{}, Incoming: []EdgeHit{}, Outgoing: []EdgeHit{}}
	in := q.Callers(name)
	out := q.Callees(name)
	if in.Status != StatusOK {
		return res
	}
	res.Status = StatusOK
	res.Matches = in.Matches
	res.Incoming = in.Hits
	res.Outgoing = out.Hits
	return res
}

func bareName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
