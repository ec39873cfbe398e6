package query

import (
	"sort"
	"strings"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
	"github.com/arcbyte/codegraph/internal/metrics"
)

// DefaultTopK is how many nodes each summary ranking reports.
const DefaultTopK = 10

// RankedNode is a node id with a ranking score.
type RankedNode struct {
	ID    string  `json:"id" yaml:"id"`
	Score float64 `json:"score" yaml:"score"`
}

// SummaryResult is the whole-graph overview.
type SummaryResult struct {
	Status         Status        `json:"status" yaml:"status"`
	NodeCount      int           `json:"node_count" yaml:"node_count"`
	EdgeCount      int           `json:"edge_count" yaml:"edge_count"`
	FileCount      int           `json:"file_count" yaml:"file_count"`
	TopInDegree    []RankedNode  `json:"top_in_degree" yaml:"top_in_degree"`
	TopOutDegree   []RankedNode  `json:"top_out_degree" yaml:"top_out_degree"`
	TopPageRank    []RankedNode  `json:"top_pagerank" yaml:"top_pagerank"`
	TopBetweenness []RankedNode  `json:"top_betweenness" yaml:"top_betweenness"`
	EntryPoints    []NodeInfo    `json:"entry_points" yaml:"entry_points"`
	Cycles         [][]string    `json:"cycles" yaml:"cycles"`
	Stats          metrics.Stats `json:"graph_stats" yaml:"graph_stats"`
}

// Summary computes counts, top-K rankings by in/out degree, PageRank
// and betweenness, entry-point candidates, and detected cycles.
func (q *Engine) Summary(topK int) SummaryResult {
	if topK <= 0 {
		topK = DefaultTopK
	}

	adj := BuildAdjacency(q.store)
	in, out := metrics.InOutDegree(adj)

	res := SummaryResult{
		Status:         StatusOK,
		NodeCount:      q.store.NodeCount(),
		EdgeCount:      q.store.EdgeCount(),
		FileCount:      len(q.store.AllFiles()),
		TopInDegree:    ranked(metrics.TopK(metrics.DegreeScores(in), topK)),
		TopOutDegree:   ranked(metrics.TopK(metrics.DegreeScores(out), topK)),
		TopPageRank:    ranked(metrics.TopK(metrics.PageRank(adj, metrics.DefaultPageRankConfig()), topK)),
		TopBetweenness: ranked(metrics.TopK(metrics.Betweenness(adj), topK)),
		EntryPoints:    q.entryPointCandidates(),
		Cycles:         q.store.FileLevelSCCs(),
		Stats:          metrics.ComputeStats(adj),
	}
	if res.Cycles == nil {
		res.Cycles = [][]string{}
	}
	return res
}

func ranked(scores []metrics.NodeScore) []RankedNode {
	out := make([]RankedNode, 0, len(scores))
	for _, s := range scores {
		out = append(out, RankedNode{ID: s.ID, Score: s.Score})
	}
	return out
}

// entryPointCandidates are functions whose bare name matches an
// entry-point pattern, plus anything defined in a __main__-style file.
func (q *Engine) entryPointCandidates() []NodeInfo {
	var out []NodeInfo
	for _, n := range q.store.Nodes() {
		if n.Type != entity.KindFunction {
			continue
		}
		if q.isEntryPoint(bareName(n.Name)) || isMainFile(n.FilePath) {
			out = append(out, nodeInfo(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func isMainFile(file string) bool {
	base := file
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	return base == "__main__.py" || base == "main.py"
}

// BuildAdjacency flattens the store's resolved edges into the plain
// adjacency map the metrics package ranks over. Unresolved placeholder
// targets are skipped; multiple edges between a pair collapse per kind
// already, so the adjacency may still carry parallel entries for
// distinct kinds, which degree-based rankings intentionally count.
func BuildAdjacency(store *graphstore.Store) map[string][]string {
	adj := make(map[string][]string)
	for _, n := range store.Nodes() {
		id := n.ID()
		if _, ok := adj[id]; !ok {
			adj[id] = []string{}
		}
		for _, e := range store.OutgoingAll(id) {
			if graphstore.IsUnresolved(e.TargetID) {
				continue
			}
			adj[id] = append(adj[id], e.TargetID)
		}
	}
	return adj
}

// StatsResult is the per-kind and per-confidence edge breakdown.
type StatsResult struct {
	Status            Status         `json:"status" yaml:"status"`
	Nodes             int            `json:"nodes" yaml:"nodes"`
	Edges             int            `json:"edges" yaml:"edges"`
	Files             int            `json:"files" yaml:"files"`
	NodesByType       map[string]int `json:"nodes_by_type" yaml:"nodes_by_type"`
	EdgesByKind       map[string]int `json:"edges_by_kind" yaml:"edges_by_kind"`
	EdgesByConfidence map[string]int `json:"edges_by_confidence" yaml:"edges_by_confidence"`
	Unresolved        int            `json:"unresolved" yaml:"unresolved"`
}

// Stats counts nodes, edges and files, broken down by type, kind and
// confidence.
func (q *Engine) Stats() StatsResult {
	res := StatsResult{
		Status:            StatusOK,
		Nodes:             q.store.NodeCount(),
		Edges:             q.store.EdgeCount(),
		Files:             len(q.store.AllFiles()),
		NodesByType:       make(map[string]int),
		EdgesByKind:       make(map[string]int),
		EdgesByConfidence: make(map[string]int),
	}
	for _, n := range q.store.Nodes() {
		res.NodesByType[string(n.Type)]++
		for _, e := range q.store.OutgoingAll(n.ID()) {
			res.EdgesByKind[string(e.Kind)]++
			res.EdgesByConfidence[string(e.Confidence)]++
			if graphstore.IsUnresolved(e.TargetID) {
				res.Unresolved++
			}
		}
	}
	return res
}
