// Package metrics computes centrality rankings over a node-level
// adjacency of the code graph: in/out degree, PageRank, and betweenness.
// The adjacency is a plain map[nodeID][]targetIDs so the package stays
// decoupled from the graph store; the query engine builds the map from
// resolved edges before calling in.
package metrics

import "sort"

// NodeScore pairs a node id with a computed score, for ranked output.
type NodeScore struct {
	ID    string
	Score float64
}

// TopK returns the k highest-scoring nodes from scores, ties broken by
// id so repeated calls over the same graph produce identical output.
func TopK(scores map[string]float64, k int) []NodeScore {
	ranked := make([]NodeScore, 0, len(scores))
	for id, s := range scores {
		ranked = append(ranked, NodeScore{ID: id, Score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// InOutDegree computes per-node in-degree and out-degree. Nodes that
// appear only as targets still get entries, so callers can rank every
// node the adjacency mentions.
func InOutDegree(graph map[string][]string) (in, out map[string]int) {
	in = make(map[string]int)
	out = make(map[string]int)

	for node, targets := range graph {
		if _, ok := in[node]; !ok {
			in[node] = 0
		}
		out[node] = len(targets)
		for _, t := range targets {
			in[t]++
			if _, ok := out[t]; !ok {
				out[t] = 0
			}
		}
	}
	return in, out
}

// DegreeScores converts an integer degree map to float scores for TopK.
func DegreeScores(degrees map[string]int) map[string]float64 {
	out := make(map[string]float64, len(degrees))
	for id, d := range degrees {
		out[id] = float64(d)
	}
	return out
}

// Stats summarizes the shape of an adjacency.
type Stats struct {
	NodeCount    int     `json:"node_count" yaml:"node_count"`
	EdgeCount    int     `json:"edge_count" yaml:"edge_count"`
	MaxInDegree  int     `json:"max_in_degree" yaml:"max_in_degree"`
	MaxOutDegree int     `json:"max_out_degree" yaml:"max_out_degree"`
	Density      float64 `json:"density" yaml:"density"`
}

// ComputeStats calculates summary statistics for an adjacency.
func ComputeStats(graph map[string][]string) Stats {
	in, out := InOutDegree(graph)
	n := len(in)
	if n == 0 {
		return Stats{}
	}

	edges := 0
	for _, targets := range graph {
		edges += len(targets)
	}

	maxIn, maxOut := 0, 0
	for node, d := range in {
		if d > maxIn {
			maxIn = d
		}
		if o := out[node]; o > maxOut {
			maxOut = o
		}
	}

	var density float64
	if n > 1 {
		density = float64(edges) / float64(n*(n-1))
	}

	return Stats{
		NodeCount:    n,
		EdgeCount:    edges,
		MaxInDegree:  maxIn,
		MaxOutDegree: maxOut,
		Density:      density,
	}
}
