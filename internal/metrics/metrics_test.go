package metrics

import (
	"math"
	"testing"
)

func TestInOutDegree(t *testing.T) {
	graph := map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {},
	}
	in, out := InOutDegree(graph)

	if in["c"] != 2 {
		t.Errorf("in-degree of c = %d, want 2", in["c"])
	}
	if in["a"] != 0 {
		t.Errorf("in-degree of a = %d, want 0", in["a"])
	}
	if out["a"] != 2 {
		t.Errorf("out-degree of a = %d, want 2", out["a"])
	}
	if out["c"] != 0 {
		t.Errorf("out-degree of c = %d, want 0", out["c"])
	}
}

func TestInOutDegreeTargetOnlyNode(t *testing.T) {
	graph := map[string][]string{
		"a": {"ghost"},
	}
	in, out := InOutDegree(graph)
	if in["ghost"] != 1 {
		t.Errorf("in-degree of ghost = %d, want 1", in["ghost"])
	}
	if out["ghost"] != 0 {
		t.Errorf("out-degree of ghost = %d, want 0", out["ghost"])
	}
}

func TestTopK(t *testing.T) {
	scores := map[string]float64{"a": 1, "b": 3, "c": 2, "d": 3}

	top := TopK(scores, 2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	// b and d tie at 3; id order breaks the tie.
	if top[0].ID != "b" || top[1].ID != "d" {
		t.Errorf("top = [%s %s], want [b d]", top[0].ID, top[1].ID)
	}
}

func TestTopKZeroMeansAll(t *testing.T) {
	scores := map[string]float64{"a": 1, "b": 2}
	if got := TopK(scores, 0); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestComputeStats(t *testing.T) {
	graph := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}
	stats := ComputeStats(graph)

	if stats.NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", stats.NodeCount)
	}
	if stats.EdgeCount != 3 {
		t.Errorf("EdgeCount = %d, want 3", stats.EdgeCount)
	}
	if stats.MaxInDegree != 1 || stats.MaxOutDegree != 1 {
		t.Errorf("degrees = %d/%d, want 1/1", stats.MaxInDegree, stats.MaxOutDegree)
	}
	if want := 0.5; math.Abs(stats.Density-want) > 1e-9 {
		t.Errorf("Density = %f, want %f", stats.Density, want)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	if stats := ComputeStats(map[string][]string{}); stats.NodeCount != 0 {
		t.Errorf("NodeCount = %d, want 0", stats.NodeCount)
	}
}

func TestPageRankFavorsSharedDependency(t *testing.T) {
	// a, b and c all depend on util; util should out-rank them all.
	graph := map[string][]string{
		"a":    {"util"},
		"b":    {"util"},
		"c":    {"util"},
		"util": {},
	}
	rank := PageRank(graph, DefaultPageRankConfig())

	for _, id := range []string{"a", "b", "c"} {
		if rank["util"] <= rank[id] {
			t.Errorf("rank[util]=%f not greater than rank[%s]=%f", rank["util"], id, rank[id])
		}
	}
}

func TestPageRankSumsToOne(t *testing.T) {
	graph := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {},
	}
	rank := PageRank(graph, DefaultPageRankConfig())

	sum := 0.0
	for _, r := range rank {
		sum += r
	}
	if math.Abs(sum-1.0) > 0.01 {
		t.Errorf("ranks sum to %f, want ~1.0", sum)
	}
}

func TestPageRankEmptyGraph(t *testing.T) {
	if rank := PageRank(map[string][]string{}, DefaultPageRankConfig()); len(rank) != 0 {
		t.Errorf("len = %d, want 0", len(rank))
	}
}

func TestBetweennessChain(t *testing.T) {
	// In a -> b -> c, only b lies on a shortest path between others.
	graph := map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {},
	}
	bc := Betweenness(graph)

	if bc["b"] <= bc["a"] || bc["b"] <= bc["c"] {
		t.Errorf("betweenness of chain middle = %f, endpoints %f/%f", bc["b"], bc["a"], bc["c"])
	}
	if bc["a"] != 0 || bc["c"] != 0 {
		t.Errorf("endpoints should score 0, got a=%f c=%f", bc["a"], bc["c"])
	}
}

func TestBetweennessTinyGraphAllZero(t *testing.T) {
	graph := map[string][]string{"a": {"b"}, "b": {}}
	for id, score := range Betweenness(graph) {
		if score != 0 {
			t.Errorf("betweenness[%s] = %f, want 0 for 2-node graph", id, score)
		}
	}
}
