package metrics

// Betweenness computes betweenness centrality for every node in graph
// using Brandes' algorithm: one BFS per source, then a reverse-order
// dependency accumulation. High-betweenness nodes sit on many shortest
// paths and tend to be the chokepoints of a codebase. Scores are
// normalized to [0,1] by the (n-1)(n-2) directed-pair count.
func Betweenness(graph map[string][]string) map[string]float64 {
	nodes := make(map[string]struct{}, len(graph))
	for node, targets := range graph {
		nodes[node] = struct{}{}
		for _, t := range targets {
			nodes[t] = struct{}{}
		}
	}

	bc := make(map[string]float64, len(nodes))
	for node := range nodes {
		bc[node] = 0
	}
	n := len(nodes)
	if n < 3 {
		return bc
	}

	for source := range nodes {
		// BFS from source, tracking shortest-path counts and predecessors.
		var stack []string
		pred := make(map[string][]string)
		sigma := map[string]float64{source: 1}
		dist := map[string]int{source: 0}

		queue := []string{source}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range graph[v] {
				if _, seen := dist[w]; !seen {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}

		// Accumulate dependencies in reverse BFS order.
		delta := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != source {
				bc[w] += delta[w]
			}
		}
	}

	norm := float64((n - 1) * (n - 2))
	for node := range bc {
		bc[node] /= norm
	}
	return bc
}
