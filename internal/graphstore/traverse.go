package graphstore

import "sort"

// neighbors returns the node ids reachable by a single outgoing (or, in
// reverse mode, incoming) edge from id, across all edge kinds, skipping
// unresolved placeholders.
func (s *Store) neighbors(id string, reverse bool) []string {
	var edges []*Edge
	if reverse {
		edges = s.IncomingAll(id)
	} else {
		edges = s.OutgoingAll(id)
	}
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		if reverse {
			out = append(out, e.SourceID)
		} else if !IsUnresolved(e.TargetID) {
			out = append(out, e.TargetID)
		}
	}
	return out
}

// BFS returns every node id reachable from start, in breadth-first order,
// following outgoing edges (reverse=false) or incoming edges (reverse=true).
func (s *Store) BFS(start string, reverse bool) []string {
	visited := map[string]struct{}{start: {}}
	queue := []string{start}
	var order []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)
		for _, n := range s.neighbors(cur, reverse) {
			if _, seen := visited[n]; !seen {
				visited[n] = struct{}{}
				queue = append(queue, n)
			}
		}
	}
	return order
}

// BFSWithDepth is BFS bounded to maxDepth hops from start; start itself is
// depth 0 and is excluded from the result.
func (s *Store) BFSWithDepth(start string, reverse bool, maxDepth int) []string {
	visited := map[string]struct{}{start: {}}
	type item struct {
		id    string
		depth int
	}
	queue := []item{{start, 0}}
	var order []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		for _, n := range s.neighbors(cur.id, reverse) {
			if _, seen := visited[n]; !seen {
				visited[n] = struct{}{}
				order = append(order, n)
				queue = append(queue, item{n, cur.depth + 1})
			}
		}
	}
	return order
}

// ShortestPath returns the shortest node-id path from start to end
// following outgoing edges, or nil if no path exists. Ties among
// equal-length paths are not possible to control beyond BFS discovery
// order, so callers that need a canonical pick should sort candidates
// by lexicographic node id before calling this for each candidate start.
func (s *Store) ShortestPath(start, end string) []string {
	if start == end {
		return []string{start}
	}
	visited := map[string]struct{}{start: {}}
	parent := map[string]string{}
	queue := []string{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range s.neighbors(cur, false) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			parent[n] = cur
			if n == end {
				path := []string{end}
				for node := end; node != start; {
					node = parent[node]
					path = append([]string{node}, path...)
				}
				return path
			}
			queue = append(queue, n)
		}
	}
	return nil
}

// FileGraph condenses the node graph to a file-level adjacency: an edge
// F1 -> F2 exists iff some node defined in F1 has an outgoing edge
// (of any kind, resolved) to a node defined in F2.
func (s *Store) FileGraph() map[string]map[string]struct{} {
	condensed := make(map[string]map[string]struct{})
	for _, file := range s.AllFiles() {
		condensed[file] = make(map[string]struct{})
	}
	for _, n := range s.nodesByID {
		for _, e := range s.OutgoingAll(n.ID()) {
			if IsUnresolved(e.TargetID) {
				continue
			}
			target := s.nodesByID[e.TargetID]
			if target == nil || target.FilePath == n.FilePath {
				continue
			}
			condensed[n.FilePath][target.FilePath] = struct{}{}
		}
	}
	return condensed
}

// FileLevelSCCs returns every strongly connected component of the
// condensed file graph that is worth reporting as a cycle: components
// with more than one file, plus any file with a self-loop. Iterative
// Tarjan keeps this safe on deep dependency chains.
func (s *Store) FileLevelSCCs() [][]string {
	graph := s.FileGraph()

	index := 0
	indices := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var sccs [][]string

	type frame struct {
		node     string
		children []string
		i        int
	}

	files := make([]string, 0, len(graph))
	for f := range graph {
		files = append(files, f)
	}
	sort.Strings(files)

	var strongConnect func(v string)
	strongConnect = func(v string) {
		var callStack []*frame
		push := func(node string) {
			children := make([]string, 0, len(graph[node]))
			for c := range graph[node] {
				children = append(children, c)
			}
			sort.Strings(children)
			indices[node] = index
			lowlink[node] = index
			index++
			stack = append(stack, node)
			onStack[node] = true
			callStack = append(callStack, &frame{node: node, children: children})
		}
		push(v)

		for len(callStack) > 0 {
			top := callStack[len(callStack)-1]
			if top.i < len(top.children) {
				w := top.children[top.i]
				top.i++
				if _, ok := indices[w]; !ok {
					push(w)
					continue
				} else if onStack[w] {
					if indices[w] < lowlink[top.node] {
						lowlink[top.node] = indices[w]
					}
				}
			} else {
				callStack = callStack[:len(callStack)-1]
				if len(callStack) > 0 {
					parent := callStack[len(callStack)-1]
					if lowlink[top.node] < lowlink[parent.node] {
						lowlink[parent.node] = lowlink[top.node]
					}
				}
				if lowlink[top.node] == indices[top.node] {
					var comp []string
					for {
						n := stack[len(stack)-1]
						stack = stack[:len(stack)-1]
						onStack[n] = false
						comp = append(comp, n)
						if n == top.node {
							break
						}
					}
					sort.Strings(comp)
					sccs = append(sccs, comp)
				}
			}
		}
	}

	for _, f := range files {
		if _, seen := indices[f]; !seen {
			strongConnect(f)
		}
	}

	var out [][]string
	for _, comp := range sccs {
		if len(comp) > 1 {
			out = append(out, comp)
			continue
		}
		f := comp[0]
		if _, selfLoop := graph[f][f]; selfLoop {
			out = append(out, comp)
		}
	}
	return out
}
