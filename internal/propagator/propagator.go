// Package propagator implements bounded cascade re-resolution: when a
// file's exported symbols change,
// dependent files may need their outgoing edges re-resolved even though
// their own entities are untouched.
package propagator

import (
	"sort"

	"github.com/arcbyte/codegraph/internal/entity"
	"github.com/arcbyte/codegraph/internal/graphstore"
	"github.com/arcbyte/codegraph/internal/resolver"
)

// Propagator holds the bounded priority queue of files to re-resolve.
type Propagator struct {
	store    *graphstore.Store
	resolver *resolver.Resolver
	fanout   int
	depth    int
}

// New returns a Propagator bounded by fanout (max files per cascade) and
// depth (max levels of dependents), per the Engine.PropagatorFanout /
// Engine.PropagatorDepth config.
func New(store *graphstore.Store, res *resolver.Resolver, fanout, depth int) *Propagator {
	return &Propagator{store: store, resolver: res, fanout: fanout, depth: depth}
}

type workItem struct {
	file  string
	depth int
}

// Result reports what one Propagate call did.
type Result struct {
	// ReExtracted lists files whose outgoing edges were recomputed, in
	// the order they were processed.
	ReExtracted []string
	// Dropped counts files that would have been enqueued past the
	// fanout budget; their edges keep their current confidence until
	// the file's next natural edit.
	Dropped int
}

// Propagate re-resolves outgoing edges for files reachable from seeds.
// Re-extraction is edge-only: seeds are not re-parsed,
// since their entities have not changed; snapshots supplies each file's
// last-extracted entity list so the resolver can re-run pass one against
// the current state of the graph. Each seed's own reverse-file-deps are
// cascaded one level further, bounded by p.depth, until the total number
// of re-extracted files reaches p.fanout.
func (p *Propagator) Propagate(seeds []string, snapshots map[string][]entity.Entity) Result {
	var res Result
	if len(seeds) == 0 || p.fanout <= 0 {
		return res
	}

	sortedSeeds := append([]string(nil), seeds...)
	sort.Strings(sortedSeeds)

	queued := make(map[string]bool, len(sortedSeeds))
	var queue []workItem
	for _, f := range sortedSeeds {
		if queued[f] {
			continue
		}
		queued[f] = true
		queue = append(queue, workItem{file: f, depth: 1})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if len(res.ReExtracted) >= p.fanout {
			res.Dropped++
			continue
		}

		entities, ok := snapshots[item.file]
		if !ok {
			continue
		}

		p.store.RemoveEdgesBySourceFile(item.file)
		p.resolver.ResolveFile(item.file, entities)
		res.ReExtracted = append(res.ReExtracted, item.file)

		if item.depth >= p.depth {
			continue
		}

		next := append([]string(nil), p.store.ReverseFileDeps(item.file)...)
		sort.Strings(next)
		for _, nf := range next {
			if queued[nf] {
				continue
			}
			queued[nf] = true
			queue = append(queue, workItem{file: nf, depth: item.depth + 1})
		}
		sort.SliceStable(queue, func(i, j int) bool {
			if queue[i].depth != queue[j].depth {
				return queue[i].depth < queue[j].depth
			}
			return queue[i].file < queue[j].file
		})
	}

	return res
}
