package graph

import (
	"sort"

	"github.com/toyz/scaffold/internal/errors"
)

// edgeSet maps a node to the nodes that must come after it
type edgeSet map[NodeID]map[NodeID]bool

func (e edgeSet) add(from, to NodeID) {
	if from == to {
		return
	}
	if e[from] == nil {
		e[from] = make(map[NodeID]bool)
	}
	e[from][to] = true
}

// edges derives both orderings from the bindings. Wiring always runs the
// producer first. Building runs a read-only producer first and a mutable
// producer after every consumer contributing to it.
func (b *builder) edges() (wire, build edgeSet) {
	wire, build = make(edgeSet), make(edgeSet)
	for _, n := range b.graph.nodes {
		for _, slot := range sortedKeys(n.Bindings) {
			binding := n.Bindings[slot]
			if binding == nil {
				continue
			}
			producer := b.graph.byPath[binding.Producer]
			wire.add(producer, n.ID)
			if binding.Type.ReadOnly {
				build.add(producer, n.ID)
			} else {
				build.add(n.ID, producer)
			}
		}
	}
	return wire, build
}

// order topologically sorts all nodes, breaking ties by lowest ID so the
// schedule is stable for a given graph shape.
func (b *builder) order(phase string, edges edgeSet) ([]NodeID, error) {
	count := len(b.graph.nodes)
	indegree := make([]int, count)
	for _, succ := range edges {
		for to := range succ {
			indegree[to]++
		}
	}

	var ready []NodeID
	for id := 0; id < count; id++ {
		if indegree[id] == 0 {
			ready = append(ready, NodeID(id))
		}
	}

	order := make([]NodeID, 0, count)
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, to := range sortedIDs(edges[next]) {
			indegree[to]--
			if indegree[to] == 0 {
				i := sort.Search(len(ready), func(i int) bool { return ready[i] > to })
				ready = append(ready, 0)
				copy(ready[i+1:], ready[i:])
				ready[i] = to
			}
		}
	}

	if len(order) < count {
		return nil, errors.NewCyclicDependencyError(phase, b.cycle(edges, indegree))
	}
	return order, nil
}

// cycle extracts one cycle among the nodes Kahn's algorithm could not
// order. Each of them has a remaining predecessor, so walking predecessors
// from any of them must revisit a node.
func (b *builder) cycle(edges edgeSet, indegree []int) []string {
	preds := make(map[NodeID][]NodeID)
	for from, succ := range edges {
		if indegree[from] == 0 {
			continue
		}
		for to := range succ {
			if indegree[to] > 0 {
				preds[to] = append(preds[to], from)
			}
		}
	}

	start := NoNode
	for id, d := range indegree {
		if d > 0 {
			start = NodeID(id)
			break
		}
	}

	seen := make(map[NodeID]int)
	var walk []NodeID
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			walk = walk[at:]
			break
		}
		seen[cur] = len(walk)
		walk = append(walk, cur)
		p := preds[cur]
		sort.Slice(p, func(i, j int) bool { return p[i] < p[j] })
		cur = p[0]
	}

	// the walk follows predecessors, so reverse it into edge direction
	paths := make([]string, 0, len(walk)+1)
	for i := len(walk) - 1; i >= 0; i-- {
		paths = append(paths, b.graph.nodes[walk[i]].Path)
	}
	return append(paths, paths[0])
}

func sortedIDs(set map[NodeID]bool) []NodeID {
	ids := make([]NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
