package graph

import (
	"container/heap"
	"fmt"
)

// ExecutionOrder computes a topological order over the enabled nodes,
// returning node IDs. Only DependsOn edges constrain the order; mustRunAfter
// and shouldRunAfter are hints for the generated build script, and FinalizedBy
// carries no ordering of its own. Advisory edges are exempt from cycle
// checking, so letting them feed the schedule would let a contradictory pair
// strand nodes past their hard dependencies.
//
// With no targets, every enabled node is ordered. With targets, the order
// covers the minimal closure: the targets plus everything reachable from them
// by walking DependsOn edges backwards.
//
// Kahn's algorithm; ties among zero-in-degree candidates break by node
// insertion order. Nodes left unresolved by a cycle that slipped past edge
// validation are appended at the end in insertion order.
func (p *Pipeline) ExecutionOrder(targets ...string) ([]string, error) {
	index := make(map[string]int, len(p.nodes)) // id → insertion index
	var members []string                        // enabled node IDs, insertion order
	for _, n := range p.nodes {
		if n.Enabled {
			index[n.ID] = len(members)
			members = append(members, n.ID)
		}
	}

	include := make(map[string]bool, len(members))
	if len(targets) == 0 {
		for _, id := range members {
			include[id] = true
		}
	} else {
		// Back-walk the transitive DependsOn closure from the targets.
		var stack []string
		for _, t := range targets {
			n, ok := p.byID[t]
			if !ok {
				return nil, fmt.Errorf("target %q not found", t)
			}
			if !n.Enabled {
				return nil, fmt.Errorf("target %q is disabled", n.Name)
			}
			stack = append(stack, t)
		}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if include[id] {
				continue
			}
			include[id] = true
			for _, e := range p.edges {
				if e.Kind == DependsOn && e.To == id && p.enabled(e.From) {
					stack = append(stack, e.From)
				}
			}
		}
	}

	indeg := make(map[string]int, len(include))
	for id := range include {
		indeg[id] = 0
	}
	for _, e := range p.edges {
		if e.Kind == DependsOn && include[e.From] && include[e.To] {
			indeg[e.To]++
		}
	}

	ready := &indexHeap{index: index}
	heap.Init(ready)
	for _, id := range members {
		if include[id] && indeg[id] == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]string, 0, len(indeg))
	done := make(map[string]bool, len(indeg))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(string)
		order = append(order, id)
		done[id] = true
		for _, e := range p.edges {
			if e.Kind != DependsOn || e.From != id || !include[e.To] {
				continue
			}
			indeg[e.To]--
			if indeg[e.To] == 0 {
				heap.Push(ready, e.To)
			}
		}
	}

	// Defensive fallback for nodes stranded by an undetected cycle.
	for _, id := range members {
		if include[id] && !done[id] {
			order = append(order, id)
		}
	}
	return order, nil
}

// indexHeap is a min-heap of node IDs keyed by insertion index.
type indexHeap struct {
	ids   []string
	index map[string]int
}

func (h *indexHeap) Len() int           { return len(h.ids) }
func (h *indexHeap) Less(i, j int) bool { return h.index[h.ids[i]] < h.index[h.ids[j]] }
func (h *indexHeap) Swap(i, j int)      { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }
func (h *indexHeap) Push(x any)         { h.ids = append(h.ids, x.(string)) }
func (h *indexHeap) Pop() any {
	n := len(h.ids)
	x := h.ids[n-1]
	h.ids = h.ids[:n-1]
	return x
}
