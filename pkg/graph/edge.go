package graph

import "fmt"

// AddEdge inserts a typed edge after validating it. Rejected, in this order:
// unknown endpoints, self-loops (regardless of kind), exact duplicate
// (from, to, kind) tuples, and — for DependsOn edges only — cycles. Advisory
// kinds never participate in cycle detection; a mutually contradictory pair of
// mustRunAfter or shouldRunAfter edges is accepted and simply ignored by the
// scheduler.
func (p *Pipeline) AddEdge(from, to string, kind RelationKind) error {
	if _, ok := p.byID[from]; !ok {
		return fmt.Errorf("edge source %q not found", from)
	}
	if _, ok := p.byID[to]; !ok {
		return fmt.Errorf("edge target %q not found", to)
	}
	if from == to {
		return fmt.Errorf("self-loop rejected: %s", p.nodeName(from))
	}
	for _, e := range p.edges {
		if e.From == from && e.To == to && e.Kind == kind {
			return fmt.Errorf("duplicate %s edge %s -> %s", kind, p.nodeName(from), p.nodeName(to))
		}
	}
	if kind == DependsOn && p.wouldCycle(from, to) {
		return fmt.Errorf("edge %s -> %s would create a dependency cycle", p.nodeName(from), p.nodeName(to))
	}
	p.edges = append(p.edges, Edge{From: from, To: to, Kind: kind})
	return nil
}

// RemoveEdge deletes the exact (from, to, kind) edge.
func (p *Pipeline) RemoveEdge(from, to string, kind RelationKind) error {
	for i, e := range p.edges {
		if e.From == from && e.To == to && e.Kind == kind {
			p.edges = append(p.edges[:i], p.edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("edge %s -> %s (%s) not found", p.nodeName(from), p.nodeName(to), kind)
}

// wouldCycle reports whether adding a DependsOn edge from -> to would close a
// cycle, i.e. whether a hard-dependency path already leads from `to` back to
// `from`. Only DependsOn edges among enabled nodes are followed.
func (p *Pipeline) wouldCycle(from, to string) bool {
	inPath := make(map[string]bool)
	var visit func(id string) bool
	visit = func(id string) bool {
		if id == from {
			return true
		}
		if inPath[id] {
			return false
		}
		inPath[id] = true
		for _, e := range p.edges {
			if e.Kind != DependsOn || e.From != id {
				continue
			}
			if !p.enabled(e.From) || !p.enabled(e.To) {
				continue
			}
			if visit(e.To) {
				return true
			}
		}
		return false
	}
	return visit(to)
}

func (p *Pipeline) enabled(id string) bool {
	n, ok := p.byID[id]
	return ok && n.Enabled
}

func (p *Pipeline) nodeName(id string) string {
	if n, ok := p.byID[id]; ok {
		return n.Name
	}
	return id
}

// EdgesInto returns the edges of the given kind arriving at node id, in
// insertion order.
func (p *Pipeline) EdgesInto(id string, kind RelationKind) []Edge {
	var out []Edge
	for _, e := range p.edges {
		if e.To == id && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// EdgesFrom returns the edges of the given kind leaving node id, in
// insertion order.
func (p *Pipeline) EdgesFrom(id string, kind RelationKind) []Edge {
	var out []Edge
	for _, e := range p.edges {
		if e.From == id && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
