package graph

import (
	"fmt"
	"strings"

	gographviz "github.com/awalterschulze/gographviz"
)

// edgeStyles renders each relation kind distinctly in the exported graph.
var edgeStyles = map[RelationKind]map[string]string{
	DependsOn:      {"style": "solid"},
	MustRunAfter:   {"style": "dashed"},
	ShouldRunAfter: {"style": "dotted"},
	FinalizedBy:    {"style": "dashed", "color": "gray50", "label": dotQuote("finalizedBy")},
}

// WriteDOT renders the pipeline as a Graphviz digraph for visualization.
// Groups become clusters, disabled nodes are grayed out, and edge styling
// follows the relation kind. Output is deterministic for a given pipeline.
func WriteDOT(p *Pipeline) (string, error) {
	name := p.Name
	if name == "" {
		name = "pipeline"
	}

	g := gographviz.NewGraph()
	if err := g.SetName(dotQuote(name)); err != nil {
		return "", fmt.Errorf("dot graph name: %w", err)
	}
	if err := g.SetDir(true); err != nil {
		return "", fmt.Errorf("dot graph dir: %w", err)
	}

	// Cluster per group, in insertion order.
	parentFor := make(map[string]string, len(p.nodes))
	for _, grp := range p.groups {
		cluster := dotQuote("cluster_" + grp.Name)
		attrs := map[string]string{"label": dotQuote(grp.Name)}
		if grp.Color != "" {
			attrs["color"] = dotQuote(grp.Color)
		}
		if err := g.AddSubGraph(dotQuote(name), cluster, attrs); err != nil {
			return "", fmt.Errorf("dot group %q: %w", grp.Name, err)
		}
		for _, id := range grp.Members {
			parentFor[id] = cluster
		}
	}

	for _, n := range p.nodes {
		attrs := map[string]string{
			"label": dotQuote(fmt.Sprintf("%s (%s)", n.Name, n.Kind)),
			"shape": "box",
		}
		if !n.Enabled {
			attrs["style"] = dotQuote("filled,dashed")
			attrs["fillcolor"] = "gray90"
			attrs["fontcolor"] = "gray50"
		}
		parent := parentFor[n.ID]
		if parent == "" {
			parent = dotQuote(name)
		}
		if err := g.AddNode(parent, dotQuote(n.Name), attrs); err != nil {
			return "", fmt.Errorf("dot node %q: %w", n.Name, err)
		}
	}

	for _, e := range p.edges {
		attrs := make(map[string]string, 3)
		for k, v := range edgeStyles[e.Kind] {
			attrs[k] = v
		}
		if err := g.AddEdge(dotQuote(p.nodeName(e.From)), dotQuote(p.nodeName(e.To)), true, attrs); err != nil {
			return "", fmt.Errorf("dot edge %s -> %s: %w", p.nodeName(e.From), p.nodeName(e.To), err)
		}
	}

	return g.String(), nil
}

// dotQuote wraps a value in DOT double quotes, escaping as needed.
func dotQuote(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
