package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdobson/gradlekit/pkg/graph"
	"github.com/sdobson/gradlekit/pkg/project"
)

func graphCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph <project.yaml>",
		Short: "Print a human-readable or DOT rendering of a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := project.Load(args[0])
			if err != nil {
				return err
			}

			switch strings.ToLower(format) {
			case "dot":
				dot, err := graph.WriteDOT(p)
				if err != nil {
					return err
				}
				fmt.Print(dot)
			case "text", "":
				fmt.Print(renderText(p))
			default:
				return fmt.Errorf("unknown format %q: use text or dot", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text or dot")
	return cmd
}

// renderText produces the human-readable summary in execution order.
func renderText(p *graph.Pipeline) string {
	var sb strings.Builder

	order, err := p.ExecutionOrder()
	if err != nil {
		order = nil
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		seen[id] = true
	}
	for _, n := range p.Nodes() {
		if !seen[n.ID] {
			order = append(order, n.ID)
		}
	}

	fmt.Fprintf(&sb, "Pipeline: %s  (%d tasks, %d edges)\n", p.Name, len(p.Nodes()), len(p.Edges()))

	maxNameLen := 4
	for _, n := range p.Nodes() {
		if len(n.Name) > maxNameLen {
			maxNameLen = len(n.Name)
		}
	}

	fmt.Fprintf(&sb, "\nTasks:\n")
	for _, id := range order {
		n, ok := p.Node(id)
		if !ok {
			continue
		}
		var notes []string
		if n.Group != "" {
			notes = append(notes, "group="+n.Group)
		}
		if !n.Enabled {
			notes = append(notes, "disabled")
		}
		if n.Condition != nil && len(n.Condition.Conditions) > 0 {
			notes = append(notes, string(n.Condition.Mode))
		}
		fmt.Fprintf(&sb, "  %-*s  %-18s  %s\n", maxNameLen, n.Name, string(n.Kind), strings.Join(notes, " "))
	}

	fmt.Fprintf(&sb, "\nEdges:\n")
	maxFromLen := 4
	for _, e := range p.Edges() {
		if n, ok := p.Node(e.From); ok && len(n.Name) > maxFromLen {
			maxFromLen = len(n.Name)
		}
	}
	for _, e := range p.Edges() {
		from, okF := p.Node(e.From)
		to, okT := p.Node(e.To)
		if !okF || !okT {
			continue
		}
		if e.Kind == graph.DependsOn {
			fmt.Fprintf(&sb, "  %-*s  ->  %s\n", maxFromLen, from.Name, to.Name)
		} else {
			fmt.Fprintf(&sb, "  %-*s  ->  %s  [%s]\n", maxFromLen, from.Name, to.Name, e.Kind)
		}
	}

	return sb.String()
}
