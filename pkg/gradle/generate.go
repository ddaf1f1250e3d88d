package gradle

import (
	"fmt"
	"strings"
	"time"

	"github.com/sdobson/gradlekit/pkg/graph"
)

// Options controls script generation.
type Options struct {
	// Header replaces the default first comment line.
	Header string

	// IncludeDisabled emits disabled tasks as comment stubs instead of
	// omitting them.
	IncludeDisabled bool

	// StampTime adds a generation timestamp comment. This is the only
	// option that breaks byte-determinism of the output.
	StampTime bool

	// Now supplies the StampTime clock; defaults to time.Now.
	Now func() time.Time
}

const defaultHeader = "Generated by gradlekit. Re-import after hand edits to sync the pipeline."

// Generate serializes a pipeline into a Gradle build script. Output is a
// pure function of the pipeline and options: the same input produces
// byte-identical output (unless StampTime is set).
//
// Blocks follow the hard-dependency execution order so that a task's
// dependencies read before the task itself.
func Generate(p *graph.Pipeline, opts Options) (string, error) {
	var b strings.Builder

	header := opts.Header
	if header == "" {
		header = defaultHeader
	}
	fmt.Fprintf(&b, "// %s\n", header)
	if opts.StampTime {
		now := opts.Now
		if now == nil {
			now = time.Now
		}
		fmt.Fprintf(&b, "// Generated at %s\n", now().UTC().Format(time.RFC3339))
	}

	if ext := generateExt(p); ext != "" {
		b.WriteString("\n")
		b.WriteString(ext)
	}

	order, err := p.ExecutionOrder()
	if err != nil {
		return "", fmt.Errorf("execution order: %w", err)
	}
	emitted := make(map[string]bool, len(order))
	for _, id := range order {
		n, _ := p.Node(id)
		b.WriteString("\n")
		generateTask(&b, p, n)
		emitted[id] = true
	}

	// Disabled nodes are not part of the execution order.
	for _, n := range p.Nodes() {
		if emitted[n.ID] {
			continue
		}
		if !n.Enabled && !opts.IncludeDisabled {
			continue
		}
		b.WriteString("\n")
		generateTask(&b, p, n)
	}

	return b.String(), nil
}

// generateExt emits the overridable property declarations for every
// non-system variable, in declaration order.
func generateExt(p *graph.Pipeline) string {
	var decls []string
	for _, v := range p.Variables() {
		if v.System {
			continue
		}
		decls = append(decls, fmt.Sprintf("    %s = project.findProperty(%s) ?: %s",
			v.Name, quote(v.Name), quote(v.Default)))
	}
	if len(decls) == 0 {
		return ""
	}
	return "ext {\n" + strings.Join(decls, "\n") + "\n}\n"
}

func taskHeader(n *graph.TaskNode) string {
	if typeName, ok := typeNames[n.Kind]; ok {
		return fmt.Sprintf("task %s(type: %s)", n.Name, typeName)
	}
	return fmt.Sprintf("task %s", n.Name)
}

func generateTask(b *strings.Builder, p *graph.Pipeline, n *graph.TaskNode) {
	if !n.Enabled {
		fmt.Fprintf(b, "// disabled task: %s (%s)\n", n.Name, n.Kind)
		return
	}

	fmt.Fprintf(b, "%s {\n", taskHeader(n))

	if n.Group != "" {
		fmt.Fprintf(b, "    group = %s\n", quote(n.Group))
	}
	if n.Description != "" {
		fmt.Fprintf(b, "    description = %s\n", quote(n.Description))
	}

	writeRelation := func(stmt string, names []string) {
		if len(names) > 0 {
			fmt.Fprintf(b, "    %s %s\n", stmt, quoteList(names))
		}
	}
	writeRelation("dependsOn", edgeNames(p, p.EdgesInto(n.ID, graph.DependsOn), true))
	writeRelation("mustRunAfter", edgeNames(p, p.EdgesInto(n.ID, graph.MustRunAfter), true))
	writeRelation("shouldRunAfter", edgeNames(p, p.EdgesInto(n.ID, graph.ShouldRunAfter), true))
	writeRelation("finalizedBy", edgeNames(p, p.EdgesFrom(n.ID, graph.FinalizedBy), false))

	if n.Condition != nil && len(n.Condition.Conditions) > 0 {
		fmt.Fprintf(b, "    onlyIf { %s }\n", compileGuard(n.Condition, p))
	}
	if n.Timeout > 0 {
		fmt.Fprintf(b, "    timeout = Duration.ofSeconds(%d)\n", int64(n.Timeout.Seconds()))
	}
	if n.Trigger.Kind != "" && n.Trigger.Kind != graph.TriggerManual {
		fmt.Fprintf(b, "    // trigger: %s %s\n", n.Trigger.Kind, n.Trigger.Spec)
	}

	generateConfig(b, n)

	b.WriteString("}\n")
}

// edgeNames maps edges to the task names on the far side: sources for
// incoming edges, targets for outgoing ones.
func edgeNames(p *graph.Pipeline, edges []graph.Edge, incoming bool) []string {
	names := make([]string, 0, len(edges))
	for _, e := range edges {
		id := e.From
		if !incoming {
			id = e.To
		}
		if n, ok := p.Node(id); ok {
			names = append(names, n.Name)
		}
	}
	return names
}

// generateConfig writes the kind-specific statements. List-valued fields map
// consistently: source sets emit one `from` per element, filter and argument
// lists emit a single multi-argument call.
func generateConfig(b *strings.Builder, n *graph.TaskNode) {
	c := n.Config
	switch n.Kind {
	case graph.KindExec:
		if len(c.CommandLine) > 0 {
			fmt.Fprintf(b, "    commandLine %s\n", quoteList(c.CommandLine))
		}
		if c.WorkingDir != "" {
			fmt.Fprintf(b, "    workingDir %s\n", quote(c.WorkingDir))
		}
		if c.IgnoreExitValue {
			b.WriteString("    ignoreExitValue = true\n")
		}
	case graph.KindCopy, graph.KindProcessResources:
		for _, from := range c.From {
			fmt.Fprintf(b, "    from %s\n", quote(from))
		}
		if c.Into != "" {
			fmt.Fprintf(b, "    into %s\n", quote(c.Into))
		}
		if len(c.Include) > 0 {
			fmt.Fprintf(b, "    include %s\n", quoteList(c.Include))
		}
	case graph.KindDelete:
		if len(c.Targets) > 0 {
			fmt.Fprintf(b, "    delete %s\n", quoteList(c.Targets))
		}
	case graph.KindZip:
		for _, from := range c.From {
			fmt.Fprintf(b, "    from %s\n", quote(from))
		}
		if c.ArchiveFileName != "" {
			fmt.Fprintf(b, "    archiveFileName = %s\n", quote(c.ArchiveFileName))
		}
		if c.DestinationDir != "" {
			fmt.Fprintf(b, "    destinationDirectory = file(%s)\n", quote(c.DestinationDir))
		}
	case graph.KindJavaCompile:
		if c.Source != "" {
			fmt.Fprintf(b, "    source = %s\n", quote(c.Source))
		}
		if c.DestinationDir != "" {
			fmt.Fprintf(b, "    destinationDir = file(%s)\n", quote(c.DestinationDir))
		}
	case graph.KindTest:
		if c.MaxHeapSize != "" {
			fmt.Fprintf(b, "    maxHeapSize = %s\n", quote(c.MaxHeapSize))
		}
		if len(c.IncludeTests) > 0 {
			fmt.Fprintf(b, "    include %s\n", quoteList(c.IncludeTests))
		}
	case graph.KindHTTPCall:
		if c.URL != "" {
			fmt.Fprintf(b, "    url = %s\n", quote(c.URL))
		}
		if c.Method != "" {
			fmt.Fprintf(b, "    method = %s\n", quote(c.Method))
		}
	}
}
