package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sdobson/gradlekit/pkg/graph"
)

func testPipeline(t *testing.T) *graph.Pipeline {
	t.Helper()
	i := 0
	ids := graph.NewIDSourceFunc(func() string {
		i++
		return fmt.Sprintf("n%d", i)
	})
	p := graph.New("demo", ids)

	build, err := p.AddNode("build", graph.KindExec)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	build.Config.CommandLine = []string{"make"}
	verify, _ := p.AddNode("verify", graph.KindTest)
	bench, _ := p.AddNode("bench", graph.KindTest)
	bench.Enabled = false

	if _, err := p.AddGroup("checks", ""); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if err := p.AssignToGroup(verify.ID, "checks"); err != nil {
		t.Fatalf("AssignToGroup: %v", err)
	}
	if err := p.AddEdge(build.ID, verify.ID, graph.DependsOn); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := p.AddEdge(build.ID, bench.ID, graph.ShouldRunAfter); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	return p
}

// ─── TestRenderText ───────────────────────────────────────────────────────────

func TestRenderText_ListsTasksAndEdges(t *testing.T) {
	out := renderText(testPipeline(t))

	if !strings.Contains(out, "Pipeline: demo  (3 tasks, 2 edges)") {
		t.Errorf("missing summary line:\n%s", out)
	}
	for _, want := range []string{"build", "verify", "bench"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing task %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "group=checks") {
		t.Errorf("missing group note:\n%s", out)
	}
	if !strings.Contains(out, "disabled") {
		t.Errorf("missing disabled note:\n%s", out)
	}
	if !strings.Contains(out, "[shouldRunAfter]") {
		t.Errorf("advisory edge not tagged:\n%s", out)
	}
	// Hard dependencies carry no kind tag.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "verify") && strings.Contains(line, "->") && strings.Contains(line, "[") {
			t.Errorf("dependsOn edge should be untagged: %q", line)
		}
	}
}

func TestRenderText_OrdersByExecution(t *testing.T) {
	out := renderText(testPipeline(t))
	tasks := out[strings.Index(out, "Tasks:"):]
	if strings.Index(tasks, "build") > strings.Index(tasks, "verify") {
		t.Errorf("build should precede its dependent:\n%s", out)
	}
}

// ─── TestRootCmd ──────────────────────────────────────────────────────────────

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()
	want := map[string]bool{"generate": false, "import": false, "lint": false, "run": false, "graph": false}
	for _, c := range root.Commands() {
		name := strings.Fields(c.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
