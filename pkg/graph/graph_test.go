package graph_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sdobson/gradlekit/pkg/graph"
)

// newCountingIDs returns an ID source issuing n1, n2, ... for stable tests.
func newCountingIDs() *graph.IDSource {
	i := 0
	return graph.NewIDSourceFunc(func() string {
		i++
		return fmt.Sprintf("n%d", i)
	})
}

// ─── Node tests ───────────────────────────────────────────────────────────────

func TestAddNode_AssignsUniqueIDs(t *testing.T) {
	p := graph.New("test", nil)
	a, err := p.AddNode("alpha", graph.KindExec)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	b, err := p.AddNode("beta", graph.KindCopy)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if a.ID == "" || b.ID == "" {
		t.Fatal("expected non-empty IDs")
	}
	if a.ID == b.ID {
		t.Errorf("IDs not unique: %q", a.ID)
	}
	if !a.Enabled {
		t.Error("new node should default to enabled")
	}
}

func TestAddNode_RejectsDuplicateName(t *testing.T) {
	p := graph.New("test", nil)
	if _, err := p.AddNode("build", graph.KindExec); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := p.AddNode("build", graph.KindCopy); err == nil {
		t.Error("expected duplicate name error")
	}
}

func TestAddNode_RejectsInvalidIdentifier(t *testing.T) {
	p := graph.New("test", nil)
	for _, name := range []string{"", "1abc", "has space", "dash-ed"} {
		if _, err := p.AddNode(name, graph.KindExec); err == nil {
			t.Errorf("AddNode(%q): expected identifier error", name)
		}
	}
}

func TestRemoveNode_CascadesEdgesAndGroups(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	a, _ := p.AddNode("a", graph.KindCustom)
	b, _ := p.AddNode("b", graph.KindCustom)
	c, _ := p.AddNode("c", graph.KindCustom)
	mustAddEdge(t, p, a.ID, b.ID, graph.DependsOn)
	mustAddEdge(t, p, b.ID, c.ID, graph.MustRunAfter)
	if _, err := p.AddGroup("grp", "blue"); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if err := p.AssignToGroup(b.ID, "grp"); err != nil {
		t.Fatalf("AssignToGroup: %v", err)
	}

	if err := p.RemoveNode(b.ID); err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if len(p.Edges()) != 0 {
		t.Errorf("edges = %d, want 0 after cascade", len(p.Edges()))
	}
	for _, g := range p.Groups() {
		for _, m := range g.Members {
			if m == b.ID {
				t.Error("removed node still referenced by group")
			}
		}
	}
}

// ─── Edge tests ───────────────────────────────────────────────────────────────

func mustAddEdge(t *testing.T, p *graph.Pipeline, from, to string, kind graph.RelationKind) {
	t.Helper()
	if err := p.AddEdge(from, to, kind); err != nil {
		t.Fatalf("AddEdge(%s -> %s, %s): %v", from, to, kind, err)
	}
}

func TestAddEdge_RejectsSelfLoop(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	a, _ := p.AddNode("a", graph.KindCustom)
	// Self-loops are rejected for every relation kind, before cycle detection.
	for _, kind := range []graph.RelationKind{graph.DependsOn, graph.MustRunAfter, graph.ShouldRunAfter, graph.FinalizedBy} {
		if err := p.AddEdge(a.ID, a.ID, kind); err == nil {
			t.Errorf("AddEdge self-loop (%s): expected error", kind)
		}
	}
}

func TestAddEdge_RejectsDuplicate(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	a, _ := p.AddNode("a", graph.KindCustom)
	b, _ := p.AddNode("b", graph.KindCustom)
	mustAddEdge(t, p, a.ID, b.ID, graph.DependsOn)
	if err := p.AddEdge(a.ID, b.ID, graph.DependsOn); err == nil {
		t.Error("expected duplicate edge error")
	}
	// Same pair under a different relation kind is a distinct edge.
	if err := p.AddEdge(a.ID, b.ID, graph.MustRunAfter); err != nil {
		t.Errorf("same pair, different kind: %v", err)
	}
}

func TestAddEdge_RejectsCycle(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	a, _ := p.AddNode("a", graph.KindCustom)
	b, _ := p.AddNode("b", graph.KindCustom)
	c, _ := p.AddNode("c", graph.KindCustom)
	mustAddEdge(t, p, a.ID, b.ID, graph.DependsOn)
	mustAddEdge(t, p, b.ID, c.ID, graph.DependsOn)

	if err := p.AddEdge(b.ID, a.ID, graph.DependsOn); err == nil {
		t.Error("direct back-edge: expected cycle error")
	}
	if err := p.AddEdge(c.ID, a.ID, graph.DependsOn); err == nil {
		t.Error("transitive back-edge: expected cycle error")
	}
}

func TestAddEdge_AdvisoryKindsSkipCycleCheck(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	a, _ := p.AddNode("a", graph.KindCustom)
	b, _ := p.AddNode("b", graph.KindCustom)
	mustAddEdge(t, p, a.ID, b.ID, graph.DependsOn)
	// A contradictory advisory edge is accepted; the scheduler ignores it.
	if err := p.AddEdge(b.ID, a.ID, graph.ShouldRunAfter); err != nil {
		t.Errorf("advisory back-edge: %v", err)
	}
}

// ─── Group tests ──────────────────────────────────────────────────────────────

func TestGroups_NameUniquenessCaseInsensitive(t *testing.T) {
	p := graph.New("test", nil)
	if _, err := p.AddGroup("Build", ""); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if _, err := p.AddGroup("build", ""); err == nil {
		t.Error("expected case-insensitive duplicate error")
	}
}

func TestGroups_NodeBelongsToAtMostOne(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	n, _ := p.AddNode("job", graph.KindCustom)
	p.AddGroup("one", "")
	p.AddGroup("two", "")
	if err := p.AssignToGroup(n.ID, "one"); err != nil {
		t.Fatalf("AssignToGroup: %v", err)
	}
	if err := p.AssignToGroup(n.ID, "two"); err != nil {
		t.Fatalf("AssignToGroup: %v", err)
	}
	var memberships int
	for _, g := range p.Groups() {
		memberships += len(g.Members)
	}
	if memberships != 1 {
		t.Errorf("memberships = %d, want 1", memberships)
	}
	if n.Group != "two" {
		t.Errorf("node group = %q, want %q", n.Group, "two")
	}
}

func TestRemoveGroup_KeepsMembers(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	n, _ := p.AddNode("job", graph.KindCustom)
	p.AddGroup("grp", "")
	p.AssignToGroup(n.ID, "grp")
	if err := p.RemoveGroup("grp"); err != nil {
		t.Fatalf("RemoveGroup: %v", err)
	}
	if _, ok := p.Node(n.ID); !ok {
		t.Fatal("group deletion must not delete member nodes")
	}
	if n.Group != "" {
		t.Errorf("node group = %q, want cleared", n.Group)
	}
}

// ─── Variable tests ───────────────────────────────────────────────────────────

func TestVariables_SystemRejectRenameAndDelete(t *testing.T) {
	p := graph.New("test", nil)
	if _, err := p.AddVariable(graph.Variable{Name: "buildDir", Default: "build", System: true}); err != nil {
		t.Fatalf("AddVariable: %v", err)
	}
	if err := p.RemoveVariable("buildDir"); err == nil {
		t.Error("expected system-variable delete rejection")
	}
	if err := p.RenameVariable("buildDir", "other"); err == nil {
		t.Error("expected system-variable rename rejection")
	}
}

func TestVariables_UniqueAcrossSystemAndUser(t *testing.T) {
	p := graph.New("test", nil)
	p.AddVariable(graph.Variable{Name: "buildDir", System: true})
	if _, err := p.AddVariable(graph.Variable{Name: "buildDir"}); err == nil {
		t.Error("expected duplicate name error against system variable")
	}
}

// ─── Validation tests ─────────────────────────────────────────────────────────

func TestValidate_MissingRequiredConfig(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	p.AddNode("fetch", graph.KindExec) // no commandLine
	errs := p.Validate()
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Message, "commandLine") {
		t.Errorf("error = %q, want mention of commandLine", errs[0].Message)
	}
}

func TestValidate_CleanPipeline(t *testing.T) {
	p := graph.New("test", newCountingIDs())
	n, _ := p.AddNode("fetch", graph.KindExec)
	n.Config.CommandLine = []string{"curl", "-O", "https://example.com"}
	if err := p.ValidateErr(); err != nil {
		t.Errorf("ValidateErr: %v", err)
	}
}
