package gradle_test

import (
	"strings"
	"testing"
	"time"

	"github.com/sdobson/gradlekit/pkg/condition"
	"github.com/sdobson/gradlekit/pkg/gradle"
	"github.com/sdobson/gradlekit/pkg/graph"
)

func noProblems(t *testing.T, res *gradle.ParseResult) {
	t.Helper()
	for _, e := range res.Errors {
		t.Errorf("unexpected error: %v", e)
	}
	for _, w := range res.Warnings {
		t.Errorf("unexpected warning: %s", w)
	}
}

func hasWarning(res *gradle.ParseResult, substr string) bool {
	for _, w := range res.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// ─── registration forms ───────────────────────────────────────────────────────

func TestParse_RegistrationForms(t *testing.T) {
	src := `
task typed(type: Exec) {
    commandLine 'make'
}

task plain {
}

tasks.register('registered', Copy) {
    from 'src'
    into 'dst'
}

tasks.create('created') {
}
`
	res := gradle.Parse(src)
	noProblems(t, res)

	cases := []struct {
		name string
		kind graph.TaskKind
	}{
		{"typed", graph.KindExec},
		{"plain", graph.KindCustom},
		{"registered", graph.KindCopy},
		{"created", graph.KindCustom},
	}
	for _, tc := range cases {
		n := res.Pipeline.NodeByName(tc.name)
		if n == nil {
			t.Errorf("task %q not recovered", tc.name)
			continue
		}
		if n.Kind != tc.kind {
			t.Errorf("task %q kind = %s, want %s", tc.name, n.Kind, tc.kind)
		}
	}
}

func TestParse_BracesInsideStrings(t *testing.T) {
	src := `
task tricky(type: Exec) {
    commandLine 'sh', '-c', 'echo "{ not a block }"'
    workingDir 'dir/with}brace'
}
`
	res := gradle.Parse(src)
	noProblems(t, res)

	n := res.Pipeline.NodeByName("tricky")
	if n == nil {
		t.Fatal("task not recovered")
	}
	want := []string{"sh", "-c", `echo "{ not a block }"`}
	if len(n.Config.CommandLine) != len(want) {
		t.Fatalf("commandLine = %v, want %v", n.Config.CommandLine, want)
	}
	for i := range want {
		if n.Config.CommandLine[i] != want[i] {
			t.Errorf("commandLine[%d] = %q, want %q", i, n.Config.CommandLine[i], want[i])
		}
	}
	if n.Config.WorkingDir != "dir/with}brace" {
		t.Errorf("workingDir = %q", n.Config.WorkingDir)
	}
}

func TestParse_NestedBlocks(t *testing.T) {
	src := `
task wrapped(type: Exec) {
    commandLine 'make'
    doLast {
        println 'done'
    }
}

task after {
    dependsOn 'wrapped'
}
`
	res := gradle.Parse(src)
	noProblems(t, res)
	if res.Pipeline.NodeByName("after") == nil {
		t.Fatal("block after nested braces not recovered")
	}
	if len(res.Pipeline.Edges()) != 1 {
		t.Errorf("edges = %v, want 1", res.Pipeline.Edges())
	}
}

// ─── attributes ───────────────────────────────────────────────────────────────

func TestParse_TaskAttributes(t *testing.T) {
	src := `
ext {
    env = project.findProperty('env') ?: 'dev'
    version = '1.0'
}

task deploy(type: Exec) {
    group = 'release'
    description = 'Ship it'
    dependsOn 'pack'
    timeout = Duration.ofSeconds(120)
    // trigger: schedule 0 4 * * *
    commandLine 'sh', 'deploy.sh'
    workingDir 'ops'
    ignoreExitValue = true
}

task pack(type: Zip) {
    from 'build'
    archiveFileName = 'app.zip'
    destinationDirectory = file('dist')
}
`
	res := gradle.Parse(src)
	noProblems(t, res)

	vars := res.Pipeline.Variables()
	if len(vars) != 2 {
		t.Fatalf("variables = %d, want 2", len(vars))
	}
	if vars[0].Name != "env" || vars[0].Default != "dev" {
		t.Errorf("ext var = %+v, want env/dev", vars[0])
	}
	if vars[1].Name != "version" || vars[1].Default != "1.0" {
		t.Errorf("ext var = %+v, want version/1.0", vars[1])
	}

	n := res.Pipeline.NodeByName("deploy")
	if n == nil {
		t.Fatal("deploy not recovered")
	}
	if n.Group != "release" || n.Description != "Ship it" {
		t.Errorf("group/description = %q/%q", n.Group, n.Description)
	}
	if n.Timeout != 120*time.Second {
		t.Errorf("timeout = %s, want 2m0s", n.Timeout)
	}
	if n.Trigger.Kind != graph.TriggerSchedule || n.Trigger.Spec != "0 4 * * *" {
		t.Errorf("trigger = %+v", n.Trigger)
	}
	if !n.Config.IgnoreExitValue || n.Config.WorkingDir != "ops" {
		t.Errorf("exec config = %+v", n.Config)
	}

	pack := res.Pipeline.NodeByName("pack")
	if pack.Config.ArchiveFileName != "app.zip" || pack.Config.DestinationDir != "dist" {
		t.Errorf("zip config = %+v", pack.Config)
	}

	// The forward reference resolved after all blocks were read.
	edges := res.Pipeline.Edges()
	if len(edges) != 1 || edges[0].Kind != graph.DependsOn {
		t.Fatalf("edges = %v", edges)
	}
	if from, _ := res.Pipeline.Node(edges[0].From); from.Name != "pack" {
		t.Errorf("edge source = %q, want pack", from.Name)
	}
}

// ─── guard recognition ────────────────────────────────────────────────────────

func TestParse_Guards(t *testing.T) {
	src := `
task a {
    onlyIf { System.getenv('CI') != null }
}
task b {
    onlyIf { !(System.getenv('CI') != null) }
}
task c {
    onlyIf { project.hasProperty('release') && System.getenv('DEPLOY_KEY') != null }
}
task d {
    onlyIf { someCustomCheck() }
}
`
	res := gradle.Parse(src)
	if len(res.Errors) != 0 {
		t.Fatalf("errors: %v", res.Errors)
	}

	a := res.Pipeline.NodeByName("a").Condition
	if a == nil || a.Mode != condition.ModeOnlyIf || a.Conditions[0].Op != condition.OpIsNotEmpty {
		t.Errorf("task a condition = %+v", a)
	}
	b := res.Pipeline.NodeByName("b").Condition
	if b == nil || b.Mode != condition.ModeSkipIf {
		t.Errorf("task b condition = %+v, want skipIf", b)
	}
	c := res.Pipeline.NodeByName("c").Condition
	if c == nil || len(c.Conditions) != 2 || c.Logic != condition.LogicAll {
		t.Errorf("task c condition = %+v, want two anded atoms", c)
	}
	if d := res.Pipeline.NodeByName("d").Condition; d != nil {
		t.Errorf("task d condition = %+v, want none", d)
	}
	if !hasWarning(res, "unrecognized onlyIf") {
		t.Errorf("missing unrecognized-guard warning: %v", res.Warnings)
	}
}

func TestParse_GuardEqualityForms(t *testing.T) {
	src := `
ext {
    env = project.findProperty('env') ?: 'dev'
}

task a {
    onlyIf { (project.findProperty('env') ?: 'dev') == 'prod' }
}
task b {
    onlyIf { (project.findProperty('flag') ?: '') != 'off' }
}
task c {
    onlyIf { (System.getenv('STAGE') ?: '') != 'ci' }
}
`
	res := gradle.Parse(src)
	noProblems(t, res)

	a := res.Pipeline.NodeByName("a").Condition
	if a == nil || len(a.Conditions) != 1 {
		t.Fatalf("task a condition = %+v", a)
	}
	if got := a.Conditions[0]; got.LeftSource != condition.SourceVariable ||
		got.Left != "env" || got.Op != condition.OpEquals || got.Right != "prod" {
		t.Errorf("task a atom = %+v, want variable env == prod", got)
	}

	b := res.Pipeline.NodeByName("b").Condition
	if b == nil || len(b.Conditions) != 1 {
		t.Fatalf("task b condition = %+v", b)
	}
	if got := b.Conditions[0]; got.LeftSource != condition.SourceProperty ||
		got.Left != "flag" || got.Op != condition.OpNotEquals || got.Right != "off" {
		t.Errorf("task b atom = %+v, want property flag != off", got)
	}

	c := res.Pipeline.NodeByName("c").Condition
	if c == nil || len(c.Conditions) != 1 {
		t.Fatalf("task c condition = %+v", c)
	}
	if got := c.Conditions[0]; got.LeftSource != condition.SourceEnvironment ||
		got.Op != condition.OpNotEquals {
		t.Errorf("task c atom = %+v, want env STAGE != ci", got)
	}
}

// ─── degraded input ───────────────────────────────────────────────────────────

func TestParse_MalformedBlockContinues(t *testing.T) {
	src := `
task (type: Exec) {
    commandLine 'x'
}

task good(type: Exec) {
    commandLine 'make'
}
`
	res := gradle.Parse(src)
	if len(res.Errors) == 0 {
		t.Fatal("expected a block error for the malformed declaration")
	}
	if res.Pipeline.NodeByName("good") == nil {
		t.Error("parser did not continue past the malformed block")
	}
}

func TestParse_UnterminatedBlock(t *testing.T) {
	res := gradle.Parse("task broken(type: Exec) {\n    commandLine 'x'\n")
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, "unterminated") {
		t.Errorf("error = %v", res.Errors[0])
	}
}

func TestParse_DuplicateTaskName(t *testing.T) {
	res := gradle.Parse("task dup {\n}\ntask dup {\n}\n")
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v, want 1 duplicate error", res.Errors)
	}
	if len(res.Pipeline.Nodes()) != 1 {
		t.Errorf("nodes = %d, want 1", len(res.Pipeline.Nodes()))
	}
}

func TestParse_UnknownDependencyDropped(t *testing.T) {
	res := gradle.Parse("task a {\n    dependsOn 'ghost'\n}\n")
	if len(res.Pipeline.Edges()) != 0 {
		t.Errorf("edges = %v, want none", res.Pipeline.Edges())
	}
	if !hasWarning(res, `unknown task "ghost"`) {
		t.Errorf("missing dropped-reference warning: %v", res.Warnings)
	}
}

func TestParse_UnknownTypeFallsBackToCustom(t *testing.T) {
	res := gradle.Parse("task odd(type: Tar) {\n}\n")
	n := res.Pipeline.NodeByName("odd")
	if n == nil || n.Kind != graph.KindCustom {
		t.Fatalf("node = %+v, want custom kind", n)
	}
	if !hasWarning(res, "unknown task type") {
		t.Errorf("missing unknown-type warning: %v", res.Warnings)
	}
}

func TestParse_EmptyScriptWarns(t *testing.T) {
	res := gradle.Parse("// just a comment\nplugins { id 'java' }\n")
	if len(res.Pipeline.Nodes()) != 0 {
		t.Errorf("nodes = %d, want 0", len(res.Pipeline.Nodes()))
	}
	if !hasWarning(res, "no task registrations") {
		t.Errorf("missing empty-script warning: %v", res.Warnings)
	}
}
