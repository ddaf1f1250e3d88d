package graph

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sdobson/gradlekit/pkg/condition"
)

// TaskKind identifies the kind of work a task performs. The names mirror the
// Gradle task types the script generator emits.
type TaskKind string

const (
	KindExec             TaskKind = "Exec"
	KindCopy             TaskKind = "Copy"
	KindDelete           TaskKind = "Delete"
	KindZip              TaskKind = "Zip"
	KindJavaCompile      TaskKind = "JavaCompile"
	KindTest             TaskKind = "Test"
	KindProcessResources TaskKind = "ProcessResources"
	KindHTTPCall         TaskKind = "HttpCall"
	KindCustom           TaskKind = "Custom"
)

// Kinds lists every task kind in a stable order.
var Kinds = []TaskKind{
	KindExec, KindCopy, KindDelete, KindZip, KindJavaCompile,
	KindTest, KindProcessResources, KindHTTPCall, KindCustom,
}

// TriggerKind describes how a task is meant to be triggered. It is carried
// for the host's benefit and never affects graph invariants or scheduling.
type TriggerKind string

const (
	TriggerManual    TriggerKind = "manual"
	TriggerFileWatch TriggerKind = "file-watch"
	TriggerSchedule  TriggerKind = "schedule"
	TriggerWebhook   TriggerKind = "webhook"
)

// Trigger is an informational trigger descriptor (spec: pattern for
// file-watch, cron expression for schedule, path for webhook).
type Trigger struct {
	Kind TriggerKind
	Spec string
}

// Config holds kind-specific task configuration. Only the fields relevant to
// the node's TaskKind are meaningful; requiredConfig lists which are mandatory.
type Config struct {
	// Exec
	CommandLine     []string
	WorkingDir      string
	IgnoreExitValue bool

	// Copy / ProcessResources / Zip sources
	From    []string
	Into    string
	Include []string

	// Delete
	Targets []string

	// Zip
	ArchiveFileName string

	// JavaCompile
	Source         string
	DestinationDir string

	// Test
	MaxHeapSize  string
	IncludeTests []string

	// HttpCall
	URL    string
	Method string
}

// TaskNode is a single vertex in the pipeline graph.
type TaskNode struct {
	ID          string // opaque, unique, stable for the node's lifetime
	Name        string // valid script identifier
	Kind        TaskKind
	Group       string // group label, "" when ungrouped
	Description string
	Enabled     bool
	Timeout     time.Duration // zero means no timeout
	Config      Config
	Condition   *condition.TaskCondition
	Trigger     Trigger
}

// RelationKind is the type of a dependency edge.
type RelationKind string

const (
	// DependsOn is the only causal relation: the target cannot start until
	// the source finishes, and a source failure prevents the target.
	DependsOn RelationKind = "dependsOn"
	// MustRunAfter asks the build tool to sequence the target after the
	// source without triggering it. Advisory: the designer's own scheduler
	// ignores it.
	MustRunAfter RelationKind = "mustRunAfter"
	// ShouldRunAfter is a soft ordering hint that may be dropped.
	ShouldRunAfter RelationKind = "shouldRunAfter"
	// FinalizedBy runs the target after the source regardless of outcome.
	FinalizedBy RelationKind = "finalizedBy"
)

// Edge is a directed, typed connection between two nodes, identified by the
// (From, To, Kind) tuple.
type Edge struct {
	From string // node ID
	To   string // node ID
	Kind RelationKind
}

// TaskGroup is a named visual container referencing member nodes by ID. It
// does not own its members: deleting a group never deletes nodes.
type TaskGroup struct {
	Name      string
	Color     string
	Collapsed bool
	Members   []string // node IDs
}

// VarType is the declared type of a Variable.
type VarType string

const (
	VarString  VarType = "string"
	VarNumber  VarType = "number"
	VarBoolean VarType = "boolean"
	VarPath    VarType = "path"
	VarList    VarType = "list"
)

// Variable is a named pipeline variable. System variables are built in and
// reject rename and delete.
type Variable struct {
	Name    string
	Type    VarType
	Default string
	Value   string
	System  bool
}

// Pipeline is the in-memory pipeline graph: nodes, typed edges, groups and
// variables. All mutation goes through methods that validate first, so a
// failed operation never leaves the pipeline in a corrupt state.
type Pipeline struct {
	Name string

	nodes  []*TaskNode // insertion order, used for stable tie-breaking
	byID   map[string]*TaskNode
	edges  []Edge
	groups []*TaskGroup
	vars   []*Variable

	ids *IDSource
}

// New creates an empty pipeline drawing node IDs from ids.
// A nil ids gets a fresh uuid-backed source.
func New(name string, ids *IDSource) *Pipeline {
	if ids == nil {
		ids = NewIDSource()
	}
	return &Pipeline{
		Name: name,
		byID: make(map[string]*TaskNode),
		ids:  ids,
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether s is usable as a script identifier.
func ValidIdent(s string) bool { return identPattern.MatchString(s) }

// AddNode creates a node with a fresh ID and appends it to the pipeline.
// The name must be a valid script identifier and unique among nodes.
func (p *Pipeline) AddNode(name string, kind TaskKind) (*TaskNode, error) {
	if !ValidIdent(name) {
		return nil, fmt.Errorf("task name %q is not a valid identifier", name)
	}
	if p.NodeByName(name) != nil {
		return nil, fmt.Errorf("duplicate task name %q", name)
	}
	n := &TaskNode{
		ID:      p.ids.Next(),
		Name:    name,
		Kind:    kind,
		Enabled: true,
	}
	p.nodes = append(p.nodes, n)
	p.byID[n.ID] = n
	return n, nil
}

// AttachNode inserts an externally built node (parser output). The node must
// carry a unique ID and a unique, valid name.
func (p *Pipeline) AttachNode(n *TaskNode) error {
	if n.ID == "" {
		return fmt.Errorf("node %q has no ID", n.Name)
	}
	if _, exists := p.byID[n.ID]; exists {
		return fmt.Errorf("duplicate node ID %q", n.ID)
	}
	if !ValidIdent(n.Name) {
		return fmt.Errorf("task name %q is not a valid identifier", n.Name)
	}
	if p.NodeByName(n.Name) != nil {
		return fmt.Errorf("duplicate task name %q", n.Name)
	}
	p.nodes = append(p.nodes, n)
	p.byID[n.ID] = n
	return nil
}

// RemoveNode deletes a node and cascades to every edge touching it, and to
// its group membership.
func (p *Pipeline) RemoveNode(id string) error {
	n, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("node %q not found", id)
	}
	delete(p.byID, id)
	for i, other := range p.nodes {
		if other == n {
			p.nodes = append(p.nodes[:i], p.nodes[i+1:]...)
			break
		}
	}
	kept := p.edges[:0]
	for _, e := range p.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	p.edges = kept
	for _, g := range p.groups {
		g.removeMember(id)
	}
	return nil
}

// SetNodeName renames a node, keeping identifier validity and uniqueness.
func (p *Pipeline) SetNodeName(id, name string) error {
	n, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("node %q not found", id)
	}
	if !ValidIdent(name) {
		return fmt.Errorf("task name %q is not a valid identifier", name)
	}
	if other := p.NodeByName(name); other != nil && other.ID != id {
		return fmt.Errorf("duplicate task name %q", name)
	}
	n.Name = name
	return nil
}

// Node returns a node by ID.
func (p *Pipeline) Node(id string) (*TaskNode, bool) {
	n, ok := p.byID[id]
	return n, ok
}

// NodeByName returns the node with the given name, or nil.
func (p *Pipeline) NodeByName(name string) *TaskNode {
	for _, n := range p.nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Nodes returns the nodes in insertion order. The slice is a copy; the nodes
// are shared.
func (p *Pipeline) Nodes() []*TaskNode {
	out := make([]*TaskNode, len(p.nodes))
	copy(out, p.nodes)
	return out
}

// Edges returns a copy of all edges in insertion order.
func (p *Pipeline) Edges() []Edge {
	out := make([]Edge, len(p.edges))
	copy(out, p.edges)
	return out
}

// Groups returns the groups in insertion order.
func (p *Pipeline) Groups() []*TaskGroup {
	out := make([]*TaskGroup, len(p.groups))
	copy(out, p.groups)
	return out
}

// Variables returns the variables in declaration order.
func (p *Pipeline) Variables() []*Variable {
	out := make([]*Variable, len(p.vars))
	copy(out, p.vars)
	return out
}

// VarValues returns the current value of every variable, for condition
// evaluation and ${name} resolution.
func (p *Pipeline) VarValues() map[string]string {
	out := make(map[string]string, len(p.vars))
	for _, v := range p.vars {
		val := v.Value
		if val == "" {
			val = v.Default
		}
		out[v.Name] = val
	}
	return out
}

// Clone returns a deep copy of the pipeline. The copy owns its own nodes,
// edges, groups and variables and shares only the ID source.
func (p *Pipeline) Clone() *Pipeline {
	c := New(p.Name, p.ids)
	for _, n := range p.nodes {
		nc := *n
		nc.Config = n.Config.clone()
		if n.Condition != nil {
			cond := *n.Condition
			cond.Conditions = append([]condition.Condition(nil), n.Condition.Conditions...)
			nc.Condition = &cond
		}
		c.nodes = append(c.nodes, &nc)
		c.byID[nc.ID] = &nc
	}
	c.edges = append(c.edges, p.edges...)
	for _, g := range p.groups {
		gc := *g
		gc.Members = append([]string(nil), g.Members...)
		c.groups = append(c.groups, &gc)
	}
	for _, v := range p.vars {
		vc := *v
		c.vars = append(c.vars, &vc)
	}
	return c
}

func (c Config) clone() Config {
	c.CommandLine = append([]string(nil), c.CommandLine...)
	c.From = append([]string(nil), c.From...)
	c.Include = append([]string(nil), c.Include...)
	c.Targets = append([]string(nil), c.Targets...)
	c.IncludeTests = append([]string(nil), c.IncludeTests...)
	return c
}
