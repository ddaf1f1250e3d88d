// Package project persists pipeline documents as YAML. The document is the
// designer's native save format; the Gradle script is the exchange format.
package project

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sdobson/gradlekit/pkg/condition"
	"github.com/sdobson/gradlekit/pkg/graph"
)

// Document is the on-disk shape of a pipeline. Edges reference tasks by name
// so hand edits and diffs stay readable; IDs are reissued on load.
type Document struct {
	Version   int           `yaml:"version"`
	Name      string        `yaml:"name,omitempty"`
	Variables []VariableDoc `yaml:"variables,omitempty"`
	Groups    []GroupDoc    `yaml:"groups,omitempty"`
	Tasks     []TaskDoc     `yaml:"tasks"`
	Edges     []EdgeDoc     `yaml:"edges,omitempty"`
}

type VariableDoc struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type,omitempty"`
	Default string `yaml:"default,omitempty"`
	Value   string `yaml:"value,omitempty"`
	System  bool   `yaml:"system,omitempty"`
}

type GroupDoc struct {
	Name      string `yaml:"name"`
	Color     string `yaml:"color,omitempty"`
	Collapsed bool   `yaml:"collapsed,omitempty"`
}

type TaskDoc struct {
	Name        string        `yaml:"name"`
	Kind        string        `yaml:"kind"`
	Group       string        `yaml:"group,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Disabled    bool          `yaml:"disabled,omitempty"`
	Timeout     string        `yaml:"timeout,omitempty"`
	Trigger     *TriggerDoc   `yaml:"trigger,omitempty"`
	Condition   *ConditionDoc `yaml:"condition,omitempty"`
	Config      ConfigDoc     `yaml:"config,omitempty"`
}

type TriggerDoc struct {
	Kind string `yaml:"kind"`
	Spec string `yaml:"spec,omitempty"`
}

type ConditionDoc struct {
	Mode  string    `yaml:"mode"`
	Logic string    `yaml:"logic,omitempty"`
	All   []AtomDoc `yaml:"conditions"`
}

type AtomDoc struct {
	LeftSource  string `yaml:"leftSource"`
	Left        string `yaml:"left"`
	Op          string `yaml:"op"`
	RightSource string `yaml:"rightSource,omitempty"`
	Right       string `yaml:"right,omitempty"`
}

type ConfigDoc struct {
	CommandLine     []string `yaml:"commandLine,omitempty"`
	WorkingDir      string   `yaml:"workingDir,omitempty"`
	IgnoreExitValue bool     `yaml:"ignoreExitValue,omitempty"`
	From            []string `yaml:"from,omitempty"`
	Into            string   `yaml:"into,omitempty"`
	Include         []string `yaml:"include,omitempty"`
	Targets         []string `yaml:"targets,omitempty"`
	ArchiveFileName string   `yaml:"archiveFileName,omitempty"`
	Source          string   `yaml:"source,omitempty"`
	DestinationDir  string   `yaml:"destinationDir,omitempty"`
	MaxHeapSize     string   `yaml:"maxHeapSize,omitempty"`
	IncludeTests    []string `yaml:"includeTests,omitempty"`
	URL             string   `yaml:"url,omitempty"`
	Method          string   `yaml:"method,omitempty"`
}

type EdgeDoc struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Kind string `yaml:"kind,omitempty"` // defaults to dependsOn
}

// FromPipeline converts a pipeline to its document form, deterministically.
func FromPipeline(p *graph.Pipeline) *Document {
	doc := &Document{Version: 1, Name: p.Name}

	for _, v := range p.Variables() {
		doc.Variables = append(doc.Variables, VariableDoc{
			Name: v.Name, Type: string(v.Type), Default: v.Default, Value: v.Value, System: v.System,
		})
	}
	for _, g := range p.Groups() {
		doc.Groups = append(doc.Groups, GroupDoc{Name: g.Name, Color: g.Color, Collapsed: g.Collapsed})
	}
	for _, n := range p.Nodes() {
		td := TaskDoc{
			Name:        n.Name,
			Kind:        string(n.Kind),
			Group:       n.Group,
			Description: n.Description,
			Disabled:    !n.Enabled,
			Config:      configDoc(n.Config),
		}
		if n.Timeout > 0 {
			td.Timeout = n.Timeout.String()
		}
		if n.Trigger.Kind != "" {
			td.Trigger = &TriggerDoc{Kind: string(n.Trigger.Kind), Spec: n.Trigger.Spec}
		}
		if n.Condition != nil {
			td.Condition = conditionDoc(n.Condition)
		}
		doc.Tasks = append(doc.Tasks, td)
	}
	for _, e := range p.Edges() {
		from, _ := p.Node(e.From)
		to, _ := p.Node(e.To)
		if from == nil || to == nil {
			continue
		}
		doc.Edges = append(doc.Edges, EdgeDoc{From: from.Name, To: to.Name, Kind: string(e.Kind)})
	}
	return doc
}

// ToPipeline builds a validated pipeline from a document.
func ToPipeline(doc *Document, ids *graph.IDSource) (*graph.Pipeline, error) {
	p := graph.New(doc.Name, ids)

	for _, v := range doc.Variables {
		if _, err := p.AddVariable(graph.Variable{
			Name: v.Name, Type: graph.VarType(v.Type), Default: v.Default, Value: v.Value, System: v.System,
		}); err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
	}
	for _, g := range doc.Groups {
		grp, err := p.AddGroup(g.Name, g.Color)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
		grp.Collapsed = g.Collapsed
	}
	for _, td := range doc.Tasks {
		n, err := p.AddNode(td.Name, graph.TaskKind(td.Kind))
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", td.Name, err)
		}
		n.Description = td.Description
		n.Enabled = !td.Disabled
		n.Config = td.Config.config()
		if td.Timeout != "" {
			d, err := time.ParseDuration(td.Timeout)
			if err != nil {
				return nil, fmt.Errorf("task %q: invalid timeout %q: %w", td.Name, td.Timeout, err)
			}
			n.Timeout = d
		}
		if td.Trigger != nil {
			n.Trigger = graph.Trigger{Kind: graph.TriggerKind(td.Trigger.Kind), Spec: td.Trigger.Spec}
		}
		if td.Condition != nil {
			n.Condition = td.Condition.condition()
		}
		if td.Group != "" {
			if err := p.AssignToGroup(n.ID, td.Group); err != nil {
				return nil, fmt.Errorf("task %q: %w", td.Name, err)
			}
		}
	}
	for _, e := range doc.Edges {
		from := p.NodeByName(e.From)
		to := p.NodeByName(e.To)
		if from == nil {
			return nil, fmt.Errorf("edge references unknown task %q", e.From)
		}
		if to == nil {
			return nil, fmt.Errorf("edge references unknown task %q", e.To)
		}
		kind := graph.RelationKind(e.Kind)
		if e.Kind == "" {
			kind = graph.DependsOn
		}
		if err := p.AddEdge(from.ID, to.ID, kind); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Load reads and converts a project file.
func Load(path string) (*graph.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	p, err := ToPipeline(&doc, nil)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", path, err)
	}
	return p, nil
}

// Save writes a pipeline to a project file.
func Save(path string, p *graph.Pipeline) error {
	data, err := yaml.Marshal(FromPipeline(p))
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}

func configDoc(c graph.Config) ConfigDoc {
	return ConfigDoc{
		CommandLine:     c.CommandLine,
		WorkingDir:      c.WorkingDir,
		IgnoreExitValue: c.IgnoreExitValue,
		From:            c.From,
		Into:            c.Into,
		Include:         c.Include,
		Targets:         c.Targets,
		ArchiveFileName: c.ArchiveFileName,
		Source:          c.Source,
		DestinationDir:  c.DestinationDir,
		MaxHeapSize:     c.MaxHeapSize,
		IncludeTests:    c.IncludeTests,
		URL:             c.URL,
		Method:          c.Method,
	}
}

func (d ConfigDoc) config() graph.Config {
	return graph.Config{
		CommandLine:     d.CommandLine,
		WorkingDir:      d.WorkingDir,
		IgnoreExitValue: d.IgnoreExitValue,
		From:            d.From,
		Into:            d.Into,
		Include:         d.Include,
		Targets:         d.Targets,
		ArchiveFileName: d.ArchiveFileName,
		Source:          d.Source,
		DestinationDir:  d.DestinationDir,
		MaxHeapSize:     d.MaxHeapSize,
		IncludeTests:    d.IncludeTests,
		URL:             d.URL,
		Method:          d.Method,
	}
}

func conditionDoc(tc *condition.TaskCondition) *ConditionDoc {
	doc := &ConditionDoc{Mode: string(tc.Mode), Logic: string(tc.Logic)}
	for _, c := range tc.Conditions {
		doc.All = append(doc.All, AtomDoc{
			LeftSource:  string(c.LeftSource),
			Left:        c.Left,
			Op:          string(c.Op),
			RightSource: string(c.RightSource),
			Right:       c.Right,
		})
	}
	return doc
}

func (d *ConditionDoc) condition() *condition.TaskCondition {
	tc := &condition.TaskCondition{
		Mode:  condition.Mode(d.Mode),
		Logic: condition.Logic(d.Logic),
	}
	if tc.Mode == "" {
		tc.Mode = condition.ModeOnlyIf
	}
	if tc.Logic == "" {
		tc.Logic = condition.LogicAll
	}
	for _, a := range d.All {
		tc.Conditions = append(tc.Conditions, condition.Condition{
			LeftSource:  condition.Source(a.LeftSource),
			Left:        a.Left,
			Op:          condition.Operator(a.Op),
			RightSource: condition.Source(a.RightSource),
			Right:       a.Right,
		})
	}
	return tc
}
