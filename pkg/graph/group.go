package graph

import (
	"fmt"
	"strings"
)

// AddGroup creates a group. Group names are unique case-insensitively.
func (p *Pipeline) AddGroup(name, color string) (*TaskGroup, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("group name must not be empty")
	}
	if p.groupByName(name) != nil {
		return nil, fmt.Errorf("duplicate group name %q", name)
	}
	g := &TaskGroup{Name: name, Color: color}
	p.groups = append(p.groups, g)
	return g, nil
}

// RemoveGroup deletes a group. Member nodes are kept; only their group label
// is cleared.
func (p *Pipeline) RemoveGroup(name string) error {
	for i, g := range p.groups {
		if strings.EqualFold(g.Name, name) {
			for _, id := range g.Members {
				if n, ok := p.byID[id]; ok {
					n.Group = ""
				}
			}
			p.groups = append(p.groups[:i], p.groups[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("group %q not found", name)
}

// RenameGroup renames a group, keeping case-insensitive uniqueness, and
// updates the group label on every member node.
func (p *Pipeline) RenameGroup(oldName, newName string) error {
	g := p.groupByName(oldName)
	if g == nil {
		return fmt.Errorf("group %q not found", oldName)
	}
	if strings.TrimSpace(newName) == "" {
		return fmt.Errorf("group name must not be empty")
	}
	if other := p.groupByName(newName); other != nil && other != g {
		return fmt.Errorf("duplicate group name %q", newName)
	}
	g.Name = newName
	for _, id := range g.Members {
		if n, ok := p.byID[id]; ok {
			n.Group = newName
		}
	}
	return nil
}

// AssignToGroup moves a node into the named group. A node belongs to at most
// one group, so any previous membership is removed first.
func (p *Pipeline) AssignToGroup(nodeID, groupName string) error {
	n, ok := p.byID[nodeID]
	if !ok {
		return fmt.Errorf("node %q not found", nodeID)
	}
	g := p.groupByName(groupName)
	if g == nil {
		return fmt.Errorf("group %q not found", groupName)
	}
	for _, other := range p.groups {
		other.removeMember(nodeID)
	}
	g.Members = append(g.Members, nodeID)
	n.Group = g.Name
	return nil
}

// RemoveFromGroup clears a node's group membership.
func (p *Pipeline) RemoveFromGroup(nodeID string) error {
	n, ok := p.byID[nodeID]
	if !ok {
		return fmt.Errorf("node %q not found", nodeID)
	}
	for _, g := range p.groups {
		g.removeMember(nodeID)
	}
	n.Group = ""
	return nil
}

func (p *Pipeline) groupByName(name string) *TaskGroup {
	for _, g := range p.groups {
		if strings.EqualFold(g.Name, name) {
			return g
		}
	}
	return nil
}

func (g *TaskGroup) removeMember(id string) {
	for i, m := range g.Members {
		if m == id {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return
		}
	}
}
