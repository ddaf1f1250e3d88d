package graph

import "fmt"

// AddVariable declares a variable. Names must be valid identifiers and
// unique across all variables, system ones included.
func (p *Pipeline) AddVariable(v Variable) (*Variable, error) {
	if !ValidIdent(v.Name) {
		return nil, fmt.Errorf("variable name %q is not a valid identifier", v.Name)
	}
	if p.VariableByName(v.Name) != nil {
		return nil, fmt.Errorf("duplicate variable name %q", v.Name)
	}
	if v.Type == "" {
		v.Type = VarString
	}
	stored := v
	p.vars = append(p.vars, &stored)
	return &stored, nil
}

// RemoveVariable deletes a variable. System variables cannot be deleted.
func (p *Pipeline) RemoveVariable(name string) error {
	for i, v := range p.vars {
		if v.Name != name {
			continue
		}
		if v.System {
			return fmt.Errorf("variable %q is a system variable and cannot be deleted", name)
		}
		p.vars = append(p.vars[:i], p.vars[i+1:]...)
		return nil
	}
	return fmt.Errorf("variable %q not found", name)
}

// RenameVariable renames a non-system variable, keeping name uniqueness.
func (p *Pipeline) RenameVariable(oldName, newName string) error {
	v := p.VariableByName(oldName)
	if v == nil {
		return fmt.Errorf("variable %q not found", oldName)
	}
	if v.System {
		return fmt.Errorf("variable %q is a system variable and cannot be renamed", oldName)
	}
	if !ValidIdent(newName) {
		return fmt.Errorf("variable name %q is not a valid identifier", newName)
	}
	if other := p.VariableByName(newName); other != nil && other != v {
		return fmt.Errorf("duplicate variable name %q", newName)
	}
	v.Name = newName
	return nil
}

// SetVariable updates the current value of a variable.
func (p *Pipeline) SetVariable(name, value string) error {
	v := p.VariableByName(name)
	if v == nil {
		return fmt.Errorf("variable %q not found", name)
	}
	v.Value = value
	return nil
}

// VariableByName returns the variable with the given name, or nil.
func (p *Pipeline) VariableByName(name string) *Variable {
	for _, v := range p.vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}
