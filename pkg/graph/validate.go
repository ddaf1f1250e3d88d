package graph

import (
	"fmt"
	"strings"
)

// ValidationError describes a structural problem in a pipeline.
type ValidationError struct {
	NodeID  string
	Message string
}

func (e ValidationError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("node %q: %s", e.NodeID, e.Message)
	}
	return e.Message
}

// requiredConfig maps each task kind to a checker returning the names of
// missing mandatory configuration fields.
var requiredConfig = map[TaskKind]func(Config) []string{
	KindExec: func(c Config) []string {
		if len(c.CommandLine) == 0 {
			return []string{"commandLine"}
		}
		return nil
	},
	KindCopy: func(c Config) []string {
		var missing []string
		if len(c.From) == 0 {
			missing = append(missing, "from")
		}
		if c.Into == "" {
			missing = append(missing, "into")
		}
		return missing
	},
	KindDelete: func(c Config) []string {
		if len(c.Targets) == 0 {
			return []string{"delete"}
		}
		return nil
	},
	KindZip: func(c Config) []string {
		var missing []string
		if len(c.From) == 0 {
			missing = append(missing, "from")
		}
		if c.ArchiveFileName == "" {
			missing = append(missing, "archiveFileName")
		}
		return missing
	},
	KindJavaCompile: func(c Config) []string {
		var missing []string
		if c.Source == "" {
			missing = append(missing, "source")
		}
		if c.DestinationDir == "" {
			missing = append(missing, "destinationDir")
		}
		return missing
	},
	KindProcessResources: func(c Config) []string {
		var missing []string
		if len(c.From) == 0 {
			missing = append(missing, "from")
		}
		if c.Into == "" {
			missing = append(missing, "into")
		}
		return missing
	},
	KindHTTPCall: func(c Config) []string {
		if c.URL == "" {
			return []string{"url"}
		}
		return nil
	},
}

// Validate checks the pipeline for structural correctness and returns all
// discovered errors, not just the first.
func (p *Pipeline) Validate() []ValidationError {
	var errs []ValidationError

	seen := make(map[string]string) // name → node ID
	for _, n := range p.nodes {
		if !ValidIdent(n.Name) {
			errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("task name %q is not a valid identifier", n.Name)})
		}
		if prev, ok := seen[n.Name]; ok {
			errs = append(errs, ValidationError{NodeID: n.ID, Message: fmt.Sprintf("duplicate task name %q (also node %q)", n.Name, prev)})
		} else {
			seen[n.Name] = n.ID
		}
		if check, ok := requiredConfig[n.Kind]; ok {
			for _, field := range check(n.Config) {
				errs = append(errs, ValidationError{
					NodeID:  n.ID,
					Message: fmt.Sprintf("missing required field %q for task kind %q", field, n.Kind),
				})
			}
		}
	}

	for _, e := range p.edges {
		if _, ok := p.byID[e.From]; !ok {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("edge references unknown source node %q", e.From)})
		}
		if _, ok := p.byID[e.To]; !ok {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("edge references unknown target node %q", e.To)})
		}
	}

	return errs
}

// ValidateNode checks a single node's required configuration fields.
func ValidateNode(n *TaskNode) []ValidationError {
	check, ok := requiredConfig[n.Kind]
	if !ok {
		return nil
	}
	var errs []ValidationError
	for _, field := range check(n.Config) {
		errs = append(errs, ValidationError{
			NodeID:  n.ID,
			Message: fmt.Sprintf("missing required field %q for task kind %q", field, n.Kind),
		})
	}
	return errs
}

// ValidateErr returns nil when the pipeline is valid, or a combined error
// listing every validation error.
func (p *Pipeline) ValidateErr() error {
	errs := p.Validate()
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("pipeline validation failed:\n  %s", strings.Join(msgs, "\n  "))
}
