package condition

import "regexp"

var refPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Resolve substitutes ${name} references in text using vars. References to
// undeclared names are left in place and reported in unresolved — a lint
// signal, not a substitution failure.
func Resolve(text string, vars map[string]string) (resolved string, unresolved []string) {
	resolved = refPattern.ReplaceAllStringFunc(text, func(ref string) string {
		name := refPattern.FindStringSubmatch(ref)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		unresolved = append(unresolved, name)
		return ref
	})
	return resolved, unresolved
}

// References returns the distinct variable names referenced by text, in order
// of first occurrence.
func References(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range refPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
