package gradle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sdobson/gradlekit/pkg/condition"
	"github.com/sdobson/gradlekit/pkg/graph"
)

// compileGuard compiles a TaskCondition into a single Groovy boolean
// expression. Each atom's operands compile per their source; variable
// references fall back to the variable's declared default so the script
// behaves the same when run outside the designer. A skipIf condition is
// wrapped in a negated onlyIf.
func compileGuard(tc *condition.TaskCondition, p *graph.Pipeline) string {
	atoms := make([]string, len(tc.Conditions))
	for i, c := range tc.Conditions {
		atoms[i] = compileAtom(c, p)
	}
	op := " && "
	if tc.Logic == condition.LogicAny {
		op = " || "
	}
	expr := strings.Join(atoms, op)
	if tc.Mode == condition.ModeSkipIf {
		return fmt.Sprintf("!(%s)", expr)
	}
	return expr
}

func compileAtom(c condition.Condition, p *graph.Pipeline) string {
	left := compileOperand(c.LeftSource, c.Left, p)
	switch c.Op {
	case condition.OpIsEmpty:
		return fmt.Sprintf("%s.isEmpty()", left)
	case condition.OpIsNotEmpty:
		return fmt.Sprintf("!%s.isEmpty()", left)
	case condition.OpIsTrue:
		return fmt.Sprintf("%s.toBoolean()", left)
	case condition.OpIsFalse:
		return fmt.Sprintf("!%s.toBoolean()", left)
	}

	right := compileOperand(c.RightSource, c.Right, p)
	switch c.Op {
	case condition.OpEquals:
		return fmt.Sprintf("%s == %s", left, right)
	case condition.OpNotEquals:
		return fmt.Sprintf("%s != %s", left, right)
	case condition.OpContains:
		return fmt.Sprintf("%s.contains(%s)", left, right)
	case condition.OpStartsWith:
		return fmt.Sprintf("%s.startsWith(%s)", left, right)
	case condition.OpEndsWith:
		return fmt.Sprintf("%s.endsWith(%s)", left, right)
	case condition.OpMatches:
		return fmt.Sprintf("(%s ==~ %s)", left, right)
	case condition.OpGreaterThan:
		return numericAtom(left, ">", right)
	case condition.OpLessThan:
		return numericAtom(left, "<", right)
	case condition.OpGreaterOrEqual:
		return numericAtom(left, ">=", right)
	case condition.OpLessOrEqual:
		return numericAtom(left, "<=", right)
	}
	return "false"
}

func numericAtom(left, op, right string) string {
	return fmt.Sprintf("(%s as Double) %s (%s as Double)", left, op, right)
}

func compileOperand(src condition.Source, value string, p *graph.Pipeline) string {
	switch src {
	case condition.SourceVariable:
		fallback := ""
		if v := p.VariableByName(value); v != nil {
			fallback = v.Default
		}
		return fmt.Sprintf("(project.findProperty(%s) ?: %s)", quote(value), quote(fallback))
	case condition.SourceEnvironment:
		return fmt.Sprintf("(System.getenv(%s) ?: '')", quote(value))
	case condition.SourceProperty:
		return fmt.Sprintf("(project.findProperty(%s) ?: '')", quote(value))
	default:
		return quote(value)
	}
}

// ─── best-effort guard recognition ───────────────────────────────────────────

var (
	guardNegated    = regexp.MustCompile(`^!\(\s*(.*?)\s*\)$`)
	guardEnvPresent = regexp.MustCompile(`^System\.getenv\(\s*['"]([A-Za-z_][A-Za-z0-9_]*)['"]\s*\)\s*!=\s*null$`)
	guardEnvAbsent  = regexp.MustCompile(`^System\.getenv\(\s*['"]([A-Za-z_][A-Za-z0-9_]*)['"]\s*\)\s*==\s*null$`)
	guardHasProp    = regexp.MustCompile(`^(!?)\s*project\.hasProperty\(\s*['"]([A-Za-z_][A-Za-z0-9_]*)['"]\s*\)$`)
	guardEnvEquals  = regexp.MustCompile(`^\(System\.getenv\('((?:[^'\\]|\\.)*)'\)\s*\?:\s*''\)\s*(==|!=)\s*'((?:[^'\\]|\\.)*)'$`)
	guardPropEquals = regexp.MustCompile(`^\(project\.findProperty\('((?:[^'\\]|\\.)*)'\)\s*\?:\s*'((?:[^'\\]|\\.)*)'\)\s*(==|!=)\s*'((?:[^'\\]|\\.)*)'$`)
)

// parseGuard recognizes the common onlyIf idioms: environment-variable
// presence/absence, project-property presence, and the equality forms the
// generator emits for environment, variable, and property operands. Anything
// else is left unrecognized (ok == false); callers surface a warning and
// attach no condition rather than failing the block.
func parseGuard(expr string) (*condition.TaskCondition, bool) {
	expr = strings.TrimSpace(expr)
	mode := condition.ModeOnlyIf
	if m := guardNegated.FindStringSubmatch(expr); m != nil {
		mode = condition.ModeSkipIf
		expr = m[1]
	}

	logic := condition.LogicAll
	parts := []string{expr}
	if strings.Contains(expr, "&&") {
		parts = strings.Split(expr, "&&")
	} else if strings.Contains(expr, "||") {
		logic = condition.LogicAny
		parts = strings.Split(expr, "||")
	}

	tc := &condition.TaskCondition{Mode: mode, Logic: logic}
	for _, part := range parts {
		atom, ok := parseGuardAtom(strings.TrimSpace(part))
		if !ok {
			return nil, false
		}
		tc.Conditions = append(tc.Conditions, atom)
	}
	return tc, true
}

func parseGuardAtom(expr string) (condition.Condition, bool) {
	if m := guardEnvPresent.FindStringSubmatch(expr); m != nil {
		return condition.Condition{
			LeftSource: condition.SourceEnvironment, Left: m[1],
			Op: condition.OpIsNotEmpty,
		}, true
	}
	if m := guardEnvAbsent.FindStringSubmatch(expr); m != nil {
		return condition.Condition{
			LeftSource: condition.SourceEnvironment, Left: m[1],
			Op: condition.OpIsEmpty,
		}, true
	}
	if m := guardHasProp.FindStringSubmatch(expr); m != nil {
		op := condition.OpIsNotEmpty
		if m[1] == "!" {
			op = condition.OpIsEmpty
		}
		return condition.Condition{
			LeftSource: condition.SourceProperty, Left: m[2],
			Op: op,
		}, true
	}
	if m := guardEnvEquals.FindStringSubmatch(expr); m != nil {
		op := condition.OpEquals
		if m[2] == "!=" {
			op = condition.OpNotEquals
		}
		return condition.Condition{
			LeftSource: condition.SourceEnvironment, Left: unescape(m[1]),
			Op:          op,
			RightSource: condition.SourceLiteral, Right: unescape(m[3]),
		}, true
	}
	if m := guardPropEquals.FindStringSubmatch(expr); m != nil {
		// A non-empty fallback means the operand was a designer variable with
		// that default; an empty fallback is indistinguishable from a plain
		// property read, and both compile back to the same expression.
		src := condition.SourceProperty
		if m[2] != "" {
			src = condition.SourceVariable
		}
		op := condition.OpEquals
		if m[3] == "!=" {
			op = condition.OpNotEquals
		}
		return condition.Condition{
			LeftSource: src, Left: unescape(m[1]),
			Op:          op,
			RightSource: condition.SourceLiteral, Right: unescape(m[4]),
		}, true
	}
	return condition.Condition{}, false
}
