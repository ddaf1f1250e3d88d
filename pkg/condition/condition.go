package condition

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Source identifies where a condition operand's value comes from.
type Source string

const (
	SourceVariable    Source = "variable"
	SourceEnvironment Source = "environment"
	SourceProperty    Source = "property"
	SourceLiteral     Source = "literal"
)

// Operator is the comparison applied between the two operands.
// Unary operators (IsEmpty, IsNotEmpty, IsTrue, IsFalse) ignore the right operand.
type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "notEquals"
	OpContains       Operator = "contains"
	OpStartsWith     Operator = "startsWith"
	OpEndsWith       Operator = "endsWith"
	OpMatches        Operator = "matches"
	OpGreaterThan    Operator = "greaterThan"
	OpLessThan       Operator = "lessThan"
	OpGreaterOrEqual Operator = "greaterOrEqual"
	OpLessOrEqual    Operator = "lessOrEqual"
	OpIsEmpty        Operator = "isEmpty"
	OpIsNotEmpty     Operator = "isNotEmpty"
	OpIsTrue         Operator = "isTrue"
	OpIsFalse        Operator = "isFalse"
)

// IsUnary reports whether op consumes only the left operand.
func (op Operator) IsUnary() bool {
	switch op {
	case OpIsEmpty, OpIsNotEmpty, OpIsTrue, OpIsFalse:
		return true
	}
	return false
}

// Mode decides how a TaskCondition's result gates execution.
type Mode string

const (
	ModeOnlyIf Mode = "onlyIf" // run when the condition is true
	ModeSkipIf Mode = "skipIf" // skip when the condition is true
)

// Logic combines the atomic condition results.
type Logic string

const (
	LogicAll Logic = "and"
	LogicAny Logic = "or"
)

// Condition is a single atomic comparison.
type Condition struct {
	LeftSource  Source
	Left        string
	Op          Operator
	RightSource Source
	Right       string
}

// TaskCondition is an ordered list of atomic conditions attached to a task,
// combined with Logic and applied per Mode.
type TaskCondition struct {
	Mode       Mode
	Logic      Logic
	Conditions []Condition
}

// Env is the evaluation context: declared variable values, project properties,
// and an environment lookup. Absent lookups resolve to the empty string.
type Env struct {
	Vars       map[string]string
	Properties map[string]string

	// LookupEnv defaults to os.LookupEnv when nil.
	LookupEnv func(string) (string, bool)
}

func (e *Env) lookup(src Source, value string) string {
	if e == nil {
		e = &Env{}
	}
	switch src {
	case SourceVariable:
		return e.Vars[value]
	case SourceEnvironment:
		fn := e.LookupEnv
		if fn == nil {
			fn = os.LookupEnv
		}
		v, _ := fn(value)
		return v
	case SourceProperty:
		return e.Properties[value]
	default:
		return value
	}
}

// Eval evaluates a single atomic condition. Evaluation never returns an
// error: an invalid regex in a Matches condition counts as false.
func Eval(c Condition, env *Env) bool {
	left := env.lookup(c.LeftSource, c.Left)

	switch c.Op {
	case OpIsEmpty:
		return left == ""
	case OpIsNotEmpty:
		return left != ""
	case OpIsTrue:
		return strings.EqualFold(left, "true") || left == "1"
	case OpIsFalse:
		return strings.EqualFold(left, "false") || left == "0" || left == ""
	}

	right := env.lookup(c.RightSource, c.Right)

	switch c.Op {
	case OpEquals:
		return left == right
	case OpNotEquals:
		return left != right
	case OpContains:
		return strings.Contains(left, right)
	case OpStartsWith:
		return strings.HasPrefix(left, right)
	case OpEndsWith:
		return strings.HasSuffix(left, right)
	case OpMatches:
		ok, err := regexp.MatchString(right, left)
		if err != nil {
			return false
		}
		return ok
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		return compareNumeric(c.Op, left, right)
	}
	return false
}

// compareNumeric parses both operands as floats. Non-numeric operands compare
// as NaN, which makes every ordering operator false.
func compareNumeric(op Operator, left, right string) bool {
	l, errL := strconv.ParseFloat(strings.TrimSpace(left), 64)
	r, errR := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if errL != nil || errR != nil {
		return false
	}
	switch op {
	case OpGreaterThan:
		return l > r
	case OpLessThan:
		return l < r
	case OpGreaterOrEqual:
		return l >= r
	case OpLessOrEqual:
		return l <= r
	}
	return false
}

// Eval combines the atomic results with the declared logic. An empty
// condition list is true: combined with the Mode semantics below, absence of
// conditions never causes a skip.
func (tc *TaskCondition) Eval(env *Env) bool {
	if len(tc.Conditions) == 0 {
		return tc.Mode != ModeSkipIf
	}
	if tc.Logic == LogicAny {
		for _, c := range tc.Conditions {
			if Eval(c, env) {
				return true
			}
		}
		return false
	}
	for _, c := range tc.Conditions {
		if !Eval(c, env) {
			return false
		}
	}
	return true
}

// ShouldRun decides whether a task gated by tc runs. A nil tc always runs.
// When the task should not run, reason holds a human-readable explanation.
func ShouldRun(tc *TaskCondition, env *Env) (run bool, reason string) {
	if tc == nil {
		return true, ""
	}
	result := tc.Eval(env)
	switch tc.Mode {
	case ModeSkipIf:
		if result {
			return false, fmt.Sprintf("skipIf condition matched: %s", tc.describe())
		}
		return true, ""
	default: // onlyIf
		if !result {
			return false, fmt.Sprintf("onlyIf condition not met: %s", tc.describe())
		}
		return true, ""
	}
}

func (tc *TaskCondition) describe() string {
	if len(tc.Conditions) == 0 {
		return "(no conditions)"
	}
	sep := " and "
	if tc.Logic == LogicAny {
		sep = " or "
	}
	parts := make([]string, len(tc.Conditions))
	for i, c := range tc.Conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, sep)
}

// String renders an atomic condition for skip reasons and lint output.
func (c Condition) String() string {
	left := operandString(c.LeftSource, c.Left)
	if c.Op.IsUnary() {
		return fmt.Sprintf("%s %s", left, c.Op)
	}
	return fmt.Sprintf("%s %s %s", left, c.Op, operandString(c.RightSource, c.Right))
}

func operandString(src Source, value string) string {
	switch src {
	case SourceVariable:
		return fmt.Sprintf("var(%s)", value)
	case SourceEnvironment:
		return fmt.Sprintf("env(%s)", value)
	case SourceProperty:
		return fmt.Sprintf("property(%s)", value)
	default:
		return fmt.Sprintf("%q", value)
	}
}
