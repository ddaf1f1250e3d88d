package gradle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sdobson/gradlekit/pkg/graph"
)

// BlockError records a task block that could not be decomposed. Parsing
// continues with the remaining blocks.
type BlockError struct {
	Task    string
	Message string
}

func (e BlockError) Error() string {
	if e.Task != "" {
		return fmt.Sprintf("task %q: %s", e.Task, e.Message)
	}
	return e.Message
}

// ParseResult is the best-effort recovery of a build script: the recovered
// pipeline plus per-block hard errors and non-fatal warnings.
type ParseResult struct {
	Pipeline *graph.Pipeline
	Errors   []BlockError
	Warnings []string
}

func (r *ParseResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// rawTask is a recognized registration block before graph assembly.
type rawTask struct {
	name     string
	typeName string // "" for default-kind registrations
	body     string
	deps     map[graph.RelationKind][]string
}

// Parse recovers a pipeline from build-script text. It never fails hard:
// unrecognized constructs are skipped, malformed blocks are recorded as
// errors, and dependency references to unknown tasks are dropped with a
// warning each.
func Parse(src string) *ParseResult {
	res := &ParseResult{Pipeline: graph.New("", nil)}

	var tasks []*rawTask
	lx := newLexer(src)
	for {
		t := lx.next()
		if t.kind == tokEOF {
			break
		}
		if t.kind != tokIdent {
			continue
		}
		switch t.text {
		case "ext":
			save := *lx
			open := lx.next()
			if open.kind != tokLBrace {
				*lx = save
				continue
			}
			start, end, ok := lx.skipBlock(open)
			if !ok {
				res.Errors = append(res.Errors, BlockError{Message: "unterminated ext block"})
				continue
			}
			parseExt(src[start:end], res)
		case "task":
			rt, err := parseTaskDecl(lx, src)
			if err != nil {
				res.Errors = append(res.Errors, *err)
				continue
			}
			tasks = append(tasks, rt)
		case "tasks":
			rt, err := parseRegisterDecl(lx, src)
			if rt == nil && err == nil {
				continue // some other tasks.* call, not a registration
			}
			if err != nil {
				res.Errors = append(res.Errors, *err)
				continue
			}
			tasks = append(tasks, rt)
		}
	}

	if len(tasks) == 0 {
		res.warnf("no task registrations recognized in script")
	}

	for _, rt := range tasks {
		buildNode(rt, res)
	}
	resolveEdges(tasks, res)

	return res
}

// parseTaskDecl consumes a `task name(type: Kind) {` or `task name {` header
// and its block.
func parseTaskDecl(lx *lexer, src string) (*rawTask, *BlockError) {
	nameTok := lx.next()
	if nameTok.kind != tokIdent {
		return nil, &BlockError{Message: "malformed task declaration: expected task name"}
	}
	rt := &rawTask{name: nameTok.text}

	t := lx.next()
	if t.kind == tokPunct && t.text == "(" {
		if typ := lx.next(); typ.kind != tokIdent || typ.text != "type" {
			return nil, &BlockError{Task: rt.name, Message: "malformed task declaration: expected type:"}
		}
		if colon := lx.next(); colon.kind != tokPunct || colon.text != ":" {
			return nil, &BlockError{Task: rt.name, Message: "malformed task declaration: expected type:"}
		}
		typeName := lx.next()
		if typeName.kind != tokIdent {
			return nil, &BlockError{Task: rt.name, Message: "malformed task declaration: expected type name"}
		}
		rt.typeName = typeName.text
		if closing := lx.next(); closing.kind != tokPunct || closing.text != ")" {
			return nil, &BlockError{Task: rt.name, Message: "malformed task declaration: expected ')'"}
		}
		t = lx.next()
	}
	if t.kind != tokLBrace {
		return nil, &BlockError{Task: rt.name, Message: "malformed task declaration: expected '{'"}
	}
	start, end, ok := lx.skipBlock(t)
	if !ok {
		return nil, &BlockError{Task: rt.name, Message: "unterminated task block"}
	}
	rt.body = src[start:end]
	return rt, nil
}

// parseRegisterDecl consumes `tasks.register('name'[, Kind]) {` (or
// tasks.create) and its block. A (nil, nil) return means the tokens were some
// unrelated tasks.* expression.
func parseRegisterDecl(lx *lexer, src string) (*rawTask, *BlockError) {
	save := *lx
	if dot := lx.next(); dot.kind != tokPunct || dot.text != "." {
		*lx = save
		return nil, nil
	}
	method := lx.next()
	if method.kind != tokIdent || (method.text != "register" && method.text != "create") {
		*lx = save
		return nil, nil
	}
	if open := lx.next(); open.kind != tokPunct || open.text != "(" {
		*lx = save
		return nil, nil
	}
	nameTok := lx.next()
	if nameTok.kind != tokString {
		return nil, &BlockError{Message: fmt.Sprintf("malformed tasks.%s: expected quoted task name", method.text)}
	}
	rt := &rawTask{name: nameTok.text}

	t := lx.next()
	if t.kind == tokPunct && t.text == "," {
		typeName := lx.next()
		if typeName.kind != tokIdent {
			return nil, &BlockError{Task: rt.name, Message: "malformed registration: expected type name"}
		}
		rt.typeName = typeName.text
		t = lx.next()
	}
	if t.kind != tokPunct || t.text != ")" {
		return nil, &BlockError{Task: rt.name, Message: "malformed registration: expected ')'"}
	}
	open := lx.next()
	if open.kind != tokLBrace {
		return nil, &BlockError{Task: rt.name, Message: "malformed registration: expected '{'"}
	}
	start, end, ok := lx.skipBlock(open)
	if !ok {
		return nil, &BlockError{Task: rt.name, Message: "unterminated task block"}
	}
	rt.body = src[start:end]
	return rt, nil
}

// ─── body recognizers ────────────────────────────────────────────────────────

const strLit = `'((?:[^'\\]|\\.)*)'`

var (
	reGroup       = regexp.MustCompile(`(?m)^\s*group\s*=?\s*` + strLit)
	reDescription = regexp.MustCompile(`(?m)^\s*description\s*=?\s*` + strLit)
	reEnabled     = regexp.MustCompile(`(?m)^\s*enabled\s*=\s*(true|false)`)
	reRelation    = regexp.MustCompile(`(?m)^\s*(dependsOn|mustRunAfter|shouldRunAfter|finalizedBy)\s*\(?\s*(.+?)\)?\s*$`)
	reTaskName    = regexp.MustCompile(`['"]([A-Za-z_][A-Za-z0-9_]*)['"]`)
	reOnlyIf      = regexp.MustCompile(`(?m)^\s*onlyIf\s*\{\s*(.*?)\s*\}`)
	reTimeout     = regexp.MustCompile(`timeout\s*=\s*Duration\.ofSeconds\(\s*(\d+)\s*\)`)
	reTrigger     = regexp.MustCompile(`(?m)^\s*//\s*trigger:\s*([a-z-]+)\s*(.*)$`)

	reCommandLine = regexp.MustCompile(`(?m)^\s*commandLine\s*\(?\s*(.+?)\)?\s*$`)
	reQuoted      = regexp.MustCompile(strLit)
	reWorkingDir  = regexp.MustCompile(`(?m)^\s*workingDir\s*=?\s*` + strLit)
	reIgnoreExit  = regexp.MustCompile(`ignoreExitValue\s*=\s*true`)
	reFrom        = regexp.MustCompile(`(?m)^\s*from\s*\(?\s*` + strLit)
	reInto        = regexp.MustCompile(`(?m)^\s*into\s*\(?\s*` + strLit)
	reInclude     = regexp.MustCompile(`(?m)^\s*include\s*\(?\s*(.+?)\)?\s*$`)
	reDelete      = regexp.MustCompile(`(?m)^\s*delete\s*\(?\s*(.+?)\)?\s*$`)
	reArchiveName = regexp.MustCompile(`archiveFileName\s*=\s*` + strLit)
	reDestDir     = regexp.MustCompile(`destinationDir(?:ectory)?\s*=\s*file\(` + strLit + `\)`)
	reSource      = regexp.MustCompile(`(?m)^\s*source\s*=\s*` + strLit)
	reMaxHeap     = regexp.MustCompile(`maxHeapSize\s*=\s*` + strLit)
	reURL         = regexp.MustCompile(`(?m)^\s*url\s*=\s*` + strLit)
	reMethod      = regexp.MustCompile(`(?m)^\s*method\s*=\s*` + strLit)

	reExtVar = regexp.MustCompile(`(?m)^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(?:project\.findProperty\(` + strLit + `\)\s*\?:\s*)?` + strLit)
)

func firstMatch(re *regexp.Regexp, body string) (string, bool) {
	if m := re.FindStringSubmatch(body); m != nil {
		return unescape(m[1]), true
	}
	return "", false
}

// buildNode turns a raw block into a TaskNode attached to the result
// pipeline. Unrecognized bodies yield a node with empty configuration.
func buildNode(rt *rawTask, res *ParseResult) {
	kind := graph.KindCustom
	if rt.typeName != "" {
		var known bool
		kind, known = kindForType(rt.typeName)
		if !known {
			res.warnf("task %q: unknown task type %q, treating as custom", rt.name, rt.typeName)
		}
	}

	n, err := res.Pipeline.AddNode(rt.name, kind)
	if err != nil {
		res.Errors = append(res.Errors, BlockError{Task: rt.name, Message: err.Error()})
		return
	}
	body := rt.body

	if v, ok := firstMatch(reGroup, body); ok {
		n.Group = v
	}
	if v, ok := firstMatch(reDescription, body); ok {
		n.Description = v
	}
	if m := reEnabled.FindStringSubmatch(body); m != nil {
		n.Enabled = m[1] == "true"
	}
	if m := reTimeout.FindStringSubmatch(body); m != nil {
		if secs, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			n.Timeout = time.Duration(secs) * time.Second
		}
	}
	if m := reTrigger.FindStringSubmatch(body); m != nil {
		n.Trigger = graph.Trigger{Kind: graph.TriggerKind(m[1]), Spec: strings.TrimSpace(m[2])}
	}
	if m := reOnlyIf.FindStringSubmatch(body); m != nil {
		if tc, ok := parseGuard(m[1]); ok {
			n.Condition = tc
		} else {
			res.warnf("task %q: unrecognized onlyIf expression %q, no condition attached", rt.name, m[1])
		}
	}

	rt.deps = make(map[graph.RelationKind][]string)
	for _, m := range reRelation.FindAllStringSubmatch(body, -1) {
		kind := graph.RelationKind(m[1])
		for _, name := range reTaskName.FindAllStringSubmatch(m[2], -1) {
			rt.deps[kind] = append(rt.deps[kind], name[1])
		}
	}

	parseConfig(n, body)
}

// parseConfig mirrors the generator's kind-specific field set.
func parseConfig(n *graph.TaskNode, body string) {
	c := &n.Config
	switch n.Kind {
	case graph.KindExec:
		if m := reCommandLine.FindStringSubmatch(body); m != nil {
			for _, q := range reQuoted.FindAllStringSubmatch(m[1], -1) {
				c.CommandLine = append(c.CommandLine, unescape(q[1]))
			}
		}
		c.WorkingDir, _ = firstMatch(reWorkingDir, body)
		c.IgnoreExitValue = reIgnoreExit.MatchString(body)
	case graph.KindCopy, graph.KindProcessResources, graph.KindZip:
		for _, m := range reFrom.FindAllStringSubmatch(body, -1) {
			c.From = append(c.From, unescape(m[1]))
		}
		c.Into, _ = firstMatch(reInto, body)
		if m := reInclude.FindStringSubmatch(body); m != nil {
			for _, q := range reQuoted.FindAllStringSubmatch(m[1], -1) {
				c.Include = append(c.Include, unescape(q[1]))
			}
		}
		c.ArchiveFileName, _ = firstMatch(reArchiveName, body)
		if m := reDestDir.FindStringSubmatch(body); m != nil {
			c.DestinationDir = unescape(m[1])
		}
	case graph.KindDelete:
		if m := reDelete.FindStringSubmatch(body); m != nil {
			for _, q := range reQuoted.FindAllStringSubmatch(m[1], -1) {
				c.Targets = append(c.Targets, unescape(q[1]))
			}
		}
	case graph.KindJavaCompile:
		c.Source, _ = firstMatch(reSource, body)
		if m := reDestDir.FindStringSubmatch(body); m != nil {
			c.DestinationDir = unescape(m[1])
		}
	case graph.KindTest:
		c.MaxHeapSize, _ = firstMatch(reMaxHeap, body)
		if m := reInclude.FindStringSubmatch(body); m != nil {
			for _, q := range reQuoted.FindAllStringSubmatch(m[1], -1) {
				c.IncludeTests = append(c.IncludeTests, unescape(q[1]))
			}
		}
	case graph.KindHTTPCall:
		c.URL, _ = firstMatch(reURL, body)
		c.Method, _ = firstMatch(reMethod, body)
	}
}

// resolveEdges reconstructs edges by resolving referenced task names against
// the recovered nodes. Every dropped reference is warned about individually.
func resolveEdges(tasks []*rawTask, res *ParseResult) {
	p := res.Pipeline
	for _, rt := range tasks {
		self := p.NodeByName(rt.name)
		if self == nil {
			continue // block already failed
		}
		for _, kind := range []graph.RelationKind{graph.DependsOn, graph.MustRunAfter, graph.ShouldRunAfter, graph.FinalizedBy} {
			for _, ref := range rt.deps[kind] {
				other := p.NodeByName(ref)
				if other == nil {
					res.warnf("task %q: %s reference to unknown task %q dropped", rt.name, kind, ref)
					continue
				}
				// finalizedBy points forward; the others point at prerequisites.
				from, to := other.ID, self.ID
				if kind == graph.FinalizedBy {
					from, to = self.ID, other.ID
				}
				if err := p.AddEdge(from, to, kind); err != nil {
					res.warnf("task %q: %s %q dropped: %v", rt.name, kind, ref, err)
				}
			}
		}
	}
}

// parseExt recovers variable declarations from an ext block. The
// `findProperty(...) ?: default` form the generator emits unwraps to the
// declared default; a plain literal assignment becomes the default directly.
func parseExt(body string, res *ParseResult) {
	for _, m := range reExtVar.FindAllStringSubmatch(body, -1) {
		v := graph.Variable{Name: m[1], Type: graph.VarString, Default: unescape(m[3])}
		if _, err := res.Pipeline.AddVariable(v); err != nil {
			res.warnf("ext variable %q dropped: %v", m[1], err)
		}
	}
}
