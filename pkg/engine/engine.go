// Package engine drives a sequential run over the pipeline's dependency
// order: one unit of work at a time, cooperative pause and abort between
// nodes, fail-fast on the first failure.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sdobson/gradlekit/pkg/condition"
	"github.com/sdobson/gradlekit/pkg/graph"
)

// Engine executes a pipeline using a Runner.
type Engine struct {
	pipeline *graph.Pipeline
	runner   Runner
	env      *condition.Env
	gate     *Gate

	mu     sync.Mutex
	active *RunLog // nil when no run is in flight
	last   *RunLog
	abort  chan struct{}
}

// New creates an Engine after validating the pipeline. A nil env evaluates
// conditions against the pipeline's variables and the process environment.
func New(p *graph.Pipeline, r Runner, env *condition.Env) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline must not be nil")
	}
	if r == nil {
		return nil, fmt.Errorf("runner must not be nil")
	}
	if err := p.ValidateErr(); err != nil {
		return nil, err
	}
	if env == nil {
		env = &condition.Env{Vars: p.VarValues()}
	}
	return &Engine{
		pipeline: p,
		runner:   r,
		env:      env,
		gate:     NewGate(),
	}, nil
}

// Pause suspends the run loop at the next node boundary. A node already in
// flight is never interrupted.
func (e *Engine) Pause() { e.gate.Pause() }

// Resume releases a paused run loop.
func (e *Engine) Resume() { e.gate.Resume() }

// Paused reports whether the loop is gated.
func (e *Engine) Paused() bool { return e.gate.Paused() }

// Abort cancels the active run at the next node boundary. Nodes that have
// not started keep whatever status they held.
func (e *Engine) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.abort != nil {
		select {
		case <-e.abort:
		default:
			close(e.abort)
		}
	}
}

// Snapshot returns a consistent view of the active run, or of the last
// finished run when idle. Nil when nothing has run yet.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	log := e.active
	if log == nil {
		log = e.last
	}
	e.mu.Unlock()
	if log == nil {
		return nil
	}
	return log.Snapshot()
}

// Run executes the pipeline over the given target node IDs, or over all
// enabled nodes when none are given. Exactly one run may be active at a
// time. The returned snapshot is the final state; Run itself only errors on
// setup problems (bad targets, run already active), never on task failure.
func (e *Engine) Run(ctx context.Context, targets ...string) (snap *Snapshot, err error) {
	order, err := e.pipeline.ExecutionOrder(targets...)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("a run is already in progress")
	}
	log := NewRunLog(order)
	e.active = log
	e.abort = make(chan struct{})
	abort := e.abort
	e.mu.Unlock()

	// The finish event lands before the returned snapshot is taken, so
	// callers always observe the run as no longer running.
	defer func() {
		log.Append(Event{Kind: EventRunFinished})
		e.mu.Lock()
		e.last = log
		e.active = nil
		e.abort = nil
		e.mu.Unlock()
		snap = log.Snapshot()
	}()

	for _, id := range order {
		log.Append(Event{Kind: EventNodeStatus, Node: id, Status: StatusPending})
	}

	slog.Info("run started", "nodes", len(order))

	for i, id := range order {
		if err := e.gate.Wait(ctx); err != nil {
			slog.Info("run cancelled while paused", "node", id)
			return nil, nil
		}
		if aborted(ctx, abort) {
			slog.Info("run aborted", "remaining", len(order)-i)
			return nil, nil
		}

		node, ok := e.pipeline.Node(id)
		if !ok {
			// Removed mid-run; treat like a skip.
			log.Append(Event{Kind: EventNodeStatus, Node: id, Status: StatusSkipped, Reason: "node no longer exists"})
			continue
		}

		if run, reason := condition.ShouldRun(node.Condition, e.env); !run {
			slog.Info("skipping node", "node", node.Name, "reason", reason)
			log.Append(Event{Kind: EventNodeStatus, Node: id, Status: StatusSkipped, Reason: reason})
			continue
		}

		slog.Info("executing node", "node", node.Name, "kind", node.Kind)
		log.Append(Event{Kind: EventNodeStatus, Node: id, Status: StatusRunning})

		result, runErr := e.execute(ctx, node, log)
		if runErr == nil && result.OK {
			log.Append(Event{
				Kind: EventNodeStatus, Node: id, Status: StatusSuccess,
				Output: result.Stdout, Errput: result.Stderr, ExitCode: result.ExitCode,
			})
			continue
		}

		reason := fmt.Sprintf("exit code %d", result.ExitCode)
		if runErr != nil {
			reason = runErr.Error()
		}
		slog.Warn("node failed", "node", node.Name, "reason", reason)
		log.Append(Event{
			Kind: EventNodeStatus, Node: id, Status: StatusFailed,
			Output: result.Stdout, Errput: result.Stderr, ExitCode: result.ExitCode,
			Reason: reason,
		})

		// Fail fast: everything not yet run is skipped.
		for _, rest := range order[i+1:] {
			log.Append(Event{
				Kind: EventNodeStatus, Node: rest, Status: StatusSkipped,
				Reason: fmt.Sprintf("upstream task %q failed", node.Name),
			})
		}
		break
	}

	return nil, nil
}

// execute invokes the runner for one node, applying the node timeout and
// streaming progress lines into the run log.
func (e *Engine) execute(ctx context.Context, node *graph.TaskNode, log *RunLog) (WorkResult, error) {
	runCtx := ctx
	if node.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, node.Timeout)
		defer cancel()
	}

	req := e.buildRequest(node)
	progress := func(line string) {
		log.Append(Event{Kind: EventNodeOutput, Node: node.ID, Line: line})
	}
	return e.runner.Run(runCtx, req, progress)
}

// buildRequest maps a node onto a unit of work. Exec nodes carry their own
// command line; every other kind is delegated by task name so the executing
// side resolves it. ${name} references resolve against the variable set.
func (e *Engine) buildRequest(node *graph.TaskNode) WorkRequest {
	vars := e.env.Vars
	req := WorkRequest{TaskID: node.Name, Env: vars}
	if node.Kind == graph.KindExec {
		args := make([]string, len(node.Config.CommandLine))
		for i, a := range node.Config.CommandLine {
			args[i], _ = condition.Resolve(a, vars)
		}
		req.Args = args
		req.Dir, _ = condition.Resolve(node.Config.WorkingDir, vars)
	}
	return req
}

func aborted(ctx context.Context, abort chan struct{}) bool {
	select {
	case <-ctx.Done():
		return true
	case <-abort:
		return true
	default:
		return false
	}
}
