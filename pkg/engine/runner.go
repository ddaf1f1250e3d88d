package engine

import (
	"context"
	"time"
)

// WorkRequest describes one unit of work handed to a Runner.
type WorkRequest struct {
	TaskID string // task identifier as known to the executing side
	Dir    string // working-directory override, "" for the runner default
	Args   []string
	Env    map[string]string
}

// WorkResult is the outcome of a unit of work.
type WorkResult struct {
	OK       bool
	Stdout   string
	Stderr   string
	ExitCode int
	Elapsed  time.Duration
}

// Progress receives streamed output lines while a unit of work executes.
type Progress func(line string)

// Runner executes units of work. The orchestrator treats it as an opaque
// capability: subprocess execution, a remote tool bridge, and simulations
// are all valid implementations.
type Runner interface {
	Run(ctx context.Context, req WorkRequest, progress Progress) (WorkResult, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, req WorkRequest, progress Progress) (WorkResult, error)

func (f RunnerFunc) Run(ctx context.Context, req WorkRequest, progress Progress) (WorkResult, error) {
	return f(ctx, req, progress)
}
