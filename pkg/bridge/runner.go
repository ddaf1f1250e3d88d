package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/sdobson/gradlekit/pkg/engine"
)

// Runner adapts a Bridge to the engine's unit-of-work interface: it starts
// the task on the host and folds the task's lifecycle events into a single
// WorkResult.
type Runner struct {
	Bridge Bridge
}

func (r *Runner) Run(ctx context.Context, req engine.WorkRequest, progress engine.Progress) (engine.WorkResult, error) {
	start := time.Now()
	if err := r.Bridge.StartTask(ctx, req.TaskID, req.Args); err != nil {
		return engine.WorkResult{ExitCode: -1}, err
	}

	var out strings.Builder
	for {
		select {
		case ev, ok := <-r.Bridge.Events():
			if !ok {
				return engine.WorkResult{
					Stdout: out.String(), ExitCode: -1, Elapsed: time.Since(start),
				}, context.Canceled
			}
			if ev.Task != req.TaskID {
				continue
			}
			switch ev.Kind {
			case TaskOutput:
				out.WriteString(ev.Line)
				out.WriteString("\n")
				if progress != nil {
					progress(ev.Line)
				}
			case TaskCompleted:
				return engine.WorkResult{
					OK:       true,
					Stdout:   out.String(),
					ExitCode: ev.ExitCode,
					Elapsed:  time.Since(start),
				}, nil
			case TaskFailed:
				return engine.WorkResult{
					OK:       false,
					Stdout:   out.String(),
					Stderr:   ev.Error,
					ExitCode: ev.ExitCode,
					Elapsed:  time.Since(start),
				}, nil
			}
		case <-ctx.Done():
			// Best effort: ask the host to stop the task before giving up.
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = r.Bridge.StopTask(stopCtx, req.TaskID)
			cancel()
			return engine.WorkResult{
				Stdout: out.String(), ExitCode: -1, Elapsed: time.Since(start),
			}, ctx.Err()
		}
	}
}
