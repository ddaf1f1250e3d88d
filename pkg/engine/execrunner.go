package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ExecRunner carries out units of work as local subprocesses. When a request
// has no explicit argument list, the configured build command is invoked with
// the task identifier (`gradle <task>` by default).
type ExecRunner struct {
	// Command is the build tool binary for delegated tasks. Defaults to
	// "gradle".
	Command string

	// Workdir is the default working directory; a request's Dir overrides it.
	Workdir string
}

func (r *ExecRunner) Run(ctx context.Context, req WorkRequest, progress Progress) (WorkResult, error) {
	name, args := r.commandFor(req)

	cmd := exec.CommandContext(ctx, name, args...)
	if req.Dir != "" {
		cmd.Dir = req.Dir
	} else if r.Workdir != "" {
		cmd.Dir = r.Workdir
	}
	cmd.Env = os.Environ()
	for k, v := range req.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return WorkResult{ExitCode: -1}, fmt.Errorf("stdout pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return WorkResult{ExitCode: -1}, fmt.Errorf("start %q: %w", name, err)
	}

	var stdoutBuf bytes.Buffer
	tee := io.TeeReader(stdout, &stdoutBuf)
	scanner := bufio.NewScanner(tee)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if progress != nil {
			progress(scanner.Text())
		}
	}
	if scanner.Err() != nil {
		// A line past the token limit stops line delivery, but the pipe must
		// still be drained or the child blocks writing and Wait never
		// returns. The tee keeps the remainder in the captured output.
		io.Copy(io.Discard, tee)
	}

	runErr := cmd.Wait()
	elapsed := time.Since(start)

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			// Context deadline or signal.
			exitCode = -1
		}
	}

	return WorkResult{
		OK:       exitCode == 0,
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode,
		Elapsed:  elapsed,
	}, nil
}

func (r *ExecRunner) commandFor(req WorkRequest) (name string, args []string) {
	if len(req.Args) > 0 {
		return req.Args[0], req.Args[1:]
	}
	cmd := r.Command
	if cmd == "" {
		cmd = "gradle"
	}
	return cmd, []string{req.TaskID}
}
