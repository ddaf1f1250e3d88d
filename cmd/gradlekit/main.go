package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sdobson/gradlekit/pkg/condition"
	"github.com/sdobson/gradlekit/pkg/engine"
	"github.com/sdobson/gradlekit/pkg/gradle"
	"github.com/sdobson/gradlekit/pkg/graph"
	"github.com/sdobson/gradlekit/pkg/project"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gradlekit",
		Short: "gradlekit — build-pipeline designer core",
		Long: `Gradlekit keeps a build-pipeline graph and a Gradle build script in sync.

A pipeline is a directed graph of typed tasks (Exec, Copy, Test, ...) with
hard and advisory dependency edges. The graph round-trips through the Gradle
task-registration idiom and runs sequentially in dependency order.`,
	}
	root.AddCommand(generateCmd())
	root.AddCommand(importCmd())
	root.AddCommand(lintCmd())
	root.AddCommand(runCmd())
	root.AddCommand(graphCmd())
	return root
}

// ─── generate ─────────────────────────────────────────────────────────────────

func generateCmd() *cobra.Command {
	var (
		out             string
		includeDisabled bool
	)

	cmd := &cobra.Command{
		Use:   "generate <project.yaml>",
		Short: "Generate a Gradle build script from a pipeline project",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := project.Load(args[0])
			if err != nil {
				return err
			}
			if lintErr := p.ValidateErr(); lintErr != nil {
				return lintErr
			}
			script, err := gradle.Generate(p, gradle.Options{IncludeDisabled: includeDisabled})
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}
			if out == "" {
				fmt.Print(script)
				return nil
			}
			if err := os.WriteFile(out, []byte(script), 0o644); err != nil {
				return fmt.Errorf("write script: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout when empty)")
	cmd.Flags().BoolVar(&includeDisabled, "include-disabled", false, "emit disabled tasks as comment stubs")
	return cmd
}

// ─── import ───────────────────────────────────────────────────────────────────

func importCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "import <build.gradle>",
		Short: "Recover a pipeline project from a build script (best effort)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			res := gradle.Parse(string(src))
			for _, e := range res.Errors {
				fmt.Fprintf(os.Stderr, "error: %v\n", e)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			if out == "" {
				out = "project.yaml"
			}
			if err := project.Save(out, res.Pipeline); err != nil {
				return err
			}
			fmt.Printf("imported %d tasks, %d edges -> %s\n",
				len(res.Pipeline.Nodes()), len(res.Pipeline.Edges()), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output project file (default project.yaml)")
	return cmd
}

// ─── lint ─────────────────────────────────────────────────────────────────────

func lintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <project.yaml>",
		Short: "Validate a pipeline project without generating or running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := project.Load(args[0])
			if err != nil {
				return err
			}
			if lintErr := p.ValidateErr(); lintErr != nil {
				return lintErr
			}
			warnUnresolvedRefs(p)
			fmt.Printf("OK: pipeline %q is valid (%d tasks, %d edges)\n",
				p.Name, len(p.Nodes()), len(p.Edges()))
			return nil
		},
	}
	return cmd
}

// warnUnresolvedRefs lints ${name} references in task configs against the
// declared variables.
func warnUnresolvedRefs(p *graph.Pipeline) {
	vars := p.VarValues()
	for _, n := range p.Nodes() {
		fields := append([]string{n.Config.WorkingDir, n.Config.Into, n.Config.Source, n.Config.DestinationDir},
			n.Config.CommandLine...)
		fields = append(fields, n.Config.From...)
		fields = append(fields, n.Config.Targets...)
		for _, f := range fields {
			if _, unresolved := condition.Resolve(f, vars); len(unresolved) > 0 {
				for _, name := range unresolved {
					fmt.Fprintf(os.Stderr, "warning: task %q references undeclared variable %q\n", n.Name, name)
				}
			}
		}
	}
}

// ─── run ──────────────────────────────────────────────────────────────────────

func runCmd() *cobra.Command {
	var (
		workdir string
		command string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "run <project.yaml> [task...]",
		Short: "Execute the pipeline (or the closure of the named tasks)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := project.Load(args[0])
			if err != nil {
				return err
			}

			var runner engine.Runner
			if dryRun {
				runner = engine.RunnerFunc(func(_ context.Context, req engine.WorkRequest, progress engine.Progress) (engine.WorkResult, error) {
					progress("would run " + req.TaskID)
					return engine.WorkResult{OK: true}, nil
				})
			} else {
				runner = &engine.ExecRunner{Command: command, Workdir: workdir}
			}

			eng, err := engine.New(p, runner, nil)
			if err != nil {
				return err
			}

			var targets []string
			for _, name := range args[1:] {
				n := p.NodeByName(name)
				if n == nil {
					return fmt.Errorf("task %q not found", name)
				}
				targets = append(targets, n.ID)
			}

			snap, err := eng.Run(signalContext(cmd.Context()), targets...)
			if err != nil {
				return err
			}
			printSummary(p, snap)
			for _, r := range snap.Results {
				if r.Status == engine.StatusFailed {
					return fmt.Errorf("run failed")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&workdir, "workdir", ".", "working directory for task execution")
	cmd.Flags().StringVar(&command, "command", "gradle", "build command used for delegated tasks")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log tasks without executing them")
	return cmd
}

func printSummary(p *graph.Pipeline, snap *engine.Snapshot) {
	for _, id := range snap.Order {
		r := snap.Results[id]
		name := id
		if n, ok := p.Node(id); ok {
			name = n.Name
		}
		line := fmt.Sprintf("  %-24s %s", name, r.Status)
		if r.Status == engine.StatusSkipped && r.Reason != "" {
			line += "  (" + r.Reason + ")"
		}
		if r.Duration > 0 {
			line += fmt.Sprintf("  [%s]", r.Duration.Round(1e6))
		}
		fmt.Println(line)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			fmt.Fprintln(os.Stderr, "\n[gradlekit] interrupted, cancelling run")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}
