// Package bridge defines the host-bridge boundary: the capabilities the
// designer needs from the machine that owns the build script and the build
// tool. The core depends only on these shapes, not on a transport.
package bridge

import "context"

// EventKind tags task-lifecycle events pushed by the host.
type EventKind string

const (
	TaskStarted   EventKind = "started"
	TaskOutput    EventKind = "output"
	TaskCompleted EventKind = "completed"
	TaskFailed    EventKind = "failed"
)

// Event is a task-lifecycle notification.
type Event struct {
	Kind     EventKind
	Task     string
	Line     string // output events
	ExitCode int    // completed/failed events
	Error    string // failed events
}

// Bridge is the host capability set: script access, task discovery, and
// task execution with lifecycle events.
type Bridge interface {
	// ReadScript returns the current build-script text.
	ReadScript(ctx context.Context) (string, error)

	// WriteScript replaces the build-script text.
	WriteScript(ctx context.Context, text string) error

	// ListTasks returns the task identifiers known to the host.
	ListTasks(ctx context.Context) ([]string, error)

	// StartTask begins executing a named task.
	StartTask(ctx context.Context, name string, args []string) error

	// StopTask cancels a running task.
	StopTask(ctx context.Context, name string) error

	// Events delivers task-lifecycle events. The channel closes when the
	// bridge shuts down.
	Events() <-chan Event

	Close() error
}
