package engine

import (
	"sync"
	"time"
)

// Status is the per-node execution state machine:
// idle → pending → running → {success | failed | skipped}.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Terminal reports whether the status is final for a run.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// EventKind tags entries in the run log.
type EventKind string

const (
	EventRunStarted  EventKind = "run-started"
	EventNodeStatus  EventKind = "node-status"
	EventNodeOutput  EventKind = "node-output"
	EventRunFinished EventKind = "run-finished"
)

// Event is one append-only entry in a run's log.
type Event struct {
	Kind     EventKind
	Time     time.Time
	Node     string // node ID, empty for run-level events
	Status   Status // for node-status events
	Line     string // for node-output events
	Output   string // captured stdout, on terminal node-status events
	Errput   string // captured stderr
	ExitCode int
	Reason   string // skip reason or failure message
}

// Result is the derived per-node outcome.
type Result struct {
	Status   Status
	Started  time.Time
	Finished time.Time
	Duration time.Duration
	Output   string
	Errput   string
	ExitCode int
	Reason   string
}

// Snapshot is a consistent view of a run, derived from the event log.
// Callers own the snapshot; it never mutates after being returned.
type Snapshot struct {
	Order    []string // frozen execution order, node IDs
	Results  map[string]Result
	Started  time.Time
	Finished time.Time
	Running  bool
}

// RunLog is the single mutable structure of a run: an append-only event log.
// The orchestrator loop is the only writer; any goroutine may take snapshots.
type RunLog struct {
	mu     sync.Mutex
	order  []string
	events []Event
}

// NewRunLog freezes the execution order and records the run start.
func NewRunLog(order []string) *RunLog {
	l := &RunLog{order: append([]string(nil), order...)}
	l.Append(Event{Kind: EventRunStarted})
	return l
}

// Append adds an event, stamping the time when unset.
func (l *RunLog) Append(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

// Events returns a copy of the log so far.
func (l *RunLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Snapshot replays the log into a consistent view.
func (l *RunLog) Snapshot() *Snapshot {
	events := l.Events()

	s := &Snapshot{
		Order:   append([]string(nil), l.order...),
		Results: make(map[string]Result, len(l.order)),
	}
	for _, id := range s.Order {
		s.Results[id] = Result{Status: StatusIdle}
	}

	for _, ev := range events {
		switch ev.Kind {
		case EventRunStarted:
			s.Started = ev.Time
			s.Running = true
		case EventRunFinished:
			s.Finished = ev.Time
			s.Running = false
		case EventNodeStatus:
			r := s.Results[ev.Node]
			prev := r.Status
			r.Status = ev.Status
			switch ev.Status {
			case StatusRunning:
				r.Started = ev.Time
			case StatusSuccess, StatusFailed:
				r.Finished = ev.Time
				if prev == StatusRunning {
					r.Duration = ev.Time.Sub(r.Started)
				}
				r.Output = ev.Output
				r.Errput = ev.Errput
				r.ExitCode = ev.ExitCode
				r.Reason = ev.Reason
			case StatusSkipped:
				r.Reason = ev.Reason
			}
			s.Results[ev.Node] = r
		}
	}
	return s
}
