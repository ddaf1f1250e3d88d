package engine

import (
	"context"
	"sync"
)

// Gate is a suspend/resume point for the run loop. Pausing closes the gate;
// Wait blocks until the gate reopens or the context is cancelled. No polling:
// resume latency is the cost of a channel receive.
type Gate struct {
	mu     sync.Mutex
	open   chan struct{} // closed channel means the gate is open
	paused bool
}

// NewGate returns an open gate.
func NewGate() *Gate {
	g := &Gate{open: make(chan struct{})}
	close(g.open)
	return g
}

// Pause closes the gate. Safe to call repeatedly.
func (g *Gate) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.paused {
		g.paused = true
		g.open = make(chan struct{})
	}
}

// Resume reopens the gate, releasing any waiter.
func (g *Gate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused {
		g.paused = false
		close(g.open)
	}
}

// Paused reports the current gate state.
func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

// Wait blocks while the gate is paused. Returns the context error when
// cancelled mid-wait.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		ch := g.open
		g.mu.Unlock()
		select {
		case <-ch:
			// Re-check: the gate may have been paused again between the
			// channel close and now.
			g.mu.Lock()
			stillPaused := g.paused
			g.mu.Unlock()
			if !stillPaused {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
