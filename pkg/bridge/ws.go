package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// frame is the JSON wire format: requests carry an op and id, responses echo
// the id, events carry an event kind and no id.
type frame struct {
	ID       int64    `json:"id,omitempty"`
	Op       string   `json:"op,omitempty"`
	Task     string   `json:"task,omitempty"`
	Args     []string `json:"args,omitempty"`
	Text     string   `json:"text,omitempty"`
	Tasks    []string `json:"tasks,omitempty"`
	Event    string   `json:"event,omitempty"`
	Line     string   `json:"line,omitempty"`
	ExitCode int      `json:"exit_code,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// WSBridge talks to a host daemon over a websocket. Request/response pairs
// are correlated by id; task-lifecycle events arrive interleaved and are
// fanned out on the Events channel.
type WSBridge struct {
	conn   *websocket.Conn
	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan frame
	closed  bool

	writeMu sync.Mutex
	events  chan Event
}

// Dial connects to a host bridge endpoint, e.g. "ws://localhost:8649/bridge".
func Dial(ctx context.Context, url string) (*WSBridge, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("bridge dial %s: %w", url, err)
	}
	b := &WSBridge{
		conn:    conn,
		pending: make(map[int64]chan frame),
		events:  make(chan Event, 64),
	}
	go b.readLoop()
	return b, nil
}

func (b *WSBridge) readLoop() {
	defer func() {
		b.mu.Lock()
		b.closed = true
		for id, ch := range b.pending {
			close(ch)
			delete(b.pending, id)
		}
		b.mu.Unlock()
		close(b.events)
	}()

	for {
		var f frame
		if err := b.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("bridge connection lost", "err", err)
			}
			return
		}
		if f.Event != "" {
			ev := Event{
				Kind:     EventKind(f.Event),
				Task:     f.Task,
				Line:     f.Line,
				ExitCode: f.ExitCode,
				Error:    f.Error,
			}
			select {
			case b.events <- ev:
			default:
				slog.Warn("bridge event dropped, slow consumer", "task", ev.Task, "kind", ev.Kind)
			}
			continue
		}
		b.mu.Lock()
		ch, ok := b.pending[f.ID]
		if ok {
			delete(b.pending, f.ID)
		}
		b.mu.Unlock()
		if ok {
			ch <- f
			close(ch)
		}
	}
}

// call sends a request frame and waits for its response.
func (b *WSBridge) call(ctx context.Context, req frame) (frame, error) {
	req.ID = b.nextID.Add(1)
	ch := make(chan frame, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return frame{}, fmt.Errorf("bridge closed")
	}
	b.pending[req.ID] = ch
	b.mu.Unlock()

	b.writeMu.Lock()
	err := b.conn.WriteJSON(req)
	b.writeMu.Unlock()
	if err != nil {
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
		return frame{}, fmt.Errorf("bridge write %s: %w", req.Op, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return frame{}, fmt.Errorf("bridge closed waiting for %s", req.Op)
		}
		if resp.Error != "" {
			return frame{}, fmt.Errorf("bridge %s: %s", req.Op, resp.Error)
		}
		return resp, nil
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
		return frame{}, ctx.Err()
	}
}

func (b *WSBridge) ReadScript(ctx context.Context) (string, error) {
	resp, err := b.call(ctx, frame{Op: "read_script"})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (b *WSBridge) WriteScript(ctx context.Context, text string) error {
	_, err := b.call(ctx, frame{Op: "write_script", Text: text})
	return err
}

func (b *WSBridge) ListTasks(ctx context.Context) ([]string, error) {
	resp, err := b.call(ctx, frame{Op: "list_tasks"})
	if err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (b *WSBridge) StartTask(ctx context.Context, name string, args []string) error {
	_, err := b.call(ctx, frame{Op: "start_task", Task: name, Args: args})
	return err
}

func (b *WSBridge) StopTask(ctx context.Context, name string) error {
	_, err := b.call(ctx, frame{Op: "stop_task", Task: name})
	return err
}

func (b *WSBridge) Events() <-chan Event { return b.events }

func (b *WSBridge) Close() error {
	b.writeMu.Lock()
	_ = b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	b.writeMu.Unlock()
	return b.conn.Close()
}
