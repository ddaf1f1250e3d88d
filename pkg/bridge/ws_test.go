package bridge_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sdobson/gradlekit/pkg/bridge"
)

// wireFrame mirrors the bridge wire format for the fake host.
type wireFrame struct {
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

// fakeHost is a websocket server speaking the bridge protocol with a canned
// script and task list.
func fakeHost(t *testing.T) (url string, script *string) {
	t.Helper()
	text := "task build {\n}\n"
	script = &text

	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var f wireFrame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			switch f.Op {
			case "read_script":
				conn.WriteJSON(wireFrame{ID: f.ID, Text: *script})
			case "write_script":
				*script = f.Text
				conn.WriteJSON(wireFrame{ID: f.ID})
			case "list_tasks":
				conn.WriteJSON(wireFrame{ID: f.ID, Tasks: []string{"build", "test"}})
			case "start_task":
				conn.WriteJSON(wireFrame{ID: f.ID})
				conn.WriteJSON(wireFrame{Event: "output", Task: f.Task, Line: "> Task :" + f.Task})
				if f.Task == "doomed" {
					conn.WriteJSON(wireFrame{Event: "failed", Task: f.Task, ExitCode: 1, Error: "build failed"})
				} else {
					conn.WriteJSON(wireFrame{Event: "completed", Task: f.Task})
				}
			case "stop_task":
				conn.WriteJSON(wireFrame{ID: f.ID})
			default:
				conn.WriteJSON(wireFrame{ID: f.ID, Error: "unknown op " + f.Op})
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), script
}

func dialHost(t *testing.T, url string) *bridge.WSBridge {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b, err := bridge.Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestWSBridge_ScriptRoundTrip(t *testing.T) {
	url, script := fakeHost(t)
	b := dialHost(t, url)
	ctx := context.Background()

	got, err := b.ReadScript(ctx)
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if got != "task build {\n}\n" {
		t.Errorf("script = %q", got)
	}

	if err := b.WriteScript(ctx, "task other {\n}\n"); err != nil {
		t.Fatalf("WriteScript: %v", err)
	}
	if *script != "task other {\n}\n" {
		t.Errorf("host script = %q after write", *script)
	}
}

func TestWSBridge_ListTasks(t *testing.T) {
	url, _ := fakeHost(t)
	b := dialHost(t, url)

	tasks, err := b.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0] != "build" || tasks[1] != "test" {
		t.Errorf("tasks = %v", tasks)
	}
}

func TestWSBridge_FailedTaskEvent(t *testing.T) {
	url, _ := fakeHost(t)
	b := dialHost(t, url)

	if err := b.StartTask(context.Background(), "doomed", nil); err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	var sawFailed bool
	deadline := time.After(5 * time.Second)
	for !sawFailed {
		select {
		case ev := <-b.Events():
			if ev.Kind == bridge.TaskFailed && ev.Error == "build failed" {
				sawFailed = true
			}
		case <-deadline:
			t.Fatal("failed event never arrived")
		}
	}
}

func TestWSBridge_TaskEvents(t *testing.T) {
	url, _ := fakeHost(t)
	b := dialHost(t, url)

	if err := b.StartTask(context.Background(), "build", nil); err != nil {
		t.Fatalf("StartTask: %v", err)
	}

	var kinds []bridge.EventKind
	deadline := time.After(5 * time.Second)
	for len(kinds) < 2 {
		select {
		case ev := <-b.Events():
			if ev.Task == "build" {
				kinds = append(kinds, ev.Kind)
			}
		case <-deadline:
			t.Fatalf("events so far: %v", kinds)
		}
	}
	if kinds[0] != bridge.TaskOutput || kinds[1] != bridge.TaskCompleted {
		t.Errorf("kinds = %v, want [output completed]", kinds)
	}
}
