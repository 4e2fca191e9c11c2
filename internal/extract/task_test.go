package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/monday-agents/gateway/internal/llm"
	"github.com/monday-agents/gateway/internal/render"
)

func newFakeLLMServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": text}},
		})
	}))
}

func TestTask_ParsesValidJSON(t *testing.T) {
	srv := newFakeLLMServer(t, `{"name":"Fix the deploy script","description":"It fails on staging","assignee":"Bob","priority":"High","status":"ToDo"}`)
	defer srv.Close()
	c := llm.New(srv.URL, "key", "model")

	got := Task(context.Background(), c, "we need to fix the deploy script, it fails on staging, bob can take it")
	if got.Name != "Fix the deploy script" || got.Assignee != "Bob" || got.Priority != render.PriorityHigh {
		t.Errorf("unexpected extracted task: %+v", got)
	}
}

func TestTask_StripsCodeFences(t *testing.T) {
	srv := newFakeLLMServer(t, "```json\n{\"name\":\"Write docs\",\"priority\":\"Low\",\"status\":\"ToDo\"}\n```")
	defer srv.Close()
	c := llm.New(srv.URL, "key", "model")

	got := Task(context.Background(), c, "someone should write docs")
	if got.Name != "Write docs" {
		t.Errorf("expected fenced JSON to parse, got %+v", got)
	}
}

func TestTask_FallsBackOnMalformedReply(t *testing.T) {
	srv := newFakeLLMServer(t, "not json at all")
	defer srv.Close()
	c := llm.New(srv.URL, "key", "model")

	got := Task(context.Background(), c, "some rambling conversation about a task")
	if got.Name == "" {
		t.Error("expected a non-empty fallback name")
	}
	if got.Priority != render.PriorityMedium || got.Status != render.TaskStatusToDo {
		t.Errorf("expected default priority/status on fallback, got %+v", got)
	}
}

func TestTask_FallsBackOnTransportError(t *testing.T) {
	c := llm.New("http://127.0.0.1:0", "key", "model")
	got := Task(context.Background(), c, "a task transcript")
	if got.Name == "" {
		t.Error("expected fallback name on transport failure")
	}
}

func TestTask_DefaultsMissingPriorityAndStatus(t *testing.T) {
	srv := newFakeLLMServer(t, `{"name":"Do the thing"}`)
	defer srv.Close()
	c := llm.New(srv.URL, "key", "model")

	got := Task(context.Background(), c, "do the thing")
	if got.Priority != render.PriorityMedium {
		t.Errorf("expected default priority Medium, got %s", got.Priority)
	}
	if got.Status != render.TaskStatusToDo {
		t.Errorf("expected default status ToDo, got %s", got.Status)
	}
}
