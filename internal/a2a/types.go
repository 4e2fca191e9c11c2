// Package a2a implements the client side of the agent-to-agent JSON-RPC 2.0
// protocol used to reach the four downstream worker agents.
package a2a

import "fmt"

// TaskState is the closed set of states an A2A task envelope can be in.
type TaskState string

const (
	StateSubmitted     TaskState = "submitted"
	StateWorking       TaskState = "working"
	StateInputRequired TaskState = "input-required"
	StateCompleted     TaskState = "completed"
	StateFailed        TaskState = "failed"
	StateCanceled      TaskState = "canceled"
)

// Part is one piece of a message. The Kind/Type discriminator is read
// leniently: some agents emit "type", others "kind", both meaning "text".
type Part struct {
	Type string `json:"type,omitempty"`
	Kind string `json:"kind,omitempty"`
	Text string `json:"text"`
}

// IsText reports whether this part carries plain text, accepting either
// discriminator spelling for forward/backward compatibility.
func (p Part) IsText() bool {
	return p.Type == "text" || p.Kind == "text"
}

// Message is a single turn in a task's history.
type Message struct {
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
	MessageID string `json:"messageId,omitempty"`
}

// Status carries a task's current state and, optionally, the agent's reply.
type Status struct {
	State   TaskState `json:"state"`
	Message *Message  `json:"message,omitempty"`
}

// Task is the envelope produced by a downstream agent.
type Task struct {
	ID        string    `json:"id"`
	ContextID string    `json:"contextId,omitempty"`
	Status    Status    `json:"status"`
	History   []Message `json:"history,omitempty"`
}

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("a2a: rpc error %d: %s", e.Code, e.Message)
}

// Response is the JSON-RPC 2.0 envelope returned by SendMessage/GetTask.
// Callers branch on Error vs Result; the client never returns a Go error
// for a request that reached the wire.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Result  *Task     `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

// ErrTransport is the synthetic JSON-RPC error code used whenever a request
// never got a well-formed reply from the agent (network failure, timeout,
// malformed body).
const ErrTransport = -32000

// ExtractText returns the first text part of a task's status message,
// tolerating either "type" or "kind" discriminators. If none is found, it
// returns the fixed fallback string so callers always have something
// user-presentable.
func ExtractText(task *Task) string {
	if task == nil {
		return "[Agent task is unknown]"
	}
	if task.Status.Message != nil {
		for _, p := range task.Status.Message.Parts {
			if p.IsText() && p.Text != "" {
				return p.Text
			}
		}
	}
	return fmt.Sprintf("[Agent task %s is %s]", task.ID, task.Status.State)
}
