package extract

import (
	"context"
	"encoding/json"

	"github.com/monday-agents/gateway/internal/llm"
	"github.com/monday-agents/gateway/internal/render"
)

const taskSystemPrompt = `You extract a single actionable task from a Slack conversation.
Reply with a JSON object of the shape:
{"name": "...", "description": "...", "assignee": "...", "priority": "Low|Medium|High|Critical", "status": "ToDo|Working|InProgress|Done"}
Use "" for assignee if unknown. Default priority to "Medium" and status to "ToDo" unless the conversation clearly indicates otherwise.
Reply with the JSON object and nothing else.`

// Task runs a single LLM call over transcript and returns a candidate
// task. On any failure it returns a task with the raw transcript as
// its name so the preview still has something concrete to show rather
// than silently dropping the request.
func Task(ctx context.Context, llmClient *llm.Client, transcript string) render.ExtractedTask {
	fallback := render.ExtractedTask{
		Name:     render.Truncate(transcript, 120),
		Priority: render.PriorityMedium,
		Status:   render.TaskStatusToDo,
	}

	reply, err := llmClient.Complete(ctx, taskSystemPrompt, []llm.Message{{Role: "user", Content: transcript}}, nil)
	if err != nil {
		return fallback
	}

	var parsed render.ExtractedTask
	if err := json.Unmarshal([]byte(stripCodeFences(reply.Text)), &parsed); err != nil {
		return fallback
	}
	if parsed.Name == "" {
		return fallback
	}
	if parsed.Priority == "" {
		parsed.Priority = render.PriorityMedium
	}
	if parsed.Status == "" {
		parsed.Status = render.TaskStatusToDo
	}
	return parsed
}
