// Package preview implements the interactive preview engine: render a
// preview, persist its payload in message metadata, resolve the
// eventual button or modal callback, and update the message in
// place. Metadata — never re-parsed blocks — is the sole source of
// truth for follow-up actions.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/monday-agents/gateway/internal/a2a"
	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/slackapi"
)

// EventTypeTaskPreview identifies a task-from-conversation preview's
// metadata payload.
const EventTypeTaskPreview = "task_preview"

// TaskPreviewPayload is everything a button or modal callback needs to
// resolve a task preview without refetching anything.
type TaskPreviewPayload struct {
	Task      render.ExtractedTask `json:"task"`
	ChannelID string               `json:"channelId"`
	ThreadTs  string               `json:"threadTs"`
	UserID    string               `json:"userId"`
	Boards    []render.Board       `json:"boards"`
	Users     []render.UserRef     `json:"users"`
}

// PostTaskPreview renders and posts a task-from-conversation preview,
// persisting payload into the message's metadata.
func PostTaskPreview(ctx context.Context, slack *slackapi.Client, payload TaskPreviewPayload) (slackapi.Message, error) {
	metadata, err := taskMetadata(payload)
	if err != nil {
		return slackapi.Message{}, fmt.Errorf("preview: marshal task metadata: %w", err)
	}
	rendered := render.TaskPreviewBlocks(payload.Task)
	return slack.PostMessageWithMetadata(ctx, payload.ChannelID, payload.ThreadTs, rendered, metadata)
}

func taskMetadata(p TaskPreviewPayload) (*slackapi.Metadata, error) {
	taskJSON, err := json.Marshal(p.Task)
	if err != nil {
		return nil, err
	}
	boardsJSON, err := json.Marshal(p.Boards)
	if err != nil {
		return nil, err
	}
	usersJSON, err := json.Marshal(p.Users)
	if err != nil {
		return nil, err
	}
	return &slackapi.Metadata{
		EventType: EventTypeTaskPreview,
		EventPayload: map[string]string{
			"task":       string(taskJSON),
			"channel_id": p.ChannelID,
			"thread_ts":  p.ThreadTs,
			"user_id":    p.UserID,
			"boards":     string(boardsJSON),
			"users":      string(usersJSON),
		},
	}, nil
}

// ParseTaskMetadata reverses taskMetadata, reconstructing the payload
// a button or modal callback needs.
func ParseTaskMetadata(m slackapi.Metadata) (TaskPreviewPayload, error) {
	var p TaskPreviewPayload
	if err := json.Unmarshal([]byte(m.EventPayload["task"]), &p.Task); err != nil {
		return p, fmt.Errorf("preview: parse task: %w", err)
	}
	p.ChannelID = m.EventPayload["channel_id"]
	p.ThreadTs = m.EventPayload["thread_ts"]
	p.UserID = m.EventPayload["user_id"]
	if raw := m.EventPayload["boards"]; raw != "" {
		json.Unmarshal([]byte(raw), &p.Boards)
	}
	if raw := m.EventPayload["users"]; raw != "" {
		json.Unmarshal([]byte(raw), &p.Users)
	}
	return p, nil
}

// buildTaskPrompt formats the product-owner prompt. It must begin with
// the exact literal
// "Create a task on Monday.com with the following details:\n- Task name: ".
func buildTaskPrompt(task render.ExtractedTask) string {
	prompt := "Create a task on Monday.com with the following details:\n"
	prompt += "- Task name: " + task.Name + "\n"
	prompt += "- Description: " + task.Description + "\n"
	prompt += "- Assignee: " + task.Assignee + "\n"
	prompt += "- Priority: " + string(task.Priority) + "\n"
	prompt += "- Status: " + string(task.Status)
	return prompt
}

// HandleTaskAction resolves a task-preview button click: create, edit,
// or cancel.
func HandleTaskAction(ctx context.Context, services *gateway.Services, action, actorID string, msg slackapi.Message, payload TaskPreviewPayload) {
	switch action {
	case render.ActionCreateTask:
		resolveTaskCreate(ctx, services, actorID, msg, payload)
	case render.ActionCancelTask:
		services.Slack.UpdateMessage(ctx, msg, render.TaskCancelledBlocks(payload.Task.Name, actorID))
	case render.ActionEditTask:
		// Opening the edit modal is triggered from the webhook layer
		// (it needs the interaction's trigger_id, which isn't part of
		// the preview payload); this branch exists for completeness of
		// the action-id switch and callers that don't need the modal.
		slog.Info("preview: edit action requires trigger_id, handled by caller", "task", payload.Task.Name)
	default:
		slog.Warn("preview: unknown task action", "action", action)
	}
}

func resolveTaskCreate(ctx context.Context, services *gateway.Services, actorID string, msg slackapi.Message, payload TaskPreviewPayload) {
	url := services.Config.AgentURLs[config.AgentProductOwner]
	resp := services.A2A.SendMessage(ctx, url, buildTaskPrompt(payload.Task), "")

	if resp.Error != nil {
		var rendered render.Rendered
		if resp.Error.Code == a2a.ErrTransport {
			rendered = render.WarningBlocks(string(config.AgentProductOwner))
		} else {
			rendered = render.ErrorBlocks(resp.Error.Message)
		}
		services.Slack.UpdateMessage(ctx, msg, rendered)
		return
	}

	services.Slack.UpdateMessage(ctx, msg, render.TaskCreatedBlocks(payload.Task.Name, actorID))
}
