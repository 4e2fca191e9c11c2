package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/monday-agents/gateway/internal/preview"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/slackapi"
)

// taskEditPrivateMetadata round-trips the message location and the
// original preview payload through the modal, since Slack's
// private_metadata field is a single opaque string.
type taskEditPrivateMetadata struct {
	Channel string                     `json:"channel"`
	Ts      string                     `json:"ts"`
	Payload preview.TaskPreviewPayload `json:"payload"`
}

const (
	blockTaskName        = "task_name"
	blockTaskDescription = "task_description"
	blockTaskAssignee    = "task_assignee"
	blockTaskPriority    = "task_priority"
	blockTaskStatus      = "task_status"
)

// meetingEditPrivateMetadata round-trips the message location and the
// original preview payload through the meeting-notes edit modal.
type meetingEditPrivateMetadata struct {
	Channel string                        `json:"channel"`
	Ts      string                        `json:"ts"`
	Payload preview.MeetingPreviewPayload `json:"payload"`
}

const (
	blockMeetingBoard     = "meeting_board"
	blockMeetingSummary   = "meeting_summary"
	blockMeetingDecisions = "meeting_decisions"

	meetingActionItemSlots = 5
)

func blockMeetingItemTitle(i int) string       { return fmt.Sprintf("meeting_item_%d_title", i) }
func blockMeetingItemDescription(i int) string { return fmt.Sprintf("meeting_item_%d_description", i) }
func blockMeetingItemAssignee(i int) string    { return fmt.Sprintf("meeting_item_%d_assignee", i) }

func (s *Server) openTaskEditModal(ctx context.Context, triggerID string, msg slackapi.Message, payload preview.TaskPreviewPayload) {
	meta := taskEditPrivateMetadata{Channel: msg.Channel, Ts: msg.Ts, Payload: payload}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		slog.Error("webhook: marshal task edit metadata", "error", err)
		return
	}

	view := map[string]any{
		"type":             "modal",
		"callback_id":      "create_task_submit",
		"private_metadata": string(metaJSON),
		"title":            plainText("Edit Task"),
		"submit":           plainText("Save"),
		"close":            plainText("Cancel"),
		"blocks": []map[string]any{
			inputBlock(blockTaskName, "Name", plainInput(payload.Task.Name), false),
			inputBlock(blockTaskDescription, "Description", multilineInput(payload.Task.Description), true),
			inputBlock(blockTaskAssignee, "Assignee", plainInput(payload.Task.Assignee), true),
			selectBlock(blockTaskPriority, "Priority", priorityOptions(), string(payload.Task.Priority)),
			selectBlock(blockTaskStatus, "Status", statusOptions(), string(payload.Task.Status)),
		},
	}

	if err := s.services.Slack.ViewsOpen(ctx, triggerID, view); err != nil {
		slog.Error("webhook: open task edit modal", "error", err)
	}
}

func (s *Server) resolveTaskEditSubmit(ctx context.Context, payload slackInteractionPayload) {
	var meta taskEditPrivateMetadata
	if err := json.Unmarshal([]byte(payload.View.PrivateMetadata), &meta); err != nil {
		slog.Error("webhook: parse task edit private metadata", "error", err)
		return
	}

	task := meta.Payload.Task
	if v := fieldValue(payload, blockTaskName); v != "" {
		task.Name = v
	}
	if v := fieldValue(payload, blockTaskDescription); v != "" {
		task.Description = v
	}
	task.Assignee = fieldValue(payload, blockTaskAssignee)
	if v := fieldValue(payload, blockTaskPriority); v != "" {
		task.Priority = render.Priority(v)
	}
	if v := fieldValue(payload, blockTaskStatus); v != "" {
		task.Status = render.TaskStatus(v)
	}

	msg := slackapi.Message{Channel: meta.Channel, Ts: meta.Ts}
	if err := s.services.Slack.UpdateMessage(ctx, msg, render.TaskPreviewBlocks(task)); err != nil {
		slog.Error("webhook: update task preview after edit", "error", err)
	}
}

// openMeetingEditModal opens the meeting-notes edit modal: board
// selector, summary, decisions, and five action-item slots, pre-filled
// from the analysis stored in the preview's metadata.
func (s *Server) openMeetingEditModal(ctx context.Context, triggerID string, msg slackapi.Message, payload preview.MeetingPreviewPayload) {
	meta := meetingEditPrivateMetadata{Channel: msg.Channel, Ts: msg.Ts, Payload: payload}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		slog.Error("webhook: marshal meeting edit metadata", "error", err)
		return
	}

	blocks := []map[string]any{
		boardSelectBlock(blockMeetingBoard, "Board", payload.Boards, payload.Analysis.SuggestedBoardID),
		inputBlock(blockMeetingSummary, "Summary", multilineInput(payload.Analysis.Summary), true),
		inputBlock(blockMeetingDecisions, "Decisions (one per line)", multilineInput(strings.Join(payload.Analysis.Decisions, "\n")), true),
	}
	for i := 1; i <= meetingActionItemSlots; i++ {
		var item render.ActionItem
		if i-1 < len(payload.Analysis.ActionItems) {
			item = payload.Analysis.ActionItems[i-1]
		}
		blocks = append(blocks,
			inputBlock(blockMeetingItemTitle(i), fmt.Sprintf("Action item %d: title", i), plainInput(item.Title), true),
			inputBlock(blockMeetingItemDescription(i), fmt.Sprintf("Action item %d: description", i), multilineInput(item.Description), true),
			inputBlock(blockMeetingItemAssignee(i), fmt.Sprintf("Action item %d: assignee", i), plainInput(item.Assignee), true),
		)
	}

	view := map[string]any{
		"type":             "modal",
		"callback_id":      "meeting_edit_submit",
		"private_metadata": string(metaJSON),
		"title":            plainText("Edit Meeting Notes"),
		"submit":           plainText("Create Tasks"),
		"close":            plainText("Cancel"),
		"blocks":           blocks,
	}

	if err := s.services.Slack.ViewsOpen(ctx, triggerID, view); err != nil {
		slog.Error("webhook: open meeting edit modal", "error", err)
	}
}

func (s *Server) resolveMeetingEditSubmit(ctx context.Context, payload slackInteractionPayload) {
	var meta meetingEditPrivateMetadata
	if err := json.Unmarshal([]byte(payload.View.PrivateMetadata), &meta); err != nil {
		slog.Error("webhook: parse meeting edit private metadata", "error", err)
		return
	}

	analysis := render.MeetingAnalysis{
		Summary:          fieldValue(payload, blockMeetingSummary),
		SuggestedBoardID: fieldValue(payload, blockMeetingBoard),
	}
	if decisions := fieldValue(payload, blockMeetingDecisions); decisions != "" {
		analysis.Decisions = strings.Split(decisions, "\n")
	}
	for i := 1; i <= meetingActionItemSlots; i++ {
		title := fieldValue(payload, blockMeetingItemTitle(i))
		if title == "" {
			continue
		}
		item := render.ActionItem{
			Title:       title,
			Description: fieldValue(payload, blockMeetingItemDescription(i)),
			Assignee:    fieldValue(payload, blockMeetingItemAssignee(i)),
		}
		if i-1 < len(meta.Payload.Analysis.ActionItems) {
			original := meta.Payload.Analysis.ActionItems[i-1]
			item.Priority = original.Priority
			item.Deadline = original.Deadline
		}
		analysis.ActionItems = append(analysis.ActionItems, item)
	}

	msg := slackapi.Message{Channel: meta.Channel, Ts: meta.Ts}
	preview.ResolveMeetingEditSubmit(ctx, s.services, payload.User.ID, msg, preview.MeetingEditSubmission{
		EventID:  meta.Payload.EventID,
		Title:    meta.Payload.Title,
		Analysis: analysis,
	})
}

func priorityOptions() []string {
	return []string{string(render.PriorityLow), string(render.PriorityMedium), string(render.PriorityHigh), string(render.PriorityCritical)}
}

func statusOptions() []string {
	return []string{string(render.TaskStatusToDo), string(render.TaskStatusWorking), string(render.TaskStatusInProgress), string(render.TaskStatusDone)}
}

func plainText(text string) map[string]any {
	return map[string]any{"type": "plain_text", "text": text}
}

func plainInput(initial string) map[string]any {
	el := map[string]any{"type": "plain_text_input", "action_id": "value"}
	if initial != "" {
		el["initial_value"] = initial
	}
	return el
}

func multilineInput(initial string) map[string]any {
	el := plainInput(initial)
	el["multiline"] = true
	return el
}

func inputBlock(blockID, label string, element map[string]any, optional bool) map[string]any {
	return map[string]any{
		"type":     "input",
		"block_id": blockID,
		"label":    plainText(label),
		"optional": optional,
		"element":  element,
	}
}

func selectBlock(blockID, label string, options []string, initial string) map[string]any {
	opts := make([]map[string]any, len(options))
	var initialOpt map[string]any
	for i, opt := range options {
		o := map[string]any{"text": plainText(opt), "value": opt}
		opts[i] = o
		if opt == initial {
			initialOpt = o
		}
	}
	element := map[string]any{
		"type":      "static_select",
		"action_id": "value",
		"options":   opts,
	}
	if initialOpt != nil {
		element["initial_option"] = initialOpt
	}
	return inputBlock(blockID, label, element, false)
}

func boardSelectBlock(blockID, label string, boards []render.Board, initialID string) map[string]any {
	opts := make([]map[string]any, len(boards))
	var initialOpt map[string]any
	for i, b := range boards {
		o := map[string]any{"text": plainText(b.Name), "value": b.ID}
		opts[i] = o
		if b.ID == initialID {
			initialOpt = o
		}
	}
	element := map[string]any{
		"type":      "static_select",
		"action_id": "value",
		"options":   opts,
	}
	if initialOpt != nil {
		element["initial_option"] = initialOpt
	}
	return inputBlock(blockID, label, element, true)
}
