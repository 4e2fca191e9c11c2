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
	"github.com/monday-agents/gateway/internal/store"
)

// EventTypeMeetingPreview identifies a meeting-notes preview's
// metadata payload.
const EventTypeMeetingPreview = "meeting_preview"

// MeetingPreviewPayload is everything an approve/dismiss callback
// needs to resolve a meeting-notes preview.
type MeetingPreviewPayload struct {
	EventID   string                 `json:"eventId"`
	SubjectID string                 `json:"subjectId"`
	Title     string                 `json:"title"`
	Analysis  render.MeetingAnalysis `json:"analysis"`
	Boards    []render.Board         `json:"boards"`
}

// MeetingEditSubmission is the edited analysis collected from the
// meeting-notes edit modal: board, summary, decisions, and up
// to five action items. Priority and deadline aren't editable in the
// modal, so callers carry those over from the original analysis.
type MeetingEditSubmission struct {
	EventID  string
	Title    string
	Analysis render.MeetingAnalysis
}

// PostMeetingPreview renders and posts a meeting-notes preview to the
// notify channel, records the meeting as pending, and persists the
// payload in message metadata.
func PostMeetingPreview(ctx context.Context, services *gateway.Services, payload MeetingPreviewPayload) (slackapi.Message, error) {
	metadata, err := meetingMetadata(payload)
	if err != nil {
		return slackapi.Message{}, fmt.Errorf("preview: marshal meeting metadata: %w", err)
	}

	rendered := render.MeetingPreviewBlocks(payload.Title, payload.Analysis)
	msg, err := services.Slack.PostMessageWithMetadata(ctx, services.Config.NotifyChannelID, "", rendered, metadata)
	if err != nil {
		return slackapi.Message{}, err
	}

	if err := services.Meetings.UpdateStatus(ctx, payload.EventID, store.MeetingPending, ""); err != nil {
		slog.Error("preview: failed to mark meeting pending", "event_id", payload.EventID, "error", err)
	}
	return msg, nil
}

func meetingMetadata(p MeetingPreviewPayload) (*slackapi.Metadata, error) {
	analysisJSON, err := json.Marshal(p.Analysis)
	if err != nil {
		return nil, err
	}
	boardsJSON, err := json.Marshal(p.Boards)
	if err != nil {
		return nil, err
	}
	return &slackapi.Metadata{
		EventType: EventTypeMeetingPreview,
		EventPayload: map[string]string{
			"event_id":   p.EventID,
			"subject_id": p.SubjectID,
			"title":      p.Title,
			"analysis":   string(analysisJSON),
			"boards":     string(boardsJSON),
		},
	}, nil
}

// ParseMeetingMetadata reverses meetingMetadata.
func ParseMeetingMetadata(m slackapi.Metadata) (MeetingPreviewPayload, error) {
	var p MeetingPreviewPayload
	p.EventID = m.EventPayload["event_id"]
	p.SubjectID = m.EventPayload["subject_id"]
	p.Title = m.EventPayload["title"]
	if raw := m.EventPayload["analysis"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Analysis); err != nil {
			return p, fmt.Errorf("preview: parse meeting analysis: %w", err)
		}
	}
	if raw := m.EventPayload["boards"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &p.Boards); err != nil {
			return p, fmt.Errorf("preview: parse meeting boards: %w", err)
		}
	}
	return p, nil
}

// HandleMeetingAction resolves a meeting-preview button click:
// approve or dismiss. Idempotency: the record's current
// status is checked before any repost, so a duplicate callback for an
// already-resolved meeting is a no-op besides re-confirming in place.
func HandleMeetingAction(ctx context.Context, services *gateway.Services, action, actorID string, msg slackapi.Message, payload MeetingPreviewPayload) {
	if !meetingIsPending(ctx, services, payload.EventID) {
		return
	}

	switch action {
	case render.ActionApproveMeeting:
		// Opening the edit modal is triggered from the webhook layer
		// (it needs the interaction's trigger_id, which isn't part of
		// the preview payload); this branch exists for completeness of
		// the action-id switch and callers that don't need the modal.
		slog.Info("preview: approve action requires trigger_id, handled by caller", "event_id", payload.EventID)
	case render.ActionDismissMeeting:
		if err := services.Meetings.UpdateStatus(ctx, payload.EventID, store.MeetingDismissed, ""); err != nil {
			slog.Error("preview: failed to mark meeting dismissed", "event_id", payload.EventID, "error", err)
		}
		services.Slack.UpdateMessage(ctx, msg, render.MeetingDismissedBlocks(payload.Title, actorID))
	default:
		slog.Warn("preview: unknown meeting action", "action", action)
	}
}

// meetingIsPending reports whether a meeting record is still pending,
// logging and returning false for a load error or a duplicate
// callback against an already-resolved meeting.
func meetingIsPending(ctx context.Context, services *gateway.Services, eventID string) bool {
	rec, ok, err := services.Meetings.Get(ctx, eventID)
	if err != nil {
		slog.Error("preview: failed to load meeting record", "event_id", eventID, "error", err)
		return false
	}
	if ok && rec.Status != store.MeetingPending {
		slog.Info("preview: meeting already resolved, ignoring duplicate callback", "event_id", eventID, "status", rec.Status)
		return false
	}
	return true
}

// buildMeetingPrompt formats the product-owner prompt for the edited
// meeting analysis: board, summary, decisions, and action
// items, one combined request rather than one call per item.
func buildMeetingPrompt(analysis render.MeetingAnalysis) string {
	prompt := "Create tasks on Monday.com from this meeting's action items.\n"
	if analysis.SuggestedBoardID != "" {
		prompt += "- Board: " + analysis.SuggestedBoardID + "\n"
	}
	prompt += "- Summary: " + analysis.Summary + "\n"
	if len(analysis.Decisions) > 0 {
		prompt += "- Decisions:\n"
		for _, d := range analysis.Decisions {
			prompt += "  - " + d + "\n"
		}
	}
	prompt += "- Action items:\n"
	for _, item := range analysis.ActionItems {
		prompt += fmt.Sprintf("  - %s (assignee: %s, priority: %s): %s\n", item.Title, item.Assignee, item.Priority, item.Description)
	}
	return prompt
}

// ResolveMeetingEditSubmit sends the edited analysis to the
// product-owner agent and resolves the preview message in place
// Called from the webhook layer once the meeting-notes edit
// modal is submitted.
func ResolveMeetingEditSubmit(ctx context.Context, services *gateway.Services, actorID string, msg slackapi.Message, submission MeetingEditSubmission) {
	if !meetingIsPending(ctx, services, submission.EventID) {
		return
	}

	url := services.Config.AgentURLs[config.AgentProductOwner]
	resp := services.A2A.SendMessage(ctx, url, buildMeetingPrompt(submission.Analysis), "")

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

	var taskIDs []string
	if resp.Result != nil {
		taskIDs = append(taskIDs, resp.Result.ID)
	}
	taskIDsJSON, _ := json.Marshal(taskIDs)
	if err := services.Meetings.UpdateStatus(ctx, submission.EventID, store.MeetingApproved, string(taskIDsJSON)); err != nil {
		slog.Error("preview: failed to mark meeting approved", "event_id", submission.EventID, "error", err)
	}

	services.Slack.UpdateMessage(ctx, msg, render.MeetingApprovedBlocks(submission.Title, actorID))
}
