package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/monday-agents/gateway/internal/preview"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/slackapi"
)

// slackInteractionPayload covers both block_actions (button clicks) and
// view_submission (modal submits), the two interactivity shapes the
// preview engine resolves.
type slackInteractionPayload struct {
	Type      string `json:"type"`
	TriggerID string `json:"trigger_id"`
	User      struct {
		ID string `json:"id"`
	} `json:"user"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
	Message struct {
		Ts       string             `json:"ts"`
		Metadata *slackapi.Metadata `json:"metadata"`
	} `json:"message"`
	Actions []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	} `json:"actions"`
	View struct {
		CallbackID      string `json:"callback_id"`
		PrivateMetadata string `json:"private_metadata"`
		State           struct {
			Values map[string]map[string]struct {
				Value          string `json:"value"`
				SelectedOption struct {
					Value string `json:"value"`
				} `json:"selected_option"`
			} `json:"values"`
		} `json:"state"`
	} `json:"view"`
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	raw := r.PostFormValue("payload")
	var payload slackInteractionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	go s.resolveInteraction(payload)
}

func (s *Server) resolveInteraction(payload slackInteractionPayload) {
	ctx := context.Background()

	switch payload.Type {
	case "block_actions":
		s.resolveBlockAction(ctx, payload)
	case "view_submission":
		s.resolveViewSubmission(ctx, payload)
	default:
		slog.Warn("webhook: unknown interaction type", "type", payload.Type)
	}
}

func (s *Server) resolveBlockAction(ctx context.Context, payload slackInteractionPayload) {
	if len(payload.Actions) == 0 || payload.Message.Metadata == nil {
		return
	}
	action := payload.Actions[0]
	msg := slackapi.Message{Channel: payload.Channel.ID, Ts: payload.Message.Ts}
	metadata := *payload.Message.Metadata

	switch metadata.EventType {
	case preview.EventTypeTaskPreview:
		taskPayload, err := preview.ParseTaskMetadata(metadata)
		if err != nil {
			slog.Error("webhook: parse task preview metadata", "error", err)
			return
		}
		if action.ActionID == render.ActionEditTask {
			s.openTaskEditModal(ctx, payload.TriggerID, msg, taskPayload)
			return
		}
		preview.HandleTaskAction(ctx, s.services, action.ActionID, payload.User.ID, msg, taskPayload)

	case preview.EventTypeMeetingPreview:
		meetingPayload, err := preview.ParseMeetingMetadata(metadata)
		if err != nil {
			slog.Error("webhook: parse meeting preview metadata", "error", err)
			return
		}
		if action.ActionID == render.ActionApproveMeeting {
			s.openMeetingEditModal(ctx, payload.TriggerID, msg, meetingPayload)
			return
		}
		preview.HandleMeetingAction(ctx, s.services, action.ActionID, payload.User.ID, msg, meetingPayload)

	default:
		slog.Warn("webhook: unknown preview metadata event type", "event_type", metadata.EventType)
	}
}

func (s *Server) resolveViewSubmission(ctx context.Context, payload slackInteractionPayload) {
	switch payload.View.CallbackID {
	case "create_task_submit":
		s.resolveTaskEditSubmit(ctx, payload)
	case "meeting_edit_submit":
		s.resolveMeetingEditSubmit(ctx, payload)
	default:
		slog.Warn("webhook: unknown view submission callback", "callback_id", payload.View.CallbackID)
	}
}

func fieldValue(payload slackInteractionPayload, blockID string) string {
	block, ok := payload.View.State.Values[blockID]
	if !ok {
		return ""
	}
	for _, field := range block {
		if field.Value != "" {
			return field.Value
		}
		if field.SelectedOption.Value != "" {
			return field.SelectedOption.Value
		}
	}
	return ""
}
