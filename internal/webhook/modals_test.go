package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/preview"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/slackapi"
	"github.com/monday-agents/gateway/internal/store"
	"github.com/monday-agents/gateway/internal/testutil"
)

func TestOpenTaskEditModal_CallsViewsOpen(t *testing.T) {
	var opened map[string]any
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&opened)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer slackSrv.Close()

	s := newTestServer(t, slackSrv.URL)
	payload := preview.TaskPreviewPayload{Task: render.ExtractedTask{Name: "Ship it", Priority: render.PriorityMedium, Status: render.TaskStatusToDo}}

	s.openTaskEditModal(context.Background(), "trigger-1", slackapi.Message{Channel: "C1", Ts: "1.0"}, payload)

	if opened["trigger_id"] != "trigger-1" {
		t.Fatalf("expected views.open to be called with the trigger id, got %v", opened)
	}
	view, _ := opened["view"].(map[string]any)
	if view["callback_id"] != "create_task_submit" {
		t.Errorf("expected the modal's callback_id to be create_task_submit, got %v", view["callback_id"])
	}
}

func TestResolveTaskEditSubmit_UpdatesMessageWithEditedFields(t *testing.T) {
	var updated map[string]any
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&updated)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer slackSrv.Close()

	s := newTestServer(t, slackSrv.URL)

	meta := taskEditPrivateMetadata{
		Channel: "C1",
		Ts:      "1.0",
		Payload: preview.TaskPreviewPayload{Task: render.ExtractedTask{Name: "Old name", Priority: render.PriorityLow, Status: render.TaskStatusToDo}},
	}
	metaJSON, _ := json.Marshal(meta)

	payload := slackInteractionPayload{}
	payload.View.CallbackID = "create_task_submit"
	payload.View.PrivateMetadata = string(metaJSON)
	payload.View.State.Values = map[string]map[string]struct {
		Value          string `json:"value"`
		SelectedOption struct {
			Value string `json:"value"`
		} `json:"selected_option"`
	}{
		blockTaskName: {"value": {Value: "New name"}},
		blockTaskPriority: {"value": {SelectedOption: struct {
			Value string `json:"value"`
		}{Value: string(render.PriorityCritical)}}},
	}

	s.resolveTaskEditSubmit(context.Background(), payload)

	text, _ := updated["text"].(string)
	if !strings.Contains(text, "New name") {
		t.Errorf("expected the updated preview to show the new name, got %q", text)
	}
}

func TestOpenMeetingEditModal_CallsViewsOpen(t *testing.T) {
	var opened map[string]any
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&opened)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer slackSrv.Close()

	s := newTestServer(t, slackSrv.URL)
	payload := preview.MeetingPreviewPayload{
		EventID: "evt-1", Title: "Roadmap sync",
		Analysis: render.MeetingAnalysis{
			Summary:     "Discussed Q3 roadmap.",
			Decisions:   []string{"Ship v2 by September"},
			ActionItems: []render.ActionItem{{Title: "Draft roadmap doc", Assignee: "Bob", Priority: render.PriorityMedium}},
		},
		Boards: []render.Board{{ID: "b1", Name: "Engineering"}},
	}

	s.openMeetingEditModal(context.Background(), "trigger-2", slackapi.Message{Channel: "C1", Ts: "1.0"}, payload)

	if opened["trigger_id"] != "trigger-2" {
		t.Fatalf("expected views.open to be called with the trigger id, got %v", opened)
	}
	view, _ := opened["view"].(map[string]any)
	if view["callback_id"] != "meeting_edit_submit" {
		t.Errorf("expected the modal's callback_id to be meeting_edit_submit, got %v", view["callback_id"])
	}
}

func TestResolveMeetingEditSubmit_CreatesTasksAndMarksApproved(t *testing.T) {
	var updated map[string]any
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat.update":
			json.NewDecoder(r.Body).Decode(&updated)
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C1", "ts": "1.0"})
	}))
	defer slackSrv.Close()
	agentSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": req["id"],
			"result": map[string]any{"id": "task-1", "status": map[string]any{"state": "completed"}},
		})
	}))
	defer agentSrv.Close()

	s := newTestServer(t, slackSrv.URL)
	s.services.Config.AgentURLs[config.AgentProductOwner] = agentSrv.URL
	meetings := testutil.NewMockMeetingStore()
	meetings.Insert(context.Background(), store.MeetingRecord{EventID: "evt-1", Status: store.MeetingPending})
	s.services.Meetings = meetings

	meta := meetingEditPrivateMetadata{
		Channel: "C1", Ts: "1.0",
		Payload: preview.MeetingPreviewPayload{
			EventID: "evt-1", Title: "Roadmap sync",
			Analysis: render.MeetingAnalysis{ActionItems: []render.ActionItem{{Title: "Draft doc", Priority: render.PriorityMedium}}},
		},
	}
	metaJSON, _ := json.Marshal(meta)

	payload := slackInteractionPayload{}
	payload.User.ID = "U1"
	payload.View.CallbackID = "meeting_edit_submit"
	payload.View.PrivateMetadata = string(metaJSON)
	payload.View.State.Values = map[string]map[string]struct {
		Value          string `json:"value"`
		SelectedOption struct {
			Value string `json:"value"`
		} `json:"selected_option"`
	}{
		blockMeetingSummary:           {"value": {Value: "Updated summary"}},
		blockMeetingItemTitle(1):      {"value": {Value: "Draft doc"}},
		blockMeetingItemAssignee(1):   {"value": {Value: "Bob"}},
		blockMeetingItemDescription(1): {"value": {Value: "Write it up"}},
	}

	s.resolveMeetingEditSubmit(context.Background(), payload)

	rec, _, _ := meetings.Get(context.Background(), "evt-1")
	if rec.Status != store.MeetingApproved {
		t.Errorf("expected approved status, got %s", rec.Status)
	}
	text, _ := updated["text"].(string)
	if !strings.Contains(text, "approved") {
		t.Errorf("expected the message to be updated with an approval notice, got %q", text)
	}
}
