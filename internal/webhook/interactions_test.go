package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/monday-agents/gateway/internal/preview"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/slackapi"
	"github.com/monday-agents/gateway/internal/store"
	"github.com/monday-agents/gateway/internal/testutil"
)

func storeMeetingRecordForTest(eventID, subjectID string) store.MeetingRecord {
	return store.MeetingRecord{EventID: eventID, Title: "Weekly sync", Status: store.MeetingPending}
}

func newBlockActionPayload(channel, ts, actionID, value string, metadata *slackapi.Metadata) slackInteractionPayload {
	payload := slackInteractionPayload{Type: "block_actions"}
	payload.User.ID = "U1"
	payload.Channel.ID = channel
	payload.Message.Ts = ts
	payload.Message.Metadata = metadata
	payload.Actions = []struct {
		ActionID string `json:"action_id"`
		Value    string `json:"value"`
	}{{ActionID: actionID, Value: value}}
	return payload
}

func taskPreviewMetadata(t *testing.T, task render.ExtractedTask) *slackapi.Metadata {
	t.Helper()
	taskJSON, err := json.Marshal(task)
	if err != nil {
		t.Fatal(err)
	}
	return &slackapi.Metadata{
		EventType: preview.EventTypeTaskPreview,
		EventPayload: map[string]string{
			"task":       string(taskJSON),
			"channel_id": "C1",
			"thread_ts":  "1.0",
			"user_id":    "U1",
		},
	}
}

func meetingPreviewMetadata(t *testing.T, eventID, subjectID, title string, analysis render.MeetingAnalysis) *slackapi.Metadata {
	t.Helper()
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		t.Fatal(err)
	}
	return &slackapi.Metadata{
		EventType: preview.EventTypeMeetingPreview,
		EventPayload: map[string]string{
			"event_id":   eventID,
			"subject_id": subjectID,
			"title":      title,
			"analysis":   string(analysisJSON),
		},
	}
}

func TestResolveBlockAction_TaskCancel(t *testing.T) {
	var updated map[string]any
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&updated)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer slackSrv.Close()

	s := newTestServer(t, slackSrv.URL)

	task := render.ExtractedTask{Name: "Ship the thing", Priority: render.PriorityHigh, Status: render.TaskStatusToDo}
	payload := newBlockActionPayload("C1", "100.1", render.ActionCancelTask, task.Name, taskPreviewMetadata(t, task))

	s.resolveBlockAction(context.Background(), payload)

	text, _ := updated["text"].(string)
	if !strings.Contains(text, "cancelled") {
		t.Errorf("expected the message to be updated with a cancellation notice, got %q", text)
	}
}

func TestResolveBlockAction_MeetingDismiss(t *testing.T) {
	var updated map[string]any
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&updated)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer slackSrv.Close()

	s := newTestServer(t, slackSrv.URL)
	meetings := testutil.NewMockMeetingStore()
	meetings.Insert(context.Background(), storeMeetingRecordForTest("evt-1", "sub-1"))
	s.services.Meetings = meetings

	metadata := meetingPreviewMetadata(t, "evt-1", "sub-1", "Weekly sync", render.MeetingAnalysis{Summary: "sync"})
	payload := newBlockActionPayload("C1", "100.1", render.ActionDismissMeeting, "Weekly sync", metadata)

	s.resolveBlockAction(context.Background(), payload)

	text, _ := updated["text"].(string)
	if !strings.Contains(text, "dismissed") {
		t.Errorf("expected the message to be updated with a dismissal notice, got %q", text)
	}
}

func TestResolveBlockAction_UnknownEventTypeIsIgnored(t *testing.T) {
	s := newTestServer(t, "")
	metadata := &slackapi.Metadata{EventType: "something_else"}
	payload := newBlockActionPayload("C1", "100.1", render.ActionCancelTask, "x", metadata)

	// Should not panic and should simply log a warning.
	s.resolveBlockAction(context.Background(), payload)
}
