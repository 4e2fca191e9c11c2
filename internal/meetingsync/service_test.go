package meetingsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/googleapi"
	"github.com/monday-agents/gateway/internal/llm"
	"github.com/monday-agents/gateway/internal/oauth"
	"github.com/monday-agents/gateway/internal/slackapi"
	"github.com/monday-agents/gateway/internal/store"
	"github.com/monday-agents/gateway/internal/testutil"
)

func newTestServices(t *testing.T, llmURL, slackURL string) *gateway.Services {
	t.Helper()
	tokens := testutil.NewMockTokenStore()
	tokens.Upsert(context.Background(), store.TokenRecord{
		SubjectID: "sub-1", AccessToken: "tok-1", RefreshToken: "ref-1",
		ExpiryMS: time.Now().Add(time.Hour).UnixMilli(),
	})
	broker := oauth.New("client-id", "client-secret", "https://redirect", "signing-key", tokens)

	slack := slackapi.New("xoxb-test")
	slack.SetBaseURL(slackURL + "/")

	return &gateway.Services{
		Slack:    slack,
		LLM:      llm.New(llmURL, "key", "model"),
		OAuth:    broker,
		Meetings: testutil.NewMockMeetingStore(),
	}
}

// setCalendarAndDriveURLs redirects the package-level googleapi vars
// at the given httptest.Server URLs for the duration of the test.
func setCalendarAndDriveURLs(t *testing.T, calendarURL, driveURL string) {
	t.Helper()
	restoreCalendar := googleapi.WithCalendarURLForTest(calendarURL)
	restoreDrive := googleapi.WithDriveURLForTest(driveURL)
	t.Cleanup(func() {
		restoreCalendar()
		restoreDrive()
	})
}

func newFakeCalendarServer(t *testing.T, events []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"items": events})
	}))
}

func newFakeDriveServer(t *testing.T, files []map[string]any, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "media" {
			w.Write([]byte(content))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"files": files})
	}))
}

func newFakeLLMServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]any{{"type": "text", "text": text}},
		})
	}))
}

func newFakeSlackServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "NOTIFY", "ts": "1.1"})
	}))
}

// TestCheckRecentMeetings_Idempotent covers a single conference event
// with a transcript and one action item posting a preview and marking
// the meeting pending; a second call with no user action skips it.
func TestCheckRecentMeetings_Idempotent(t *testing.T) {
	calendarSrv := newFakeCalendarServer(t, []map[string]any{
		{"id": "evt-1", "summary": "Roadmap sync", "start": map[string]any{"dateTime": "2026-08-06T09:00:00Z"}, "end": map[string]any{"dateTime": "2026-08-06T09:30:00Z"}, "conferenceData": map[string]any{"conferenceId": "c1"}},
	})
	defer calendarSrv.Close()
	driveSrv := newFakeDriveServer(t, []map[string]any{{"id": "f1", "name": "Roadmap sync transcript"}}, "we decided to ship in September, ann will draft the doc")
	defer driveSrv.Close()
	llmSrv := newFakeLLMServer(t, `{"summary":"Roadmap sync","decisions":["Ship in September"],"actionItems":[{"title":"Draft doc","assignee":"Ann"}]}`)
	defer llmSrv.Close()
	slackSrv := newFakeSlackServer(t)
	defer slackSrv.Close()

	setCalendarAndDriveURLs(t, calendarSrv.URL, driveSrv.URL)
	services := newTestServices(t, llmSrv.URL, slackSrv.URL)
	svc := New(services)

	first, err := svc.CheckRecentMeetings(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("CheckRecentMeetings: %v", err)
	}
	if first.Found != 1 || first.TranscriptsFound != 1 || first.PreviewsPosted != 1 || first.Skipped != 0 {
		t.Errorf("unexpected first-call counts: %+v", first)
	}

	rec, ok, _ := services.Meetings.Get(context.Background(), "evt-1")
	if !ok || rec.Status != store.MeetingPending {
		t.Errorf("expected meeting marked pending, got %+v", rec)
	}

	second, err := svc.CheckRecentMeetings(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("CheckRecentMeetings (second): %v", err)
	}
	if second.Found != 1 || second.Skipped != 1 || second.PreviewsPosted != 0 {
		t.Errorf("unexpected second-call counts: %+v", second)
	}
}

func TestCheckRecentMeetings_NoActionItemsDismisses(t *testing.T) {
	calendarSrv := newFakeCalendarServer(t, []map[string]any{
		{"id": "evt-2", "summary": "Quick check-in", "end": map[string]any{"dateTime": "2026-08-06T09:30:00Z"}, "conferenceData": map[string]any{"conferenceId": "c1"}},
	})
	defer calendarSrv.Close()
	driveSrv := newFakeDriveServer(t, []map[string]any{{"id": "f2", "name": "Quick check-in transcript"}}, "just said hi, nothing to do")
	defer driveSrv.Close()
	llmSrv := newFakeLLMServer(t, `{"summary":"Quick check-in","decisions":[],"actionItems":[]}`)
	defer llmSrv.Close()
	slackSrv := newFakeSlackServer(t)
	defer slackSrv.Close()

	setCalendarAndDriveURLs(t, calendarSrv.URL, driveSrv.URL)
	services := newTestServices(t, llmSrv.URL, slackSrv.URL)
	svc := New(services)

	counts, err := svc.CheckRecentMeetings(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("CheckRecentMeetings: %v", err)
	}
	if counts.PreviewsPosted != 0 {
		t.Errorf("expected no preview for a meeting with no action items, got %+v", counts)
	}

	rec, ok, _ := services.Meetings.Get(context.Background(), "evt-2")
	if !ok || rec.Status != store.MeetingDismissed {
		t.Errorf("expected meeting marked dismissed, got %+v", rec)
	}
}

func TestCheckRecentMeetings_NoTranscriptLeavesUnprocessed(t *testing.T) {
	calendarSrv := newFakeCalendarServer(t, []map[string]any{
		{"id": "evt-3", "summary": "Just ended", "end": map[string]any{"dateTime": "2026-08-06T09:30:00Z"}, "conferenceData": map[string]any{"conferenceId": "c1"}},
	})
	defer calendarSrv.Close()
	driveSrv := newFakeDriveServer(t, nil, "")
	defer driveSrv.Close()
	llmSrv := newFakeLLMServer(t, `{}`)
	defer llmSrv.Close()
	slackSrv := newFakeSlackServer(t)
	defer slackSrv.Close()

	setCalendarAndDriveURLs(t, calendarSrv.URL, driveSrv.URL)
	services := newTestServices(t, llmSrv.URL, slackSrv.URL)
	svc := New(services)

	counts, err := svc.CheckRecentMeetings(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("CheckRecentMeetings: %v", err)
	}
	if counts.TranscriptsFound != 0 || counts.Found != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}

	if processed, _ := services.Meetings.IsProcessed(context.Background(), "evt-3"); processed {
		t.Error("expected event with no transcript to remain unprocessed for a later retry")
	}
}

func TestCheckRecentMeetings_NotConnectedReturnsError(t *testing.T) {
	tokens := testutil.NewMockTokenStore()
	broker := oauth.New("id", "secret", "https://redirect", "key", tokens)
	services := &gateway.Services{OAuth: broker, Meetings: testutil.NewMockMeetingStore()}
	svc := New(services)

	if _, err := svc.CheckRecentMeetings(context.Background(), "unconnected-subject"); err == nil {
		t.Error("expected an error for an unconnected subject")
	}
}
