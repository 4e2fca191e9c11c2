package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/monday-agents/gateway/internal/a2a"
	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/oauth"
	"github.com/monday-agents/gateway/internal/slackapi"
	"github.com/monday-agents/gateway/internal/testutil"
)

const testSigningSecret = "test-signing-secret"
const testAPIKey = "test-api-key"

func newTestServer(t *testing.T, slackURL string) *Server {
	t.Helper()
	slack := slackapi.New("xoxb-test")
	if slackURL != "" {
		slack.SetBaseURL(slackURL + "/")
	}

	services := &gateway.Services{
		Slack: slack,
		OAuth: oauth.New("client-id", "client-secret", "https://redirect", "signing-key", testutil.NewMockTokenStore()),
		Config: config.Config{
			AgentURLs: map[config.AgentKey]string{config.AgentProductOwner: "http://localhost:10001"},
		},
	}
	dispatcher := gateway.New(services)
	return New(services, dispatcher, nil, testSigningSecret, testAPIKey, 0)
}

func signedRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(method, path, strings.NewReader(string(body)))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", sign(testSigningSecret, ts, body))
	return req
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSchedulerStatus_NilScheduler(t *testing.T) {
	s := newTestServer(t, "")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/scheduler/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("expected a JSON array body, got %s", rec.Body.String())
	}
	if len(out) != 0 {
		t.Errorf("expected empty status list, got %v", out)
	}
}

func TestAgentNotify_RejectsMissingAPIKey(t *testing.T) {
	s := newTestServer(t, "")
	body := []byte(`{"channel":"C1","text":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/agent-notify", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAgentNotify_PostsMessageWithValidAPIKey(t *testing.T) {
	var posted map[string]any
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&posted)
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C1", "ts": "1.0"})
	}))
	defer slackSrv.Close()

	s := newTestServer(t, slackSrv.URL)
	body := []byte(`{"channel":"C1","text":"hello from an agent"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/agent-notify", strings.NewReader(string(body)))
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if posted["channel"] != "C1" {
		t.Errorf("expected the message to be posted to C1, got %v", posted["channel"])
	}
}

func TestAgentNotify_RejectsMissingFields(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/agent-notify", strings.NewReader(`{"channel":"C1"}`))
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSlackEvents_RejectsUnsignedRequest(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(`{"type":"url_verification","challenge":"abc"}`))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSlackEvents_UrlVerificationEchoesChallenge(t *testing.T) {
	s := newTestServer(t, "")
	body := []byte(`{"type":"url_verification","challenge":"abc123"}`)
	req := signedRequest(t, http.MethodPost, "/slack/events", body)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out map[string]string
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out["challenge"] != "abc123" {
		t.Errorf("expected challenge to be echoed, got %v", out)
	}
}

func TestOAuthCallback_MissingCodeReturnsBadRequest(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/google/callback", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSlashCommand_Agents(t *testing.T) {
	s := newTestServer(t, "")
	form := url.Values{"command": {"/agents"}, "text": {""}, "user_id": {"U1"}, "channel_id": {"C1"}}
	body := []byte(form.Encode())
	req := signedRequest(t, http.MethodPost, "/slack/commands", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	json.Unmarshal(rec.Body.Bytes(), &out)
	if !strings.Contains(out["text"], "product-owner") {
		t.Errorf("expected the agents summary to list product-owner, got %q", out["text"])
	}
}

func TestSlashCommand_GoogleConnect(t *testing.T) {
	s := newTestServer(t, "")
	form := url.Values{"command": {"/google"}, "text": {"connect"}, "user_id": {"U1"}, "channel_id": {"C1"}}
	body := []byte(form.Encode())
	req := signedRequest(t, http.MethodPost, "/slack/commands", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]string
	json.Unmarshal(rec.Body.Bytes(), &out)
	if !strings.Contains(out["text"], "accounts.google.com") {
		t.Errorf("expected an authorization URL, got %q", out["text"])
	}
}

func TestSlashCommand_TaskStatus(t *testing.T) {
	agentSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(a2a.Response{
			JSONRPC: "2.0",
			ID:      "1",
			Result: &a2a.Task{
				ID:     "t1",
				Status: a2a.Status{State: a2a.StateCompleted, Message: &a2a.Message{Parts: []a2a.Part{{Type: "text", Text: "task done"}}}},
			},
		})
	}))
	defer agentSrv.Close()

	services := &gateway.Services{
		Slack: slackapi.New("xoxb-test"),
		OAuth: oauth.New("client-id", "client-secret", "https://redirect", "signing-key", testutil.NewMockTokenStore()),
		A2A:   a2a.New(""),
		Config: config.Config{
			AgentURLs: map[config.AgentKey]string{config.AgentProductOwner: agentSrv.URL},
		},
	}
	s := New(services, gateway.New(services), nil, testSigningSecret, testAPIKey, 0)

	form := url.Values{"command": {"/task-status"}, "text": {"t1"}, "user_id": {"U1"}, "channel_id": {"C1"}}
	body := []byte(form.Encode())
	req := signedRequest(t, http.MethodPost, "/slack/commands", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]string
	json.Unmarshal(rec.Body.Bytes(), &out)
	if !strings.Contains(out["text"], "task done") || !strings.Contains(out["text"], "completed") {
		t.Errorf("expected task status and text in reply, got %q", out["text"])
	}
}

func TestSlashCommand_TaskStatus_MissingID(t *testing.T) {
	s := newTestServer(t, "")
	form := url.Values{"command": {"/task-status"}, "text": {""}, "user_id": {"U1"}, "channel_id": {"C1"}}
	body := []byte(form.Encode())
	req := signedRequest(t, http.MethodPost, "/slack/commands", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]string
	json.Unmarshal(rec.Body.Bytes(), &out)
	if !strings.Contains(out["text"], "usage:") {
		t.Errorf("expected usage message, got %q", out["text"])
	}
}

func TestSlashCommand_Unrecognized(t *testing.T) {
	s := newTestServer(t, "")
	form := url.Values{"command": {"/nope"}, "text": {""}, "user_id": {"U1"}, "channel_id": {"C1"}}
	body := []byte(form.Encode())
	req := signedRequest(t, http.MethodPost, "/slack/commands", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]string
	json.Unmarshal(rec.Body.Bytes(), &out)
	if !strings.Contains(out["text"], "unrecognized") {
		t.Errorf("expected an unrecognized-command message, got %q", out["text"])
	}
}
