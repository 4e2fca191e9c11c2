package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/monday-agents/gateway/internal/intent"
	"github.com/monday-agents/gateway/internal/session"
	"github.com/monday-agents/gateway/internal/slackapi"
)

func newTestServices(t *testing.T, slackURL string) *Services {
	t.Helper()
	slack := slackapi.New("xoxb-test")
	slack.SetBaseURL(slackURL + "/")
	return &Services{
		Slack:    slack,
		Sessions: session.New(),
		Intents:  intent.New(nil),
		UserDir:  NewUserDirectory(slack, map[string]string{}),
	}
}

func newFakeSlackServer(t *testing.T, botUserID string) *httptest.Server {
	t.Helper()
	var posted []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth.test":
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "user_id": botUserID})
		case "/chat.postMessage", "/chat.postEphemeral":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			posted = append(posted, body)
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C1", "ts": "1.1"})
		case "/users.list":
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "members": []map[string]any{}})
		default:
			json.NewEncoder(w).Encode(map[string]any{"ok": true})
		}
	}))
	return srv
}

func TestShouldSuppress_BotID(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	d := New(newTestServices(t, srv.URL))

	if !d.shouldSuppress(context.Background(), InboundEvent{BotID: "B1"}) {
		t.Error("expected suppression for non-empty bot_id")
	}
}

func TestShouldSuppress_SubType(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	d := New(newTestServices(t, srv.URL))

	if !d.shouldSuppress(context.Background(), InboundEvent{SubType: "message_changed"}) {
		t.Error("expected suppression for non-empty subtype")
	}
}

func TestShouldSuppress_OwnUserID(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	d := New(newTestServices(t, srv.URL))

	if !d.shouldSuppress(context.Background(), InboundEvent{User: "UBOT"}) {
		t.Error("expected suppression for event authored by the bot itself")
	}
}

func TestShouldSuppress_NormalEventPasses(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	d := New(newTestServices(t, srv.URL))

	if d.shouldSuppress(context.Background(), InboundEvent{User: "U123", Text: "hello"}) {
		t.Error("expected no suppression for a normal event")
	}
}

func TestResolveMentions_StripsBotAndReplacesOthers(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	services := newTestServices(t, srv.URL)
	services.UserDir = NewUserDirectory(services.Slack, map[string]string{"U123": "Alice"})
	d := New(services)

	got := d.resolveMentions(context.Background(), "<@UBOT> hey <@U123> can you help?")
	want := "hey @Alice can you help?"
	if got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

func TestHandleThreadReply_IgnoresUntrackedThread(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	d := New(newTestServices(t, srv.URL))
	called := false
	d.SetHandler(intent.AgentChat, func(ctx context.Context, ic IntentContext) { called = true })

	d.HandleThreadReply(context.Background(), InboundEvent{ThreadTs: "999.1", Text: "hi"}, false)
	if called {
		t.Error("expected no dispatch for an untracked thread")
	}
}

func TestHandleThreadReply_GatesOnAgentChatIntent(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	services := newTestServices(t, srv.URL)
	services.Sessions.Set("100.1", session.Session{ContextID: "ctx-1", Intent: session.IntentCreateTask})
	d := New(services)
	called := false
	d.SetHandler(intent.AgentChat, func(ctx context.Context, ic IntentContext) { called = true })

	d.HandleThreadReply(context.Background(), InboundEvent{ThreadTs: "100.1", Text: "hi"}, false)
	if called {
		t.Error("expected non-agent-chat sessions to not continue in-channel")
	}

	d.HandleThreadReply(context.Background(), InboundEvent{ThreadTs: "100.1", Text: "hi"}, true)
	if !called {
		t.Error("expected DM override to allow any intent to continue")
	}
}

func TestHandleThreadReply_DispatchesForAgentChatSession(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	services := newTestServices(t, srv.URL)
	services.Sessions.Set("200.1", session.Session{ContextID: "ctx-2", Intent: session.IntentAgentChat})
	d := New(services)
	var gotText string
	d.SetHandler(intent.AgentChat, func(ctx context.Context, ic IntentContext) { gotText = ic.MessageText })

	d.HandleThreadReply(context.Background(), InboundEvent{ThreadTs: "200.1", Text: "still here?"}, false)
	if gotText != "still here?" {
		t.Errorf("expected dispatch with message text, got %q", gotText)
	}
}

// TestHandleMention_ClassifiesAndUpsertsSession covers a tier-1
// keyword phrase resolving without any LLM call, with the resulting
// session recording the assigned context id.
func TestHandleMention_ClassifiesAndUpsertsSession(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	services := newTestServices(t, srv.URL)
	d := New(services)

	var gotIntent, gotAgent string
	var gotSession session.Session
	d.SetHandler(intent.CreateTask, func(ctx context.Context, ic IntentContext) {
		gotIntent = string(ic.Session.Intent)
		gotAgent = string(ic.Session.AgentKey)
		gotSession = ic.Session
	})

	d.HandleMention(context.Background(), InboundEvent{
		Channel: "C1", User: "U1",
		Text: "<@UBOT> create a task from this conversation",
		Ts:   "1700000000.000001",
	})

	if gotIntent != "create-task" || gotAgent != "product-owner" {
		t.Errorf("expected create-task/product-owner, got intent=%s agent=%s", gotIntent, gotAgent)
	}
	if gotSession.ContextID == "" {
		t.Error("expected a context id to be assigned")
	}

	stored, ok := services.Sessions.Get("1700000000.000001")
	if !ok || stored.ContextID != gotSession.ContextID {
		t.Errorf("expected session persisted under the thread root ts")
	}
}

func TestHandleMention_EmptyTextAfterStrippingPostsGreeting(t *testing.T) {
	srv := newFakeSlackServer(t, "UBOT")
	defer srv.Close()
	services := newTestServices(t, srv.URL)
	d := New(services)
	d.SetHandler(intent.AgentChat, func(ctx context.Context, ic IntentContext) {
		t.Error("expected no handler dispatch for an empty mention")
	})

	d.HandleMention(context.Background(), InboundEvent{Channel: "C1", User: "U1", Text: "<@UBOT>", Ts: "1.1"})
}
