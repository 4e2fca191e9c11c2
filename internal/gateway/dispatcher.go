package gateway

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/monday-agents/gateway/internal/intent"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/session"
)

// IntentContext is what every intent handler receives.
type IntentContext struct {
	Services    *Services
	ChannelID   string
	UserID      string
	ThreadTs    string
	MessageText string
	Session     session.Session
}

// HandlerFunc handles one intent's worth of work. Handlers are the
// catch-all error boundary: no error crosses back out to the
// platform receiver, so a HandlerFunc has no error return — a handler
// that fails renders its own warning block and logs the rest.
type HandlerFunc func(ctx context.Context, ic IntentContext)

var mentionRe = regexp.MustCompile(`<@([A-Z0-9]+)>`)

// Dispatcher wires loop suppression, mention resolution, and the
// intent-to-handler registry together.
type Dispatcher struct {
	Services *Services
	Handlers map[intent.Intent]HandlerFunc

	botOnce   sync.Once
	botUserID string
}

// New creates a Dispatcher. Handlers are registered by the caller
// (main.go's wiring step) via SetHandler, keeping this package free of
// an import on internal/handlers and avoiding a cycle.
func New(services *Services) *Dispatcher {
	return &Dispatcher{Services: services, Handlers: map[intent.Intent]HandlerFunc{}}
}

// SetHandler registers the handler for a given intent.
func (d *Dispatcher) SetHandler(i intent.Intent, h HandlerFunc) {
	d.Handlers[i] = h
}

func (d *Dispatcher) botID(ctx context.Context) string {
	d.botOnce.Do(func() {
		id, err := d.Services.Slack.AuthTest(ctx)
		if err != nil {
			slog.Warn("gateway: auth.test failed, loop suppression by bot id disabled", "error", err)
			return
		}
		d.botUserID = id
	})
	return d.botUserID
}

// shouldSuppress applies the loop-suppression rules:
// any event with a bot_id, a subtype, or whose user is the bot itself
// produces zero outbound side effects.
func (d *Dispatcher) shouldSuppress(ctx context.Context, ev InboundEvent) bool {
	if ev.BotID != "" {
		return true
	}
	if ev.SubType != "" {
		return true
	}
	if bot := d.botID(ctx); bot != "" && ev.User == bot {
		return true
	}
	return false
}

// HandleMention processes an app_mention event end to end.
func (d *Dispatcher) HandleMention(ctx context.Context, ev InboundEvent) {
	if d.shouldSuppress(ctx, ev) {
		return
	}
	d.handleFreshTurn(ctx, ev)
}

// HandleDirectMessage processes a DM channel message the same way as a
// mention, treating event.ts as the new thread root.
func (d *Dispatcher) HandleDirectMessage(ctx context.Context, ev InboundEvent) {
	if d.shouldSuppress(ctx, ev) {
		return
	}
	if ev.IsThreaded() {
		d.HandleThreadReply(ctx, ev, true)
		return
	}
	d.handleFreshTurn(ctx, ev)
}

func (d *Dispatcher) handleFreshTurn(ctx context.Context, ev InboundEvent) {
	text := d.resolveMentions(ctx, ev.Text)
	if strings.TrimSpace(text) == "" {
		d.Services.Slack.PostMessage(ctx, ev.Channel, ev.Ts, render.GreetingBlocks())
		return
	}

	threadTs := ev.ThreadTs
	if threadTs == "" {
		threadTs = ev.Ts
	}

	d.Services.Slack.PostEphemeral(ctx, ev.Channel, ev.User, render.LoadingBlocks())

	result := d.Services.Intents.Classify(ctx, text)
	sessIntent := session.Intent(result.Intent)
	sessAgent := session.AgentKey(result.AgentKey)
	newContextID := uuid.New().String()
	sess := d.Services.Sessions.Upsert(threadTs, newContextID, sessAgent, sessIntent)

	handler, ok := d.Handlers[result.Intent]
	if !ok {
		slog.Error("gateway: no handler registered for intent", "intent", result.Intent)
		return
	}
	handler(ctx, IntentContext{
		Services:    d.Services,
		ChannelID:   ev.Channel,
		UserID:      ev.User,
		ThreadTs:    threadTs,
		MessageText: text,
		Session:     sess,
	})
}

// HandleThreadReply processes a threaded-reply event. allowAnyIntent
// is true for DMs, which override the "only agent-chat continues"
// channel policy.
func (d *Dispatcher) HandleThreadReply(ctx context.Context, ev InboundEvent, allowAnyIntent bool) {
	if d.shouldSuppress(ctx, ev) {
		return
	}
	if ev.ThreadTs == "" || strings.TrimSpace(ev.Text) == "" {
		return
	}

	sess, ok := d.Services.Sessions.Get(ev.ThreadTs)
	if !ok {
		return
	}
	if !allowAnyIntent && sess.Intent != session.IntentAgentChat {
		return
	}

	handler, ok := d.Handlers[intent.AgentChat]
	if !ok {
		slog.Error("gateway: no agent-chat handler registered")
		return
	}
	handler(ctx, IntentContext{
		Services:    d.Services,
		ChannelID:   ev.Channel,
		UserID:      ev.User,
		ThreadTs:    ev.ThreadTs,
		MessageText: d.resolveMentions(ctx, ev.Text),
		Session:     sess,
	})
}

// resolveMentions strips the bot's own mention and replaces every
// other <@U…> with a resolved display name.
func (d *Dispatcher) resolveMentions(ctx context.Context, text string) string {
	bot := d.botID(ctx)
	replaced := mentionRe.ReplaceAllStringFunc(text, func(match string) string {
		id := mentionRe.FindStringSubmatch(match)[1]
		if id == bot {
			return ""
		}
		return "@" + d.Services.UserDir.Resolve(ctx, id)
	})
	return strings.TrimSpace(replaced)
}
