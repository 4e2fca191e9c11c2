package handlers

import (
	"context"
	"log/slog"

	"github.com/monday-agents/gateway/internal/agentclients"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/render"
)

// Calendar handles the calendar intent: a bounded tool-use
// micro-agent operating on the requesting user's Google Calendar.
func Calendar(ctx context.Context, ic gateway.IntentContext) {
	services := ic.Services
	subjectID := ic.UserID

	if !services.OAuth.IsConnected(ctx, subjectID) {
		postConnectPrompt(ctx, services, ic)
		return
	}

	client, err := services.OAuth.GetClient(ctx, subjectID)
	if err != nil {
		slog.Error("calendar: failed to get oauth client", "user_id", subjectID, "error", err)
		postConnectPrompt(ctx, services, ic)
		return
	}

	reply := agentclients.Run(ctx, services.LLM, agentclients.CalendarSystemPrompt, agentclients.CalendarTools, ic.MessageText, agentclients.CalendarExecutor(client.AccessToken))
	if _, err := services.Slack.PostMessage(ctx, ic.ChannelID, ic.ThreadTs, render.AgentResponseBlocks("calendar", reply)); err != nil {
		slog.Error("calendar: failed to post response", "error", err)
	}
}

func postConnectPrompt(ctx context.Context, services *gateway.Services, ic gateway.IntentContext) {
	rendered := render.ConnectBlocks(services.OAuth.AuthURL(ic.UserID))
	if _, err := services.Slack.PostMessage(ctx, ic.ChannelID, ic.ThreadTs, rendered); err != nil {
		slog.Error("handlers: failed to post connect prompt", "error", err)
	}
}
