package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/monday-agents/gateway/internal/gateway"
)

const recentHistoryLimit = 15

// AgentChat composes recent channel context plus the user's request
// into a single prompt and forwards it to the session's agent,
// preserving contextID for conversation continuity.
func AgentChat(ctx context.Context, ic gateway.IntentContext) {
	services := ic.Services

	var sb strings.Builder
	lines, err := fetchRecentLines(ctx, services, ic.ChannelID, recentHistoryLimit)
	if err != nil {
		slog.Warn("agent-chat: failed to fetch channel history", "error", err)
	}
	if len(lines) > 0 {
		sb.WriteString("Recent Slack channel messages for context:\n")
		for _, line := range lines {
			sb.WriteString("- " + line + "\n")
		}
	}
	sb.WriteString("User request: " + ic.MessageText)

	agentURL := services.Config.AgentURLs[configAgentKey(ic.Session.AgentKey)]
	resp := services.A2A.SendMessage(ctx, agentURL, sb.String(), ic.Session.ContextID)

	rendered := renderA2AResponse(string(ic.Session.AgentKey), resp)
	if _, err := services.Slack.PostMessage(ctx, ic.ChannelID, ic.ThreadTs, rendered); err != nil {
		slog.Error("agent-chat: failed to post response", "error", err)
	}
}
