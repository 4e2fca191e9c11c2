package handlers

import (
	"context"
	"log/slog"

	"github.com/monday-agents/gateway/internal/agentclients"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/render"
)

// Drive handles the drive intent: a bounded tool-use micro-agent
// operating on the requesting user's Google Drive.
func Drive(ctx context.Context, ic gateway.IntentContext) {
	services := ic.Services
	subjectID := ic.UserID

	if !services.OAuth.IsConnected(ctx, subjectID) {
		postConnectPrompt(ctx, services, ic)
		return
	}

	client, err := services.OAuth.GetClient(ctx, subjectID)
	if err != nil {
		slog.Error("drive: failed to get oauth client", "user_id", subjectID, "error", err)
		postConnectPrompt(ctx, services, ic)
		return
	}

	reply := agentclients.Run(ctx, services.LLM, agentclients.DriveSystemPrompt, agentclients.DriveTools, ic.MessageText, agentclients.DriveExecutor(client.AccessToken))
	if _, err := services.Slack.PostMessage(ctx, ic.ChannelID, ic.ThreadTs, render.AgentResponseBlocks("drive", reply)); err != nil {
		slog.Error("drive: failed to post response", "error", err)
	}
}
