package handlers

import (
	"context"
	"log/slog"

	"github.com/monday-agents/gateway/internal/a2a"
	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/render"
)

// BoardStatus asks the scrum-master agent for a single-shot status
// summary, with no contextID.
func BoardStatus(ctx context.Context, ic gateway.IntentContext) {
	services := ic.Services
	url := services.Config.AgentURLs[config.AgentScrumMaster]

	resp := services.A2A.SendMessage(ctx, url, "Give me the current board status summary.", "")

	var rendered render.Rendered
	switch {
	case resp.Error != nil:
		rendered = renderA2AResponse(string(config.AgentScrumMaster), resp)
	case resp.Result != nil:
		rendered = render.StatusDashboardBlocks(a2a.ExtractText(resp.Result))
	default:
		rendered = render.NoResponseBlocks()
	}

	if _, err := services.Slack.PostMessage(ctx, ic.ChannelID, ic.ThreadTs, rendered); err != nil {
		slog.Error("board-status: failed to post response", "error", err)
	}
}
