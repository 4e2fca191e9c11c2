package handlers

import (
	"context"
	"log/slog"

	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/meetingsync"
	"github.com/monday-agents/gateway/internal/render"
)

// MeetingSync handles the on-demand meeting-sync intent: the
// requesting Slack user is the OAuth subject, distinct from the
// background orchestrator's fixed, configured subject, since here
// there is a concrete user asking "check my meetings now".
func MeetingSync(ctx context.Context, ic gateway.IntentContext) {
	services := ic.Services
	subjectID := ic.UserID

	if !services.OAuth.IsConnected(ctx, subjectID) {
		rendered := render.ConnectBlocks(services.OAuth.AuthURL(subjectID))
		if _, err := services.Slack.PostMessage(ctx, ic.ChannelID, ic.ThreadTs, rendered); err != nil {
			slog.Error("meeting-sync: failed to post connect prompt", "error", err)
		}
		return
	}

	svc := meetingsync.New(services)
	counts, err := svc.CheckRecentMeetings(ctx, subjectID)
	if err != nil {
		slog.Error("meeting-sync: check failed", "user_id", subjectID, "error", err)
		if _, err := services.Slack.PostMessage(ctx, ic.ChannelID, ic.ThreadTs, render.ErrorBlocks("couldn't reach your Google account. Try reconnecting.")); err != nil {
			slog.Error("meeting-sync: failed to post error", "error", err)
		}
		return
	}

	rendered := render.MeetingSyncSummaryBlocks(counts.Found, counts.TranscriptsFound, counts.PreviewsPosted, counts.Skipped)
	if _, err := services.Slack.PostMessage(ctx, ic.ChannelID, ic.ThreadTs, rendered); err != nil {
		slog.Error("meeting-sync: failed to post summary", "error", err)
	}
}
