// Package jobs implements the three built-in scheduled jobs: each
// wraps a fixed scrum-master prompt with a dedicated render style and
// posts the result to the configured notify channel.
package jobs

import (
	"context"
	"strings"

	"github.com/monday-agents/gateway/internal/a2a"
	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/scheduler"
)

// noStaleTasksSentinel is the exact literal the scrum-master agent
// replies with when there is nothing to report; the stale-task job
// treats it as a silent success rather than an empty post.
const noStaleTasksSentinel = "NO_STALE_TASKS"

func sendToScrumMaster(ctx context.Context, services *gateway.Services, prompt string) *a2a.Response {
	url := services.Config.AgentURLs[config.AgentScrumMaster]
	return services.A2A.SendMessage(ctx, url, prompt, "")
}

func postToNotifyChannel(ctx context.Context, services *gateway.Services, rendered render.Rendered) error {
	_, err := services.Slack.PostMessage(ctx, services.Config.NotifyChannelID, "", rendered)
	return err
}

// NewStandupJob builds the daily standup summary job.
func NewStandupJob(services *gateway.Services) scheduler.Job {
	return scheduler.Job{
		ID:      "standup",
		Name:    "Daily Standup",
		Cron:    services.Config.JobCron["standup"],
		Enabled: services.Config.JobEnabled["standup"],
		Execute: func(ctx context.Context) scheduler.JobResult {
			resp := sendToScrumMaster(ctx, services, "Give the team a daily standup summary: what's in progress, what's blocked, and what's planned for today.")
			if resp.Error != nil {
				return scheduler.JobResult{Success: false, Error: resp.Error.Message}
			}
			text := a2a.ExtractText(resp.Result)
			if err := postToNotifyChannel(ctx, services, render.StandupBlocks(text)); err != nil {
				return scheduler.JobResult{Success: false, Error: err.Error()}
			}
			return scheduler.JobResult{Success: true, Posted: true}
		},
	}
}

// NewStaleTaskJob builds the stale-task nudge job.
func NewStaleTaskJob(services *gateway.Services) scheduler.Job {
	return scheduler.Job{
		ID:      "stale-task",
		Name:    "Stale Tasks",
		Cron:    services.Config.JobCron["stale-task"],
		Enabled: services.Config.JobEnabled["stale-task"],
		Execute: func(ctx context.Context) scheduler.JobResult {
			resp := sendToScrumMaster(ctx, services, "List any tasks on the board that have had no activity in the last 3 days. If there are none, reply with exactly NO_STALE_TASKS and nothing else.")
			if resp.Error != nil {
				return scheduler.JobResult{Success: false, Error: resp.Error.Message}
			}
			text := a2a.ExtractText(resp.Result)
			if strings.Contains(text, noStaleTasksSentinel) {
				return scheduler.JobResult{Success: true, Posted: false}
			}
			if err := postToNotifyChannel(ctx, services, render.StaleTaskBlocks(text)); err != nil {
				return scheduler.JobResult{Success: false, Error: err.Error()}
			}
			return scheduler.JobResult{Success: true, Posted: true}
		},
	}
}

// NewWeeklySummaryJob builds the weekly summary job.
func NewWeeklySummaryJob(services *gateway.Services) scheduler.Job {
	return scheduler.Job{
		ID:      "weekly-summary",
		Name:    "Weekly Summary",
		Cron:    services.Config.JobCron["weekly-summary"],
		Enabled: services.Config.JobEnabled["weekly-summary"],
		Execute: func(ctx context.Context) scheduler.JobResult {
			resp := sendToScrumMaster(ctx, services, "Summarize this week's progress across the board: what shipped, what's still open, and any notable risks.")
			if resp.Error != nil {
				return scheduler.JobResult{Success: false, Error: resp.Error.Message}
			}
			text := a2a.ExtractText(resp.Result)
			if err := postToNotifyChannel(ctx, services, render.WeeklySummaryBlocks(text)); err != nil {
				return scheduler.JobResult{Success: false, Error: err.Error()}
			}
			return scheduler.JobResult{Success: true, Posted: true}
		},
	}
}

// All returns every built-in job in registration order.
func All(services *gateway.Services) []scheduler.Job {
	return []scheduler.Job{
		NewStandupJob(services),
		NewStaleTaskJob(services),
		NewWeeklySummaryJob(services),
	}
}
