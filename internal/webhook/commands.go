package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/monday-agents/gateway/internal/a2a"
	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/handlers"
)

type slashCommand struct {
	Command   string
	Text      string
	UserID    string
	ChannelID string
	ThreadTs  string
}

func parseSlashCommand(r *http.Request) slashCommand {
	return slashCommand{
		Command:   r.PostFormValue("command"),
		Text:      strings.TrimSpace(r.PostFormValue("text")),
		UserID:    r.PostFormValue("user_id"),
		ChannelID: r.PostFormValue("channel_id"),
	}
}

// handleSlashCommand routes the gateway's slash commands. Commands that
// answer synchronously (/agents, /status, /scheduler, /google,
// /task-status) reply in the immediate response body; commands that
// dispatch into an
// intent handler ack with an empty 200 and post their result
// asynchronously, since Slack's 3-second response budget doesn't cover
// an LLM round trip.
func (s *Server) handleSlashCommand(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	cmd := parseSlashCommand(r)

	switch cmd.Command {
	case "/agents":
		writeEphemeral(w, s.agentsSummary())
		return
	case "/status":
		writeEphemeral(w, s.healthSummary())
		return
	case "/scheduler":
		writeEphemeral(w, s.schedulerSummary())
		return
	case "/google":
		writeEphemeral(w, s.resolveGoogleCommand(r.Context(), cmd))
		return
	case "/task-status":
		writeEphemeral(w, s.resolveTaskStatusCommand(r.Context(), cmd))
		return
	}

	handler, ok := s.commandIntentHandler(cmd.Command)
	if !ok {
		writeEphemeral(w, fmt.Sprintf("unrecognized command %q", cmd.Command))
		return
	}
	w.WriteHeader(http.StatusOK)
	go func() {
		handler(context.Background(), gateway.IntentContext{
			Services:    s.services,
			ChannelID:   cmd.ChannelID,
			UserID:      cmd.UserID,
			ThreadTs:    "",
			MessageText: cmd.Text,
		})
	}()
}

func (s *Server) commandIntentHandler(command string) (gateway.HandlerFunc, bool) {
	switch command {
	case "/gcal":
		return handlers.Calendar, true
	case "/gdrive":
		return handlers.Drive, true
	case "/create-task":
		return handlers.CreateTask, true
	case "/meeting-sync":
		return handlers.MeetingSync, true
	default:
		return nil, false
	}
}

func (s *Server) agentsSummary() string {
	keys := make([]string, 0, len(s.services.Config.AgentURLs))
	for k := range s.services.Config.AgentURLs {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Configured agents:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "• %s: %s\n", k, s.services.Config.AgentURLs[config.AgentKey(k)])
	}
	return b.String()
}

func (s *Server) healthSummary() string {
	return "Gateway is up."
}

func (s *Server) schedulerSummary() string {
	if s.scheduler == nil {
		return "Scheduler is disabled."
	}
	statuses := s.scheduler.GetStatus()
	if len(statuses) == 0 {
		return "No scheduled jobs registered."
	}
	var b strings.Builder
	for _, st := range statuses {
		state := "enabled"
		if !st.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(&b, "• %s (%s): %s, last run %s, %d consecutive failures\n", st.Name, st.Cron, state, formatLastRun(st.LastRun.IsZero()), st.ConsecutiveFailures)
	}
	return b.String()
}

func formatLastRun(neverRan bool) string {
	if neverRan {
		return "never"
	}
	return "recently"
}

func (s *Server) resolveGoogleCommand(ctx context.Context, cmd slashCommand) string {
	sub := strings.Fields(cmd.Text)
	action := ""
	if len(sub) > 0 {
		action = sub[0]
	}

	switch action {
	case "connect", "":
		return "Connect your Google account: " + s.services.OAuth.AuthURL(cmd.UserID)
	case "disconnect":
		if err := s.services.OAuth.Disconnect(ctx, cmd.UserID); err != nil {
			slog.Error("webhook: google disconnect failed", "error", err)
			return "Couldn't disconnect your Google account. Please try again."
		}
		return "Your Google account has been disconnected."
	case "status":
		if s.services.OAuth.IsConnected(ctx, cmd.UserID) {
			return "Your Google account is connected."
		}
		return "Your Google account is not connected. Run `/google connect` to link it."
	default:
		return "usage: /google <connect|disconnect|status>"
	}
}

// resolveTaskStatusCommand looks up a previously created task by id
// against the product-owner agent, the one every create-task and
// meeting-sync approval routes through. Text must be the bare task id;
// anything else is a usage error.
func (s *Server) resolveTaskStatusCommand(ctx context.Context, cmd slashCommand) string {
	taskID := strings.TrimSpace(cmd.Text)
	if taskID == "" {
		return "usage: /task-status <task-id>"
	}

	url := s.services.Config.AgentURLs[config.AgentProductOwner]
	resp := s.services.A2A.GetTask(ctx, url, taskID)
	if resp.Error != nil {
		return fmt.Sprintf("couldn't fetch task %s: %s", taskID, resp.Error.Message)
	}
	if resp.Result == nil {
		return fmt.Sprintf("task %s not found", taskID)
	}
	return fmt.Sprintf("task %s: %s\n%s", taskID, resp.Result.Status.State, a2a.ExtractText(resp.Result))
}

func writeEphemeral(w http.ResponseWriter, text string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"response_type": "ephemeral",
		"text":          text,
	})
}
