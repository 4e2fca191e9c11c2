package agentclients

import (
	"context"
	"fmt"
	"time"

	"github.com/monday-agents/gateway/internal/googleapi"
	"github.com/monday-agents/gateway/internal/llm"
)

// CalendarSystemPrompt is the tool-use loop's system prompt for the
// calendar intent.
const CalendarSystemPrompt = `You help a Slack user manage their Google Calendar. You have tools to
list, read, create, update, and delete events. Times are RFC3339. Once you have
answered the user's request, reply with plain text summarizing what you did or found —
do not call any more tools.`

// CalendarTools is the ≤5-tool schema for the calendar micro-agent.
var CalendarTools = []llm.ToolDef{
	{
		Name:        "list_events",
		Description: "List calendar events between two RFC3339 timestamps.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"time_min": map[string]any{"type": "string"},
				"time_max": map[string]any{"type": "string"},
			},
			"required": []string{"time_min", "time_max"},
		},
	},
	{
		Name:        "get_event",
		Description: "Fetch a single event by id.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"event_id": map[string]any{"type": "string"}},
			"required":   []string{"event_id"},
		},
	},
	{
		Name:        "create_event",
		Description: "Create a new event.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary": map[string]any{"type": "string"},
				"start":   map[string]any{"type": "string"},
				"end":     map[string]any{"type": "string"},
			},
			"required": []string{"summary", "start", "end"},
		},
	},
	{
		Name:        "update_event",
		Description: "Update an existing event's summary and/or time window.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event_id": map[string]any{"type": "string"},
				"summary":  map[string]any{"type": "string"},
				"start":    map[string]any{"type": "string"},
				"end":      map[string]any{"type": "string"},
			},
			"required": []string{"event_id"},
		},
	},
	{
		Name:        "delete_event",
		Description: "Delete an event by id.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"event_id": map[string]any{"type": "string"}},
			"required":   []string{"event_id"},
		},
	},
}

// CalendarExecutor returns an Executor that runs CalendarTools calls
// against the Calendar API on behalf of accessToken's owner.
func CalendarExecutor(accessToken string) Executor {
	return func(ctx context.Context, name string, input map[string]any) (string, error) {
		switch name {
		case "list_events":
			timeMin, err := parseTime(input, "time_min")
			if err != nil {
				return "", err
			}
			timeMax, err := parseTime(input, "time_max")
			if err != nil {
				return "", err
			}
			events, err := googleapi.ListEvents(ctx, accessToken, timeMin, timeMax)
			if err != nil {
				return "", err
			}
			return summarizeEvents(events), nil
		case "get_event":
			eventID, _ := input["event_id"].(string)
			event, err := googleapi.GetEvent(ctx, accessToken, eventID)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s: %s to %s", event.Summary, event.Start.DateTime, event.End.DateTime), nil
		case "create_event":
			summary, _ := input["summary"].(string)
			start, err := parseTime(input, "start")
			if err != nil {
				return "", err
			}
			end, err := parseTime(input, "end")
			if err != nil {
				return "", err
			}
			event, err := googleapi.CreateEvent(ctx, accessToken, summary, start, end)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("created event %s (%s)", event.ID, event.Summary), nil
		case "update_event":
			eventID, _ := input["event_id"].(string)
			summary, _ := input["summary"].(string)
			start, _ := parseTime(input, "start")
			end, _ := parseTime(input, "end")
			event, err := googleapi.UpdateEvent(ctx, accessToken, eventID, summary, start, end)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("updated event %s", event.ID), nil
		case "delete_event":
			eventID, _ := input["event_id"].(string)
			if err := googleapi.DeleteEvent(ctx, accessToken, eventID); err != nil {
				return "", err
			}
			return fmt.Sprintf("deleted event %s", eventID), nil
		default:
			return "", fmt.Errorf("unknown tool %q", name)
		}
	}
}

func parseTime(input map[string]any, key string) (time.Time, error) {
	raw, _ := input[key].(string)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return t, nil
}

func summarizeEvents(events []googleapi.Event) string {
	if len(events) == 0 {
		return "no events found"
	}
	summary := ""
	for i, e := range events {
		if i > 0 {
			summary += "; "
		}
		summary += fmt.Sprintf("%s (%s, id=%s)", e.Summary, e.Start.DateTime, e.ID)
	}
	return summary
}
