package render

import "fmt"

// AgentResponseBlocks renders a successful downstream agent reply.
func AgentResponseBlocks(agentKey, text string) Rendered {
	return Rendered{
		Blocks: []Block{
			SectionBlock{Text: ToMrkdwn(text)},
			ContextBlock{Elements: []string{fmt.Sprintf("Answered by *%s*", agentKey)}},
		},
		Text: text,
	}
}

// ErrorBlocks renders a JSON-RPC RemoteAgentError.
func ErrorBlocks(message string) Rendered {
	text := fmt.Sprintf(":warning: The agent reported an error: %s", message)
	return Rendered{
		Blocks: []Block{SectionBlock{Text: text}},
		Text:   text,
	}
}

// WarningBlocks renders a TransportError that could not reach an agent.
func WarningBlocks(agentKey string) Rendered {
	text := fmt.Sprintf(":warning: Could not reach %s. Please try again shortly.", agentKey)
	return Rendered{
		Blocks: []Block{SectionBlock{Text: text}},
		Text:   text,
	}
}

// NoResponseBlocks renders the case where an A2A response carried
// neither a result nor an error.
func NoResponseBlocks() Rendered {
	text := ":warning: The agent did not return a response."
	return Rendered{
		Blocks: []Block{SectionBlock{Text: text}},
		Text:   text,
	}
}

// GreetingBlocks renders the fallback greeting for an empty mention.
func GreetingBlocks() Rendered {
	text := "Hey! How can I help?"
	return Rendered{Blocks: []Block{SectionBlock{Text: text}}, Text: text}
}

// LoadingBlocks renders the ephemeral "working on it" placeholder
// posted before dispatch.
func LoadingBlocks() Rendered {
	text := ":hourglass_flowing_sand: Working on it…"
	return Rendered{Blocks: []Block{SectionBlock{Text: text}}, Text: text}
}

// StatusDashboardBlocks renders the board-status handler's response.
func StatusDashboardBlocks(text string) Rendered {
	return Rendered{
		Blocks: []Block{
			HeaderBlock{Text: "Board Status"},
			SectionBlock{Text: ToMrkdwn(text)},
		},
		Text: text,
	}
}

// ConnectBlocks renders a prompt to connect calendar/drive access via
// OAuth, given the authorization URL.
func ConnectBlocks(authURL string) Rendered {
	text := fmt.Sprintf("You need to connect your Google account first. <%s|Connect now>", authURL)
	return Rendered{
		Blocks: []Block{
			SectionBlock{Text: text},
			ActionsBlock{Buttons: []Button{{ActionID: "oauth_connect", Text: "Connect Google Account", Style: ButtonPrimary, Value: authURL}}},
		},
		Text: "You need to connect your Google account first.",
	}
}

// Action IDs for the task-from-conversation preview.
const (
	ActionCreateTask = "mention_create_task"
	ActionEditTask   = "mention_edit_task"
	ActionCancelTask = "mention_cancel_task"

	ActionApproveMeeting = "meeting_approve"
	ActionDismissMeeting = "meeting_dismiss"
)

// TaskPreviewBlocks renders the task-from-conversation preview with
// its three action buttons.
func TaskPreviewBlocks(task ExtractedTask) Rendered {
	fields := []string{
		fmt.Sprintf("*Name:*\n%s", task.Name),
		fmt.Sprintf("*Assignee:*\n%s", orDash(task.Assignee)),
		fmt.Sprintf("*Priority:*\n%s", task.Priority),
		fmt.Sprintf("*Status:*\n%s", task.Status),
	}
	return Rendered{
		Blocks: []Block{
			HeaderBlock{Text: "Task Preview"},
			SectionBlock{Text: fmt.Sprintf("*Description:*\n%s", orDash(task.Description))},
			SectionBlock{Fields: fields},
			ActionsBlock{Buttons: []Button{
				{ActionID: ActionCreateTask, Text: "Create Task", Style: ButtonPrimary, Value: task.Name},
				{ActionID: ActionEditTask, Text: "Edit", Value: task.Name},
				{ActionID: ActionCancelTask, Text: "Cancel", Style: ButtonDanger, Value: task.Name},
			}},
		},
		Text: fmt.Sprintf("Task preview: %s", task.Name),
	}
}

// TaskCreatedBlocks renders the in-place confirmation after a
// successful create-task submission.
func TaskCreatedBlocks(taskName, actorID string) Rendered {
	text := fmt.Sprintf(":white_check_mark: Task *%s* created by <@%s>.", taskName, actorID)
	return Rendered{Blocks: []Block{SectionBlock{Text: text}}, Text: text}
}

// TaskCancelledBlocks renders the dismissal notice for a canceled task
// preview.
func TaskCancelledBlocks(taskName, actorID string) Rendered {
	text := fmt.Sprintf(":no_entry_sign: Task preview *%s* cancelled by <@%s>.", taskName, actorID)
	return Rendered{Blocks: []Block{SectionBlock{Text: text}}, Text: text}
}

// MeetingPreviewBlocks renders a meeting-notes preview with approve
// and dismiss buttons.
func MeetingPreviewBlocks(title string, analysis MeetingAnalysis) Rendered {
	blocks := []Block{
		HeaderBlock{Text: title},
		SectionBlock{Text: fmt.Sprintf("*Summary:*\n%s", ToMrkdwn(analysis.Summary))},
	}
	if len(analysis.Decisions) > 0 {
		var lines string
		for _, d := range analysis.Decisions {
			lines += "• " + d + "\n"
		}
		blocks = append(blocks, SectionBlock{Text: fmt.Sprintf("*Key decisions:*\n%s", lines)})
	}
	if len(analysis.ActionItems) > 0 {
		var lines string
		for i, item := range analysis.ActionItems {
			lines += fmt.Sprintf("%d. *%s*", i+1, item.Title)
			var extras []string
			if item.Assignee != "" {
				extras = append(extras, "assignee: "+item.Assignee)
			}
			if item.Priority != "" {
				extras = append(extras, "priority: "+string(item.Priority))
			}
			if item.Deadline != "" {
				extras = append(extras, "due: "+item.Deadline)
			}
			if len(extras) > 0 {
				lines += fmt.Sprintf(" (%s)", joinComma(extras))
			}
			lines += "\n"
		}
		blocks = append(blocks, SectionBlock{Text: fmt.Sprintf("*Action items:*\n%s", lines)})
	}
	blocks = append(blocks, ActionsBlock{Buttons: []Button{
		{ActionID: ActionApproveMeeting, Text: "Approve", Style: ButtonPrimary, Value: title},
		{ActionID: ActionDismissMeeting, Text: "Dismiss", Value: title},
	}})
	return Rendered{Blocks: blocks, Text: fmt.Sprintf("Meeting notes: %s", title)}
}

// MeetingApprovedBlocks renders the in-place confirmation after the
// approver submits the meeting-notes edit modal.
func MeetingApprovedBlocks(title, actorID string) Rendered {
	text := fmt.Sprintf(":white_check_mark: Meeting notes for *%s* approved by <@%s>.", title, actorID)
	return Rendered{Blocks: []Block{SectionBlock{Text: text}}, Text: text}
}

// MeetingDismissedBlocks renders the dismissal notice for a
// meeting-notes preview.
func MeetingDismissedBlocks(title, actorID string) Rendered {
	text := fmt.Sprintf(":no_entry_sign: Meeting notes for *%s* dismissed by <@%s>.", title, actorID)
	return Rendered{Blocks: []Block{SectionBlock{Text: text}}, Text: text}
}

// StandupBlocks renders the daily standup job's output.
func StandupBlocks(text string) Rendered {
	return Rendered{
		Blocks: []Block{HeaderBlock{Text: "Daily Standup"}, SectionBlock{Text: ToMrkdwn(text)}},
		Text:   text,
	}
}

// StaleTaskBlocks renders the stale-task job's output.
func StaleTaskBlocks(text string) Rendered {
	return Rendered{
		Blocks: []Block{HeaderBlock{Text: "Stale Tasks"}, SectionBlock{Text: ToMrkdwn(text)}},
		Text:   text,
	}
}

// WeeklySummaryBlocks renders the weekly-summary job's output.
func WeeklySummaryBlocks(text string) Rendered {
	return Rendered{
		Blocks: []Block{HeaderBlock{Text: "Weekly Summary"}, SectionBlock{Text: ToMrkdwn(text)}},
		Text:   text,
	}
}

// MeetingSyncSummaryBlocks renders the outcome of an on-demand
// meeting-sync check as a compact tally.
func MeetingSyncSummaryBlocks(found, transcriptsFound, previewsPosted, skipped int) Rendered {
	var text string
	switch {
	case found == 0:
		text = "No recent meetings with a video call found in the last 20 minutes."
	case previewsPosted > 0:
		text = fmt.Sprintf("Found %d meeting(s), posted %d preview(s) for review.", found, previewsPosted)
	default:
		text = fmt.Sprintf("Found %d meeting(s); %d transcript(s) seen, %d already handled. No new previews to post.", found, transcriptsFound, skipped)
	}
	return Rendered{Blocks: []Block{SectionBlock{Text: text}}, Text: text}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
