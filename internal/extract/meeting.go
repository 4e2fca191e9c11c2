package extract

import (
	"context"
	"encoding/json"

	"github.com/monday-agents/gateway/internal/llm"
	"github.com/monday-agents/gateway/internal/render"
)

const meetingSystemPrompt = `You summarize a meeting transcript into a JSON object of the shape:
{"summary": "...", "decisions": ["..."], "actionItems": [{"title": "...", "description": "...", "assignee": "...", "priority": "Low|Medium|High|Critical", "deadline": "..."}]}
Omit fields that don't apply rather than inventing content. If nothing actionable was discussed, return an empty actionItems array.
Reply with the JSON object and nothing else.`

// Meeting runs a single LLM call over transcript and returns the
// structured analysis. On failure it returns a summary-only analysis
// with no action items, which the caller treats as nothing to surface
// and dismisses without posting a preview.
func Meeting(ctx context.Context, llmClient *llm.Client, transcript string) render.MeetingAnalysis {
	fallback := render.MeetingAnalysis{Summary: render.Truncate(transcript, 500)}

	reply, err := llmClient.Complete(ctx, meetingSystemPrompt, []llm.Message{{Role: "user", Content: transcript}}, nil)
	if err != nil {
		return fallback
	}

	var parsed render.MeetingAnalysis
	if err := json.Unmarshal([]byte(stripCodeFences(reply.Text)), &parsed); err != nil {
		return fallback
	}
	if parsed.Summary == "" {
		parsed.Summary = fallback.Summary
	}
	return parsed
}
