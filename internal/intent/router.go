// Package intent implements the two-tier classifier that maps free text
// to (intent, agentKey).
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/llm"
)

// Intent is the closed set of six labels.
type Intent string

const (
	CreateTask  Intent = "create-task"
	BoardStatus Intent = "board-status"
	MeetingSync Intent = "meeting-sync"
	Calendar    Intent = "calendar"
	Drive       Intent = "drive"
	AgentChat   Intent = "agent-chat"
)

var validIntents = map[Intent]bool{
	CreateTask: true, BoardStatus: true, MeetingSync: true,
	Calendar: true, Drive: true, AgentChat: true,
}

// Result is the classifier's output.
type Result struct {
	Intent   Intent
	AgentKey config.AgentKey
	Tier     int // 1, 2, or 3 — for logging/testability only
}

type keywordRule struct {
	phrases  []string
	intent   Intent
	agentKey config.AgentKey
}

// tier1Rules are the deterministic keyword pre-filter, checked in order;
// first match wins.
var tier1Rules = []keywordRule{
	{[]string{"create a task", "create task", "make a task", "add a task", "new task"}, CreateTask, config.AgentProductOwner},
	{[]string{"board status", "sprint status", "standup", "stand-up"}, BoardStatus, config.AgentScrumMaster},
	{[]string{"sync meeting", "meeting sync", "sync meetings"}, MeetingSync, config.AgentProductOwner},
	{[]string{"calendar", "schedule", "what's on my", "my agenda", "my meetings today", "book a meeting"}, Calendar, config.AgentProductOwner},
	{[]string{"find the file", "search drive", "google drive", "my drive", "find the doc", "find document"}, Drive, config.AgentProductOwner},
}

// tier3Rules are the broader fallback keyword sets, consulted
// when Tier 2 (the LLM) fails outright or returns garbage.
var tier3Rules = []keywordRule{
	{[]string{"status", "blocked", "summary"}, BoardStatus, config.AgentScrumMaster},
}

const systemPrompt = `You classify a Slack message into exactly one intent and one agent.
Intents: create-task, board-status, meeting-sync, calendar, drive, agent-chat.
Agents: product-owner, developer, reviewer, scrum-master.
Reply with a JSON object of the shape {"intent": "...", "agentKey": "..."} and nothing else.`

// Router classifies text into (intent, agentKey).
type Router struct {
	llmClient *llm.Client
}

// New creates a Router.
func New(llmClient *llm.Client) *Router {
	return &Router{llmClient: llmClient}
}

// Classify runs the three-tier pipeline. It always returns a valid intent
// from the closed set, even when the LLM call fails or returns garbage
// even when both the keyword pre-filter and the LLM classifier miss.
func (r *Router) Classify(ctx context.Context, text string) Result {
	lower := strings.ToLower(text)

	if res, ok := matchRules(lower, tier1Rules); ok {
		res.Tier = 1
		slog.Info("intent classified", "tier", 1, "intent", res.Intent, "agent_key", res.AgentKey)
		return res
	}

	if res, ok := r.classifyTier2(ctx, text); ok {
		res.Tier = 2
		slog.Info("intent classified", "tier", 2, "intent", res.Intent, "agent_key", res.AgentKey)
		return res
	}

	res := r.classifyTier3(lower)
	res.Tier = 3
	slog.Info("intent classified", "tier", 3, "intent", res.Intent, "agent_key", res.AgentKey)
	return res
}

func matchRules(lower string, rules []keywordRule) (Result, bool) {
	for _, rule := range rules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lower, phrase) {
				return Result{Intent: rule.intent, AgentKey: rule.agentKey}, true
			}
		}
	}
	return Result{}, false
}

type tier2Reply struct {
	Intent   string `json:"intent"`
	AgentKey string `json:"agentKey"`
}

func (r *Router) classifyTier2(ctx context.Context, text string) (Result, bool) {
	if r.llmClient == nil {
		return Result{}, false
	}
	reply, err := r.llmClient.Complete(ctx, systemPrompt, []llm.Message{{Role: "user", Content: text}}, nil)
	if err != nil {
		slog.Warn("tier-2 classifier call failed", "error", err)
		return Result{}, false
	}

	raw := stripCodeFences(reply.Text)
	var parsed tier2Reply
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		slog.Warn("tier-2 classifier reply not parseable JSON", "error", err, "raw", raw)
		return Result{}, false
	}

	in := Intent(parsed.Intent)
	if !validIntents[in] {
		slog.Warn("tier-2 classifier returned out-of-schema intent", "intent", parsed.Intent)
		return Result{}, false
	}
	return Result{Intent: in, AgentKey: config.AgentKey(parsed.AgentKey)}, true
}

func (r *Router) classifyTier3(lower string) Result {
	if res, ok := matchRules(lower, tier3Rules); ok {
		return res
	}
	return Result{Intent: AgentChat, AgentKey: config.AgentProductOwner}
}

// stripCodeFences removes ```json ... ``` or ``` ... ``` wrapping that LLMs
// commonly add around JSON replies.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
