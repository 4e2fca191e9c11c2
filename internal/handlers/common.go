// Package handlers implements one handler per intent: composing
// history, enrichment, the downstream A2A call, and rendering.
package handlers

import (
	"context"
	"strings"

	"github.com/monday-agents/gateway/internal/a2a"
	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/session"
)

// configAgentKey converts a session-scoped agent key back to the
// config-scoped type used to look up base URLs. The two types are
// intentionally distinct (session avoids importing config's sibling
// intent package) but share the same underlying string values.
func configAgentKey(k session.AgentKey) config.AgentKey {
	return config.AgentKey(k)
}

// renderA2AResponse maps an A2A response to a render.Rendered per the
// error taxonomy: a transport failure becomes a warning, a
// JSON-RPC error becomes an error block, a missing result becomes the
// "no response" block, and a successful result is the agent's text.
func renderA2AResponse(agentKey string, resp *a2a.Response) render.Rendered {
	if resp.Error != nil {
		if resp.Error.Code == a2a.ErrTransport {
			return render.WarningBlocks(agentKey)
		}
		return render.ErrorBlocks(resp.Error.Message)
	}
	if resp.Result == nil {
		return render.NoResponseBlocks()
	}
	return render.AgentResponseBlocks(agentKey, a2a.ExtractText(resp.Result))
}

// imperativePrefixes are verbs that indicate the triggering message
// already states the task to create, so it shouldn't be duplicated
// into the transcript appended for extraction.
var imperativePrefixes = []string{"create", "make", "add", "new task"}

func looksImperative(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, p := range imperativePrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// fetchRecentLines fetches up to limit non-bot messages from channel,
// oldest first, formatted as "DisplayName: text".
func fetchRecentLines(ctx context.Context, services *gateway.Services, channel string, limit int) ([]string, error) {
	msgs, err := services.Slack.ConversationsHistory(ctx, channel, limit)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.BotID != "" || m.SubType != "" {
			continue
		}
		name := services.UserDir.Resolve(ctx, m.User)
		lines = append(lines, name+": "+m.Text)
	}
	return lines, nil
}
