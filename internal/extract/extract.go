// Package extract turns a conversation transcript into structured task
// or meeting-analysis data via a single LLM call plus a JSON parse,
// mirroring the classifier's tier-2 pattern (internal/intent).
package extract

import "strings"

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
