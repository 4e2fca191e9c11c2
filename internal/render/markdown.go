package render

import (
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`(?m)^#{1,6}\s+(.*)$`)
	boldRe    = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// ToMrkdwn converts the subset of markdown the agents emit (headings,
// bold) into Slack's mrkdwn dialect. Anything else passes
// through unchanged.
func ToMrkdwn(text string) string {
	text = headingRe.ReplaceAllString(text, "*$1*")
	text = boldRe.ReplaceAllString(text, "*$1*")
	return text
}

// Truncate clamps text to maxLen runes, appending an ellipsis marker
// when it cuts content off.
func Truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return strings.TrimSpace(string(r[:maxLen])) + "…"
}
