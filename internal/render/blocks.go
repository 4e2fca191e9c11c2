// Package render turns domain values into platform block-kit payloads plus
// fallback text.
//
// The teacher's downstream platform (and every Block Kit-based Slack
// integration) discriminates block shapes with a "type" string at
// runtime. This rewrite models
// each block kind as its own Go type instead of a bag of
// map[string]any, and only serializes to the untyped wire shape at the
// JSON boundary.
package render

import "encoding/json"

// Block is any Block-Kit block. Each concrete type knows how to marshal
// itself to the wire shape the platform expects.
type Block interface {
	json.Marshaler
}

// Rendered is the output of every builder in this package: blocks plus a
// plain-text fallback for surfaces that can't render blocks.
type Rendered struct {
	Blocks []Block `json:"blocks"`
	Text   string  `json:"text"`
}

// HeaderBlock renders a bold header line.
type HeaderBlock struct {
	Text string
}

func (h HeaderBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type": "header",
		"text": map[string]any{"type": "plain_text", "text": h.Text},
	})
}

// SectionBlock renders a body of mrkdwn text, optionally as a fields grid
// instead of a single text block.
type SectionBlock struct {
	Text   string
	Fields []string
}

func (s SectionBlock) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": "section"}
	if len(s.Fields) > 0 {
		fields := make([]map[string]any, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = map[string]any{"type": "mrkdwn", "text": f}
		}
		out["fields"] = fields
	} else {
		out["text"] = map[string]any{"type": "mrkdwn", "text": s.Text}
	}
	return json.Marshal(out)
}

// ContextBlock renders small italic context lines.
type ContextBlock struct {
	Elements []string
}

func (c ContextBlock) MarshalJSON() ([]byte, error) {
	elements := make([]map[string]any, len(c.Elements))
	for i, e := range c.Elements {
		elements[i] = map[string]any{"type": "mrkdwn", "text": e}
	}
	return json.Marshal(map[string]any{"type": "context", "elements": elements})
}

// DividerBlock renders a horizontal rule.
type DividerBlock struct{}

func (DividerBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"type": "divider"})
}

// ButtonStyle is the closed set of button visual styles.
type ButtonStyle string

const (
	ButtonDefault ButtonStyle = ""
	ButtonPrimary ButtonStyle = "primary"
	ButtonDanger  ButtonStyle = "danger"
)

// Button is a single interactive button within an ActionsBlock.
type Button struct {
	ActionID string
	Text     string
	Style    ButtonStyle
	Value    string
}

// ActionsBlock renders one or more buttons in a row.
type ActionsBlock struct {
	Buttons []Button
}

func (a ActionsBlock) MarshalJSON() ([]byte, error) {
	elements := make([]map[string]any, len(a.Buttons))
	for i, b := range a.Buttons {
		el := map[string]any{
			"type":      "button",
			"action_id": b.ActionID,
			"text":      map[string]any{"type": "plain_text", "text": b.Text},
			"value":     b.Value,
		}
		if b.Style != ButtonDefault {
			el["style"] = string(b.Style)
		}
		elements[i] = el
	}
	return json.Marshal(map[string]any{"type": "actions", "elements": elements})
}
