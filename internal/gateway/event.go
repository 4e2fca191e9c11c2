// Package gateway implements the mention/DM/thread event handlers:
// loop suppression, mention text resolution, and dispatch into the
// per-intent handler registry.
package gateway

// InboundEvent is the subset of a Slack event's fields the gateway
// acts on, independent of the platform receiver's own event struct
// (signature verification and event dispatch primitives live in the
// webhook layer).
type InboundEvent struct {
	Type        string
	Channel     string
	ChannelType string
	User        string
	Text        string
	Ts          string
	ThreadTs    string
	BotID       string
	SubType     string
}

// IsThreaded reports whether this event belongs to an existing thread.
func (e InboundEvent) IsThreaded() bool {
	return e.ThreadTs != "" && e.ThreadTs != e.Ts
}

// IsDirectMessage reports whether this event arrived on a DM channel.
func (e InboundEvent) IsDirectMessage() bool {
	return e.ChannelType == "im"
}
