package webhook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/monday-agents/gateway/internal/gateway"
)

// slackEventEnvelope is the subset of the Events API's outer envelope
// the gateway needs: url_verification handshakes and event_callback
// dispatch.
type slackEventEnvelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	Event     slackInnerEvent `json:"event"`
}

type slackInnerEvent struct {
	Type        string `json:"type"`
	Channel     string `json:"channel"`
	ChannelType string `json:"channel_type"`
	User        string `json:"user"`
	Text        string `json:"text"`
	Ts          string `json:"ts"`
	ThreadTs    string `json:"thread_ts"`
	BotID       string `json:"bot_id"`
	SubType     string `json:"subtype"`
}

func (e slackInnerEvent) toInboundEvent() gateway.InboundEvent {
	return gateway.InboundEvent{
		Type:        e.Type,
		Channel:     e.Channel,
		ChannelType: e.ChannelType,
		User:        e.User,
		Text:        e.Text,
		Ts:          e.Ts,
		ThreadTs:    e.ThreadTs,
		BotID:       e.BotID,
		SubType:     e.SubType,
	}
}

func (s *Server) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	var envelope slackEventEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if envelope.Type == "url_verification" {
		writeJSON(w, http.StatusOK, map[string]string{"challenge": envelope.Challenge})
		return
	}

	// Acknowledge immediately; Slack retries on anything but a fast 200
	// and the gateway's own work (LLM calls, A2A round trips) can run
	// well past its retry window, so processing continues after the
	// response is written using a context detached from the request.
	w.WriteHeader(http.StatusOK)

	ev := envelope.Event.toInboundEvent()
	go func() {
		ctx := context.Background()
		switch {
		case ev.Type == "app_mention":
			s.dispatcher.HandleMention(ctx, ev)
		case ev.Type == "message" && ev.IsDirectMessage():
			s.dispatcher.HandleDirectMessage(ctx, ev)
		case ev.Type == "message":
			s.dispatcher.HandleThreadReply(ctx, ev, false)
		}
	}()
}
