// Package slackapi is a thin client over the Slack Web API methods the
// gateway needs: posting and updating messages, ephemeral nudges,
// history lookups for loop suppression, user resolution, and modal
// views for the interactive preview engine.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/monday-agents/gateway/internal/render"
)

const baseURL = "https://slack.com/api/"

// Client is a Bearer-token-authenticated Slack Web API client.
type Client struct {
	token   string
	http    *http.Client
	baseURL string
}

// New creates a Client authenticated with a bot token.
func New(token string) *Client {
	return &Client{
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
	}
}

// SetBaseURL points the client at an alternate API root. Used by tests
// to target an httptest.Server standing in for slack.com.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// apiResponse is the envelope every Slack Web API method returns.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// Message identifies a posted message for later update.
type Message struct {
	Channel string
	Ts      string
}

// Metadata is the preview-persistence contract: every preview
// message is posted with a metadata field so the engine never has to
// read back blocks to recover state. Because Slack message metadata
// values must be scalars, EventPayload holds pre-serialized JSON
// strings rather than nested structures.
type Metadata struct {
	EventType    string            `json:"event_type"`
	EventPayload map[string]string `json:"event_payload"`
}

// PostMessage posts blocks + fallback text to a channel or thread. If
// threadTs is non-empty the message is posted as a threaded reply.
func (c *Client) PostMessage(ctx context.Context, channel, threadTs string, r render.Rendered) (Message, error) {
	return c.PostMessageWithMetadata(ctx, channel, threadTs, r, nil)
}

// PostMessageWithMetadata is PostMessage plus an attached Metadata
// payload, used by the interactive preview engine.
func (c *Client) PostMessageWithMetadata(ctx context.Context, channel, threadTs string, r render.Rendered, metadata *Metadata) (Message, error) {
	payload := map[string]any{
		"channel": channel,
		"blocks":  r.Blocks,
		"text":    r.Text,
	}
	if threadTs != "" {
		payload["thread_ts"] = threadTs
	}
	if metadata != nil {
		payload["metadata"] = metadata
	}
	var out struct {
		apiResponse
		Channel string `json:"channel"`
		Ts      string `json:"ts"`
	}
	if err := c.call(ctx, "chat.postMessage", payload, &out); err != nil {
		return Message{}, err
	}
	return Message{Channel: out.Channel, Ts: out.Ts}, nil
}

// PostRawBlocks posts a message whose blocks are already Slack Block
// Kit JSON (from a caller outside the render package, e.g. a
// downstream agent's notification payload) rather than a
// render.Rendered value. blocks may be nil, in which case only text is
// sent.
func (c *Client) PostRawBlocks(ctx context.Context, channel, threadTs, text string, blocks json.RawMessage) (Message, error) {
	payload := map[string]any{
		"channel": channel,
		"text":    text,
	}
	if len(blocks) > 0 {
		payload["blocks"] = blocks
	}
	if threadTs != "" {
		payload["thread_ts"] = threadTs
	}
	var out struct {
		apiResponse
		Channel string `json:"channel"`
		Ts      string `json:"ts"`
	}
	if err := c.call(ctx, "chat.postMessage", payload, &out); err != nil {
		return Message{}, err
	}
	return Message{Channel: out.Channel, Ts: out.Ts}, nil
}

// UpdateMessage replaces the blocks and text of a previously posted
// message, used by the preview engine to resolve a preview in place
// after a button or modal callback.
func (c *Client) UpdateMessage(ctx context.Context, msg Message, r render.Rendered) error {
	payload := map[string]any{
		"channel": msg.Channel,
		"ts":      msg.Ts,
		"blocks":  r.Blocks,
		"text":    r.Text,
	}
	var out apiResponse
	return c.call(ctx, "chat.update", payload, &out)
}

// PostEphemeral posts a message visible only to one user, used for
// validation errors and quiet nudges.
func (c *Client) PostEphemeral(ctx context.Context, channel, userID string, r render.Rendered) error {
	payload := map[string]any{
		"channel": channel,
		"user":    userID,
		"blocks":  r.Blocks,
		"text":    r.Text,
	}
	var out apiResponse
	return c.call(ctx, "chat.postEphemeral", payload, &out)
}

// HistoryMessage is the subset of conversations.history fields the
// gateway inspects for loop suppression.
type HistoryMessage struct {
	User    string `json:"user"`
	BotID   string `json:"bot_id"`
	Text    string `json:"text"`
	Ts      string `json:"ts"`
	SubType string `json:"subtype"`
}

// ConversationsHistory fetches the most recent messages in a channel,
// newest first, up to limit.
func (c *Client) ConversationsHistory(ctx context.Context, channel string, limit int) ([]HistoryMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	var out struct {
		apiResponse
		Messages []HistoryMessage `json:"messages"`
	}
	err := c.callGet(ctx, "conversations.history", map[string]string{
		"channel": channel,
		"limit":   fmt.Sprintf("%d", limit),
	}, &out)
	return out.Messages, err
}

// UserInfo is the subset of users.info fields the gateway needs to
// resolve mentions and identify bot authors.
type UserInfo struct {
	ID      string `json:"id"`
	IsBot   bool   `json:"is_bot"`
	Name    string `json:"name"`
	RealName string `json:"real_name"`
}

// UsersInfo resolves a single user ID.
func (c *Client) UsersInfo(ctx context.Context, userID string) (UserInfo, error) {
	var out struct {
		apiResponse
		User UserInfo `json:"user"`
	}
	err := c.callGet(ctx, "users.info", map[string]string{"user": userID}, &out)
	return out.User, err
}

// UsersList paginates through the workspace member list, used by
// scheduled jobs to resolve display names in bulk.
func (c *Client) UsersList(ctx context.Context) ([]UserInfo, error) {
	var members []UserInfo
	cursor := ""
	for {
		params := map[string]string{"limit": "200"}
		if cursor != "" {
			params["cursor"] = cursor
		}
		var out struct {
			apiResponse
			Members          []UserInfo `json:"members"`
			ResponseMetadata struct {
				NextCursor string `json:"next_cursor"`
			} `json:"response_metadata"`
		}
		if err := c.callGet(ctx, "users.list", params, &out); err != nil {
			return nil, err
		}
		members = append(members, out.Members...)
		if out.ResponseMetadata.NextCursor == "" {
			break
		}
		cursor = out.ResponseMetadata.NextCursor
	}
	return members, nil
}

// AuthTest identifies the bot's own user ID, used to suppress
// self-triggered loops.
func (c *Client) AuthTest(ctx context.Context) (botUserID string, err error) {
	var out struct {
		apiResponse
		UserID string `json:"user_id"`
	}
	if err := c.call(ctx, "auth.test", map[string]any{}, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// ViewsOpen opens a modal in response to a trigger, used by the
// interactive preview engine's edit flow.
func (c *Client) ViewsOpen(ctx context.Context, triggerID string, view map[string]any) error {
	var out apiResponse
	return c.call(ctx, "views.open", map[string]any{
		"trigger_id": triggerID,
		"view":       view,
	}, &out)
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slackapi: marshal %s payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slackapi: build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.do(req, method, out)
}

func (c *Client) callGet(ctx context.Context, method string, params map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+method, nil)
	if err != nil {
		return fmt.Errorf("slackapi: build %s request: %w", method, err)
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.do(req, method, out)
}

func (c *Client) do(req *http.Request, method string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("slackapi: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("slackapi: %s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slackapi: %s returned status %d", method, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("slackapi: %s: decode response: %w", method, err)
	}

	var envelope apiResponse
	json.Unmarshal(raw, &envelope)
	if !envelope.OK {
		return fmt.Errorf("slackapi: %s: %s", method, envelope.Error)
	}
	return nil
}
