// Package llm is a thin HTTP client for the gateway's single LLM provider
// contract: send a system prompt plus messages, get back text. Component
// boundaries elsewhere (intent classification, extraction, tool-use loop)
// depend only on this narrow surface so the provider can be swapped without
// touching them.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is one turn in an LLM conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolDef describes a single callable tool for the tool-use loop the
// calendar/drive micro-agent runs.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolUse is a single tool invocation requested by the model.
type ToolUse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// Reply is the model's response to one turn: free text and/or tool calls.
type Reply struct {
	Text     string
	ToolUses []ToolUse
}

// Client talks to the configured LLM HTTP endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// New creates a Client.
func New(baseURL, apiKey, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type completeRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Tools     []ToolDef `json:"tools,omitempty"`
	MaxTokens int       `json:"max_tokens"`
}

type contentBlock struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}

type completeResponse struct {
	Content []contentBlock `json:"content"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends a single system-prompt + message-history turn and returns
// the model's reply. A transport or provider error is returned as a Go
// error — unlike the A2A client, callers here are expected to fall back
// (Tier 3 classifier, extractor defaults) rather than surface a user-facing
// synthetic response.
func (c *Client) Complete(ctx context.Context, system string, messages []Message, tools []ToolDef) (Reply, error) {
	reqBody, err := json.Marshal(completeRequest{
		Model:     c.model,
		System:    system,
		Messages:  messages,
		Tools:     tools,
		MaxTokens: 2048,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return Reply{}, fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reply{}, fmt.Errorf("llm: read response: %w", err)
	}

	var out completeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Reply{}, fmt.Errorf("llm: malformed response: %w", err)
	}
	if out.Error != nil {
		return Reply{}, fmt.Errorf("llm: provider error: %s", out.Error.Message)
	}

	var reply Reply
	for _, block := range out.Content {
		switch block.Type {
		case "text":
			reply.Text += block.Text
		case "tool_use":
			reply.ToolUses = append(reply.ToolUses, ToolUse{ID: block.ID, Name: block.Name, Input: block.Input})
		}
	}
	return reply, nil
}
