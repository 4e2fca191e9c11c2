package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const requestTimeout = 120 * time.Second

// Client sends JSON-RPC 2.0 requests to downstream A2A agents. It never
// returns a Go error from SendMessage/GetTask for a request that reached
// the network layer — transport failures are translated into a synthetic
// response with error.code == ErrTransport.
type Client struct {
	httpClient *http.Client
	apiKey     string
}

// New creates a Client. apiKey may be empty, in which case the X-API-Key
// header is omitted entirely.
func New(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiKey:     apiKey,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type sendMessageParams struct {
	Message       Message        `json:"message"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

type getTaskParams struct {
	ID string `json:"id"`
}

// SendMessage posts a "message/send" request. When contextID is non-empty,
// params.configuration.context_id is set; when empty, the configuration key
// is omitted entirely — downstream agents use this presence/absence to tell
// a new conversation from a continuation.
func (c *Client) SendMessage(ctx context.Context, agentBaseURL, text, contextID string) *Response {
	params := sendMessageParams{
		Message: Message{
			Role:      "user",
			Parts:     []Part{{Type: "text", Text: text}},
			MessageID: uuid.New().String(),
		},
	}
	if contextID != "" {
		params.Configuration = map[string]any{"context_id": contextID}
	}
	return c.do(ctx, agentBaseURL, "message/send", params)
}

// GetTask posts a "task/get" request for the given taskID.
func (c *Client) GetTask(ctx context.Context, agentBaseURL, taskID string) *Response {
	return c.do(ctx, agentBaseURL, "task/get", getTaskParams{ID: taskID})
}

func (c *Client) do(ctx context.Context, agentBaseURL, method string, params any) *Response {
	reqID := uuid.New().String()
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return transportError(reqID, fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agentBaseURL, bytes.NewReader(body))
	if err != nil {
		return transportError(reqID, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-ID", uuid.New().String())
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("a2a transport failure", "agent_url", agentBaseURL, "method", method, "error", err)
		return transportError(reqID, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(reqID, fmt.Sprintf("read response: %v", err))
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.Warn("a2a malformed response", "agent_url", agentBaseURL, "method", method, "error", err)
		return transportError(reqID, fmt.Sprintf("malformed response: %v", err))
	}
	if out.ID == "" {
		out.ID = reqID
	}
	return &out
}

func transportError(id, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: ErrTransport, Message: message},
	}
}
