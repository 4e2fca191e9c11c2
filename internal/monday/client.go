// Package monday is a minimal GraphQL client for the Monday.com board
// API. Only the query shape and client-side caching are in scope —
// the gateway reads the board list to populate preview pickers; it
// never creates or mutates board items directly, that happens inside
// the downstream agents this gateway dispatches to.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	apiURL     = "https://api.monday.com/v2"
	apiVersion = "2024-10"
)

// Client is a thin GraphQL client authenticated with a Monday.com API
// token.
type Client struct {
	token string
	http  *http.Client
	url   string
}

// New creates a Client.
func New(token string) *Client {
	return &Client{token: token, http: &http.Client{Timeout: 30 * time.Second}, url: apiURL}
}

// SetURL points the client at an alternate GraphQL endpoint. Used by
// tests to target an httptest.Server standing in for api.monday.com.
func (c *Client) SetURL(url string) {
	c.url = url
}

type graphqlRequest struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func (c *Client) do(ctx context.Context, query string, variables any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("monday: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("monday: build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("monday: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("monday: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("monday: status %d: %s", resp.StatusCode, raw)
	}

	var gr graphqlResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("monday: decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return fmt.Errorf("monday: api error: %s", gr.Errors[0].Message)
	}
	if out != nil && gr.Data != nil {
		if err := json.Unmarshal(gr.Data, out); err != nil {
			return fmt.Errorf("monday: decode data: %w", err)
		}
	}
	return nil
}

// BoardRef is a board's id and name.
type BoardRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListBoards fetches the workspace's boards.
func (c *Client) ListBoards(ctx context.Context) ([]BoardRef, error) {
	const query = `query { boards(limit: 100) { id name } }`
	var out struct {
		Boards []BoardRef `json:"boards"`
	}
	if err := c.do(ctx, query, nil, &out); err != nil {
		return nil, err
	}
	return out.Boards, nil
}
