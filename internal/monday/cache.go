package monday

import (
	"context"
	"sync"
	"time"
)

const boardCacheTTL = 5 * time.Minute

// BoardCache wraps a Client with a last-write-wins, TTL-5-minute cache
// over the board list, matching the same TTL used for the cached user
// directory.
type BoardCache struct {
	client *Client

	mu       sync.Mutex
	boards   []BoardRef
	fetched  time.Time
}

// NewBoardCache wraps client with a board-list cache.
func NewBoardCache(client *Client) *BoardCache {
	return &BoardCache{client: client}
}

// List returns the cached board list, refreshing it if the cache is
// empty or older than 5 minutes.
func (c *BoardCache) List(ctx context.Context) ([]BoardRef, error) {
	c.mu.Lock()
	fresh := !c.fetched.IsZero() && time.Since(c.fetched) < boardCacheTTL
	if fresh {
		boards := c.boards
		c.mu.Unlock()
		return boards, nil
	}
	c.mu.Unlock()

	boards, err := c.client.ListBoards(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.boards = boards
	c.fetched = time.Now()
	c.mu.Unlock()
	return boards, nil
}
