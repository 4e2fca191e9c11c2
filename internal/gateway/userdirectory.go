package gateway

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/slackapi"
)

// UserDirectory resolves Slack user IDs to display names. It is
// populated opportunistically from a single users.list call on first
// need, and falls back to a static configuration-supplied map when the
// bot token lacks the users:read scope.
type UserDirectory struct {
	slack  *slackapi.Client
	static map[string]string

	mu     sync.Mutex
	names  map[string]string
	loaded bool
}

// NewUserDirectory creates a UserDirectory backed by slack and the
// given static fallback map.
func NewUserDirectory(slack *slackapi.Client, static map[string]string) *UserDirectory {
	return &UserDirectory{slack: slack, static: static, names: map[string]string{}}
}

// Resolve returns a display name for userID, falling back to the
// static map, and finally to the raw ID if nothing is known.
func (d *UserDirectory) Resolve(ctx context.Context, userID string) string {
	d.mu.Lock()
	if name, ok := d.names[userID]; ok {
		d.mu.Unlock()
		return name
	}
	d.mu.Unlock()

	d.ensureLoaded(ctx)

	d.mu.Lock()
	name, ok := d.names[userID]
	d.mu.Unlock()
	if ok {
		return name
	}

	if name, ok := d.static[userID]; ok {
		return name
	}
	return userID
}

// List returns every known (id, name) pair, loading the directory
// first if it hasn't been populated yet. Used to hand a cached user
// list to the task-preview edit modal without a per-request
// users.list call.
func (d *UserDirectory) List(ctx context.Context) []render.UserRef {
	d.ensureLoaded(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	refs := make([]render.UserRef, 0, len(d.names))
	for id, name := range d.names {
		refs = append(refs, render.UserRef{ID: id, Name: name})
	}
	return refs
}

func (d *UserDirectory) ensureLoaded(ctx context.Context) {
	d.mu.Lock()
	if d.loaded {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	users, err := d.slack.UsersList(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "missing_scope") {
			slog.Warn("user directory: missing_scope, relying on static map only")
		} else {
			slog.Warn("user directory: users.list failed", "error", err)
		}
		return
	}

	d.mu.Lock()
	for _, u := range users {
		name := u.RealName
		if name == "" {
			name = u.Name
		}
		d.names[u.ID] = name
	}
	d.loaded = true
	d.mu.Unlock()
}
