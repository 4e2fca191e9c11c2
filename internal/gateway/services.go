package gateway

import (
	"github.com/monday-agents/gateway/internal/a2a"
	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/intent"
	"github.com/monday-agents/gateway/internal/llm"
	"github.com/monday-agents/gateway/internal/monday"
	"github.com/monday-agents/gateway/internal/oauth"
	"github.com/monday-agents/gateway/internal/session"
	"github.com/monday-agents/gateway/internal/slackapi"
	"github.com/monday-agents/gateway/internal/store"
)

// Services bundles every shared dependency an intent handler might
// need. Constructed once at startup and passed by reference
// everywhere, replacing the teacher's module-scope singleton pattern
// with explicit injection.
type Services struct {
	Slack    *slackapi.Client
	A2A      *a2a.Client
	LLM      *llm.Client
	Monday   *monday.Client
	Boards   *monday.BoardCache
	Sessions *session.Store
	Intents  *intent.Router
	OAuth    *oauth.Broker
	Tokens   store.TokenStore
	Meetings store.MeetingStore
	UserDir  *UserDirectory
	Config   config.Config
}
