// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AgentKey is one of the four downstream A2A worker agents.
type AgentKey string

const (
	AgentProductOwner AgentKey = "product-owner"
	AgentDeveloper    AgentKey = "developer"
	AgentReviewer     AgentKey = "reviewer"
	AgentScrumMaster  AgentKey = "scrum-master"
)

// Config is the fully-resolved runtime configuration.
type Config struct {
	Port int

	SlackBotToken      string
	SlackSigningSecret string
	SlackAppToken      string
	NotifyChannelID    string
	StaticUserMap      map[string]string

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	AgentURLs map[AgentKey]string
	A2AAPIKey string

	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string
	OAuthSigningKey   string

	WorkspaceAPIToken string

	// MeetingSyncSubjectID is the OAuth subject-id the background orchestrator
	// polls. Unlike the meeting-sync intent (keyed off whichever Slack
	// user invoked it), the orchestrator runs with no per-request user
	// context, so it needs one subject configured ahead of time — the
	// workspace's designated meeting-notes Google account.
	MeetingSyncSubjectID string

	TokenStorePath   string
	MeetingStorePath string

	SchedulerEnabled  bool
	SchedulerTimezone string
	JobEnabled        map[string]bool
	JobCron           map[string]string

	LogLevel string
}

var defaultAgentPorts = map[AgentKey]int{
	AgentProductOwner: 10001,
	AgentDeveloper:    10002,
	AgentReviewer:     10003,
	AgentScrumMaster:  10004,
}

var jobDefaultCron = map[string]string{
	"standup":        "0 9 * * 1-5",
	"stale-task":     "0 14 * * *",
	"weekly-summary": "0 17 * * 5",
}

// Load reads the environment and returns a validated Config. It returns an
// error rather than exiting so main controls the process's exit code
// (missing required configuration is a fatal startup error, exit code 1).
func Load() (Config, error) {
	cfg := Config{
		Port:               envInt("GATEWAY_PORT", 8080),
		SlackBotToken:      envStr("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: envStr("SLACK_SIGNING_SECRET", ""),
		SlackAppToken:      envStr("SLACK_APP_TOKEN", ""),
		NotifyChannelID:    envStr("NOTIFY_CHANNEL_ID", ""),
		StaticUserMap:      envMap("SLACK_STATIC_USER_MAP"),

		LLMAPIKey:  envStr("LLM_API_KEY", ""),
		LLMBaseURL: envStr("LLM_BASE_URL", "https://api.anthropic.com/v1/messages"),
		LLMModel:   envStr("LLM_MODEL", "claude-3-5-sonnet-20241022"),

		A2AAPIKey: envStr("A2A_API_KEY", ""),

		OAuthClientID:     envStr("GOOGLE_CLIENT_ID", ""),
		OAuthClientSecret: envStr("GOOGLE_CLIENT_SECRET", ""),
		OAuthRedirectURL:  envStr("GOOGLE_REDIRECT_URL", ""),
		OAuthSigningKey:   envStr("OAUTH_STATE_SIGNING_SECRET", ""),

		WorkspaceAPIToken: envStr("SLACK_WORKSPACE_TOKEN", ""),

		MeetingSyncSubjectID: envStr("MEETING_SYNC_SUBJECT_ID", ""),

		TokenStorePath:   envStr("TOKEN_STORE_PATH", "./data/tokens.db"),
		MeetingStorePath: envStr("MEETING_STORE_PATH", "./data/meetings.db"),

		SchedulerEnabled:  envBool("SCHEDULER_ENABLED", true),
		SchedulerTimezone: envStr("SCHEDULER_TIMEZONE", "Asia/Jerusalem"),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}

	cfg.AgentURLs = map[AgentKey]string{}
	for key, defaultPort := range defaultAgentPorts {
		envName := fmt.Sprintf("%s_AGENT_PORT", strings.ToUpper(strings.ReplaceAll(string(key), "-", "_")))
		port := envInt(envName, defaultPort)
		cfg.AgentURLs[key] = fmt.Sprintf("http://localhost:%d", port)
	}

	cfg.JobEnabled = map[string]bool{}
	cfg.JobCron = map[string]string{}
	for name, defaultCron := range jobDefaultCron {
		envBase := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		cfg.JobEnabled[name] = envBool(fmt.Sprintf("JOB_%s_ENABLED", envBase), true)
		cfg.JobCron[name] = envStr(fmt.Sprintf("JOB_%s_CRON", envBase), defaultCron)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SlackBotToken == "" {
		return fmt.Errorf("config: SLACK_BOT_TOKEN is required")
	}
	if c.SlackSigningSecret == "" {
		return fmt.Errorf("config: SLACK_SIGNING_SECRET is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("config: LLM_API_KEY is required")
	}
	if c.OAuthSigningKey == "" {
		return fmt.Errorf("config: OAUTH_STATE_SIGNING_SECRET is required")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envMap parses a "U123=Alice,U456=Bob" style value into a map. Used for the
// static user-id -> display-name fallback.
func envMap(key string) map[string]string {
	out := map[string]string{}
	v := os.Getenv(key)
	if v == "" {
		return out
	}
	for _, pair := range strings.Split(v, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}
