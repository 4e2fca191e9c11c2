package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/monday-agents/gateway/internal/a2a"
	"github.com/monday-agents/gateway/internal/config"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/handlers"
	"github.com/monday-agents/gateway/internal/intent"
	"github.com/monday-agents/gateway/internal/jobs"
	"github.com/monday-agents/gateway/internal/llm"
	"github.com/monday-agents/gateway/internal/meetingsync"
	"github.com/monday-agents/gateway/internal/monday"
	"github.com/monday-agents/gateway/internal/oauth"
	"github.com/monday-agents/gateway/internal/scheduler"
	"github.com/monday-agents/gateway/internal/session"
	"github.com/monday-agents/gateway/internal/slackapi"
	"github.com/monday-agents/gateway/internal/store"
	"github.com/monday-agents/gateway/internal/webhook"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	slog.Info("gateway starting",
		"port", cfg.Port,
		"scheduler_enabled", cfg.SchedulerEnabled,
		"scheduler_timezone", cfg.SchedulerTimezone,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Token and meeting stores (embedded SQLite).
	tokens, err := store.NewTokenStore(cfg.TokenStorePath)
	if err != nil {
		slog.Error("failed to open token store", "error", err)
		os.Exit(1)
	}
	defer tokens.Close()

	meetings, err := store.NewMeetingStore(cfg.MeetingStorePath)
	if err != nil {
		slog.Error("failed to open meeting store", "error", err)
		os.Exit(1)
	}
	defer meetings.Close()

	// Step 2: Downstream clients.
	slackClient := slackapi.New(cfg.SlackBotToken)
	a2aClient := a2a.New(cfg.A2AAPIKey)
	llmClient := llm.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	mondayClient := monday.New(cfg.WorkspaceAPIToken)
	boardCache := monday.NewBoardCache(mondayClient)
	oauthBroker := oauth.New(cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthRedirectURL, cfg.OAuthSigningKey, tokens)
	userDir := gateway.NewUserDirectory(slackClient, cfg.StaticUserMap)
	sessions := session.New()
	intentRouter := intent.New(llmClient)

	services := &gateway.Services{
		Slack:    slackClient,
		A2A:      a2aClient,
		LLM:      llmClient,
		Monday:   mondayClient,
		Boards:   boardCache,
		Sessions: sessions,
		Intents:  intentRouter,
		OAuth:    oauthBroker,
		Tokens:   tokens,
		Meetings: meetings,
		UserDir:  userDir,
		Config:   cfg,
	}

	// Step 3: Wire the intent dispatcher.
	dispatcher := gateway.New(services)
	dispatcher.SetHandler(intent.CreateTask, handlers.CreateTask)
	dispatcher.SetHandler(intent.AgentChat, handlers.AgentChat)
	dispatcher.SetHandler(intent.BoardStatus, handlers.BoardStatus)
	dispatcher.SetHandler(intent.MeetingSync, handlers.MeetingSync)
	dispatcher.SetHandler(intent.Calendar, handlers.Calendar)
	dispatcher.SetHandler(intent.Drive, handlers.Drive)

	// Step 4: Scheduled jobs.
	sched := scheduler.New()
	if cfg.SchedulerEnabled {
		for _, job := range jobs.All(services) {
			if err := sched.Register(job); err != nil {
				slog.Error("failed to register scheduled job", "job", job.ID, "error", err)
				os.Exit(1)
			}
		}
		sched.StartAll(cfg.SchedulerTimezone)
		slog.Info("scheduler started")
	}

	// Step 5: Meeting-sync orchestrator, event-driven rather than
	// cron-periodic.
	syncService := meetingsync.New(services)
	orchestrator := meetingsync.NewOrchestrator(syncService, cfg.MeetingSyncSubjectID)
	orchestrator.Start(ctx)
	slog.Info("meeting-sync orchestrator started", "subject_id", cfg.MeetingSyncSubjectID != "")

	// Step 6: HTTP surface.
	srv := webhook.New(services, dispatcher, sched, cfg.SlackSigningSecret, cfg.A2AAPIKey, cfg.Port)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("gateway ready", "port", cfg.Port)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	slog.Info("shutting down", "signal", sig)
	cancel()
	orchestrator.Stop()
	if cfg.SchedulerEnabled {
		sched.StopAll()
	}
	slog.Info("gateway stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
