// Package webhook is the HTTP surface: Slack events, slash
// commands, and interactive callbacks in, OAuth callback and
// downstream-agent push notifications in, everything else out via the
// registered gateway.Dispatcher and preview resolvers.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/scheduler"
)

// Server hosts every inbound HTTP route the gateway exposes.
type Server struct {
	services      *gateway.Services
	dispatcher    *gateway.Dispatcher
	scheduler     *scheduler.Scheduler
	signingSecret string
	apiKey        string
	port          int
	router        chi.Router
}

// New builds a Server and registers all routes.
func New(services *gateway.Services, dispatcher *gateway.Dispatcher, sched *scheduler.Scheduler, signingSecret, apiKey string, port int) *Server {
	s := &Server{
		services:      services,
		dispatcher:    dispatcher,
		scheduler:     sched,
		signingSecret: signingSecret,
		apiKey:        apiKey,
		port:          port,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/internal/scheduler/status", s.handleSchedulerStatus)
	r.Get("/api/google/callback", s.handleOAuthCallback)

	r.Route("/api", func(r chi.Router) {
		r.With(s.requireAPIKey).Post("/agent-notify", s.handleAgentNotify)
	})

	r.Route("/slack", func(r chi.Router) {
		r.Use(s.requireSlackSignature)
		r.Post("/events", s.handleSlackEvents)
		r.Post("/commands", s.handleSlashCommand)
		r.Post("/interactions", s.handleInteraction)
	})

	return r
}

// Start blocks serving HTTP until the process is terminated or the
// listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("webhook: listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeJSON(w, http.StatusOK, []scheduler.Status{})
		return
	}
	writeJSON(w, http.StatusOK, s.scheduler.GetStatus())
}

func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !constantTimeEqual(r.Header.Get("X-API-Key"), s.apiKey) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireSlackSignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		r.Body.Close()

		if err := verifySlackSignature(s.signingSecret, r.Header.Get("X-Slack-Request-Timestamp"), r.Header.Get("X-Slack-Signature"), body); err != nil {
			slog.Warn("webhook: rejected unsigned slack request", "path", r.URL.Path, "error", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// AgentNotifyRequest is the payload a downstream A2A worker agent posts
// to push an unsolicited Slack message.
type AgentNotifyRequest struct {
	Channel  string          `json:"channel"`
	ThreadTs string          `json:"thread_ts"`
	Source   string          `json:"source"`
	Text     string          `json:"text"`
	Blocks   json.RawMessage `json:"blocks,omitempty"`
}

func (s *Server) handleAgentNotify(w http.ResponseWriter, r *http.Request) {
	var req AgentNotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Channel == "" || req.Text == "" {
		http.Error(w, "channel and text are required", http.StatusBadRequest)
		return
	}
	if req.Source == "" {
		req.Source = "agent"
	}

	var err error
	if len(req.Blocks) > 0 {
		_, err = s.services.Slack.PostRawBlocks(r.Context(), req.Channel, req.ThreadTs, req.Text, req.Blocks)
	} else {
		rendered := render.AgentResponseBlocks(req.Source, req.Text)
		_, err = s.services.Slack.PostMessage(r.Context(), req.Channel, req.ThreadTs, rendered)
	}
	if err != nil {
		slog.Error("webhook: agent-notify post failed", "error", err)
		http.Error(w, "failed to post message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeCallbackPage(w, http.StatusBadRequest, "Missing authorization code. Please try connecting again from Slack.")
		return
	}

	subjectID, err := s.services.OAuth.HandleCallback(r.Context(), code, state)
	if err != nil {
		slog.Error("webhook: oauth callback failed", "error", err)
		writeCallbackPage(w, http.StatusBadRequest, "Couldn't complete the connection. Please try again from Slack.")
		return
	}

	slog.Info("webhook: oauth connected", "subject_id", subjectID)
	writeCallbackPage(w, http.StatusOK, "Your Google account is connected. You can close this tab and return to Slack.")
}

func writeCallbackPage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<html><body style=\"font-family: sans-serif; text-align: center; padding-top: 4em;\"><p>%s</p></body></html>", message)
}
