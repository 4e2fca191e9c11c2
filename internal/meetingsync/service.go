// Package meetingsync implements the meeting-sync intent's underlying
// service and is driven both by that intent handler and by the
// orchestrator's timers.
package meetingsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/monday-agents/gateway/internal/extract"
	"github.com/monday-agents/gateway/internal/gateway"
	"github.com/monday-agents/gateway/internal/googleapi"
	"github.com/monday-agents/gateway/internal/preview"
	"github.com/monday-agents/gateway/internal/render"
	"github.com/monday-agents/gateway/internal/store"
)

const lookbackWindow = 20 * time.Minute

// Counts is the result of one CheckRecentMeetings call.
type Counts struct {
	Found            int
	TranscriptsFound int
	PreviewsPosted   int
	Skipped          int
	Errors           int
}

// Service checks a subject's recent calendar meetings for ones that
// finished with conference data, tries to find a transcript, and
// surfaces a preview when there are action items.
type Service struct {
	services *gateway.Services
}

// New creates a Service backed by services.
func New(services *gateway.Services) *Service {
	return &Service{services: services}
}

// CheckRecentMeetings implements the four-step check-transcribe-
// extract-preview pipeline. It never returns an error for a single bad
// event — those are counted in Errors and skipped — only for a failure
// that prevents listing events at all (a stale or revoked OAuth grant).
func (s *Service) CheckRecentMeetings(ctx context.Context, subjectID string) (Counts, error) {
	var counts Counts

	client, err := s.services.OAuth.GetClient(ctx, subjectID)
	if err != nil {
		return counts, err
	}

	now := time.Now()
	events, err := googleapi.ListEvents(ctx, client.AccessToken, now.Add(-lookbackWindow), now)
	if err != nil {
		return counts, err
	}

	for _, event := range events {
		if !event.HasConference() {
			continue
		}
		counts.Found++
		s.processEvent(ctx, subjectID, client.AccessToken, event, &counts)
	}
	return counts, nil
}

func (s *Service) processEvent(ctx context.Context, subjectID, accessToken string, event googleapi.Event, counts *Counts) {
	processed, err := s.services.Meetings.IsProcessed(ctx, event.ID)
	if err != nil {
		slog.Error("meeting-sync: failed to check processed state", "event_id", event.ID, "error", err)
		counts.Errors++
		return
	}
	if processed {
		counts.Skipped++
		return
	}

	files, err := googleapi.ListFiles(ctx, accessToken, event.Summary)
	if err != nil {
		slog.Warn("meeting-sync: transcript lookup failed", "event_id", event.ID, "error", err)
		counts.Errors++
		return
	}
	if len(files) == 0 {
		// No transcript yet — leave unprocessed so a later retry
		// (the background orchestrator's +15min timer) can pick it up.
		return
	}
	counts.TranscriptsFound++

	transcript, err := googleapi.DownloadFileText(ctx, accessToken, files[0].ID)
	if err != nil {
		slog.Warn("meeting-sync: transcript download failed", "event_id", event.ID, "error", err)
		counts.Errors++
		return
	}

	analysis := extract.Meeting(ctx, s.services.LLM, transcript)

	if len(analysis.ActionItems) == 0 {
		if err := s.services.Meetings.Insert(ctx, store.MeetingRecord{
			EventID:     event.ID,
			Title:       event.Summary,
			ProcessedAt: event.EndTime().Unix(),
			Status:      store.MeetingDismissed,
		}); err != nil {
			slog.Error("meeting-sync: failed to record dismissed meeting", "event_id", event.ID, "error", err)
			counts.Errors++
		}
		return
	}

	if err := s.services.Meetings.Insert(ctx, store.MeetingRecord{
		EventID:     event.ID,
		Title:       event.Summary,
		ProcessedAt: event.EndTime().Unix(),
		Status:      store.MeetingPending,
	}); err != nil {
		slog.Error("meeting-sync: failed to record pending meeting", "event_id", event.ID, "error", err)
		counts.Errors++
		return
	}

	boards, err := s.services.Boards.List(ctx)
	if err != nil {
		slog.Warn("meeting-sync: failed to load board list", "event_id", event.ID, "error", err)
	}
	renderBoards := make([]render.Board, len(boards))
	for i, b := range boards {
		renderBoards[i] = render.Board{ID: b.ID, Name: b.Name}
	}

	if _, err := preview.PostMeetingPreview(ctx, s.services, preview.MeetingPreviewPayload{
		EventID: event.ID, SubjectID: subjectID, Title: event.Summary, Analysis: analysis, Boards: renderBoards,
	}); err != nil {
		slog.Error("meeting-sync: failed to post preview", "event_id", event.ID, "error", err)
		counts.Errors++
		return
	}
	counts.PreviewsPosted++
}
