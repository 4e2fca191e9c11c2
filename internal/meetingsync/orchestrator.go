package meetingsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/monday-agents/gateway/internal/googleapi"
)

const (
	firstAttemptLag = 2 * time.Minute
	retryLag        = 15 * time.Minute
	refreshInterval = time.Hour
)

type eventTimers struct {
	first *time.Timer
	retry *time.Timer
}

// Orchestrator schedules two wall-clock-timed attempts per meeting —
// shortly after it ends, and again later if the first attempt found
// no transcript yet — rather than polling on a fixed cron interval.
type Orchestrator struct {
	service   *Service
	subjectID string

	mu     sync.Mutex
	timers map[string]*eventTimers

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator that polls subjectID's
// calendar.
func NewOrchestrator(service *Service, subjectID string) *Orchestrator {
	return &Orchestrator{
		service:   service,
		subjectID: subjectID,
		timers:    map[string]*eventTimers{},
		stopCh:    make(chan struct{}),
	}
}

// Start fetches today's remaining conference meetings, schedules their
// timers, and begins the hourly background refresh.
func (o *Orchestrator) Start(ctx context.Context) {
	if o.subjectID == "" {
		slog.Info("meeting-sync orchestrator: no subject configured, staying idle")
		return
	}
	o.refresh(ctx)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				o.refresh(ctx)
			case <-o.stopCh:
				return
			}
		}
	}()
}

// Stop cancels every pending timer deterministically.
func (o *Orchestrator) Stop() {
	close(o.stopCh)
	o.wg.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()
	for id, t := range o.timers {
		t.first.Stop()
		if t.retry != nil {
			t.retry.Stop()
		}
		delete(o.timers, id)
	}
}

func (o *Orchestrator) refresh(ctx context.Context) {
	client, err := o.service.services.OAuth.GetClient(ctx, o.subjectID)
	if err != nil {
		slog.Warn("meeting-sync orchestrator: cannot fetch calendar, subject not connected", "error", err)
		return
	}

	now := time.Now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
	events, err := googleapi.ListEvents(ctx, client.AccessToken, now, endOfDay)
	if err != nil {
		slog.Warn("meeting-sync orchestrator: failed to list events", "error", err)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, event := range events {
		if !event.HasConference() {
			continue
		}
		if _, scheduled := o.timers[event.ID]; scheduled {
			continue
		}
		o.scheduleLocked(ctx, event.ID, event.EndTime())
	}
}

// scheduleLocked must be called with o.mu held.
func (o *Orchestrator) scheduleLocked(ctx context.Context, eventID string, endTime time.Time) {
	firstAt := time.Until(endTime.Add(firstAttemptLag))
	if firstAt < 0 {
		firstAt = 0
	}
	retryAt := time.Until(endTime.Add(retryLag))
	if retryAt < 0 {
		retryAt = 0
	}

	entry := &eventTimers{}
	entry.first = time.AfterFunc(firstAt, func() { o.fire(ctx, eventID, false) })
	entry.retry = time.AfterFunc(retryAt, func() { o.fire(ctx, eventID, true) })
	o.timers[eventID] = entry
}

func (o *Orchestrator) fire(ctx context.Context, eventID string, isRetry bool) {
	processed, err := o.service.services.Meetings.IsProcessed(ctx, eventID)
	if err != nil {
		slog.Error("meeting-sync orchestrator: failed to check processed state", "event_id", eventID, "error", err)
		return
	}
	if processed {
		o.cancelSibling(eventID, isRetry)
		return
	}

	counts, err := o.service.CheckRecentMeetings(ctx, o.subjectID)
	if err != nil {
		slog.Warn("meeting-sync orchestrator: check failed", "event_id", eventID, "error", err)
		return
	}

	if counts.PreviewsPosted > 0 || counts.TranscriptsFound > 0 {
		o.cancelSibling(eventID, isRetry)
		return
	}

	if isRetry {
		// Final attempt found nothing either; give up on this event.
		o.mu.Lock()
		delete(o.timers, eventID)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) cancelSibling(eventID string, isRetry bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.timers[eventID]
	if !ok {
		return
	}
	if isRetry {
		entry.first.Stop()
	} else {
		entry.retry.Stop()
	}
	delete(o.timers, eventID)
}
