// Package scheduler runs cron-scheduled jobs with an overlap guard and
// failure tracking. It never lets a job's panic or error take the
// process down.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/monday-agents/gateway/internal/cron"
)

// JobResult is what a job's Execute function reports back.
type JobResult struct {
	Success bool
	Posted  bool
	Error   string
}

// Job is a single scheduled unit of work.
type Job struct {
	ID      string
	Name    string
	Cron    string
	Enabled bool
	Execute func(ctx context.Context) JobResult
}

// Status is the externally-visible runtime state of a registered job,
// returned by GetStatus for the /internal/scheduler/status endpoint.
type Status struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Cron                string    `json:"cron"`
	Enabled             bool      `json:"enabled"`
	Running             bool      `json:"running"`
	LastRun             time.Time `json:"last_run,omitzero"`
	LastResult          JobResult `json:"last_result"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

type scheduledJob struct {
	job      Job
	schedule *cron.Schedule

	mu                  sync.Mutex
	running             bool
	lastRun             time.Time
	lastResult          JobResult
	consecutiveFailures int
}

// Scheduler owns the set of registered jobs and their tickers.
type Scheduler struct {
	mu   sync.Mutex
	jobs []*scheduledJob

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	loc    *time.Location
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{loc: time.UTC}
}

// Register validates the job's cron expression (if enabled) and adds it
// to the schedule. A parse failure for an enabled job is a fatal
// startup error; disabled jobs are stored but never scheduled, so a
// disabled job may carry any cron text including empty.
func (s *Scheduler) Register(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &scheduledJob{job: job}
	if job.Enabled {
		schedule, err := cron.Parse(job.Cron)
		if err != nil {
			return fmt.Errorf("scheduler: job %q has invalid cron expression %q: %w", job.ID, job.Cron, err)
		}
		entry.schedule = schedule
	}
	s.jobs = append(s.jobs, entry)
	return nil
}

// StartAll begins the per-minute evaluation loop in the given IANA
// timezone name, falling back to UTC if it cannot be loaded.
func (s *Scheduler) StartAll(timezone string) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		slog.Warn("scheduler: unknown timezone, using UTC", "timezone", timezone, "error", err)
		loc = time.UTC
	}
	s.loc = loc

	s.mu.Lock()
	s.stopCh = make(chan struct{})
	s.ticker = time.NewTicker(time.Minute)
	ticker := s.ticker
	stopCh := s.stopCh
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case now := <-ticker.C:
				s.tick(now.In(loc))
			case <-stopCh:
				return
			}
		}
	}()

	slog.Info("scheduler started", "timezone", loc.String(), "jobs", len(s.jobs))
}

// StopAll stops the evaluation loop and waits for any in-flight tick
// dispatch to return. It does not wait for individual job executions,
// which run on their own goroutines.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
	}
	stopCh := s.stopCh
	s.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	jobs := append([]*scheduledJob(nil), s.jobs...)
	s.mu.Unlock()

	for _, entry := range jobs {
		if !entry.job.Enabled || entry.schedule == nil || !entry.schedule.Matches(now) {
			continue
		}
		go s.runOnce(entry)
	}
}

// runOnce executes a single tick of a job under its overlap guard: a
// tick that finds the job already running returns immediately without
// calling Execute.
func (s *Scheduler) runOnce(entry *scheduledJob) {
	entry.mu.Lock()
	if entry.running {
		entry.mu.Unlock()
		slog.Info("scheduler: skipping tick, job already running", "job", entry.job.ID)
		return
	}
	entry.running = true
	entry.mu.Unlock()

	defer func() {
		entry.mu.Lock()
		entry.running = false
		entry.mu.Unlock()
	}()

	result := s.execute(entry)

	entry.mu.Lock()
	entry.lastRun = time.Now()
	entry.lastResult = result
	if result.Success {
		entry.consecutiveFailures = 0
	} else {
		entry.consecutiveFailures++
	}
	entry.mu.Unlock()
}

// execute recovers from a panicking job body, treating it the same as
// an execute that returns success=false.
func (s *Scheduler) execute(entry *scheduledJob) (result JobResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler: job panicked", "job", entry.job.ID, "panic", r)
			result = JobResult{Success: false, Error: fmt.Sprintf("%v", r)}
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return entry.job.Execute(ctx)
}

// GetStatus returns a point-in-time snapshot of every registered job.
func (s *Scheduler) GetStatus() []Status {
	s.mu.Lock()
	jobs := append([]*scheduledJob(nil), s.jobs...)
	s.mu.Unlock()

	out := make([]Status, len(jobs))
	for i, entry := range jobs {
		entry.mu.Lock()
		out[i] = Status{
			ID:                  entry.job.ID,
			Name:                entry.job.Name,
			Cron:                entry.job.Cron,
			Enabled:             entry.job.Enabled,
			Running:             entry.running,
			LastRun:             entry.lastRun,
			LastResult:          entry.lastResult,
			ConsecutiveFailures: entry.consecutiveFailures,
		}
		entry.mu.Unlock()
	}
	return out
}
