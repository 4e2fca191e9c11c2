package scheduler

// TriggerForTest invokes a job's tick logic synchronously, bypassing
// the per-minute ticker, so resilience tests get deterministic,
// immediate execution instead of waiting on a real ticker.
func (s *Scheduler) TriggerForTest(jobID string) {
	s.mu.Lock()
	var entry *scheduledJob
	for _, j := range s.jobs {
		if j.job.ID == jobID {
			entry = j
			break
		}
	}
	s.mu.Unlock()
	if entry == nil {
		return
	}
	s.runOnce(entry)
}
