package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestRunStateRecordsRuns(t *testing.T) {
	t.Parallel()

	state := NewRunState()
	ranAt := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	state.RecordRun(JobIngest, ranAt, 7, nil)
	state.RecordRun(JobIngest, ranAt.Add(2*time.Hour), 0, errors.New("source down"))

	status := state.Status()[JobIngest]
	if status.TotalRuns != 2 {
		t.Fatalf("expected 2 runs, got %d", status.TotalRuns)
	}
	if status.LastRun == nil || !status.LastRun.Equal(ranAt.Add(2*time.Hour)) {
		t.Fatalf("unexpected last run: %v", status.LastRun)
	}
	if status.LastError != "source down" {
		t.Fatalf("unexpected last error: %q", status.LastError)
	}
}

func TestRunStateErrorClearedOnSuccess(t *testing.T) {
	t.Parallel()

	state := NewRunState()
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	state.RecordRun(JobRefresh, now, 0, errors.New("boom"))
	state.RecordRun(JobRefresh, now.Add(time.Hour), 0, nil)

	if got := state.Status()[JobRefresh].LastError; got != "" {
		t.Fatalf("expected error cleared, got %q", got)
	}
}

func TestRunStateStatusIsCopy(t *testing.T) {
	t.Parallel()

	state := NewRunState()
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	state.RecordRun(JobCleanup, now, 0, nil)

	snapshot := state.Status()
	mutated := snapshot[JobCleanup]
	mutated.TotalRuns = 99
	snapshot[JobCleanup] = mutated

	if state.Status()[JobCleanup].TotalRuns != 1 {
		t.Fatalf("snapshot mutation leaked into state")
	}
}

func TestRunStateNextRun(t *testing.T) {
	t.Parallel()

	state := NewRunState()
	next := time.Date(2026, 3, 6, 3, 0, 0, 0, time.UTC)
	state.SetNextRun(JobCleanup, next)

	status := state.Status()[JobCleanup]
	if status.NextRun == nil || !status.NextRun.Equal(next) {
		t.Fatalf("unexpected next run: %v", status.NextRun)
	}
}

func TestNextCleanupDelay(t *testing.T) {
	t.Parallel()

	before := time.Date(2026, 3, 5, 1, 0, 0, 0, time.UTC)
	if got := nextCleanupDelay(before, 3); got != 2*time.Hour {
		t.Fatalf("expected 2h delay, got %v", got)
	}

	after := time.Date(2026, 3, 5, 4, 0, 0, 0, time.UTC)
	if got := nextCleanupDelay(after, 3); got != 23*time.Hour {
		t.Fatalf("expected 23h delay, got %v", got)
	}

	exactly := time.Date(2026, 3, 5, 3, 0, 0, 0, time.UTC)
	if got := nextCleanupDelay(exactly, 3); got != 24*time.Hour {
		t.Fatalf("expected full day delay at the boundary, got %v", got)
	}
}
