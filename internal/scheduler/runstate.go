package scheduler

import (
	"sync"
	"time"
)

// JobKind identifies one of the periodic jobs.
type JobKind string

const (
	JobIngest  JobKind = "ingest"
	JobRefresh JobKind = "refresh"
	JobCleanup JobKind = "cleanup"
)

// JobStatus is a point-in-time snapshot of one job's bookkeeping.
type JobStatus struct {
	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	TotalRuns  int        `json:"total_runs"`
	LastError  string     `json:"last_error,omitempty"`
	NewRecords int        `json:"new_records,omitempty"`
}

// RunState tracks per-job execution history behind a mutex so the HTTP
// health handler can read it while jobs run.
type RunState struct {
	mu   sync.Mutex
	jobs map[JobKind]*JobStatus
}

func NewRunState() *RunState {
	return &RunState{jobs: make(map[JobKind]*JobStatus)}
}

func (s *RunState) RecordRun(kind JobKind, ranAt time.Time, newRecords int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.ensure(kind)
	t := ranAt
	status.LastRun = &t
	status.TotalRuns++
	status.NewRecords = newRecords
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.LastError = ""
	}
}

func (s *RunState) SetNextRun(kind JobKind, nextRun time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := nextRun
	s.ensure(kind).NextRun = &t
}

// Status returns a copy of every job's current state.
func (s *RunState) Status() map[JobKind]JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[JobKind]JobStatus, len(s.jobs))
	for kind, status := range s.jobs {
		copied := *status
		if status.LastRun != nil {
			t := *status.LastRun
			copied.LastRun = &t
		}
		if status.NextRun != nil {
			t := *status.NextRun
			copied.NextRun = &t
		}
		snapshot[kind] = copied
	}
	return snapshot
}

func (s *RunState) ensure(kind JobKind) *JobStatus {
	status, ok := s.jobs[kind]
	if !ok {
		status = &JobStatus{}
		s.jobs[kind] = status
	}
	return status
}
