package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/config"
	"horse.fit/pulse/internal/db"
	"horse.fit/pulse/internal/enrich"
	"horse.fit/pulse/internal/globaltime"
	"horse.fit/pulse/internal/metrics"
	"horse.fit/pulse/internal/scrape"
	"horse.fit/pulse/internal/topics"
)

// ErrJobRunning is returned when a job is triggered while a run of the same
// kind is still in flight.
var ErrJobRunning = errors.New("job already running")

// IngestResult summarizes one ingest run.
type IngestResult struct {
	Fetched    int
	Inserted   int
	Duplicates int
	SourceErrs map[string]string
}

// RefreshResult summarizes one topic refresh run.
type RefreshResult struct {
	Topics        topics.Result
	TopicsUpdated int
}

// Scheduler drives the periodic ingest, refresh, and cleanup jobs. Each job
// kind is serialized with its own lock, so a manual trigger overlapping a
// scheduled run is rejected rather than doubled.
type Scheduler struct {
	cfg      *config.Config
	pool     *db.Pool
	registry *scrape.Registry
	enricher *enrich.Enricher
	builder  *topics.Builder
	state    *RunState
	logger   zerolog.Logger

	ingestLock  sync.Mutex
	refreshLock sync.Mutex
	cleanupLock sync.Mutex
}

func New(cfg *config.Config, pool *db.Pool, registry *scrape.Registry, enricher *enrich.Enricher, builder *topics.Builder, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		pool:     pool,
		registry: registry,
		enricher: enricher,
		builder:  builder,
		state:    NewRunState(),
		logger:   logger,
	}
}

func (s *Scheduler) State() *RunState { return s.state }

// Run blocks until ctx is cancelled, driving all three jobs on their
// intervals. Ingest fires once at startup; cleanup waits for its scheduled
// hour. A failed run is recorded and the next tick proceeds normally.
func (s *Scheduler) Run(ctx context.Context) {
	ingestInterval := time.Duration(s.cfg.ScrapeIntervalHours) * time.Hour
	refreshInterval := time.Duration(s.cfg.RefreshIntervalHours) * time.Hour

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runIngestAndChain(ctx)

		ticker := time.NewTicker(ingestInterval)
		defer ticker.Stop()
		for {
			s.state.SetNextRun(JobIngest, globaltime.UTC().Add(ingestInterval))
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runIngestAndChain(ctx)
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			s.state.SetNextRun(JobRefresh, globaltime.UTC().Add(refreshInterval))
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.RunRefresh(ctx); err != nil && !errors.Is(err, ErrJobRunning) {
					s.logger.Error().Err(err).Msg("scheduled refresh failed")
				}
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			delay := nextCleanupDelay(globaltime.UTC(), s.cfg.CleanupHourUTC)
			s.state.SetNextRun(JobCleanup, globaltime.UTC().Add(delay))
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if _, err := s.RunCleanup(ctx); err != nil && !errors.Is(err, ErrJobRunning) {
					s.logger.Error().Err(err).Msg("scheduled cleanup failed")
				}
			}
		}
	}()

	s.logger.Info().
		Dur("ingest_interval", ingestInterval).
		Dur("refresh_interval", refreshInterval).
		Int("cleanup_hour_utc", s.cfg.CleanupHourUTC).
		Msg("scheduler started")

	<-ctx.Done()
	wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runIngestAndChain(ctx context.Context) {
	result, err := s.RunIngest(ctx)
	if err != nil {
		if !errors.Is(err, ErrJobRunning) {
			s.logger.Error().Err(err).Msg("scheduled ingest failed")
		}
		return
	}
	if result.Inserted > 0 {
		if _, err := s.RunRefresh(ctx); err != nil && !errors.Is(err, ErrJobRunning) {
			s.logger.Error().Err(err).Msg("chained refresh failed")
		}
	}
}

// RunIngest scrapes all configured sources, enriches what parses, and stores
// the new records. Per-source failures are folded into the run report, only
// infrastructure errors fail the run itself.
func (s *Scheduler) RunIngest(ctx context.Context) (IngestResult, error) {
	if !s.ingestLock.TryLock() {
		return IngestResult{}, ErrJobRunning
	}
	defer s.ingestLock.Unlock()

	ranAt := globaltime.UTC()
	end := ranAt
	start := end.AddDate(0, 0, -s.cfg.ScrapeWindowDays)

	batch := s.registry.ScrapeAll(ctx, s.cfg.ScrapeQuery, s.cfg.ScrapeSourcesList(), s.cfg.ScrapeMaxPages, start, end)

	parsed, parseReport := s.enricher.ParseBatch(batch.Items)
	enriched := make([]db.ContentRecord, len(parsed))
	for i, rec := range parsed {
		enriched[i] = s.enricher.Enrich(rec)
	}

	inserted, err := s.pool.InsertRecords(ctx, enriched)
	if err != nil {
		err = fmt.Errorf("insert records: %w", err)
		s.state.RecordRun(JobIngest, ranAt, 0, err)
		return IngestResult{}, err
	}

	var runErr error
	if msg := batch.Report.LastError(s.registry.Sources()); msg != "" {
		runErr = errors.New(msg)
	}
	s.state.RecordRun(JobIngest, ranAt, len(inserted), runErr)

	fetched := 0
	for _, count := range batch.Report.FetchedCount {
		fetched += count
	}

	s.logger.Info().
		Int("fetched", fetched).
		Int("parsed", len(parsed)).
		Int("parse_failures", len(parseReport.Failures)).
		Int("inserted", len(inserted)).
		Int("source_errors", len(batch.Report.SourceErrors)).
		Msg("ingest run complete")

	return IngestResult{
		Fetched:    fetched,
		Inserted:   len(inserted),
		Duplicates: len(enriched) - len(inserted),
		SourceErrs: batch.Report.SourceErrors,
	}, nil
}

// RunRefresh rebuilds the topic generation and recomputes metrics for the
// surviving topics.
func (s *Scheduler) RunRefresh(ctx context.Context) (RefreshResult, error) {
	if !s.refreshLock.TryLock() {
		return RefreshResult{}, ErrJobRunning
	}
	defer s.refreshLock.Unlock()

	ranAt := globaltime.UTC()

	topicResult, err := s.builder.ClusterAndSaveTopics(ctx, s.cfg.ClusterDaysBack, s.cfg.MinClusterSize)
	if err != nil {
		s.state.RecordRun(JobRefresh, ranAt, 0, err)
		return RefreshResult{}, err
	}

	updated, err := metrics.RefreshAll(ctx, s.pool, s.logger)
	if err != nil {
		s.state.RecordRun(JobRefresh, ranAt, 0, err)
		return RefreshResult{}, err
	}

	s.state.RecordRun(JobRefresh, ranAt, 0, nil)
	return RefreshResult{Topics: topicResult, TopicsUpdated: updated}, nil
}

// RunCleanup applies the retention policy.
func (s *Scheduler) RunCleanup(ctx context.Context) (topics.CleanupResult, error) {
	if !s.cleanupLock.TryLock() {
		return topics.CleanupResult{}, ErrJobRunning
	}
	defer s.cleanupLock.Unlock()

	ranAt := globaltime.UTC()
	result, err := topics.CleanupOldData(ctx, s.pool, s.cfg.RetentionDays, s.logger)
	s.state.RecordRun(JobCleanup, ranAt, 0, err)
	return result, err
}

// nextCleanupDelay returns the wait until the next occurrence of hour:00 UTC.
func nextCleanupDelay(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
