package httpapi

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"horse.fit/pulse/internal/db"
	"horse.fit/pulse/internal/globaltime"
	"horse.fit/pulse/internal/scheduler"
)

// Overall health classifications reported by the full health endpoint.
const (
	healthHealthy  = "healthy"
	healthWarning  = "warning"
	healthCritical = "critical"
)

// Ingestion freshness tiers, measured from the newest published_at.
const (
	FreshnessFresh     = "fresh"
	FreshnessRecent    = "recent"
	FreshnessStale     = "stale"
	FreshnessVeryStale = "very_stale"
	FreshnessUnknown   = "unknown"
)

// classifyFreshness buckets the age of the newest record. With no records at
// all there is nothing to measure, so the class is unknown rather than stale.
func classifyFreshness(latest *time.Time, now time.Time) string {
	if latest == nil {
		return FreshnessUnknown
	}
	age := now.Sub(*latest)
	switch {
	case age < 3*time.Hour:
		return FreshnessFresh
	case age < 24*time.Hour:
		return FreshnessRecent
	case age < 72*time.Hour:
		return FreshnessStale
	default:
		return FreshnessVeryStale
	}
}

// summarizeHealth rolls the individual signals up into one status with the
// reasons attached. An empty database or a missing scheduler is critical;
// stale data, a quiet 24 hours, or a failed ingest degrade to warning.
func summarizeHealth(recordCount, recent24h int64, freshness string, schedulerRunning bool, lastIngestErr string) (string, []string) {
	status := healthHealthy
	issues := []string{}

	switch {
	case recordCount == 0:
		status = healthCritical
		issues = append(issues, "No records in database")
	case freshness == FreshnessStale || freshness == FreshnessVeryStale:
		status = healthWarning
		issues = append(issues, fmt.Sprintf("Data is %s", freshness))
	case recent24h == 0:
		status = healthWarning
		issues = append(issues, "No records ingested in last 24 hours")
	}

	if !schedulerRunning {
		status = healthCritical
		issues = append(issues, "Scheduler is not running")
	}

	if lastIngestErr != "" {
		if status == healthHealthy {
			status = healthWarning
		}
		issues = append(issues, "Last ingest error: "+lastIngestErr)
	}

	return status, issues
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()
	now := globaltime.UTC()

	if err := s.pool.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check database ping failed")
		return fail(c, 503, "Database unavailable", map[string]any{
			"service":  "pulse",
			"database": "down",
		})
	}

	recordCount, err := s.pool.CountRecords(ctx, db.RecordFilters{})
	if err != nil {
		s.logger.Error().Err(err).Msg("health check record count failed")
		return internalError(c, "Failed to compute health")
	}

	topicCount, err := s.pool.CountTopics(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("health check topic count failed")
		return internalError(c, "Failed to compute health")
	}

	latest, err := s.pool.LatestPublishedAt(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("health check latest record failed")
		return internalError(c, "Failed to compute health")
	}

	yesterday := now.Add(-24 * time.Hour)
	recent24h, err := s.pool.CountRecords(ctx, db.RecordFilters{From: &yesterday})
	if err != nil {
		s.logger.Error().Err(err).Msg("health check recent record count failed")
		return internalError(c, "Failed to compute health")
	}

	freshness := classifyFreshness(latest, now)

	lastIngestErr := ""
	if s.sched != nil {
		if ingest, ok := s.sched.State().Status()[scheduler.JobIngest]; ok {
			lastIngestErr = ingest.LastError
		}
	}
	status, issues := summarizeHealth(recordCount, recent24h, freshness, s.sched != nil, lastIngestErr)

	payload := map[string]any{
		"service":             "pulse",
		"status":              status,
		"issues":              issues,
		"time":                now,
		"database":            "up",
		"records":             recordCount,
		"records_24h":         recent24h,
		"topics":              topicCount,
		"latest_published":    latest,
		"ingestion_freshness": freshness,
	}
	if s.sched != nil {
		payload["jobs"] = s.sched.State().Status()
	}

	return success(c, payload)
}

func (s *Server) handleHealthSimple(c echo.Context) error {
	if err := s.pool.Ping(c.Request().Context()); err != nil {
		return fail(c, 503, "Database unavailable", nil)
	}
	return success(c, map[string]any{
		"service": "pulse",
		"time":    globaltime.UTC(),
	})
}
