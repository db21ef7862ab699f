package metrics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/db"
	"horse.fit/pulse/internal/globaltime"
)

// Pulse score weights. Volume and spread enter as raw counts while authority
// and novelty are rescaled from [0,1], so the components contribute on
// comparable magnitudes.
const (
	volumeWeight    = 0.25
	velocityWeight  = 0.3
	spreadWeight    = 0.15
	authorityWeight = 0.15
	noveltyWeight   = 0.15
)

// Compute derives the full metric set for one topic from its current member
// records. It is pure apart from reading the clock, so tests pin the clock
// through globaltime.
func Compute(topic db.Topic, records []db.ContentRecord) db.TopicMetrics {
	now := globaltime.UTC()

	volume := countPublishedWithin(records, now.Add(-24*time.Hour), now)
	previous := countPublishedWithin(records, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	velocity := computeVelocity(volume, previous)
	spread := countDistinctSources(records)
	authority := round2(meanAuthority(records))
	novelty := round2(computeNovelty(topic.FirstSeen, now))
	sentimentAvg, variance := sentimentStats(records)

	return db.TopicMetrics{
		Volume:       volume,
		Velocity:     velocity,
		Spread:       spread,
		Authority:    authority,
		Novelty:      novelty,
		Variance:     round2(variance),
		SentimentAvg: round2(sentimentAvg),
		PulseScore:   pulseScore(volume, velocity, spread, authority, novelty),
	}
}

// pulseScore combines the five activity metrics into the composite score.
// Volume and spread contribute as raw counts while the [0,1] metrics are
// rescaled, keeping the historical weighting intact.
func pulseScore(volume int, velocity float64, spread int, authority, novelty float64) float64 {
	return round2(float64(volume)*volumeWeight +
		(velocity+1)*velocityWeight +
		float64(spread)*spreadWeight +
		authority*100*authorityWeight +
		novelty*100*noveltyWeight)
}

// ComputeAndStore recomputes one topic's metrics and persists them, appending
// a snapshot to the topic's history.
func ComputeAndStore(ctx context.Context, pool *db.Pool, topic db.Topic) (db.TopicMetrics, error) {
	records, err := pool.RecordsForTopic(ctx, topic.TopicID)
	if err != nil {
		return db.TopicMetrics{}, fmt.Errorf("load records for topic %s: %w", topic.TopicID, err)
	}

	m := Compute(topic, records)
	if err := pool.UpdateTopicMetrics(ctx, topic.TopicID, m, globaltime.UTC()); err != nil {
		return db.TopicMetrics{}, fmt.Errorf("store metrics for topic %s: %w", topic.TopicID, err)
	}
	return m, nil
}

// RefreshAll recomputes metrics for every topic. Topics whose records have
// all been deleted are skipped, their stored metrics stay as they were.
// Returns the number of topics updated.
func RefreshAll(ctx context.Context, pool *db.Pool, logger zerolog.Logger) (int, error) {
	topics, err := pool.ListTopics(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list topics: %w", err)
	}

	updated := 0
	for _, topic := range topics {
		records, err := pool.RecordsForTopic(ctx, topic.TopicID)
		if err != nil {
			return updated, fmt.Errorf("load records for topic %s: %w", topic.TopicID, err)
		}
		if len(records) == 0 {
			logger.Debug().Str("topic_id", topic.TopicID).Msg("no linked records, skipping metric refresh")
			continue
		}

		m := Compute(topic, records)
		if err := pool.UpdateTopicMetrics(ctx, topic.TopicID, m, globaltime.UTC()); err != nil {
			return updated, fmt.Errorf("store metrics for topic %s: %w", topic.TopicID, err)
		}
		updated++
	}

	logger.Info().Int("topics_total", len(topics)).Int("topics_updated", updated).Msg("metric refresh complete")
	return updated, nil
}

func countPublishedWithin(records []db.ContentRecord, from, to time.Time) int {
	count := 0
	for _, r := range records {
		if r.PublishedAt == nil {
			continue
		}
		t := *r.PublishedAt
		if !t.Before(from) && t.Before(to) {
			count++
		}
	}
	return count
}

// computeVelocity is the relative day-over-day growth rate. With no prior-day
// baseline it saturates at 1.0 when activity exists and 0.0 otherwise.
func computeVelocity(current, previous int) float64 {
	if previous > 0 {
		return round2(float64(current-previous) / float64(previous))
	}
	if current > 0 {
		return 1.0
	}
	return 0.0
}

// countDistinctSources counts unique source identifiers, ignoring records
// without one.
func countDistinctSources(records []db.ContentRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Source == "" {
			continue
		}
		seen[r.Source] = struct{}{}
	}
	return len(seen)
}

func meanAuthority(records []db.ContentRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range records {
		sum += r.AuthorityScore
	}
	return sum / float64(len(records))
}

// computeNovelty decays with topic age measured from first_seen. A topic with
// no first_seen is treated as brand new.
func computeNovelty(firstSeen *time.Time, now time.Time) float64 {
	if firstSeen == nil {
		return 1.0
	}
	hours := now.Sub(*firstSeen).Hours()
	if hours < 0 {
		hours = 0
	}
	return 1 / (1 + hours/24)
}

// sentimentStats returns the mean and population variance of the records that
// carry a sentiment score. Records without one are excluded entirely.
func sentimentStats(records []db.ContentRecord) (float64, float64) {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		if r.SentimentScore != nil {
			values = append(values, *r.SentimentScore)
		}
	}
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return mean, sumSq / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
