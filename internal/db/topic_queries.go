package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TopicMetrics carries one full metric recomputation for persistence.
type TopicMetrics struct {
	Volume       int     `json:"volume"`
	Velocity     float64 `json:"velocity"`
	Spread       int     `json:"spread"`
	Authority    float64 `json:"authority"`
	Novelty      float64 `json:"novelty"`
	Variance     float64 `json:"variance"`
	SentimentAvg float64 `json:"sentiment_avg"`
	PulseScore   float64 `json:"pulse_score"`
}

type metricSnapshot struct {
	Timestamp  time.Time `json:"timestamp"`
	PulseScore float64   `json:"pulse_score"`
	Volume     int       `json:"volume"`
	Velocity   float64   `json:"velocity"`
	Spread     int       `json:"spread"`
	Authority  float64   `json:"authority"`
	Novelty    float64   `json:"novelty"`
}

const topicColumns = `
	t.id,
	t.topic_id,
	t.label,
	t.keywords,
	t.description,
	t.pulse_score,
	t.volume,
	t.velocity,
	t.spread,
	t.authority,
	t.novelty,
	t.variance,
	t.sentiment_avg,
	t.country,
	t.sector,
	t.first_seen,
	t.last_updated,
	t.history`

func scanTopic(s recordScanner) (Topic, error) {
	var topic Topic
	err := s.Scan(
		&topic.ID,
		&topic.TopicID,
		&topic.Label,
		&topic.Keywords,
		&topic.Description,
		&topic.PulseScore,
		&topic.Volume,
		&topic.Velocity,
		&topic.Spread,
		&topic.Authority,
		&topic.Novelty,
		&topic.Variance,
		&topic.SentimentAvg,
		&topic.Country,
		&topic.Sector,
		&topic.FirstSeen,
		&topic.LastUpdated,
		&topic.History,
	)
	return topic, err
}

// ReplaceTopicGeneration wipes the current topic generation and its record
// links, then creates the new generation and links in a single transaction.
// links maps topic_id to the record ids assigned to that topic.
func (p *Pool) ReplaceTopicGeneration(ctx context.Context, topics []Topic, links map[string][]int64) error {
	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return fmt.Errorf("begin topic rebuild tx: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE pulse.content_records SET topic_id = NULL WHERE topic_id IS NOT NULL`); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("clear topic assignments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM pulse.topics`); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("delete previous topic generation: %w", err)
	}

	const insertQ = `
INSERT INTO pulse.topics (
	topic_id, label, keywords, description,
	country, sector, first_seen, last_updated, history
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '[]'::jsonb)
`
	for _, topic := range topics {
		if _, err := tx.Exec(ctx, insertQ,
			topic.TopicID,
			topic.Label,
			nullableJSON(topic.Keywords),
			topic.Description,
			topic.Country,
			topic.Sector,
			topic.FirstSeen,
			topic.LastUpdated,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("insert topic %s: %w", topic.TopicID, err)
		}

		for _, recordID := range links[topic.TopicID] {
			if _, err := tx.Exec(ctx,
				`UPDATE pulse.content_records SET topic_id = $1 WHERE record_id = $2`,
				topic.TopicID, recordID,
			); err != nil {
				_ = tx.Rollback(ctx)
				return fmt.Errorf("link record %d to topic %s: %w", recordID, topic.TopicID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("commit topic rebuild tx: %w", err)
	}
	return nil
}

// ListTopics returns topics ranked by pulse score descending. A limit <= 0
// returns the whole generation.
func (p *Pool) ListTopics(ctx context.Context, limit int) ([]Topic, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM pulse.topics t
ORDER BY t.pulse_score DESC, t.topic_id
LIMIT $1
`, topicColumns)

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := p.Query(ctx, q, limitArg)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var topics []Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic row: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic rows: %w", err)
	}
	return topics, nil
}

// CountTopics counts the current topic generation.
func (p *Pool) CountTopics(ctx context.Context) (int64, error) {
	var count int64
	if err := p.QueryRow(ctx, `SELECT COUNT(*) FROM pulse.topics`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count topics: %w", err)
	}
	return count, nil
}

// UpdateTopicMetrics persists one full metric recomputation, bumps
// last_updated, and appends a snapshot to the append-only history array.
func (p *Pool) UpdateTopicMetrics(ctx context.Context, topicID string, m TopicMetrics, now time.Time) error {
	snapshot, err := json.Marshal(metricSnapshot{
		Timestamp:  now.UTC(),
		PulseScore: m.PulseScore,
		Volume:     m.Volume,
		Velocity:   m.Velocity,
		Spread:     m.Spread,
		Authority:  m.Authority,
		Novelty:    m.Novelty,
	})
	if err != nil {
		return fmt.Errorf("marshal metric snapshot: %w", err)
	}

	const q = `
UPDATE pulse.topics
SET pulse_score = $1,
	volume = $2,
	velocity = $3,
	spread = $4,
	authority = $5,
	novelty = $6,
	variance = $7,
	sentiment_avg = $8,
	last_updated = $9,
	history = COALESCE(history, '[]'::jsonb) || $10::jsonb
WHERE topic_id = $11
`
	tag, err := p.Exec(ctx, q,
		m.PulseScore,
		m.Volume,
		m.Velocity,
		m.Spread,
		m.Authority,
		m.Novelty,
		m.Variance,
		m.SentimentAvg,
		now.UTC(),
		string(snapshot),
		topicID,
	)
	if err != nil {
		return fmt.Errorf("update topic %s metrics: %w", topicID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update topic %s metrics: %w", topicID, ErrNoRows)
	}
	return nil
}

// DeleteOrphanTopics removes topics with zero linked records. Idempotent.
func (p *Pool) DeleteOrphanTopics(ctx context.Context) (int64, error) {
	const q = `
DELETE FROM pulse.topics t
WHERE NOT EXISTS (
	SELECT 1
	FROM pulse.content_records r
	WHERE r.topic_id = t.topic_id
)
`
	tag, err := p.Exec(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("delete orphan topics: %w", err)
	}
	return tag.RowsAffected(), nil
}
