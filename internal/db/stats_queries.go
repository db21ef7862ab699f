package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RecordStats is the aggregate read model behind the stats endpoint.
type RecordStats struct {
	TotalRecords int64            `json:"total_records"`
	Last24h      int64            `json:"last_24h"`
	BySource     map[string]int64 `json:"by_source"`
	ByLanguage   map[string]int64 `json:"by_language"`
	ByCountry    map[string]int64 `json:"by_country"`
}

// QueryStats returns record totals grouped by source, language, and country.
func (p *Pool) QueryStats(ctx context.Context, now time.Time) (*RecordStats, error) {
	stats := &RecordStats{
		BySource:   map[string]int64{},
		ByLanguage: map[string]int64{},
		ByCountry:  map[string]int64{},
	}

	if err := p.QueryRow(ctx, `SELECT COUNT(*) FROM pulse.content_records`).Scan(&stats.TotalRecords); err != nil {
		return nil, fmt.Errorf("count total records: %w", err)
	}

	yesterday := now.UTC().Add(-24 * time.Hour)
	if err := p.QueryRow(ctx,
		`SELECT COUNT(*) FROM pulse.content_records WHERE published_at >= $1`,
		yesterday,
	).Scan(&stats.Last24h); err != nil {
		return nil, fmt.Errorf("count records last 24h: %w", err)
	}

	groupings := []struct {
		column string
		dest   map[string]int64
	}{
		{column: "source", dest: stats.BySource},
		{column: "language", dest: stats.ByLanguage},
		{column: "country", dest: stats.ByCountry},
	}

	for _, g := range groupings {
		q := fmt.Sprintf(`
SELECT %s, COUNT(*)::BIGINT
FROM pulse.content_records
WHERE %s IS NOT NULL
GROUP BY %s
`, g.column, g.column, g.column)

		rows, err := p.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("group records by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var count int64
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s bucket: %w", g.column, err)
			}
			g.dest[key] = count
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate %s buckets: %w", g.column, err)
		}
	}

	return stats, nil
}

// LatestPublishedAt returns the newest published timestamp across all records,
// or nil when no record carries one.
func (p *Pool) LatestPublishedAt(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	err := p.QueryRow(ctx, `
SELECT published_at
FROM pulse.content_records
WHERE published_at IS NOT NULL
ORDER BY published_at DESC
LIMIT 1
`).Scan(&latest)
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest published record: %w", err)
	}
	return latest, nil
}
