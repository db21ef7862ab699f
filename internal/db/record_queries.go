package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecordFilters narrows record listing and counting queries. Zero values mean
// "no filter".
type RecordFilters struct {
	Source   string
	Language string
	Country  string
	Query    string
	From     *time.Time
	To       *time.Time
}

const recordColumns = `
	r.record_id,
	r.source,
	r.source_item_id,
	r.title,
	r.body,
	r.url,
	r.published_at,
	r.ingested_at,
	r.country,
	r.language,
	r.sector,
	r.engagement_score,
	r.authority_score,
	r.embedding,
	r.topic_id,
	r.sentiment_score,
	r.source_metadata`

type recordScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s recordScanner) (ContentRecord, error) {
	var rec ContentRecord
	err := s.Scan(
		&rec.RecordID,
		&rec.Source,
		&rec.SourceItemID,
		&rec.Title,
		&rec.Body,
		&rec.URL,
		&rec.PublishedAt,
		&rec.IngestedAt,
		&rec.Country,
		&rec.Language,
		&rec.Sector,
		&rec.EngagementScore,
		&rec.AuthorityScore,
		&rec.Embedding,
		&rec.TopicID,
		&rec.SentimentScore,
		&rec.SourceMetadata,
	)
	return rec, err
}

// InsertRecords stores candidate records, silently skipping any whose
// (source, source_item_id) pair already exists. Each call runs in its own
// transaction; the returned slice contains only the newly inserted rows with
// their assigned ids.
func (p *Pool) InsertRecords(ctx context.Context, records []ContentRecord) ([]ContentRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := p.BeginTx(ctx, TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin insert records tx: %w", err)
	}

	const q = `
INSERT INTO pulse.content_records (
	source, source_item_id, title, body, url,
	published_at, ingested_at, country, language, sector,
	engagement_score, authority_score, embedding, sentiment_score, source_metadata
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (source, source_item_id) DO NOTHING
RETURNING record_id
`

	inserted := make([]ContentRecord, 0, len(records))
	for _, rec := range records {
		row := tx.QueryRow(ctx, q,
			rec.Source,
			rec.SourceItemID,
			rec.Title,
			rec.Body,
			rec.URL,
			rec.PublishedAt,
			rec.IngestedAt,
			rec.Country,
			rec.Language,
			rec.Sector,
			rec.EngagementScore,
			rec.AuthorityScore,
			nullableJSON(rec.Embedding),
			rec.SentimentScore,
			nullableJSON(rec.SourceMetadata),
		)

		var recordID int64
		if err := row.Scan(&recordID); err != nil {
			if errors.Is(err, ErrNoRows) {
				continue // duplicate key, not an error
			}
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("insert record %s:%s: %w", rec.Source, rec.SourceItemID, err)
		}

		rec.RecordID = recordID
		inserted = append(inserted, rec)
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("commit insert records tx: %w", err)
	}
	return inserted, nil
}

// ListRecords returns records matching the filters, newest published first.
func (p *Pool) ListRecords(ctx context.Context, filters RecordFilters, limit, offset int) ([]ContentRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must be >= 0")
	}

	where, args := buildRecordFilterClauses(filters)
	q := fmt.Sprintf(`
SELECT %s
FROM pulse.content_records r
%s
ORDER BY r.published_at DESC NULLS LAST, r.record_id DESC
LIMIT $%d OFFSET $%d
`, recordColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	return p.queryRecords(ctx, q, args...)
}

// GetRecordByID fetches a single record, returning ErrNoRows when absent.
func (p *Pool) GetRecordByID(ctx context.Context, recordID int64) (*ContentRecord, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM pulse.content_records r
WHERE r.record_id = $1
`, recordColumns)

	rec, err := scanRecord(p.QueryRow(ctx, q, recordID))
	if err != nil {
		if errors.Is(err, ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("query record %d: %w", recordID, err)
	}
	return &rec, nil
}

// CountRecords counts records matching the filters.
func (p *Pool) CountRecords(ctx context.Context, filters RecordFilters) (int64, error) {
	where, args := buildRecordFilterClauses(filters)
	q := fmt.Sprintf(`SELECT COUNT(*) FROM pulse.content_records r %s`, where)

	var count int64
	if err := p.QueryRow(ctx, q, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// RecordsIngestedSince returns records whose ingestion time falls after the
// cutoff; this is the clustering lookback window.
func (p *Pool) RecordsIngestedSince(ctx context.Context, cutoff time.Time) ([]ContentRecord, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM pulse.content_records r
WHERE r.ingested_at >= $1
ORDER BY r.record_id
`, recordColumns)

	return p.queryRecords(ctx, q, cutoff.UTC())
}

// RecordsForTopic returns all records currently linked to a topic.
func (p *Pool) RecordsForTopic(ctx context.Context, topicID string) ([]ContentRecord, error) {
	q := fmt.Sprintf(`
SELECT %s
FROM pulse.content_records r
WHERE r.topic_id = $1
ORDER BY r.record_id
`, recordColumns)

	return p.queryRecords(ctx, q, topicID)
}

// DeleteRecordsOlderThan removes records published before the cutoff,
// regardless of topic linkage. Returns the number of rows removed.
func (p *Pool) DeleteRecordsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `
DELETE FROM pulse.content_records
WHERE published_at IS NOT NULL
  AND published_at < $1
`
	tag, err := p.Exec(ctx, q, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old records: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Pool) queryRecords(ctx context.Context, q string, args ...any) ([]ContentRecord, error) {
	rows, err := p.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []ContentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return records, nil
}

func buildRecordFilterClauses(filters RecordFilters) (string, []any) {
	clauses := make([]string, 0, 6)
	args := make([]any, 0, 6)

	addClause := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if s := strings.TrimSpace(filters.Source); s != "" {
		addClause("r.source = $%d", s)
	}
	if l := strings.TrimSpace(filters.Language); l != "" {
		addClause("r.language = $%d", l)
	}
	if c := strings.TrimSpace(filters.Country); c != "" {
		addClause("r.country = $%d", c)
	}
	if filters.From != nil {
		addClause("r.published_at >= $%d", filters.From.UTC())
	}
	if filters.To != nil {
		addClause("r.published_at <= $%d", filters.To.UTC())
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		args = append(args, "%"+q+"%")
		clauses = append(clauses, fmt.Sprintf("(r.title ILIKE $%d OR r.body ILIKE $%d)", len(args), len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
