package topics

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/db"
	"horse.fit/pulse/internal/globaltime"
)

const DefaultRetentionDays = 30

// CleanupResult reports what one retention pass removed.
type CleanupResult struct {
	RecordsDeleted int64
	TopicsDeleted  int64
}

// CleanupOldData removes records published before the retention cutoff and
// then prunes topics left without any member. Running it twice in a row is
// harmless, the second pass simply deletes nothing.
func CleanupOldData(ctx context.Context, pool *db.Pool, retentionDays int, logger zerolog.Logger) (CleanupResult, error) {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := globaltime.UTC().AddDate(0, 0, -retentionDays)

	records, err := pool.DeleteRecordsOlderThan(ctx, cutoff)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("delete expired records: %w", err)
	}

	orphans, err := pool.DeleteOrphanTopics(ctx)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("delete orphan topics: %w", err)
	}

	logger.Info().
		Int64("records_deleted", records).
		Int64("topics_deleted", orphans).
		Int("retention_days", retentionDays).
		Msg("cleanup pass complete")

	return CleanupResult{RecordsDeleted: records, TopicsDeleted: orphans}, nil
}
