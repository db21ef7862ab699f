package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/cluster"
	"horse.fit/pulse/internal/db"
	"horse.fit/pulse/internal/globaltime"
)

const (
	// DefaultCountry and DefaultSector label topics whose members carry no
	// usable signal of their own.
	DefaultCountry = "GLOBAL"
	DefaultSector  = "News"

	labelMaxLen       = 100
	labelMinTitleLen  = 10
	labelKeywordCount = 4
	DefaultDaysBack   = 30
)

// Builder runs the full topic rebuild: load a record window, cluster it, and
// atomically replace the previous topic generation.
type Builder struct {
	pool   *db.Pool
	engine *cluster.Engine
	logger zerolog.Logger
}

func NewBuilder(pool *db.Pool, engine *cluster.Engine, logger zerolog.Logger) *Builder {
	return &Builder{pool: pool, engine: engine, logger: logger}
}

// Result summarizes one rebuild run.
type Result struct {
	RecordsConsidered int
	TopicsCreated     int
	RecordsAssigned   int
}

// ClusterAndSaveTopics rebuilds the entire topic set from records ingested
// within the last daysBack days. Every cluster becomes a topic and every
// clustered record is linked to one; minClusterSize is accepted for tuning
// call sites but does not drop clusters. A window with fewer than two records
// is a clean no-op.
func (b *Builder) ClusterAndSaveTopics(ctx context.Context, daysBack, minClusterSize int) (Result, error) {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}

	cutoff := globaltime.UTC().AddDate(0, 0, -daysBack)
	records, err := b.pool.RecordsIngestedSince(ctx, cutoff)
	if err != nil {
		return Result{}, fmt.Errorf("load clustering window: %w", err)
	}
	if len(records) < 2 {
		b.logger.Info().Int("records", len(records)).Msg("too few records, skipping topic rebuild")
		return Result{RecordsConsidered: len(records)}, nil
	}

	assignment, err := b.engine.Cluster(ctx, records)
	if err != nil {
		if errors.Is(err, cluster.ErrTooFewRecords) {
			return Result{RecordsConsidered: len(records)}, nil
		}
		return Result{}, fmt.Errorf("cluster records: %w", err)
	}

	generation, links := buildGeneration(records, assignment)
	if err := b.pool.ReplaceTopicGeneration(ctx, generation, links); err != nil {
		return Result{}, fmt.Errorf("persist topic generation: %w", err)
	}

	assigned := 0
	for _, ids := range links {
		assigned += len(ids)
	}
	b.logger.Info().
		Int("records", len(records)).
		Int("topics", len(generation)).
		Int("assigned", assigned).
		Msg("topic generation rebuilt")

	return Result{
		RecordsConsidered: len(records),
		TopicsCreated:     len(generation),
		RecordsAssigned:   assigned,
	}, nil
}

// buildGeneration turns a clustering assignment into persistable topics and
// the record links for each. Every cluster yields a topic; topic ids are the
// cluster's position within the generation.
func buildGeneration(records []db.ContentRecord, assignment cluster.Assignment) ([]db.Topic, map[string][]int64) {
	now := globaltime.UTC()
	generation := make([]db.Topic, 0, assignment.K)
	links := make(map[string][]int64, assignment.K)

	for c := 0; c < assignment.K; c++ {
		members := make([]db.ContentRecord, 0)
		memberIDs := make([]int64, 0)
		for i, label := range assignment.Labels {
			if label != c {
				continue
			}
			members = append(members, records[i])
			memberIDs = append(memberIDs, records[i].RecordID)
		}
		if len(members) == 0 {
			continue
		}

		keywords := assignment.Keywords[c]
		var representative *db.ContentRecord
		if idx, ok := assignment.Representatives[c]; ok {
			representative = &records[idx]
		}

		topicID := fmt.Sprintf("topic_%d", c)

		keywordsJSON, err := json.Marshal(keywords)
		if err != nil {
			keywordsJSON = json.RawMessage(`[]`)
		}

		generation = append(generation, db.Topic{
			TopicID:     topicID,
			Label:       topicLabel(representative, keywords),
			Keywords:    keywordsJSON,
			Description: fmt.Sprintf("Cluster of %d records", len(members)),
			Country:     majorityCountry(members),
			Sector:      majoritySector(members),
			FirstSeen:   earliestPublishedAt(members),
			LastUpdated: now,
		})
		links[topicID] = memberIDs
	}

	return generation, links
}

// topicLabel prefers the representative member's title when it carries enough
// text, falling back to the strongest keywords.
func topicLabel(representative *db.ContentRecord, keywords []string) string {
	if representative != nil {
		title := strings.TrimSpace(representative.Title)
		runes := []rune(title)
		if len(runes) > labelMinTitleLen {
			if len(runes) > labelMaxLen {
				title = string(runes[:labelMaxLen])
			}
			return title
		}
	}

	n := labelKeywordCount
	if n > len(keywords) {
		n = len(keywords)
	}
	if n == 0 {
		return "Untitled topic"
	}
	return strings.Join(keywords[:n], " ")
}

func majorityCountry(members []db.ContentRecord) string {
	counts := make(map[string]int)
	for _, m := range members {
		if m.Country != nil && *m.Country != "" {
			counts[*m.Country]++
		}
	}
	return majorityVote(counts, DefaultCountry)
}

func majoritySector(members []db.ContentRecord) string {
	counts := make(map[string]int)
	for _, m := range members {
		if m.Sector != nil && *m.Sector != "" {
			counts[*m.Sector]++
		}
	}
	return majorityVote(counts, DefaultSector)
}

// majorityVote returns the most frequent value, breaking ties alphabetically
// so rebuilds stay deterministic.
func majorityVote(counts map[string]int, fallback string) string {
	if len(counts) == 0 {
		return fallback
	}
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		if counts[values[i]] != counts[values[j]] {
			return counts[values[i]] > counts[values[j]]
		}
		return values[i] < values[j]
	})
	return values[0]
}

func earliestPublishedAt(members []db.ContentRecord) *time.Time {
	var earliest *time.Time
	for _, m := range members {
		if m.PublishedAt == nil {
			continue
		}
		if earliest == nil || m.PublishedAt.Before(*earliest) {
			t := *m.PublishedAt
			earliest = &t
		}
	}
	return earliest
}
