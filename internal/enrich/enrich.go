package enrich

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/db"
	"horse.fit/pulse/internal/globaltime"
	"horse.fit/pulse/internal/langdetect"
	"horse.fit/pulse/internal/scrape"
	payloadschema "horse.fit/pulse/schema"
)

// Per-source credibility weights mirrored by the metrics engine; stored on the
// record at enrichment time for consumers that read records directly.
var sourceAuthorityWeights = map[string]float64{
	"ansa":       0.9,
	"reuters":    0.95,
	"bbc":        0.9,
	"reddit":     0.4,
	"hackernews": 0.6,
	"twitter":    0.3,
}

const defaultAuthorityWeight = 0.5

// ItemFailure records one skipped raw item and why.
type ItemFailure struct {
	Source       string `json:"source"`
	SourceItemID string `json:"source_item_id"`
	Reason       string `json:"reason"`
}

// ParseReport is the batch-level outcome of a parse pass; callers inspect it
// instead of relying on side-effect logging.
type ParseReport struct {
	Parsed   int
	Failures []ItemFailure
}

type Enricher struct {
	logger zerolog.Logger
}

func NewEnricher(logger zerolog.Logger) *Enricher {
	return &Enricher{logger: logger}
}

// ParseBatch validates each raw item payload against the content item schema
// and normalizes the survivors into candidate records. Per-item failures are
// recorded in the report and skipped; the batch never fails as a whole.
func (e *Enricher) ParseBatch(items []scrape.RawItem) ([]db.ContentRecord, ParseReport) {
	var report ParseReport
	candidates := make([]db.ContentRecord, 0, len(items))

	for _, raw := range items {
		item, err := payloadschema.ValidateContentItemPayload(raw.Payload)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("source", raw.Source).
				Str("source_item_id", raw.SourceItemID).
				Msg("raw item rejected")
			report.Failures = append(report.Failures, ItemFailure{
				Source:       raw.Source,
				SourceItemID: raw.SourceItemID,
				Reason:       err.Error(),
			})
			continue
		}

		candidates = append(candidates, e.normalize(item))
		report.Parsed++
	}

	return candidates, report
}

func (e *Enricher) normalize(item *payloadschema.ContentItem) db.ContentRecord {
	rec := db.ContentRecord{
		Source:       strings.ToLower(strings.TrimSpace(item.Source)),
		SourceItemID: strings.TrimSpace(item.SourceItemID),
		Title:        CleanText(item.Title),
		IngestedAt:   globaltime.UTC(),
	}

	if item.Body != nil {
		rec.Body = CleanText(*item.Body)
	}
	if item.URL != nil {
		if u := strings.TrimSpace(*item.URL); u != "" {
			rec.URL = &u
		}
	}
	if item.PublishedAt != nil {
		rec.PublishedAt = NormalizeTimestamp(*item.PublishedAt)
	}
	if item.EngagementScore != nil {
		rec.EngagementScore = *item.EngagementScore
	}
	if len(item.SourceMetadata) > 0 {
		if raw, err := json.Marshal(item.SourceMetadata); err == nil {
			rec.SourceMetadata = raw
		}
		if section, ok := item.SourceMetadata["section"].(string); ok {
			if s := strings.TrimSpace(section); s != "" {
				rec.Sector = &s
			}
		}
	}

	return rec
}

// Enrich tags a candidate record with language, geography, a per-source
// authority weight, and best-effort entities. Detection failures degrade to
// null fields; enrich never fails a record.
func (e *Enricher) Enrich(rec db.ContentRecord) db.ContentRecord {
	if lang := langdetect.DetectISO6391(rec.Body); lang != "" {
		rec.Language = &lang
	} else if lang := langdetect.DetectISO6391(rec.Title); lang != "" {
		rec.Language = &lang
	}

	language := ""
	if rec.Language != nil {
		language = *rec.Language
	}
	country := DetectCountry(rec.Title, rec.Body, language)
	rec.Country = &country

	weight, ok := sourceAuthorityWeights[rec.Source]
	if !ok {
		weight = defaultAuthorityWeight
	}
	rec.AuthorityScore = weight

	entities := ExtractEntities(rec.Title + ". " + rec.Body)
	rec.SourceMetadata = mergeEntities(rec.SourceMetadata, entities, e.logger)

	return rec
}

func mergeEntities(metadata json.RawMessage, entities Entities, logger zerolog.Logger) json.RawMessage {
	merged := map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &merged); err != nil {
			logger.Warn().Err(err).Msg("source metadata is not an object, replacing")
			merged = map[string]any{}
		}
	}
	merged["entities"] = entities

	raw, err := json.Marshal(merged)
	if err != nil {
		return metadata
	}
	return raw
}
