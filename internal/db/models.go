package db

import (
	"encoding/json"
	"time"
)

// ContentRecord maps pulse.content_records. One normalized, enriched unit of
// ingested content. The (source, source_item_id) pair is globally unique.
type ContentRecord struct {
	RecordID        int64           `gorm:"column:record_id;primaryKey;autoIncrement"`
	Source          string          `gorm:"column:source;type:text;not null;index;uniqueIndex:idx_source_item,priority:1"`
	SourceItemID    string          `gorm:"column:source_item_id;type:text;not null;uniqueIndex:idx_source_item,priority:2"`
	Title           string          `gorm:"column:title;type:text;not null"`
	Body            string          `gorm:"column:body;type:text;not null;default:''"`
	URL             *string         `gorm:"column:url;type:text"`
	PublishedAt     *time.Time      `gorm:"column:published_at;type:timestamptz;index"`
	IngestedAt      time.Time       `gorm:"column:ingested_at;type:timestamptz;not null;default:now();index"`
	Country         *string         `gorm:"column:country;type:text;index"`
	Language        *string         `gorm:"column:language;type:text;index"`
	Sector          *string         `gorm:"column:sector;type:text"`
	EngagementScore float64         `gorm:"column:engagement_score;type:double precision;not null;default:0"`
	AuthorityScore  float64         `gorm:"column:authority_score;type:double precision;not null;default:0"`
	Embedding       json.RawMessage `gorm:"column:embedding;type:jsonb"`
	TopicID         *string         `gorm:"column:topic_id;type:text;index"`
	SentimentScore  *float64        `gorm:"column:sentiment_score;type:double precision"`
	SourceMetadata  json.RawMessage `gorm:"column:source_metadata;type:jsonb"`
}

func (ContentRecord) TableName() string { return "pulse.content_records" }

// Topic maps pulse.topics. Topic identity is scoped to one rebuild epoch: a
// reclustering wipes the previous generation before creating the next.
type Topic struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	TopicID      string          `gorm:"column:topic_id;type:text;not null;unique"`
	Label        string          `gorm:"column:label;type:text;not null"`
	Keywords     json.RawMessage `gorm:"column:keywords;type:jsonb"`
	Description  string          `gorm:"column:description;type:text;not null;default:''"`
	PulseScore   float64         `gorm:"column:pulse_score;type:double precision;not null;default:0;index"`
	Volume       int             `gorm:"column:volume;type:integer;not null;default:0"`
	Velocity     float64         `gorm:"column:velocity;type:double precision;not null;default:0"`
	Spread       int             `gorm:"column:spread;type:integer;not null;default:0"`
	Authority    float64         `gorm:"column:authority;type:double precision;not null;default:0"`
	Novelty      float64         `gorm:"column:novelty;type:double precision;not null;default:0"`
	Variance     float64         `gorm:"column:variance;type:double precision;not null;default:0"`
	SentimentAvg float64         `gorm:"column:sentiment_avg;type:double precision;not null;default:0"`
	Country      string          `gorm:"column:country;type:text;not null;default:GLOBAL"`
	Sector       string          `gorm:"column:sector;type:text;not null;default:News"`
	FirstSeen    *time.Time      `gorm:"column:first_seen;type:timestamptz"`
	LastUpdated  time.Time       `gorm:"column:last_updated;type:timestamptz;not null;default:now()"`
	History      json.RawMessage `gorm:"column:history;type:jsonb"`
}

func (Topic) TableName() string { return "pulse.topics" }

func autoMigrateModels() []any {
	return []any{
		&ContentRecord{},
		&Topic{},
	}
}
