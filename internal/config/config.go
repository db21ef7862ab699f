package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"PULSE_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"PULSE_DB_MAX_CONNS" default:"8"`

	ScrapeQuery         string `envconfig:"SCRAPE_QUERY" default:"technology"`
	ScrapeSources       string `envconfig:"SCRAPE_SOURCES" default:""`
	ScrapeMaxPages      int    `envconfig:"SCRAPE_MAX_PAGES" default:"3"`
	ScrapeWindowDays    int    `envconfig:"SCRAPE_WINDOW_DAYS" default:"7"`
	ScrapeIntervalHours int    `envconfig:"SCRAPE_INTERVAL_HOURS" default:"2"`

	RefreshIntervalHours int `envconfig:"REFRESH_INTERVAL_HOURS" default:"6"`
	CleanupHourUTC       int `envconfig:"CLEANUP_HOUR_UTC" default:"3"`
	RetentionDays        int `envconfig:"RETENTION_DAYS" default:"30"`

	ClusterDaysBack int `envconfig:"CLUSTER_DAYS_BACK" default:"30"`
	MinClusterSize  int `envconfig:"MIN_CLUSTER_SIZE" default:"2"`

	EmbeddingEndpoint       string `envconfig:"EMBEDDING_ENDPOINT" default:"http://127.0.0.1:8844/embed"`
	EmbeddingModelName      string `envconfig:"EMBEDDING_MODEL_NAME" default:"paraphrase-multilingual-mpnet-base-v2"`
	EmbeddingTimeoutSeconds int    `envconfig:"EMBEDDING_TIMEOUT_SECONDS" default:"45"`

	HTTPHost string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8095"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("PULSE_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("PULSE_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("PULSE_DB_MIN_CONNS (%d) cannot exceed PULSE_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.ScrapeMaxPages < 1 {
		return fmt.Errorf("SCRAPE_MAX_PAGES must be >= 1")
	}
	if c.ScrapeIntervalHours < 1 {
		return fmt.Errorf("SCRAPE_INTERVAL_HOURS must be >= 1")
	}
	if c.RefreshIntervalHours < 1 {
		return fmt.Errorf("REFRESH_INTERVAL_HOURS must be >= 1")
	}
	if c.CleanupHourUTC < 0 || c.CleanupHourUTC > 23 {
		return fmt.Errorf("CLEANUP_HOUR_UTC must be in [0, 23]")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("RETENTION_DAYS must be >= 1")
	}
	if c.ClusterDaysBack < 1 {
		return fmt.Errorf("CLUSTER_DAYS_BACK must be >= 1")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

// ScrapeSourcesList splits the configured source names, empty meaning all.
func (c *Config) ScrapeSourcesList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.ScrapeSources, ",")
	sources := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		source := strings.ToLower(strings.TrimSpace(part))
		if source == "" {
			continue
		}
		if _, exists := seen[source]; exists {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources
}
