package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/pulse/internal/cli"
	"horse.fit/pulse/internal/cluster"
	"horse.fit/pulse/internal/config"
	"horse.fit/pulse/internal/db"
	"horse.fit/pulse/internal/enrich"
	"horse.fit/pulse/internal/logging"
	"horse.fit/pulse/internal/scrape"
	"horse.fit/pulse/internal/topics"
)

// runtime bundles the pieces every subcommand needs after bootstrap.
type runtime struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *db.Pool
}

func (r *runtime) close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func bootstrap(ctx context.Context, envLoader *cli.EnvLoader) (*runtime, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &runtime{cfg: cfg, logger: logger, pool: pool}, nil
}

func newRegistry(logger zerolog.Logger) *scrape.Registry {
	return scrape.NewRegistry(logger,
		scrape.NewHackerNews(0),
		scrape.NewReddit("", 0),
		scrape.NewAnsa(0),
	)
}

func newTopicBuilder(rt *runtime) *topics.Builder {
	embedder := cluster.NewHTTPEmbedder(
		rt.cfg.EmbeddingEndpoint,
		rt.cfg.EmbeddingModelName,
		time.Duration(rt.cfg.EmbeddingTimeoutSeconds)*time.Second,
	)
	engine := cluster.NewEngine(embedder, rt.logger)
	return topics.NewBuilder(rt.pool, engine, rt.logger)
}

func newEnricher(rt *runtime) *enrich.Enricher {
	return enrich.NewEnricher(rt.logger)
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
