package scrape

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Batch is the merged result of one multi-source fetch pass.
type Batch struct {
	Items  []RawItem
	Report Report
}

// Report records per-source outcomes for a fetch pass; the caller inspects it
// instead of relying on logging alone. A batch with errors is still usable.
type Report struct {
	SourceErrors map[string]string
	FetchedCount map[string]int
	Duplicates   int
}

// LastError returns one recorded source error, preferring source order, for
// surfacing in run state. Empty when every source succeeded.
func (r Report) LastError(order []string) string {
	for _, source := range order {
		if msg, ok := r.SourceErrors[source]; ok {
			return source + ": " + msg
		}
	}
	return ""
}

// Registry holds the configured source adapters in a fixed iteration order.
type Registry struct {
	order    []string
	fetchers map[string]Fetcher
	logger   zerolog.Logger
}

func NewRegistry(logger zerolog.Logger, fetchers ...Fetcher) *Registry {
	r := &Registry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
		logger:   logger,
	}
	for _, f := range fetchers {
		name := strings.ToLower(strings.TrimSpace(f.Name()))
		if name == "" {
			continue
		}
		if _, exists := r.fetchers[name]; exists {
			continue
		}
		r.order = append(r.order, name)
		r.fetchers[name] = f
	}
	return r
}

// Sources lists the registered source names in iteration order.
func (r *Registry) Sources() []string {
	sources := make([]string, len(r.order))
	copy(sources, r.order)
	return sources
}

// ScrapeAll fetches from the requested sources (all registered sources when
// empty) in the fixed registration order. A single source's failure is
// recorded and never aborts the pass. Merged results are deduplicated by
// (source, source_item_id), first occurrence winning. An empty batch is not an
// error condition.
func (r *Registry) ScrapeAll(ctx context.Context, query string, sources []string, maxPages int, start, end time.Time) Batch {
	if len(sources) == 0 {
		sources = r.order
	}

	batch := Batch{
		Report: Report{
			SourceErrors: map[string]string{},
			FetchedCount: map[string]int{},
		},
	}
	seen := map[string]struct{}{}

	for _, requested := range sources {
		name := strings.ToLower(strings.TrimSpace(requested))
		fetcher, ok := r.fetchers[name]
		if !ok {
			r.logger.Warn().Str("source", name).Msg("unknown source requested")
			batch.Report.SourceErrors[name] = "unknown source"
			continue
		}

		items, err := fetcher.Fetch(ctx, Params{
			Query:    query,
			MaxPages: maxPages,
			Start:    start,
			End:      end,
		})
		if err != nil {
			r.logger.Error().Err(err).Str("source", name).Msg("source fetch failed")
			batch.Report.SourceErrors[name] = err.Error()
			continue
		}

		batch.Report.FetchedCount[name] = len(items)
		for _, item := range items {
			key := item.Source + "\x00" + item.SourceItemID
			if _, dup := seen[key]; dup {
				batch.Report.Duplicates++
				continue
			}
			seen[key] = struct{}{}
			batch.Items = append(batch.Items, item)
		}
	}

	r.logger.Info().
		Int("items", len(batch.Items)).
		Int("duplicates", batch.Report.Duplicates).
		Int("failed_sources", len(batch.Report.SourceErrors)).
		Msg("scrape pass complete")

	return batch
}
