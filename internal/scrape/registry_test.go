package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubFetcher struct {
	name  string
	items []RawItem
	err   error
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(ctx context.Context, params Params) ([]RawItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func stubItem(source, id string) RawItem {
	return RawItem{Source: source, SourceItemID: id, Payload: json.RawMessage(`{}`)}
}

func testWindow() (time.Time, time.Time) {
	end := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -7), end
}

func TestScrapeAllMergesSources(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zerolog.Nop(),
		&stubFetcher{name: "alpha", items: []RawItem{stubItem("alpha", "1"), stubItem("alpha", "2"), stubItem("alpha", "3")}},
		&stubFetcher{name: "beta", items: []RawItem{stubItem("beta", "1"), stubItem("beta", "2")}},
	)

	start, end := testWindow()
	batch := registry.ScrapeAll(context.Background(), "q", nil, 1, start, end)

	if len(batch.Items) != 5 {
		t.Fatalf("expected 5 merged items, got %d", len(batch.Items))
	}
	if len(batch.Report.SourceErrors) != 0 {
		t.Fatalf("unexpected source errors: %v", batch.Report.SourceErrors)
	}
	if batch.Report.FetchedCount["alpha"] != 3 || batch.Report.FetchedCount["beta"] != 2 {
		t.Fatalf("unexpected fetch counts: %v", batch.Report.FetchedCount)
	}
}

func TestScrapeAllSourceFailureIsolated(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zerolog.Nop(),
		&stubFetcher{name: "alpha", err: errors.New("rate limited")},
		&stubFetcher{name: "beta", items: []RawItem{stubItem("beta", "1")}},
	)

	start, end := testWindow()
	batch := registry.ScrapeAll(context.Background(), "q", nil, 1, start, end)

	if len(batch.Items) != 1 {
		t.Fatalf("expected surviving source's item, got %d items", len(batch.Items))
	}
	if batch.Report.SourceErrors["alpha"] != "rate limited" {
		t.Fatalf("expected alpha failure recorded, got %v", batch.Report.SourceErrors)
	}
	if got := batch.Report.LastError(registry.Sources()); got != "alpha: rate limited" {
		t.Fatalf("unexpected last error: %q", got)
	}
}

func TestScrapeAllDeduplicatesFirstWin(t *testing.T) {
	t.Parallel()

	duplicate := stubItem("alpha", "1")
	duplicate.Payload = json.RawMessage(`{"first":true}`)
	later := stubItem("alpha", "1")
	later.Payload = json.RawMessage(`{"first":false}`)

	registry := NewRegistry(zerolog.Nop(),
		&stubFetcher{name: "alpha", items: []RawItem{duplicate, later, stubItem("alpha", "2")}},
	)

	start, end := testWindow()
	batch := registry.ScrapeAll(context.Background(), "q", nil, 1, start, end)

	if len(batch.Items) != 2 {
		t.Fatalf("expected 2 unique items, got %d", len(batch.Items))
	}
	if batch.Report.Duplicates != 1 {
		t.Fatalf("expected 1 duplicate counted, got %d", batch.Report.Duplicates)
	}
	if string(batch.Items[0].Payload) != `{"first":true}` {
		t.Fatalf("expected first occurrence kept, got %s", batch.Items[0].Payload)
	}
}

func TestScrapeAllUnknownSource(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zerolog.Nop(),
		&stubFetcher{name: "alpha", items: []RawItem{stubItem("alpha", "1")}},
	)

	start, end := testWindow()
	batch := registry.ScrapeAll(context.Background(), "q", []string{"alpha", "nosuch"}, 1, start, end)

	if len(batch.Items) != 1 {
		t.Fatalf("expected known source items, got %d", len(batch.Items))
	}
	if batch.Report.SourceErrors["nosuch"] != "unknown source" {
		t.Fatalf("expected unknown source recorded, got %v", batch.Report.SourceErrors)
	}
}

func TestScrapeAllEmptyBatch(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(zerolog.Nop(), &stubFetcher{name: "alpha"})

	start, end := testWindow()
	batch := registry.ScrapeAll(context.Background(), "q", nil, 1, start, end)

	if len(batch.Items) != 0 {
		t.Fatalf("expected empty batch, got %d items", len(batch.Items))
	}
	if len(batch.Report.SourceErrors) != 0 {
		t.Fatalf("empty result should not be an error: %v", batch.Report.SourceErrors)
	}
}
