package httpapi

import (
	"testing"
	"time"
)

func TestClassifyFreshness(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)

	cases := map[string]struct {
		age  time.Duration
		want string
	}{
		"one hour":      {time.Hour, FreshnessFresh},
		"just under 3h": {3*time.Hour - time.Minute, FreshnessFresh},
		"five hours":    {5 * time.Hour, FreshnessRecent},
		"one day":       {30 * time.Hour, FreshnessStale},
		"four days":     {96 * time.Hour, FreshnessVeryStale},
	}

	for name, tc := range cases {
		latest := now.Add(-tc.age)
		if got := classifyFreshness(&latest, now); got != tc.want {
			t.Fatalf("%s: got %q want %q", name, got, tc.want)
		}
	}
}

func TestClassifyFreshnessNoRecords(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	if got := classifyFreshness(nil, now); got != FreshnessUnknown {
		t.Fatalf("expected unknown with no records, got %q", got)
	}
}

func TestSummarizeHealth(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		records    int64
		recent24h  int64
		freshness  string
		running    bool
		lastErr    string
		wantStatus string
		wantIssues int
	}{
		"all good":          {100, 10, FreshnessFresh, true, "", healthHealthy, 0},
		"empty database":    {0, 0, FreshnessUnknown, true, "", healthCritical, 1},
		"stale data":        {100, 5, FreshnessStale, true, "", healthWarning, 1},
		"very stale data":   {100, 0, FreshnessVeryStale, true, "", healthWarning, 1},
		"quiet last day":    {100, 0, FreshnessFresh, true, "", healthWarning, 1},
		"scheduler down":    {100, 10, FreshnessFresh, false, "", healthCritical, 1},
		"ingest error only": {100, 10, FreshnessFresh, true, "rate limited", healthWarning, 1},
		"empty and stopped": {0, 0, FreshnessUnknown, false, "", healthCritical, 2},
	}

	for name, tc := range cases {
		status, issues := summarizeHealth(tc.records, tc.recent24h, tc.freshness, tc.running, tc.lastErr)
		if status != tc.wantStatus {
			t.Fatalf("%s: got status %q want %q", name, status, tc.wantStatus)
		}
		if len(issues) != tc.wantIssues {
			t.Fatalf("%s: got %d issues %v, want %d", name, len(issues), issues, tc.wantIssues)
		}
	}
}

func TestSummarizeHealthIngestErrorKeepsCritical(t *testing.T) {
	t.Parallel()

	status, issues := summarizeHealth(0, 0, FreshnessUnknown, true, "rate limited")
	if status != healthCritical {
		t.Fatalf("expected critical to win over ingest error, got %q", status)
	}
	if len(issues) != 2 {
		t.Fatalf("expected both issues reported, got %v", issues)
	}
}

func TestParsePositiveInt(t *testing.T) {
	t.Parallel()

	if got, err := parsePositiveInt("", 25, 1, 200); err != nil || got != 25 {
		t.Fatalf("expected default, got %d err %v", got, err)
	}
	if got, err := parsePositiveInt("50", 25, 1, 200); err != nil || got != 50 {
		t.Fatalf("expected 50, got %d err %v", got, err)
	}
	if _, err := parsePositiveInt("0", 25, 1, 200); err == nil {
		t.Fatalf("expected out-of-range error")
	}
	if _, err := parsePositiveInt("abc", 25, 1, 200); err == nil {
		t.Fatalf("expected integer error")
	}
}

func TestParseTimeFilter(t *testing.T) {
	t.Parallel()

	got, err := parseTimeFilter("2026-03-05", true)
	if err != nil || got == nil {
		t.Fatalf("expected date to parse: %v", err)
	}
	if got.Hour() != 23 || got.Minute() != 59 {
		t.Fatalf("expected end of day, got %v", got)
	}

	got, err = parseTimeFilter("2026-03-05T08:30:00Z", false)
	if err != nil || got == nil || got.Hour() != 8 {
		t.Fatalf("unexpected RFC3339 parse: %v %v", got, err)
	}

	if got, err := parseTimeFilter("", false); err != nil || got != nil {
		t.Fatalf("expected nil for empty input")
	}
	if _, err := parseTimeFilter("yesterday", false); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}
