package enrich

import (
	"testing"
	"time"
)

func TestNormalizeTimestampKnownLayouts(t *testing.T) {
	t.Parallel()

	cases := map[string]time.Time{
		"2026-03-05 14:30:00":  time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC),
		"2026-03-05T14:30:00":  time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC),
		"2026-03-05T14:30:00Z": time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC),
		"05.03.2026, 14:30":    time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC),
		"2026-03-05":           time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	}

	for raw, want := range cases {
		got := NormalizeTimestamp(raw)
		if got == nil {
			t.Fatalf("expected %q to parse", raw)
		}
		if !got.Equal(want) {
			t.Fatalf("unexpected time for %q: got %v want %v", raw, got, want)
		}
	}
}

func TestNormalizeTimestampUnparseable(t *testing.T) {
	t.Parallel()

	if got := NormalizeTimestamp("not a date"); got != nil {
		t.Fatalf("expected nil for unparseable input, got %v", got)
	}
	if got := NormalizeTimestamp(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestNormalizeTimestampReturnsUTC(t *testing.T) {
	t.Parallel()

	got := NormalizeTimestamp("2026-03-05T14:30:00+02:00")
	if got == nil {
		t.Fatalf("expected offset timestamp to parse")
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}
	if got.Hour() != 12 {
		t.Fatalf("expected 12:30 UTC, got %v", got)
	}
}
