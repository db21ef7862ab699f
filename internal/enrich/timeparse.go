package enrich

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layouts are tried in order; the first match wins. The lenient generic parse
// is a last resort before giving up on the field.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"02.01.2006, 15:04",
	"2006-01-02",
}

// NormalizeTimestamp converts a raw timestamp string to UTC. Returns nil when
// no layout matches and the lenient parse also fails.
func NormalizeTimestamp(raw string) *time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}

	if parsed, err := dateparse.ParseAny(trimmed); err == nil {
		utc := parsed.UTC()
		return &utc
	}

	return nil
}
