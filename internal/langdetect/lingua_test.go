package langdetect

import "testing"

func TestDetectISO6391ShortTextSkipped(t *testing.T) {
	t.Parallel()

	if got := DetectISO6391("hi"); got != "" {
		t.Fatalf("expected empty for short text, got %q", got)
	}
	if got := DetectISO6391("   a b c    "); got != "" {
		t.Fatalf("expected empty for near-empty text, got %q", got)
	}
}

func TestDetectISO6391English(t *testing.T) {
	t.Parallel()

	got := DetectISO6391("The government announced a new policy on renewable energy this morning.")
	if got != "en" {
		t.Fatalf("expected en, got %q", got)
	}
}

func TestDetectISO6391Italian(t *testing.T) {
	t.Parallel()

	got := DetectISO6391("Il governo ha annunciato questa mattina una nuova politica sulle energie rinnovabili.")
	if got != "it" {
		t.Fatalf("expected it, got %q", got)
	}
}
