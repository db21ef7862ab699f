package enrich

import "testing"

func TestCleanTextStripsMarkup(t *testing.T) {
	t.Parallel()

	got := CleanText("<p>Hello <b>world</b></p>")
	if got != "Hello world" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestCleanTextRemovesDisallowedCharacters(t *testing.T) {
	t.Parallel()

	got := CleanText("price: 100€ [draft] #tag")
	if got != "price: 100 draft tag" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestCleanTextCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	got := CleanText("  one \n\n two\t three  ")
	if got != "one two three" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestCleanTextKeepsAccentedLetters(t *testing.T) {
	t.Parallel()

	got := CleanText("Città è già qui")
	if got != "Città è già qui" {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestCleanTextEmpty(t *testing.T) {
	t.Parallel()

	if got := CleanText("   "); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
