package enrich

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Characters outside this set are dropped entirely: letters (any script,
// accents included), digits, whitespace, and the retained punctuation set.
var disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}\s.,!?;:()\-'"]`)

// CleanText strips markup, drops disallowed characters, and collapses runs of
// whitespace to single spaces.
func CleanText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	text := raw
	if strings.ContainsRune(raw, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			text = doc.Text()
		}
	}

	text = disallowedChars.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}
