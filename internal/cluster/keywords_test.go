package cluster

import "testing"

func TestExtractKeywordsRanksFrequentTerms(t *testing.T) {
	t.Parallel()

	texts := []string{
		"bitcoin price surges as bitcoin adoption grows",
		"bitcoin miners report record bitcoin revenue",
		"crypto markets follow bitcoin rally",
	}

	keywords := extractKeywords(texts)
	if len(keywords) == 0 {
		t.Fatalf("expected keywords, got none")
	}
	if keywords[0] != "bitcoin" {
		t.Fatalf("expected bitcoin as top keyword, got %v", keywords)
	}
}

func TestExtractKeywordsFiltersStopwords(t *testing.T) {
	t.Parallel()

	keywords := extractKeywords([]string{"the and of with because", "this that those these"})
	if len(keywords) != 0 {
		t.Fatalf("expected no keywords from stopwords, got %v", keywords)
	}
}

func TestExtractKeywordsLimit(t *testing.T) {
	t.Parallel()

	texts := []string{
		"alpha beta gamma delta epsilon zeta eta theta iota kappa lambda omicron sigma",
	}
	keywords := extractKeywords(texts)
	if len(keywords) > keywordLimit {
		t.Fatalf("expected at most %d keywords, got %d", keywordLimit, len(keywords))
	}
}

func TestExtractKeywordsEmptyInput(t *testing.T) {
	t.Parallel()

	if got := extractKeywords(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	if got := extractKeywords([]string{"", "   "}); len(got) != 0 {
		t.Fatalf("expected empty result for blank texts, got %v", got)
	}
}

func TestExtractKeywordsDeterministic(t *testing.T) {
	t.Parallel()

	texts := []string{"one two three", "three two one", "two three one"}
	first := extractKeywords(texts)
	second := extractKeywords(texts)
	if len(first) != len(second) {
		t.Fatalf("keyword counts differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("keyword order differs: %v vs %v", first, second)
		}
	}
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	t.Parallel()

	tokens := tokenize("A big CAT x")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Fatalf("unexpected short token %q in %v", token, tokens)
		}
	}
}
