package cluster

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	vocabularyLimit = 50
	keywordLimit    = 10
)

var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {},
	"at": {}, "be": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"below": {}, "between": {}, "both": {}, "but": {}, "by": {}, "can": {},
	"did": {}, "do": {}, "does": {}, "doing": {}, "down": {}, "during": {},
	"each": {}, "few": {}, "for": {}, "from": {}, "further": {}, "had": {},
	"has": {}, "have": {}, "having": {}, "he": {}, "her": {}, "here": {},
	"hers": {}, "him": {}, "his": {}, "how": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "just": {}, "me": {},
	"more": {}, "most": {}, "my": {}, "no": {}, "nor": {}, "not": {},
	"now": {}, "of": {}, "off": {}, "on": {}, "once": {}, "only": {},
	"or": {}, "other": {}, "our": {}, "out": {}, "over": {}, "own": {},
	"same": {}, "she": {}, "should": {}, "so": {}, "some": {}, "such": {},
	"than": {}, "that": {}, "the": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"through": {}, "to": {}, "too": {}, "under": {}, "until": {}, "up": {},
	"very": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "who": {}, "whom": {}, "why": {},
	"will": {}, "with": {}, "you": {}, "your": {}, "yours": {},
}

// extractKeywords returns the strongest TF-IDF terms for a cluster of texts,
// highest weight first. The vocabulary is capped to the most frequent terms
// across the cluster, so tiny clusters still produce stable short lists.
// An empty or stopword-only cluster yields an empty slice.
func extractKeywords(texts []string) []string {
	docs := make([][]string, 0, len(texts))
	for _, text := range texts {
		tokens := tokenize(text)
		if len(tokens) > 0 {
			docs = append(docs, tokens)
		}
	}
	if len(docs) == 0 {
		return []string{}
	}

	vocab := buildVocabulary(docs)
	if len(vocab) == 0 {
		return []string{}
	}

	docCount := float64(len(docs))
	idf := make(map[string]float64, len(vocab))
	for _, term := range vocab {
		df := 0
		for _, doc := range docs {
			if containsTerm(doc, term) {
				df++
			}
		}
		idf[term] = math.Log((1+docCount)/(1+float64(df))) + 1
	}

	vocabSet := make(map[string]struct{}, len(vocab))
	for _, term := range vocab {
		vocabSet[term] = struct{}{}
	}

	aggregate := make(map[string]float64, len(vocab))
	for _, doc := range docs {
		counts := make(map[string]int, len(doc))
		for _, token := range doc {
			if _, ok := vocabSet[token]; ok {
				counts[token]++
			}
		}

		norm := 0.0
		weights := make(map[string]float64, len(counts))
		for term, count := range counts {
			w := float64(count) * idf[term]
			weights[term] = w
			norm += w * w
		}
		if norm <= 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for term, w := range weights {
			aggregate[term] += w / norm
		}
	}

	type scored struct {
		term  string
		score float64
	}
	ranked := make([]scored, 0, len(aggregate))
	for term, score := range aggregate {
		if score > 0 {
			ranked = append(ranked, scored{term: term, score: score})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].term < ranked[j].term
	})

	limit := keywordLimit
	if limit > len(ranked) {
		limit = len(ranked)
	}
	keywords := make([]string, 0, limit)
	for _, entry := range ranked[:limit] {
		keywords = append(keywords, entry.term)
	}
	return keywords
}

func tokenize(text string) []string {
	raw := termPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if _, skip := stopwords[token]; skip {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// buildVocabulary keeps the most frequent terms across all documents, with
// alphabetical order breaking frequency ties.
func buildVocabulary(docs [][]string) []string {
	frequency := make(map[string]int)
	for _, doc := range docs {
		for _, token := range doc {
			frequency[token]++
		}
	}

	terms := make([]string, 0, len(frequency))
	for term := range frequency {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if frequency[terms[i]] != frequency[terms[j]] {
			return frequency[terms[i]] > frequency[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > vocabularyLimit {
		terms = terms[:vocabularyLimit]
	}
	return terms
}

func containsTerm(doc []string, term string) bool {
	for _, token := range doc {
		if token == term {
			return true
		}
	}
	return false
}
