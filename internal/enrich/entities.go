package enrich

import (
	"regexp"
	"strings"
)

// Sequences of two or more capitalized words are candidate entities. This is
// deliberately coarse and non-authoritative.
var entityPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)

var locationNouns = []string{"city", "country", "province", "region", "state"}

// Entities holds the best-effort extraction result for one record.
type Entities struct {
	Locations     []string `json:"locations"`
	Organizations []string `json:"organizations"`
}

// ExtractEntities scans for capitalized word sequences, classifying those
// containing a geographic noun as locations and the rest as organizations.
// Duplicates within the record are dropped, first occurrence order kept.
func ExtractEntities(text string) Entities {
	entities := Entities{
		Locations:     []string{},
		Organizations: []string{},
	}

	seen := map[string]struct{}{}
	for _, match := range entityPattern.FindAllString(text, -1) {
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}

		if containsLocationNoun(match) {
			entities.Locations = append(entities.Locations, match)
		} else {
			entities.Organizations = append(entities.Organizations, match)
		}
	}

	return entities
}

func containsLocationNoun(candidate string) bool {
	lowered := strings.ToLower(candidate)
	for _, noun := range locationNouns {
		if strings.Contains(lowered, noun) {
			return true
		}
	}
	return false
}
