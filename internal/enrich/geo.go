package enrich

import "strings"

// CountryGlobal is the sentinel for content with no detectable geography.
const CountryGlobal = "GLOBAL"

// Table order is significant: when keyword sets overlap, the first matching
// country wins.
var geoKeywords = []struct {
	Code     string
	Keywords []string
}{
	{Code: "ITA", Keywords: []string{"italia", "rome", "roma", "milano", "italian"}},
	{Code: "USA", Keywords: []string{"usa", "america", "washington", "new york", "american"}},
	{Code: "GBR", Keywords: []string{"uk", "britain", "london", "british", "england"}},
	{Code: "DEU", Keywords: []string{"germany", "berlin", "german", "deutschland"}},
	{Code: "FRA", Keywords: []string{"france", "paris", "french", "française"}},
	{Code: "CHN", Keywords: []string{"china", "beijing", "chinese", "shanghai"}},
}

var languageCountry = map[string]string{
	"it": "ITA",
	"en": "USA",
	"de": "DEU",
	"fr": "FRA",
	"es": "ESP",
	"pt": "PRT",
	"nl": "NLD",
	"pl": "POL",
	"ru": "RUS",
	"zh": "CHN",
	"ja": "JPN",
	"ko": "KOR",
}

// DetectCountry resolves the reference country in two stages: keyword scan
// over title+body first, then the detected language's default country, then
// the GLOBAL sentinel.
func DetectCountry(title, body, language string) string {
	combined := strings.ToLower(title + " " + body)

	for _, entry := range geoKeywords {
		for _, keyword := range entry.Keywords {
			if strings.Contains(combined, keyword) {
				return entry.Code
			}
		}
	}

	if language != "" {
		if country, ok := languageCountry[language]; ok {
			return country
		}
	}
	return CountryGlobal
}
