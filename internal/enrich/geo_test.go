package enrich

import "testing"

func TestDetectCountryKeywordMatch(t *testing.T) {
	t.Parallel()

	if got := DetectCountry("Protests in Milano", "", ""); got != "ITA" {
		t.Fatalf("expected ITA, got %q", got)
	}
	if got := DetectCountry("Washington passes new bill", "", ""); got != "USA" {
		t.Fatalf("expected USA, got %q", got)
	}
	if got := DetectCountry("", "the london stock exchange opened", ""); got != "GBR" {
		t.Fatalf("expected GBR from body, got %q", got)
	}
}

func TestDetectCountryKeywordBeatsLanguage(t *testing.T) {
	t.Parallel()

	// Keyword evidence wins even when the language hints elsewhere.
	if got := DetectCountry("Elezioni a Roma", "", "en"); got != "ITA" {
		t.Fatalf("expected ITA, got %q", got)
	}
}

func TestDetectCountryLanguageFallback(t *testing.T) {
	t.Parallel()

	if got := DetectCountry("nessuna parola chiave", "", "it"); got != "ITA" {
		t.Fatalf("expected ITA from language fallback, got %q", got)
	}
	if got := DetectCountry("keine schlagworte", "", "de"); got != "DEU" {
		t.Fatalf("expected DEU from language fallback, got %q", got)
	}
}

func TestDetectCountryGlobalDefault(t *testing.T) {
	t.Parallel()

	if got := DetectCountry("nothing notable here at all", "", ""); got != CountryGlobal {
		t.Fatalf("expected %q, got %q", CountryGlobal, got)
	}
	if got := DetectCountry("short text", "", "xx"); got != CountryGlobal {
		t.Fatalf("expected %q for unmapped language, got %q", CountryGlobal, got)
	}
}

func TestDetectCountryCaseInsensitive(t *testing.T) {
	t.Parallel()

	if got := DetectCountry("BERLIN summit begins", "", ""); got != "DEU" {
		t.Fatalf("expected DEU, got %q", got)
	}
}
