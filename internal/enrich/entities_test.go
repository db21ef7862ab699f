package enrich

import "testing"

func TestExtractEntitiesClassification(t *testing.T) {
	t.Parallel()

	got := ExtractEntities("The European Commission met in Vatican City yesterday.")
	if len(got.Organizations) != 1 || got.Organizations[0] != "European Commission" {
		t.Fatalf("unexpected organizations: %v", got.Organizations)
	}
	if len(got.Locations) != 1 || got.Locations[0] != "Vatican City" {
		t.Fatalf("unexpected locations: %v", got.Locations)
	}
}

func TestExtractEntitiesDeduplicates(t *testing.T) {
	t.Parallel()

	got := ExtractEntities("Acme Corp announced that Acme Corp will expand.")
	if len(got.Organizations) != 1 {
		t.Fatalf("expected one organization, got %v", got.Organizations)
	}
}

func TestExtractEntitiesIgnoresSingleWords(t *testing.T) {
	t.Parallel()

	got := ExtractEntities("Leaders met in Paris to discuss the summit agenda.")
	if len(got.Organizations) != 0 || len(got.Locations) != 0 {
		t.Fatalf("expected no entities, got %+v", got)
	}
}

func TestExtractEntitiesEmptyInput(t *testing.T) {
	t.Parallel()

	got := ExtractEntities("")
	if got.Locations == nil || got.Organizations == nil {
		t.Fatalf("expected empty slices, got %+v", got)
	}
	if len(got.Locations) != 0 || len(got.Organizations) != 0 {
		t.Fatalf("expected no entities, got %+v", got)
	}
}
