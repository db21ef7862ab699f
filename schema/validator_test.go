package payloadschema

import (
	"encoding/json"
	"testing"
)

func TestValidateContentItemPayloadAccepted(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"source": "hackernews",
		"source_item_id": "12345",
		"title": "Show HN: something",
		"body": null,
		"url": "https://example.com",
		"published_at": "2026-03-05T10:00:00Z",
		"engagement_score": 42,
		"source_metadata": {"points": 42}
	}`)

	item, err := ValidateContentItemPayload(payload)
	if err != nil {
		t.Fatalf("expected payload to validate: %v", err)
	}
	if item.Source != "hackernews" || item.SourceItemID != "12345" {
		t.Fatalf("unexpected identity: %+v", item)
	}
	if item.EngagementScore == nil || *item.EngagementScore != 42 {
		t.Fatalf("unexpected engagement score: %v", item.EngagementScore)
	}
}

func TestValidateContentItemPayloadMissingRequired(t *testing.T) {
	t.Parallel()

	if _, err := ValidateContentItemPayload(json.RawMessage(`{"source":"reddit","title":"x"}`)); err == nil {
		t.Fatalf("expected missing source_item_id to fail")
	}
}

func TestValidateContentItemPayloadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"source": "reddit",
		"source_item_id": "1",
		"title": "x",
		"extra_field": true
	}`)
	if _, err := ValidateContentItemPayload(payload); err == nil {
		t.Fatalf("expected unknown field to fail validation")
	}
}

func TestValidateContentItemPayloadRejectsNegativeEngagement(t *testing.T) {
	t.Parallel()

	payload := json.RawMessage(`{
		"source": "reddit",
		"source_item_id": "1",
		"title": "x",
		"engagement_score": -5
	}`)
	if _, err := ValidateContentItemPayload(payload); err == nil {
		t.Fatalf("expected negative engagement score to fail validation")
	}
}

func TestValidateContentItemPayloadRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	if _, err := ValidateContentItemPayload(json.RawMessage(`{"source":`)); err == nil {
		t.Fatalf("expected malformed JSON to fail")
	}
}
