package scrape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHackerNewsFetch(t *testing.T) {
	t.Parallel()

	var requestedPages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPages = append(requestedPages, r.URL.Query().Get("page"))
		if r.URL.Query().Get("tags") != "story" {
			t.Errorf("expected story tag filter, got %q", r.URL.Query().Get("tags"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": []map[string]any{
				{"objectID": "101", "title": "First story", "points": 12, "created_at_i": 1772800000},
				{"objectID": "102", "title": "", "points": 3, "created_at_i": 1772800100},
				{"objectID": "103", "title": "Second story", "url": "https://example.com", "points": 5, "created_at_i": 1772800200},
			},
			"nbPages": 1,
		})
	}))
	defer server.Close()

	hn := NewHackerNews(time.Second)
	hn.baseURL = server.URL

	items, err := hn.Fetch(context.Background(), Params{
		Query:    "go",
		MaxPages: 3,
		Start:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected untitled hit skipped, got %d items", len(items))
	}
	if len(requestedPages) != 1 {
		t.Fatalf("expected pagination to stop at nbPages, requested %v", requestedPages)
	}

	var payload map[string]any
	if err := json.Unmarshal(items[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["source"] != "hackernews" || payload["source_item_id"] != "101" {
		t.Fatalf("unexpected payload identity: %v", payload)
	}
	if payload["engagement_score"] != float64(12) {
		t.Fatalf("unexpected engagement score: %v", payload["engagement_score"])
	}
	if _, ok := payload["published_at"].(string); !ok {
		t.Fatalf("expected published_at string, got %v", payload["published_at"])
	}
}

func TestHackerNewsFetchServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	hn := NewHackerNews(time.Second)
	hn.baseURL = server.URL

	if _, err := hn.Fetch(context.Background(), Params{Query: "go", MaxPages: 1}); err == nil {
		t.Fatalf("expected error on upstream failure")
	}
}

func TestBuildRawItemOmitsEmptyFields(t *testing.T) {
	t.Parallel()

	item, err := buildRawItem("test", "1", "Title", "", "", "", 0, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(item.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	for _, key := range []string{"body", "url", "published_at", "source_metadata"} {
		if _, present := payload[key]; present {
			t.Fatalf("expected %q omitted from payload: %v", key, payload)
		}
	}
}
