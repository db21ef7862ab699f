package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const hackerNewsSearchURL = "https://hn.algolia.com/api/v1/search_by_date"

// HackerNews fetches stories from the Algolia search API.
type HackerNews struct {
	client  *http.Client
	baseURL string
}

func NewHackerNews(timeout time.Duration) *HackerNews {
	return &HackerNews{
		client:  newHTTPClient(timeout),
		baseURL: hackerNewsSearchURL,
	}
}

func (h *HackerNews) Name() string { return "hackernews" }

type hnSearchResponse struct {
	Hits []struct {
		ObjectID    string `json:"objectID"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		StoryText   string `json:"story_text"`
		Points      int    `json:"points"`
		NumComments int    `json:"num_comments"`
		CreatedAtI  int64  `json:"created_at_i"`
	} `json:"hits"`
	NbPages int `json:"nbPages"`
}

func (h *HackerNews) Fetch(ctx context.Context, params Params) ([]RawItem, error) {
	if params.MaxPages < 1 {
		params.MaxPages = 1
	}

	var items []RawItem
	for page := 0; page < params.MaxPages; page++ {
		values := url.Values{}
		values.Set("query", params.Query)
		values.Set("tags", "story")
		values.Set("page", fmt.Sprintf("%d", page))
		if !params.Start.IsZero() && !params.End.IsZero() {
			values.Set("numericFilters", fmt.Sprintf(
				"created_at_i>%d,created_at_i<%d",
				params.Start.Unix(), params.End.Unix(),
			))
		}

		body, err := fetchBody(ctx, h.client, h.baseURL+"?"+values.Encode(), "application/json")
		if err != nil {
			return nil, fmt.Errorf("fetch hackernews page %d: %w", page, err)
		}

		var parsed hnSearchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("decode hackernews page %d: %w", page, err)
		}

		for _, hit := range parsed.Hits {
			if strings.TrimSpace(hit.Title) == "" {
				continue
			}
			publishedAt := time.Unix(hit.CreatedAtI, 0).UTC().Format(time.RFC3339)
			item, err := buildRawItem("hackernews", hit.ObjectID, hit.Title, hit.StoryText, hit.URL, publishedAt, float64(hit.Points), map[string]any{
				"points":    hit.Points,
				"comments":  hit.NumComments,
				"item_type": "story",
			})
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		if page+1 >= parsed.NbPages {
			break
		}
	}

	return items, nil
}

func buildRawItem(source, sourceItemID, title, body, itemURL, publishedAt string, engagement float64, metadata map[string]any) (RawItem, error) {
	payload := map[string]any{
		"source":           source,
		"source_item_id":   sourceItemID,
		"title":            title,
		"engagement_score": engagement,
	}
	if strings.TrimSpace(body) != "" {
		payload["body"] = body
	}
	if strings.TrimSpace(itemURL) != "" {
		payload["url"] = itemURL
	}
	if strings.TrimSpace(publishedAt) != "" {
		payload["published_at"] = publishedAt
	}
	if len(metadata) > 0 {
		payload["source_metadata"] = metadata
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return RawItem{}, fmt.Errorf("marshal %s item %s: %w", source, sourceItemID, err)
	}
	return RawItem{Source: source, SourceItemID: sourceItemID, Payload: raw}, nil
}
