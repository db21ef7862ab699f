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

const redditSearchURL = "https://www.reddit.com/r/%s/search.json"

// Reddit fetches posts from a subreddit's public search listing.
type Reddit struct {
	client    *http.Client
	subreddit string
}

func NewReddit(subreddit string, timeout time.Duration) *Reddit {
	if strings.TrimSpace(subreddit) == "" {
		subreddit = "italy"
	}
	return &Reddit{
		client:    newHTTPClient(timeout),
		subreddit: subreddit,
	}
}

func (r *Reddit) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data struct {
				ID         string  `json:"id"`
				Title      string  `json:"title"`
				Selftext   string  `json:"selftext"`
				Permalink  string  `json:"permalink"`
				Author     string  `json:"author"`
				Score      int     `json:"score"`
				Ups        int     `json:"ups"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (r *Reddit) Fetch(ctx context.Context, params Params) ([]RawItem, error) {
	if params.MaxPages < 1 {
		params.MaxPages = 1
	}

	var items []RawItem
	after := ""
	for page := 0; page < params.MaxPages; page++ {
		values := url.Values{}
		values.Set("q", params.Query)
		values.Set("restrict_sr", "1")
		values.Set("sort", "new")
		values.Set("limit", "100")
		if after != "" {
			values.Set("after", after)
		}

		endpoint := fmt.Sprintf(redditSearchURL, r.subreddit) + "?" + values.Encode()
		body, err := fetchBody(ctx, r.client, endpoint, "application/json")
		if err != nil {
			return nil, fmt.Errorf("fetch reddit page %d: %w", page, err)
		}

		var listing redditListing
		if err := json.Unmarshal(body, &listing); err != nil {
			return nil, fmt.Errorf("decode reddit page %d: %w", page, err)
		}

		for _, child := range listing.Data.Children {
			post := child.Data
			if strings.TrimSpace(post.Title) == "" {
				continue
			}

			createdAt := time.Unix(int64(post.CreatedUTC), 0).UTC()
			if !params.Start.IsZero() && createdAt.Before(params.Start) {
				continue
			}
			if !params.End.IsZero() && createdAt.After(params.End) {
				continue
			}

			item, err := buildRawItem("reddit", post.ID, post.Title, post.Selftext,
				"https://www.reddit.com"+post.Permalink,
				createdAt.Format(time.RFC3339),
				float64(post.Score),
				map[string]any{
					"author":    post.Author,
					"score":     post.Score,
					"upvotes":   post.Ups,
					"subreddit": r.subreddit,
				})
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}

		after = listing.Data.After
		if after == "" {
			break
		}
	}

	return items, nil
}
