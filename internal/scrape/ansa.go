package scrape

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

const ansaSearchURL = "https://www.ansa.it/ricerca/ansait/search.shtml"

// Ansa scrapes the ANSA search listing and extracts article bodies with
// readability. Body extraction is best-effort; a failed article page still
// yields an item with an empty body.
type Ansa struct {
	client  *http.Client
	baseURL string
}

func NewAnsa(timeout time.Duration) *Ansa {
	return &Ansa{
		client:  newHTTPClient(timeout),
		baseURL: ansaSearchURL,
	}
}

func (a *Ansa) Name() string { return "ansa" }

func (a *Ansa) Fetch(ctx context.Context, params Params) ([]RawItem, error) {
	if params.MaxPages < 1 {
		params.MaxPages = 1
	}

	var items []RawItem
	for page := 1; page <= params.MaxPages; page++ {
		values := url.Values{}
		values.Set("query", params.Query)
		values.Set("page", fmt.Sprintf("%d", page))

		body, err := fetchBody(ctx, a.client, a.baseURL+"?"+values.Encode(), "text/html,application/xhtml+xml")
		if err != nil {
			return nil, fmt.Errorf("fetch ansa listing page %d: %w", page, err)
		}

		links, err := parseAnsaListing(body)
		if err != nil {
			return nil, fmt.Errorf("parse ansa listing page %d: %w", page, err)
		}
		if len(links) == 0 {
			break
		}

		for _, link := range links {
			articleBody := a.extractArticleText(ctx, link.URL, link.Title)
			item, err := buildRawItem("ansa", ansaItemID(link.URL), link.Title, articleBody, link.URL, link.PublishedAt, 0, map[string]any{
				"section": link.Section,
			})
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	return items, nil
}

type ansaLink struct {
	Title       string
	URL         string
	PublishedAt string
	Section     string
}

func parseAnsaListing(html []byte) ([]ansaLink, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var links []ansaLink
	doc.Find("article, .news-item, .result").Each(func(_ int, sel *goquery.Selection) {
		anchor := sel.Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}

		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			title = strings.TrimSpace(sel.Find("h2, h3, .title").First().Text())
		}
		if title == "" {
			return
		}

		if strings.HasPrefix(href, "/") {
			href = "https://www.ansa.it" + href
		}

		links = append(links, ansaLink{
			Title:       title,
			URL:         href,
			PublishedAt: strings.TrimSpace(sel.Find("time").First().AttrOr("datetime", "")),
			Section:     strings.TrimSpace(sel.Find(".category, .section").First().Text()),
		})
	})

	return links, nil
}

func (a *Ansa) extractArticleText(ctx context.Context, articleURL, title string) string {
	body, err := fetchBody(ctx, a.client, articleURL, "text/html,application/xhtml+xml")
	if err != nil {
		return ""
	}

	pageURL, err := url.Parse(articleURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return ""
	}

	text := strings.TrimSpace(rendered.String())
	if text == "" {
		text = strings.TrimSpace(article.Excerpt())
	}
	if text == "" {
		text = strings.TrimSpace(title)
	}
	return text
}

func ansaItemID(articleURL string) string {
	sum := sha1.Sum([]byte(articleURL))
	return hex.EncodeToString(sum[:8])
}
