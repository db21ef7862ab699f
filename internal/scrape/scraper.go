package scrape

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	defaultFetchTimeout  = 12 * time.Second
	defaultBodyByteLimit = 2 * 1024 * 1024

	defaultUserAgent = "PulseIngest/1.0 (+https://horse.fit/pulse)"
)

// Params controls one fetch pass against a single source.
type Params struct {
	Query    string
	MaxPages int
	Start    time.Time
	End      time.Time
}

// RawItem is one unparsed item as delivered by a source adapter. Payload is
// the provider-neutral JSON handed to the parse boundary, where it is schema
// validated before normalization.
type RawItem struct {
	Source       string
	SourceItemID string
	Payload      json.RawMessage
}

// Fetcher is the per-provider capability. Adding a provider means adding an
// implementation and registering it, not branching logic.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, params Params) ([]RawItem, error)
}

func fetchBody(ctx context.Context, client *http.Client, url string, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{status: resp.StatusCode, url: url}
	}

	return io.ReadAll(io.LimitReader(resp.Body, defaultBodyByteLimit))
}

type statusError struct {
	status int
	url    string
}

func (e *statusError) Error() string {
	return http.StatusText(e.status) + ": " + e.url
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &http.Client{Timeout: timeout}
}
