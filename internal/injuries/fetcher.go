package injuries

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// responseField is the top-level field every valid upstream payload carries.
// A body without it is treated as a failed fetch, never cached.
const responseField = "response"

// maxBodySize caps how much of the upstream response is read (10 MB).
const maxBodySize = 10 * 1024 * 1024

// FetcherConfig holds the upstream endpoint and credentials.
type FetcherConfig struct {
	// URL is the fixed upstream endpoint.
	URL string

	// APIKey and APIHost are sent as the x-rapidapi-key and x-rapidapi-host
	// request headers.
	APIKey  string
	APIHost string

	// Timeout bounds a single call. Zero means no deadline.
	Timeout time.Duration

	// Client overrides the HTTP client. Used by tests.
	Client *http.Client
}

// Fetcher performs a single authenticated GET against the upstream API.
// It makes exactly one attempt per call: no retry, no backoff.
type Fetcher struct {
	client  *http.Client
	url     string
	apiKey  string
	apiHost string
}

// NewFetcher creates a Fetcher for the configured upstream endpoint.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Fetcher{
		client:  client,
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		apiHost: cfg.APIHost,
	}
}

// Fetch downloads the injury report and returns the raw JSON payload.
// The payload is passed through verbatim; the only shape requirement is a
// top-level "response" field.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-rapidapi-key", f.apiKey)
	req.Header.Set("x-rapidapi-host", f.apiHost)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching injury report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from upstream", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxBodySize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(raw) > maxBodySize {
		return nil, fmt.Errorf("response body too large (exceeds %d bytes)", maxBodySize)
	}

	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("upstream returned invalid JSON")
	}
	if !gjson.GetBytes(raw, responseField).Exists() {
		return nil, fmt.Errorf("upstream payload missing %q field", responseField)
	}

	return raw, nil
}
