// Package search implements the Search Adapter: a client over a generic
// web-search HTTP endpoint (spec.md §6), grounded on
// teradata-labs-loom's pkg/shuttle/builtin/web_search.go.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/predictval/predictval/pkg/model"
)

// DefaultEndpoint is used when SEARCH_ENDPOINT is unset.
const DefaultEndpoint = "https://serpapi.com/search"

// DefaultTimeout mirrors loom's DefaultSearchTimeout.
const DefaultTimeout = 10 * time.Second

// Config configures the Search Adapter.
type Config struct {
	Endpoint       string
	APIKey         string
	Timeout        time.Duration
	RequestsPerSec float64
}

// LoadConfigFromEnv loads Search Adapter configuration from the process
// environment. SEARCH_API_KEY is required.
func LoadConfigFromEnv() (Config, error) {
	apiKey := os.Getenv("SEARCH_API_KEY")
	if apiKey == "" {
		return Config{}, fmt.Errorf("SEARCH_API_KEY is required")
	}

	rps := 3.0
	if v := os.Getenv("SEARCH_REQUESTS_PER_SEC"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SEARCH_REQUESTS_PER_SEC: %w", err)
		}
		rps = parsed
	}

	timeout := DefaultTimeout
	if v := os.Getenv("SEARCH_TIMEOUT"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SEARCH_TIMEOUT: %w", err)
		}
		timeout = parsed
	}

	endpoint := DefaultEndpoint
	if v := os.Getenv("SEARCH_ENDPOINT"); v != "" {
		endpoint = v
	}

	return Config{Endpoint: endpoint, APIKey: apiKey, Timeout: timeout, RequestsPerSec: rps}, nil
}

// Client calls the external web-search endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient builds a Search Adapter client.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

type organicResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

type apiResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

// Search issues one query and returns up to n organic results. An absent
// organic_results field (spec.md §6) yields an empty, non-error slice.
func (c *Client) Search(ctx context.Context, query string, n int) ([]model.SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("api_key", c.cfg.APIKey)
	q.Set("num", strconv.Itoa(n))

	reqURL := c.cfg.Endpoint + "?" + q.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed apiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := make([]model.SearchResult, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		if r.Link == "" {
			continue
		}
		results = append(results, model.SearchResult{
			URL:     r.Link,
			Title:   r.Title,
			Excerpt: r.Snippet,
			PubDate: parseDate(r.Date),
		})
		if len(results) >= n {
			break
		}
	}
	return results, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
