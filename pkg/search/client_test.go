package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		Endpoint:       srv.URL,
		APIKey:         "k",
		Timeout:        5 * time.Second,
		RequestsPerSec: 1000,
	})
}

func TestSearchReturnsOrganicResults(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]string{
				{"link": "https://a.example", "title": "A", "snippet": "a snippet", "date": "2026-01-02"},
				{"link": "https://b.example", "title": "B", "snippet": "b snippet"},
			},
		})
	})

	results, err := client.Search(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if results[0].URL != "https://a.example" || results[0].PubDate == nil {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].PubDate != nil {
		t.Errorf("second result PubDate should be nil when date is absent, got %v", results[1].PubDate)
	}
}

func TestSearchAbsentOrganicResultsIsEmptyNotError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})

	results, err := client.Search(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestSearchFiltersEmptyLinks(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]string{
				{"link": "", "title": "no link"},
				{"link": "https://ok.example", "title": "ok"},
			},
		})
	})

	results, err := client.Search(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].URL != "https://ok.example" {
		t.Errorf("URL = %q", results[0].URL)
	}
}

func TestSearchCapsAtN(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		results := make([]map[string]string, 5)
		for i := range results {
			results[i] = map[string]string{"link": "https://example.com/" + string(rune('a'+i))}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"organic_results": results})
	})

	results, err := client.Search(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("len(results) = %d, want 2 (capped)", len(results))
	}
}

func TestSearchNonOKStatus(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Search(context.Background(), "query", 10)
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestLoadConfigFromEnvRequiresAPIKey(t *testing.T) {
	t.Setenv("SEARCH_API_KEY", "")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected error when SEARCH_API_KEY is unset")
	}
}
