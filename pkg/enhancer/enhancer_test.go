package enhancer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/predictval/predictval/pkg/chat"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`"quoted query"`, "quoted query"},
		{"'single quoted'", "single quoted"},
		{"“curly quoted”", "curly quoted"},
		{"plain query\nwith trailing lines\nignored", "plain query"},
		{"  padded with spaces  ", "padded with spaces"},
		{"no quotes here", "no quotes here"},
		{`"`, `"`},
	}
	for _, c := range cases {
		if got := normalize(c.in); got != c.want {
			t.Errorf("normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func testEnhancer(t *testing.T, reply func(callIndex int) string) *Enhancer {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(atomic.AddInt32(&calls, 1)) - 1
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": reply(idx)}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5},
		})
	}))
	t.Cleanup(srv.Close)

	chatClient := chat.NewClient(chat.Config{
		Endpoint:       srv.URL,
		APIKey:         "k",
		Model:          "m",
		Timeout:        5 * time.Second,
		RequestsPerSec: 1000,
	})
	return New(chatClient)
}

func TestEnhanceMultipleReturnsOneQueryPerAngle(t *testing.T) {
	e := testEnhancer(t, func(idx int) string { return "query text" })

	result, err := e.EnhanceMultiple(context.Background(), "the sky will turn green", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Queries) != 2 {
		t.Fatalf("len(Queries) = %d, want 2", len(result.Queries))
	}
	for _, q := range result.Queries {
		if q != "query text" {
			t.Errorf("query = %q, want %q", q, "query text")
		}
	}
	if result.InputTokens != 20 || result.OutputTokens != 10 {
		t.Errorf("tokens = (%d, %d), want (20, 10)", result.InputTokens, result.OutputTokens)
	}
}

func TestEnhanceMultipleClampsToAngleCount(t *testing.T) {
	e := testEnhancer(t, func(idx int) string { return "q" })

	result, err := e.EnhanceMultiple(context.Background(), "text", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Queries) != len(angles) {
		t.Errorf("len(Queries) = %d, want %d (clamped to len(angles))", len(result.Queries), len(angles))
	}
}

func TestEnhanceRefineReturnsOneQuery(t *testing.T) {
	e := testEnhancer(t, func(idx int) string { return `"refined query"` })

	result, err := e.EnhanceRefine(context.Background(), "text", []PastAttempt{
		{Query: "old query", Reasoning: "too narrow"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Queries) != 1 {
		t.Fatalf("len(Queries) = %d, want 1", len(result.Queries))
	}
	if result.Queries[0] != "refined query" {
		t.Errorf("Queries[0] = %q, want %q (quotes stripped)", result.Queries[0], "refined query")
	}
}
