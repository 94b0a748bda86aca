// Package enhancer implements the Query Enhancer (spec.md §4.4): turning
// prediction text into search queries via parallel chat calls, each
// asking the model to approach the claim from a different angle.
package enhancer

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/predictval/predictval/pkg/chat"
)

// angles is the fixed, ordered list of angle directives (spec.md §4.4).
// Only the first n are used; n <= len(angles) in current design.
var angles = []string{
	"Write a direct factual search query about the main claim in this prediction.",
	"Write a search query to find news or reports covering this prediction's subject.",
	"Write a search query using synonyms or alternative keywords for this prediction's claim.",
}

// MaxOutputTokens caps each enhancement call's reply length (spec.md §4.4).
const MaxOutputTokens = 200

// Enhancer wraps a chat.Client to produce search queries from prediction
// text.
type Enhancer struct {
	chat *chat.Client
}

// New builds an Enhancer over the given Chat Adapter client.
func New(chatClient *chat.Client) *Enhancer {
	return &Enhancer{chat: chatClient}
}

// Result carries the enhancer's queries plus token accounting.
type Result struct {
	Queries      []string
	InputTokens  int
	OutputTokens int
}

// EnhanceMultiple issues n chat calls in parallel, one per angle
// directive, and normalizes each returned query (spec.md §4.4). n is
// clamped to len(angles).
func (e *Enhancer) EnhanceMultiple(ctx context.Context, text string, n int) (Result, error) {
	if n > len(angles) {
		n = len(angles)
	}

	queries := make([]string, n)
	tokensIn := make([]int, n)
	tokensOut := make([]int, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			resp, err := e.chat.Complete(gctx, chat.Request{
				Messages: []chat.Message{
					{Role: "system", Content: enhancerSystemPrompt},
					{Role: "user", Content: angles[i] + "\n\nPrediction text:\n" + text},
				},
				Temperature: 0.7 + 0.1*float64(i),
				MaxTokens:   MaxOutputTokens,
			})
			if err != nil {
				return fmt.Errorf("enhance angle %d: %w", i, err)
			}
			queries[i] = normalize(resp.Content)
			tokensIn[i] = resp.InputTokens
			tokensOut[i] = resp.OutputTokens
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	sumIn, sumOut := 0, 0
	for i := 0; i < n; i++ {
		sumIn += tokensIn[i]
		sumOut += tokensOut[i]
	}
	return Result{Queries: queries, InputTokens: sumIn, OutputTokens: sumOut}, nil
}

// PastAttempt is one previously-tried query marked unsuccessful, with an
// optional reasoning hint for why it failed (spec.md §4.8 step 7).
type PastAttempt struct {
	Query     string
	Reasoning string
}

// EnhanceRefine issues one chat call reminding the model of failed
// queries, returning a single refined query.
func (e *Enhancer) EnhanceRefine(ctx context.Context, text string, pastAttempts []PastAttempt) (Result, error) {
	var b strings.Builder
	b.WriteString("The following search queries did not find sufficient evidence:\n")
	for _, a := range pastAttempts {
		b.WriteString("- \"")
		b.WriteString(a.Query)
		b.WriteString("\"")
		if a.Reasoning != "" {
			b.WriteString(" (")
			b.WriteString(a.Reasoning)
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nWrite one new, different search query for this prediction.\n\nPrediction text:\n")
	b.WriteString(text)

	resp, err := e.chat.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: enhancerSystemPrompt},
			{Role: "user", Content: b.String()},
		},
		Temperature: 0.7 + 0.1*float64(len(pastAttempts)),
		MaxTokens:   MaxOutputTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("enhance refine: %w", err)
	}

	return Result{
		Queries:      []string{normalize(resp.Content)},
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// normalize trims whitespace, strips one pair of leading/trailing
// straight or curly quotes, and truncates to the first line (spec.md
// §4.4).
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexAny(s, "\r\n"); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	pairs := [][2]rune{{'"', '"'}, {'\'', '\''}, {'“', '”'}, {'‘', '’'}}
	runes := []rune(s)
	if len(runes) >= 2 {
		for _, p := range pairs {
			if runes[0] == p[0] && runes[len(runes)-1] == p[1] {
				runes = runes[1 : len(runes)-1]
				break
			}
		}
	}
	return strings.TrimSpace(string(runes))
}

const enhancerSystemPrompt = `You are the Query Enhancer in a prediction validation pipeline. Given a prediction's text and an angle directive, produce exactly one concise web search query on a single line. Do not explain your reasoning; reply with the query only.`
