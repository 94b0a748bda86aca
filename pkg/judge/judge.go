// Package judge implements the Result Judge (spec.md §4.6): the LLM call
// that decides TRUE/FALSE/INCONCLUSIVE with a 0-10 score over a
// prediction and its search results. Reply parsing generalizes
// codeready-toolchain-tarsy's pkg/agent/controller/scoring.go scoreRegex
// idiom from a single trailing number to a full tag set. An absent or
// unparseable score falls back to DefaultScoreOnParseFailure; the chat
// call is not retried.
package judge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/predictval/predictval/pkg/chat"
	"github.com/predictval/predictval/pkg/model"
)

// DefaultScoreOnParseFailure is used when <score> is absent or
// unparseable (spec.md §4.6).
const DefaultScoreOnParseFailure = 5

// MaxResultsInPrompt is the cap on search results included in one
// judgment prompt (spec.md §4.6's "up to M search results").
const MaxResultsInPrompt = 15

var (
	decisionTag      = regexp.MustCompile(`(?is)<decision>\s*(.*?)\s*</decision>`)
	scoreTag         = regexp.MustCompile(`(?is)<score>\s*(.*?)\s*</score>`)
	summaryTag       = regexp.MustCompile(`(?is)<summary>\s*(.*?)\s*</summary>`)
	evidenceTag      = regexp.MustCompile(`(?is)<evidence>\s*(.*?)\s*</evidence>`)
	reasoningTag     = regexp.MustCompile(`(?is)<reasoning>\s*(.*?)\s*</reasoning>`)
	sufficientTag    = regexp.MustCompile(`(?is)<sufficient>\s*(.*?)\s*</sufficient>`)
	nextQueryTag     = regexp.MustCompile(`(?is)<next_query>\s*(.*?)\s*</next_query>`)
)

// Judge wraps a chat.Client to call the Result Judge.
type Judge struct {
	chat *chat.Client
}

// New builds a Judge over the given Chat Adapter client.
func New(chatClient *chat.Client) *Judge {
	return &Judge{chat: chatClient}
}

// Run posts one judgment prompt over text and up to MaxResultsInPrompt of
// results, parses the reply, and reconciles decision against score per
// spec.md §4.6.
func (j *Judge) Run(ctx context.Context, text string, results []model.SearchResult) (model.Judgment, error) {
	prompt := buildPrompt(text, results)

	resp, err := j.chat.Complete(ctx, chat.Request{
		Messages: []chat.Message{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   600,
	})
	if err != nil {
		return model.Judgment{}, fmt.Errorf("judge chat call: %w", err)
	}

	j2 := parseReply(resp.Content)
	j2.InputTokens = resp.InputTokens
	j2.OutputTokens = resp.OutputTokens
	j2.Decision = model.Reconcile(j2.Decision, j2.Score)
	return j2, nil
}

func parseReply(content string) model.Judgment {
	score := DefaultScoreOnParseFailure
	if m := scoreTag.FindStringSubmatch(content); m != nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(m[1])); err == nil {
			score = parsed
		}
	}

	decision := model.Decision(strings.ToUpper(strings.TrimSpace(firstMatch(decisionTag, content))))

	return model.Judgment{
		Decision:            decision,
		Score:               score,
		Summary:             firstMatch(summaryTag, content),
		Evidence:            firstMatch(evidenceTag, content),
		Reasoning:           firstMatch(reasoningTag, content),
		Sufficient:          strings.EqualFold(strings.TrimSpace(firstMatch(sufficientTag, content)), "true"),
		NextQuerySuggestion: firstMatch(nextQueryTag, content),
	}
}

func firstMatch(re *regexp.Regexp, content string) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return m[1]
}

func buildPrompt(text string, results []model.SearchResult) string {
	var b strings.Builder
	b.WriteString("Prediction text:\n")
	b.WriteString(text)
	b.WriteString("\n\nSearch results:\n")

	n := len(results)
	if n > MaxResultsInPrompt {
		n = MaxResultsInPrompt
	}
	for i := 0; i < n; i++ {
		r := results[i]
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.URL, r.Excerpt)
	}
	return b.String()
}

const judgeSystemPrompt = `You are the Result Judge in a prediction validation pipeline. Given a prediction's text and a set of web search results, decide whether the prediction resolved TRUE, FALSE, or INCONCLUSIVE (insufficient evidence).

Reply using exactly this tag format:
<decision>TRUE|FALSE|INCONCLUSIVE</decision>
<score>0-10</score>
<summary>one-line summary of your verdict</summary>
<evidence>short evidence bullet block</evidence>
<reasoning>optional one-line reasoning</reasoning>
<sufficient>true|false</sufficient>
<next_query>optional suggested follow-up search query</next_query>`
