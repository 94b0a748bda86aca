// Package pipeline implements the Validator Pipeline (spec.md §4.8): the
// per-prediction state machine from Leased to one of six terminal
// outcomes. It is written as a linear sequence of Go function calls with
// early-return short-circuits, following
// codeready-toolchain-tarsy's queue.Worker.pollAndProcess shape rather
// than a literal finite-state-machine type.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/predictval/predictval/pkg/enhancer"
	"github.com/predictval/predictval/pkg/extract"
	"github.com/predictval/predictval/pkg/model"
	"github.com/predictval/predictval/pkg/prefilter"
)

// Enhancer turns prediction text into search queries.
type Enhancer interface {
	EnhanceMultiple(ctx context.Context, text string, n int) (enhancer.Result, error)
	EnhanceRefine(ctx context.Context, text string, pastAttempts []enhancer.PastAttempt) (enhancer.Result, error)
}

// Searcher executes one query against the Search Adapter.
type Searcher interface {
	Search(ctx context.Context, query string, n int) ([]model.SearchResult, error)
}

// Judge decides a reconciled verdict over prediction text and combined
// search results.
type Judge interface {
	Run(ctx context.Context, text string, results []model.SearchResult) (model.Judgment, error)
}

// ResultInserter persists a ValidationResult within the caller's
// transaction.
type ResultInserter interface {
	Insert(ctx context.Context, tx pgx.Tx, result *model.ValidationResult) error
}

// Pipeline wires together the adapters and stores needed to validate one
// leased prediction.
type Pipeline struct {
	enhancer Enhancer
	searcher Searcher
	judge    Judge
	results  ResultInserter
	fetcher  extract.PostFetcher
	cfg      Config
	prefilterCfg prefilter.Config
}

// New builds a Pipeline.
func New(enh Enhancer, searcher Searcher, judge Judge, results ResultInserter, fetcher extract.PostFetcher, cfg Config, prefilterCfg prefilter.Config) *Pipeline {
	return &Pipeline{
		enhancer:     enh,
		searcher:     searcher,
		judge:        judge,
		results:      results,
		fetcher:      fetcher,
		cfg:          cfg,
		prefilterCfg: prefilterCfg,
	}
}

// Outcome is the terminal result of one Run, plus the accounting needed
// to emit a CostLogEntry.
type Outcome struct {
	Result                    model.ValidationResult
	SearchAPICalls            int
	QueryEnhancerInputTokens  int
	QueryEnhancerOutputTokens int
	ResultJudgeInputTokens    int
	ResultJudgeOutputTokens   int
}

// Run executes the §4.8 state machine over one leased prediction within
// tx, inserting the resulting ValidationResult before returning. The
// caller is responsible for committing tx and emitting the CostLogEntry
// derived from the returned Outcome — per spec.md §5, cost-tracker
// updates for a validation happen after its transaction commits.
//
// Any uncaught error from steps 3-10 is converted to outcome Invalid with
// an error-message proof rather than propagated, since spec.md §7
// requires every leased prediction to still produce a persisted row. An
// error from the insert itself is returned to the caller.
func (p *Pipeline) Run(ctx context.Context, tx pgx.Tx, lp *model.LeasedPrediction) (Outcome, error) {
	out := Outcome{Result: model.ValidationResult{PredictionID: lp.Prediction.ID}}

	result, searchCalls, enhIn, enhOut, judgeIn, judgeOut := p.validate(ctx, lp)
	out.Result.Outcome = result.Outcome
	out.Result.Proof = model.TruncateProof(result.Proof)
	out.Result.Sources = result.Sources
	out.SearchAPICalls = searchCalls
	out.QueryEnhancerInputTokens = enhIn
	out.QueryEnhancerOutputTokens = enhOut
	out.ResultJudgeInputTokens = judgeIn
	out.ResultJudgeOutputTokens = judgeOut

	if err := p.results.Insert(ctx, tx, &out.Result); err != nil {
		return out, fmt.Errorf("persist validation result: %w", err)
	}
	return out, nil
}

// validate runs steps 1-10 of §4.8 and never returns an error: failures
// at any stage collapse to an Invalid outcome, per spec.md §7.
func (p *Pipeline) validate(ctx context.Context, lp *model.LeasedPrediction) (result model.ValidationResult, searchCalls, enhIn, enhOut, judgeIn, judgeOut int) {
	// Step 1: Leased -> Pre-Filter.
	if check := prefilter.Check(lp, p.prefilterCfg); !check.Passed {
		result.Outcome = model.OutcomeInvalid
		result.Proof = check.Message()
		return
	}

	// Step 2: extract goal text.
	text, err := extract.Text(ctx, p.fetcher, lp)
	if err != nil {
		result.Outcome = model.OutcomeInvalid
		result.Proof = "Unable to extract prediction text"
		return
	}

	// Step 3: Initial-Queries.
	enh, err := p.enhancer.EnhanceMultiple(ctx, text, p.cfg.InitialQueries)
	if err != nil {
		result.Outcome = model.OutcomeInvalid
		result.Proof = fmt.Sprintf("Validation error: %s", err.Error())
		return
	}
	enhIn += enh.InputTokens
	enhOut += enh.OutputTokens

	// Step 4: Searching.
	combined, calls, err := p.fanOutSearch(ctx, enh.Queries)
	searchCalls += calls
	if err != nil {
		result.Outcome = model.OutcomeInvalid
		result.Proof = fmt.Sprintf("Validation error: %s", err.Error())
		return
	}
	if len(combined) == 0 {
		result.Outcome = model.OutcomeMissingContext
		result.Proof = "No search results found"
		return
	}

	// Step 5: Judging-1.
	judgment, err := p.judge.Run(ctx, text, combined)
	if err != nil {
		result.Outcome = model.OutcomeInvalid
		result.Proof = fmt.Sprintf("Validation error: %s", err.Error())
		return
	}
	judgeIn += judgment.InputTokens
	judgeOut += judgment.OutputTokens

	// Step 6: sufficiency check.
	if !judgment.Sufficient && len(combined) < p.cfg.MaxTotalResults && p.cfg.MaxRefinementIterations > 0 {
		// Step 7: Refining.
		pastAttempts := make([]enhancer.PastAttempt, 0, len(enh.Queries))
		for _, q := range enh.Queries {
			reasoning := judgment.NextQuerySuggestion
			pastAttempts = append(pastAttempts, enhancer.PastAttempt{Query: q, Reasoning: reasoning})
		}

		refined, err := p.enhancer.EnhanceRefine(ctx, text, pastAttempts)
		if err != nil {
			result.Outcome = model.OutcomeInvalid
			result.Proof = fmt.Sprintf("Validation error: %s", err.Error())
			return
		}
		enhIn += refined.InputTokens
		enhOut += refined.OutputTokens

		refinedResults, calls, err := p.fanOutSearch(ctx, refined.Queries)
		searchCalls += calls
		if err != nil {
			result.Outcome = model.OutcomeInvalid
			result.Proof = fmt.Sprintf("Validation error: %s", err.Error())
			return
		}
		combined = append(combined, refinedResults...)

		// Step 8: Judging-2.
		judgment, err = p.judge.Run(ctx, text, combined)
		if err != nil {
			result.Outcome = model.OutcomeInvalid
			result.Proof = fmt.Sprintf("Validation error: %s", err.Error())
			return
		}
		judgeIn += judgment.InputTokens
		judgeOut += judgment.OutputTokens
	}

	// Step 9: Mapping.
	outcome := model.MapOutcome(judgment.Decision, judgment.Score)

	// Step 10: Formatting.
	proof := judgment.Summary
	if judgment.Evidence != "" {
		proof += "\n\n" + judgment.Evidence
	}
	if judgment.Reasoning != "" {
		proof += "\n\nReasoning: " + judgment.Reasoning
	}

	result.Outcome = outcome
	result.Proof = proof

	// Step 11: source selection.
	if judgment.Decision != model.DecisionInconclusive {
		n := len(combined)
		if n > model.MaxSources {
			n = model.MaxSources
		}
		result.Sources = make([]model.Source, 0, n)
		for i := 0; i < n; i++ {
			r := combined[i]
			result.Sources = append(result.Sources, model.Source{
				URL: r.URL, Title: r.Title, Excerpt: r.Excerpt, PubDate: r.PubDate,
			})
		}
	}

	return
}

// fanOutSearch executes queries in parallel, preserving per-query order
// and the order of queries, and tolerates empty per-query results
// (spec.md §4.5).
func (p *Pipeline) fanOutSearch(ctx context.Context, queries []string) ([]model.SearchResult, int, error) {
	resultSets := make([][]model.SearchResult, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			results, err := p.searcher.Search(gctx, q, p.cfg.ResultsPerQuery)
			if err != nil {
				return fmt.Errorf("search query %q: %w", q, err)
			}
			resultSets[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, len(queries), err
	}

	var combined []model.SearchResult
	for _, set := range resultSets {
		combined = append(combined, set...)
	}
	return combined, len(queries), nil
}

// ToCostLogEntry builds the append-only cost log record for one
// completed validation, per spec.md §6.
func (o Outcome) ToCostLogEntry(predictionContext string, now time.Time) model.CostLogEntry {
	return model.CostLogEntry{
		PredictionID:              o.Result.PredictionID,
		PredictionContext:         predictionContext,
		SearchAPICalls:            o.SearchAPICalls,
		QueryEnhancerInputTokens:  o.QueryEnhancerInputTokens,
		QueryEnhancerOutputTokens: o.QueryEnhancerOutputTokens,
		ResultJudgeInputTokens:    o.ResultJudgeInputTokens,
		ResultJudgeOutputTokens:   o.ResultJudgeOutputTokens,
		TotalInputTokens:          o.QueryEnhancerInputTokens + o.ResultJudgeInputTokens,
		TotalOutputTokens:         o.QueryEnhancerOutputTokens + o.ResultJudgeOutputTokens,
		Outcome:                   o.Result.Outcome,
		Timestamp:                 now,
	}
}
