// Package prefilter re-applies the Job Leaser's quality thresholds in
// memory, plus a keyword scan SQL cannot express (spec.md §4.2). This
// catches drift between the SQL predicate and application policy.
package prefilter

import (
	"fmt"
	"strings"

	"github.com/predictval/predictval/pkg/model"
)

// maxReasoningInMessage caps how much of filter_validation_reasoning is
// quoted back in a keyword-match Message (spec.md §4.2: "truncated to 200
// chars where it quotes filter reasoning").
const maxReasoningInMessage = 200

// DefaultKeywords is the closed, case-folded substring list from
// spec.md §4.2, used as the zero-config fallback when no YAML override is
// loaded.
var DefaultKeywords = []string{
	"not a prediction",
	"not a valid prediction",
	"no prediction",
	"invalid prediction",
	"not making a prediction",
	"does not contain a prediction",
	"doesn't contain a prediction",
	"no clear prediction",
	"lacks a prediction",
	"missing prediction",
	"not predictive",
	"too vague",
	"overly vague",
	"impossible to validate",
	"cannot be validated",
	"not verifiable",
	"unverifiable",
	"heavy hedging",
	"quoting someone else",
	"is an announcement",
	"factual announcement",
}

// Config carries the thresholds and keyword list as data, not code, so
// they can be tuned without a rebuild (spec.md §9 "keyword scan policy").
type Config struct {
	FilterValidationConfidenceMin float64
	PredictionQualityMin          float64
	LLMConfidenceMin              float64
	VaguenessMax                  float64
	Keywords                      []string
}

// DefaultConfig carries the literal thresholds from spec.md §4.1 and the
// keyword list from §4.2.
func DefaultConfig() Config {
	return Config{
		FilterValidationConfidenceMin: 0.85,
		PredictionQualityMin:          30,
		LLMConfidenceMin:              0.50,
		VaguenessMax:                  0.80,
		Keywords:                      DefaultKeywords,
	}
}

// Reason identifies which check rejected a prediction.
type Reason string

const (
	ReasonTimeframeSanity    Reason = "timeframe_sanity"
	ReasonTimeframeStatus    Reason = "timeframe_status"
	ReasonFilterConfidence   Reason = "filter_validation_confidence"
	ReasonPredictionQuality  Reason = "prediction_quality"
	ReasonLLMConfidence      Reason = "llm_confidence"
	ReasonVagueness          Reason = "vagueness"
	ReasonKeywordMatch       Reason = "keyword_match"
)

// Result is the outcome of Check: either Passed, or Reason/Keyword name
// the first failing check, along with enough of the observed value to
// render a human-readable rejection message.
type Result struct {
	Passed    bool
	Reason    Reason
	Keyword   string
	Observed  float64
	Threshold float64
	Reasoning string
}

// Message renders the human-readable rejection string spec.md §4.2
// requires as pipeline proof text ("reason=<human-readable string>").
// Passed results have no message.
func (r Result) Message() string {
	switch r.Reason {
	case ReasonTimeframeSanity:
		return "Timeframe start is after timeframe end"
	case ReasonTimeframeStatus:
		return "Timeframe status is missing"
	case ReasonFilterConfidence:
		return fmt.Sprintf("Filter validation confidence too low: %.2f (threshold: %.2f)", r.Observed, r.Threshold)
	case ReasonPredictionQuality:
		return fmt.Sprintf("Prediction quality too low: %.2f (threshold: %.2f)", r.Observed, r.Threshold)
	case ReasonLLMConfidence:
		return fmt.Sprintf("LLM confidence too low: %.2f (threshold: %.2f)", r.Observed, r.Threshold)
	case ReasonVagueness:
		return fmt.Sprintf("Prediction too vague: %.2f (threshold: %.2f)", r.Observed, r.Threshold)
	case ReasonKeywordMatch:
		reasoning := []rune(r.Reasoning)
		if len(reasoning) > maxReasoningInMessage {
			reasoning = reasoning[:maxReasoningInMessage]
		}
		return fmt.Sprintf("Filter validation reasoning flagged %q: %s", r.Keyword, string(reasoning))
	default:
		return "Pre-filter rejected"
	}
}

// Check re-applies every §4.1 threshold in Go plus the §4.2 keyword scan
// over filter_validation_reasoning. Checks run in the same order spec.md
// lists them; the first failure short-circuits.
func Check(lp *model.LeasedPrediction, cfg Config) Result {
	d := lp.Details

	if d.TimeframeStart != nil && d.TimeframeEnd != nil && d.TimeframeStart.After(*d.TimeframeEnd) {
		return Result{Reason: ReasonTimeframeSanity}
	}
	if d.TimeframeStatus == model.TimeframeStatusMissing {
		return Result{Reason: ReasonTimeframeStatus}
	}
	if d.FilterValidationConfidence != nil && *d.FilterValidationConfidence < cfg.FilterValidationConfidenceMin {
		return Result{Reason: ReasonFilterConfidence, Observed: *d.FilterValidationConfidence, Threshold: cfg.FilterValidationConfidenceMin}
	}
	if lp.Prediction.PredictionQuality != nil && *lp.Prediction.PredictionQuality < cfg.PredictionQualityMin {
		return Result{Reason: ReasonPredictionQuality, Observed: *lp.Prediction.PredictionQuality, Threshold: cfg.PredictionQualityMin}
	}
	if lp.Prediction.LLMConfidence != nil && *lp.Prediction.LLMConfidence < cfg.LLMConfidenceMin {
		return Result{Reason: ReasonLLMConfidence, Observed: *lp.Prediction.LLMConfidence, Threshold: cfg.LLMConfidenceMin}
	}
	if lp.Prediction.Vagueness != nil && *lp.Prediction.Vagueness > cfg.VaguenessMax {
		return Result{Reason: ReasonVagueness, Observed: *lp.Prediction.Vagueness, Threshold: cfg.VaguenessMax}
	}
	if d.FilterValidationReasoning != nil {
		reasoning := strings.ToLower(*d.FilterValidationReasoning)
		for _, kw := range cfg.Keywords {
			if strings.Contains(reasoning, strings.ToLower(kw)) {
				return Result{Reason: ReasonKeywordMatch, Keyword: kw, Reasoning: *d.FilterValidationReasoning}
			}
		}
	}

	return Result{Passed: true}
}
