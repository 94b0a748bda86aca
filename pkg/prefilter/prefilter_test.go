package prefilter

import (
	"strings"
	"testing"
	"time"

	"github.com/predictval/predictval/pkg/model"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func validLeasedPrediction() *model.LeasedPrediction {
	return &model.LeasedPrediction{
		Prediction: model.Prediction{
			PredictionQuality: f(30),
			LLMConfidence:     f(0.50),
			Vagueness:         f(0.80),
		},
		Details: model.PredictionDetails{
			TimeframeStatus:            "matured",
			FilterValidationConfidence: f(0.85),
			FilterValidationReasoning:  s("this is a clear, specific, checkable claim"),
		},
	}
}

func TestCheckPasses(t *testing.T) {
	got := Check(validLeasedPrediction(), DefaultConfig())
	if !got.Passed {
		t.Fatalf("expected Passed, got Reason=%q", got.Reason)
	}
}

func TestCheckPredictionQualityBoundary(t *testing.T) {
	lp := validLeasedPrediction()
	lp.Prediction.PredictionQuality = f(30)
	if got := Check(lp, DefaultConfig()); !got.Passed {
		t.Errorf("quality=30 (boundary) should pass, got Reason=%q", got.Reason)
	}

	lp.Prediction.PredictionQuality = f(29)
	if got := Check(lp, DefaultConfig()); got.Passed || got.Reason != ReasonPredictionQuality {
		t.Errorf("quality=29 should fail with ReasonPredictionQuality, got Passed=%v Reason=%q", got.Passed, got.Reason)
	}
}

func TestCheckVaguenessBoundary(t *testing.T) {
	lp := validLeasedPrediction()
	lp.Prediction.Vagueness = f(0.80)
	if got := Check(lp, DefaultConfig()); !got.Passed {
		t.Errorf("vagueness=0.80 (boundary) should pass, got Reason=%q", got.Reason)
	}

	lp.Prediction.Vagueness = f(0.81)
	if got := Check(lp, DefaultConfig()); got.Passed || got.Reason != ReasonVagueness {
		t.Errorf("vagueness=0.81 should fail with ReasonVagueness, got Passed=%v Reason=%q", got.Passed, got.Reason)
	}
}

func TestCheckLLMConfidenceBoundary(t *testing.T) {
	lp := validLeasedPrediction()
	lp.Prediction.LLMConfidence = f(0.50)
	if got := Check(lp, DefaultConfig()); !got.Passed {
		t.Errorf("llm_confidence=0.50 (boundary) should pass, got Reason=%q", got.Reason)
	}

	lp.Prediction.LLMConfidence = f(0.49)
	if got := Check(lp, DefaultConfig()); got.Passed || got.Reason != ReasonLLMConfidence {
		t.Errorf("llm_confidence=0.49 should fail with ReasonLLMConfidence, got Passed=%v Reason=%q", got.Passed, got.Reason)
	}
}

func TestCheckFilterValidationConfidenceBoundary(t *testing.T) {
	lp := validLeasedPrediction()
	lp.Details.FilterValidationConfidence = f(0.85)
	if got := Check(lp, DefaultConfig()); !got.Passed {
		t.Errorf("filter_validation_confidence=0.85 (boundary) should pass, got Reason=%q", got.Reason)
	}

	lp.Details.FilterValidationConfidence = f(0.84)
	if got := Check(lp, DefaultConfig()); got.Passed || got.Reason != ReasonFilterConfidence {
		t.Errorf("filter_validation_confidence=0.84 should fail with ReasonFilterConfidence, got Passed=%v Reason=%q", got.Passed, got.Reason)
	}
}

func TestCheckNilThresholdsPassThrough(t *testing.T) {
	lp := &model.LeasedPrediction{
		Details: model.PredictionDetails{TimeframeStatus: "matured"},
	}
	if got := Check(lp, DefaultConfig()); !got.Passed {
		t.Errorf("all-nil optional thresholds should pass through, got Reason=%q", got.Reason)
	}
}

func TestCheckTimeframeStatusMissing(t *testing.T) {
	lp := validLeasedPrediction()
	lp.Details.TimeframeStatus = model.TimeframeStatusMissing
	got := Check(lp, DefaultConfig())
	if got.Passed || got.Reason != ReasonTimeframeStatus {
		t.Errorf("timeframe_status=missing should fail with ReasonTimeframeStatus, got Passed=%v Reason=%q", got.Passed, got.Reason)
	}
}

func TestCheckTimeframeSanity(t *testing.T) {
	lp := validLeasedPrediction()
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	start := end.Add(24 * time.Hour)
	lp.Details.TimeframeStart = &start
	lp.Details.TimeframeEnd = &end

	got := Check(lp, DefaultConfig())
	if got.Passed || got.Reason != ReasonTimeframeSanity {
		t.Errorf("start after end should fail with ReasonTimeframeSanity, got Passed=%v Reason=%q", got.Passed, got.Reason)
	}
}

func TestCheckKeywordMatch(t *testing.T) {
	lp := validLeasedPrediction()
	lp.Details.FilterValidationReasoning = s("This is TOO VAGUE to be checkable.")

	got := Check(lp, DefaultConfig())
	if got.Passed {
		t.Fatal("expected keyword match rejection")
	}
	if got.Reason != ReasonKeywordMatch {
		t.Errorf("Reason = %q, want ReasonKeywordMatch", got.Reason)
	}
	if got.Keyword != "too vague" {
		t.Errorf("Keyword = %q, want %q", got.Keyword, "too vague")
	}
}

func TestMessage(t *testing.T) {
	cases := []struct {
		name   string
		result Result
		want   string
	}{
		{"vagueness", Result{Reason: ReasonVagueness, Observed: 0.90, Threshold: 0.80}, "Prediction too vague: 0.90 (threshold: 0.80)"},
		{"prediction quality", Result{Reason: ReasonPredictionQuality, Observed: 29, Threshold: 30}, "Prediction quality too low: 29.00 (threshold: 30.00)"},
		{"llm confidence", Result{Reason: ReasonLLMConfidence, Observed: 0.49, Threshold: 0.50}, "LLM confidence too low: 0.49 (threshold: 0.50)"},
		{"filter confidence", Result{Reason: ReasonFilterConfidence, Observed: 0.84, Threshold: 0.85}, "Filter validation confidence too low: 0.84 (threshold: 0.85)"},
		{"timeframe sanity", Result{Reason: ReasonTimeframeSanity}, "Timeframe start is after timeframe end"},
		{"timeframe status", Result{Reason: ReasonTimeframeStatus}, "Timeframe status is missing"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.result.Message(); got != c.want {
				t.Errorf("Message() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestMessageKeywordMatchQuotesReasoningTruncated(t *testing.T) {
	reasoning := strings.Repeat("x", 250)
	r := Result{Reason: ReasonKeywordMatch, Keyword: "too vague", Reasoning: reasoning}
	got := r.Message()
	if !strings.Contains(got, "too vague") {
		t.Errorf("Message() = %q, want it to name the matched keyword", got)
	}
	if strings.Contains(got, strings.Repeat("x", 201)) {
		t.Errorf("Message() did not truncate reasoning to 200 chars: %q", got)
	}
}

func TestCheckOrderFirstFailureWins(t *testing.T) {
	// Timeframe sanity is checked before timeframe status per the
	// order Check documents, so a prediction failing both reports
	// the sanity reason.
	lp := validLeasedPrediction()
	end := time.Now()
	start := end.Add(time.Hour)
	lp.Details.TimeframeStart = &start
	lp.Details.TimeframeEnd = &end
	lp.Details.TimeframeStatus = model.TimeframeStatusMissing

	got := Check(lp, DefaultConfig())
	if got.Reason != ReasonTimeframeSanity {
		t.Errorf("Reason = %q, want ReasonTimeframeSanity (checked first)", got.Reason)
	}
}
