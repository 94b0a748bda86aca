package model

import "time"

// CostLogEntry is one append-only record written to the cost log stream
// (spec.md §3, §6) after a validation's transaction commits.
type CostLogEntry struct {
	PredictionID            string    `json:"prediction_id"`
	PredictionContext        string    `json:"prediction_context"`
	SearchAPICalls           int       `json:"searchApiCalls"`
	QueryEnhancerInputTokens  int       `json:"queryEnhancerInputTokens"`
	QueryEnhancerOutputTokens int       `json:"queryEnhancerOutputTokens"`
	ResultJudgeInputTokens    int       `json:"resultJudgeInputTokens"`
	ResultJudgeOutputTokens   int       `json:"resultJudgeOutputTokens"`
	TotalInputTokens          int       `json:"totalInputTokens"`
	TotalOutputTokens         int       `json:"totalOutputTokens"`
	Outcome                   Outcome   `json:"outcome"`
	Timestamp                 time.Time `json:"timestamp"`
}
