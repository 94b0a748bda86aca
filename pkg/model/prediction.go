package model

import "time"

// TimeframeStatusMissing is the sentinel value that fails the pre-filter's
// timeframe-status check (spec.md §4.1).
const TimeframeStatusMissing = "missing"

// GoalSlice is a half-open index range over a source post's text that
// identifies a claim substring. Start/End are interpreted as rune
// (Unicode code point) offsets — see pkg/extract and DESIGN.md's Open
// Question decision.
type GoalSlice struct {
	Start        int
	End          int
	SourcePostID *string
}

// Prediction is one parsed claim, owned by the upstream pipeline.
type Prediction struct {
	ID                string
	SourcePostID      string
	GoalSlices        []GoalSlice
	LLMConfidence     *float64
	PredictionQuality *float64
	Vagueness         *float64
}

// PredictionDetails carries extra per-prediction metadata also owned by
// the upstream pipeline.
type PredictionDetails struct {
	PredictionID                string
	PredictionContext           *string
	TimeframeStart               *time.Time
	TimeframeEnd                 *time.Time
	TimeframeStatus              string
	FilterValidationConfidence   *float64
	FilterValidationReasoning    *string
}

// Post is the original post text a goal slice may reference.
type Post struct {
	ID   string
	Text string
}

// LeasedPrediction is the tuple returned by the Job Leaser: one matured,
// unvalidated, quality-passing prediction plus its details and originating
// post.
type LeasedPrediction struct {
	Prediction Prediction
	Details    PredictionDetails
	Post       Post
}
