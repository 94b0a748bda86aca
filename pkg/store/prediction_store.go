package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictval/predictval/pkg/model"
)

// PredictionStore is the Job Leaser (spec.md §4.1): it leases exactly one
// matured, unvalidated, quality-passing prediction per call, holding a
// row lock until the caller's transaction commits.
type PredictionStore struct {
	pool *pgxpool.Pool
}

// NewPredictionStore builds a Job Leaser over the given pool.
func NewPredictionStore(pool *pgxpool.Pool) *PredictionStore {
	return &PredictionStore{pool: pool}
}

// leaseQuery implements the §4.1 predicate: timeframe_end <= now, no
// ValidationResult row yet, and the four optional quality thresholds
// either absent (null) or passing, ordered by ascending timeframe_end,
// locked for update, skipping rows already locked by a concurrent lease.
const leaseQuery = `
SELECT
	p.id, p.source_post_id, p.goal_slices, p.llm_confidence, p.prediction_quality, p.vagueness,
	d.prediction_context, d.timeframe_start, d.timeframe_end, d.timeframe_status,
	d.filter_validation_confidence, d.filter_validation_reasoning,
	s.id, s.text
FROM parsed_prediction p
JOIN parsed_prediction_details d ON d.prediction_id = p.id
LEFT JOIN scraped_post s ON s.id = p.source_post_id
WHERE d.timeframe_end IS NOT NULL
  AND d.timeframe_end <= $1
  AND d.timeframe_status <> 'missing'
  AND (d.timeframe_start IS NULL OR d.timeframe_end IS NULL OR d.timeframe_start <= d.timeframe_end)
  AND (d.filter_validation_confidence IS NULL OR d.filter_validation_confidence >= 0.85)
  AND (p.prediction_quality IS NULL OR p.prediction_quality >= 30)
  AND (p.llm_confidence IS NULL OR p.llm_confidence >= 0.50)
  AND (p.vagueness IS NULL OR p.vagueness <= 0.80)
  AND NOT EXISTS (SELECT 1 FROM validation_result v WHERE v.parsed_prediction_id = p.id)
ORDER BY d.timeframe_end ASC
LIMIT 1
FOR UPDATE OF p SKIP LOCKED
`

type goalSliceRow struct {
	Start        int     `json:"start"`
	End          int     `json:"end"`
	SourcePostID *string `json:"source_post_id,omitempty"`
}

// Lease selects and locks the oldest eligible prediction within tx. The
// lock is released when tx commits or rolls back. A pgx.ErrNoRows result
// maps to ErrNoPredictionsAvailable.
func (s *PredictionStore) Lease(ctx context.Context, tx pgx.Tx, now time.Time) (*model.LeasedPrediction, error) {
	row := tx.QueryRow(ctx, leaseQuery, now)

	var (
		predictionID, sourcePostID string
		goalSlicesRaw              []byte
		llmConfidence              *float64
		predictionQuality          *float64
		vagueness                  *float64
		predictionContext          *string
		timeframeStart             *time.Time
		timeframeEnd               *time.Time
		timeframeStatus            string
		filterValidationConfidence *float64
		filterValidationReasoning  *string
		postID                     *string
		postText                   *string
	)

	err := row.Scan(
		&predictionID, &sourcePostID, &goalSlicesRaw, &llmConfidence, &predictionQuality, &vagueness,
		&predictionContext, &timeframeStart, &timeframeEnd, &timeframeStatus,
		&filterValidationConfidence, &filterValidationReasoning,
		&postID, &postText,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoPredictionsAvailable
		}
		return nil, fmt.Errorf("lease prediction: %w", err)
	}

	var goalSliceRows []goalSliceRow
	if len(goalSlicesRaw) > 0 {
		if err := json.Unmarshal(goalSlicesRaw, &goalSliceRows); err != nil {
			return nil, fmt.Errorf("unmarshal goal_slices: %w", err)
		}
	}
	goalSlices := make([]model.GoalSlice, 0, len(goalSliceRows))
	for _, g := range goalSliceRows {
		goalSlices = append(goalSlices, model.GoalSlice{
			Start:        g.Start,
			End:          g.End,
			SourcePostID: g.SourcePostID,
		})
	}

	lp := &model.LeasedPrediction{
		Prediction: model.Prediction{
			ID:                predictionID,
			SourcePostID:      sourcePostID,
			GoalSlices:        goalSlices,
			LLMConfidence:     llmConfidence,
			PredictionQuality: predictionQuality,
			Vagueness:         vagueness,
		},
		Details: model.PredictionDetails{
			PredictionID:               predictionID,
			PredictionContext:          predictionContext,
			TimeframeStatus:            timeframeStatus,
			FilterValidationConfidence: filterValidationConfidence,
			FilterValidationReasoning:  filterValidationReasoning,
		},
	}
	lp.Details.TimeframeStart = timeframeStart
	lp.Details.TimeframeEnd = timeframeEnd
	if postID != nil {
		lp.Post.ID = *postID
	}
	if postText != nil {
		lp.Post.Text = *postText
	}

	return lp, nil
}
