package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/predictval/predictval/pkg/model"
)

// ValidationResultStore persists the Validator Pipeline's single output row
// per prediction. IDs are generated with uuid.New(), exactly as
// pkg/services/alert_service.go generates session IDs.
type ValidationResultStore struct{}

// NewValidationResultStore builds a ValidationResultStore.
func NewValidationResultStore() *ValidationResultStore {
	return &ValidationResultStore{}
}

const insertResultQuery = `
INSERT INTO validation_result (id, parsed_prediction_id, outcome, proof, sources, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (parsed_prediction_id) DO NOTHING
`

// Insert writes one ValidationResult within tx. A unique-constraint
// violation on parsed_prediction_id (a concurrent worker already
// validated this prediction) is swallowed, not surfaced, per spec.md §7:
// the ON CONFLICT clause makes this idempotent without needing to inspect
// the pgconn.PgError code, but the code path is kept as a defensive
// fallback for drivers/paths that bypass the ON CONFLICT clause.
func (s *ValidationResultStore) Insert(ctx context.Context, tx pgx.Tx, result *model.ValidationResult) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	sourcesJSON, err := json.Marshal(result.Sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = tx.Exec(ctx, insertResultQuery,
		result.ID, result.PredictionID, string(result.Outcome), result.Proof, sourcesJSON, result.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil
		}
		return fmt.Errorf("insert validation result: %w", err)
	}
	return nil
}
