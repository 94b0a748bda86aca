// Package queue provides the Worker/Supervisor infrastructure that leases
// matured predictions and runs them through the Validator Pipeline
// (spec.md §4.10, §4.11).
package queue

import "errors"

// ErrNoPredictionsAvailable indicates the Job Leaser found nothing
// eligible this poll.
var ErrNoPredictionsAvailable = errors.New("queue: no predictions available")

// WorkerStatus represents a worker's current activity, mirroring the
// teacher's WorkerStatus/WorkerHealth.Status strings but renamed for
// the Cost Tracker's worker activity labels (spec.md §4.9).
type WorkerStatus string

const (
	WorkerStatusIdle      WorkerStatus = "Waiting (idle)"
	WorkerStatusValidating WorkerStatus = "Validating"
	WorkerStatusError     WorkerStatus = "Error (retrying)"
)

// WorkerHealth reports one worker's current state.
type WorkerHealth struct {
	ID                  string `json:"id"`
	Status              string `json:"status"`
	PredictionsValidated int    `json:"predictions_validated"`
}

// PoolHealth reports the pool's aggregate state.
type PoolHealth struct {
	IsHealthy     bool           `json:"is_healthy"`
	TotalWorkers  int            `json:"total_workers"`
	WorkerStats   []WorkerHealth `json:"worker_stats"`
}
