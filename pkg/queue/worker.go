package queue

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictval/predictval/pkg/cost"
	"github.com/predictval/predictval/pkg/pipeline"
	"github.com/predictval/predictval/pkg/store"
)

// Worker is a single queue worker that leases matured predictions and
// runs them through the Validator Pipeline, following
// codeready-toolchain-tarsy's queue.Worker session-polling shape.
type Worker struct {
	id      string
	pool    *pgxpool.Pool
	leaser  *store.PredictionStore
	results *store.ValidationResultStore
	costLog *store.CostLogStore
	tracker *cost.Tracker
	p       *pipeline.Pipeline
	cfg     Config

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu                   sync.RWMutex
	status               WorkerStatus
	predictionsValidated int
}

// NewWorker builds a queue worker.
func NewWorker(id string, pool *pgxpool.Pool, leaser *store.PredictionStore, results *store.ValidationResultStore, costLog *store.CostLogStore, tracker *cost.Tracker, p *pipeline.Pipeline, cfg Config) *Worker {
	return &Worker{
		id:      id,
		pool:    pool,
		leaser:  leaser,
		results: results,
		costLog: costLog,
		tracker: tracker,
		p:       p,
		cfg:     cfg,
		stopCh:  make(chan struct{}),
		status:  WorkerStatusIdle,
	}
}

// Start begins the worker's polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for its current validation,
// if any, to finish. Safe to call multiple times.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns the worker's current health snapshot.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{ID: w.id, Status: string(w.status), PredictionsValidated: w.predictionsValidated}
}

// run is the main worker loop (spec.md §4.10).
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id)
	log.Info("worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoPredictionsAvailable) {
					w.setStatus(WorkerStatusIdle)
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("validation error", "error", err)
				w.setStatus(WorkerStatusError)
				w.sleep(5 * time.Second)
			}
		}
	}
}

// sleep waits for the given duration or until stop is signalled.
func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess implements spec.md §4.10's per-iteration sequence: lease
// within a transaction, run the Pipeline (which persists before the
// transaction commits), commit, then fold the result into the Cost
// Tracker and cost log.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lp, err := w.leaser.Lease(ctx, tx, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNoPredictionsAvailable) {
			_ = tx.Commit(ctx)
			return ErrNoPredictionsAvailable
		}
		return err
	}

	log := slog.With("worker_id", w.id, "prediction_id", lp.Prediction.ID)
	log.Info("prediction leased")

	w.setStatus(WorkerStatusValidating)

	outcome, err := w.p.Run(ctx, tx, lp)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	predictionContext := ""
	if lp.Details.PredictionContext != nil {
		predictionContext = *lp.Details.PredictionContext
	}
	entry := outcome.ToCostLogEntry(predictionContext, time.Now().UTC())
	w.tracker.Record(entry)
	w.costLog.Append(entry)

	w.mu.Lock()
	w.predictionsValidated++
	w.mu.Unlock()

	log.Info("prediction validated", "outcome", outcome.Result.Outcome)
	return nil
}

// pollInterval returns the poll duration with jitter, following the
// teacher's rand.Int64N jittering idiom.
func (w *Worker) pollInterval() time.Duration {
	base := w.cfg.PollInterval
	jitter := w.cfg.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

func (w *Worker) setStatus(status WorkerStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.tracker.MarkWorker(w.id, string(status), status == WorkerStatusValidating)
}
