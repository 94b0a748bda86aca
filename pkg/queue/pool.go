package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/predictval/predictval/pkg/cost"
	"github.com/predictval/predictval/pkg/pipeline"
	"github.com/predictval/predictval/pkg/store"
)

// WorkerPool manages a fixed-size pool of queue workers, following
// codeready-toolchain-tarsy's queue.WorkerPool shape.
type WorkerPool struct {
	pool    *pgxpool.Pool
	leaser  *store.PredictionStore
	results *store.ValidationResultStore
	costLog *store.CostLogStore
	tracker *cost.Tracker
	p       *pipeline.Pipeline
	cfg     Config

	workers      []*Worker
	stopOnce     sync.Once
	started      bool
	snapshotDone chan struct{}
}

// NewWorkerPool builds a WorkerPool.
func NewWorkerPool(pool *pgxpool.Pool, leaser *store.PredictionStore, results *store.ValidationResultStore, costLog *store.CostLogStore, tracker *cost.Tracker, p *pipeline.Pipeline, cfg Config) *WorkerPool {
	return &WorkerPool{
		pool:    pool,
		leaser:  leaser,
		results: results,
		costLog: costLog,
		tracker: tracker,
		p:       p,
		cfg:     cfg,
		workers: make([]*Worker, 0, cfg.WorkerCount),
	}
}

// Start spawns cfg.WorkerCount worker goroutines. Safe to call multiple
// times; subsequent calls are no-ops.
func (wp *WorkerPool) Start(ctx context.Context) {
	if wp.started {
		slog.Warn("worker pool already started, ignoring duplicate Start call")
		return
	}
	wp.started = true

	slog.Info("starting worker pool", "worker_count", wp.cfg.WorkerCount)
	for i := 0; i < wp.cfg.WorkerCount; i++ {
		workerID := fmt.Sprintf("worker-%d", i)
		worker := NewWorker(workerID, wp.pool, wp.leaser, wp.results, wp.costLog, wp.tracker, wp.p, wp.cfg)
		wp.workers = append(wp.workers, worker)
		worker.Start(ctx)
	}

	if wp.cfg.CostSnapshotPeriod > 0 {
		wp.snapshotDone = make(chan struct{})
		go wp.logCostSnapshots(ctx)
	}

	slog.Info("worker pool started")
}

// logCostSnapshots periodically logs the Cost Tracker's snapshot,
// reusing the teacher's periodic-ticker background-task shape
// (orphan.go) for Cost Tracker telemetry instead of orphan sweeps.
func (wp *WorkerPool) logCostSnapshots(ctx context.Context) {
	ticker := time.NewTicker(wp.cfg.CostSnapshotPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap := wp.tracker.Snapshot()
			slog.Info("cost snapshot",
				"session_validated", snap.SessionValidated,
				"search_cost_usd", snap.SearchCostUSD,
				"llm_cost_usd", snap.LLMCostUSD,
				"total_cost_usd", snap.TotalCostUSD,
			)
		case <-wp.snapshotDone:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop signals every worker to finish its current validation, if any,
// and exit, then waits for all of them.
func (wp *WorkerPool) Stop() {
	slog.Info("stopping worker pool gracefully")
	wp.stopOnce.Do(func() {
		if wp.snapshotDone != nil {
			close(wp.snapshotDone)
		}
		for _, w := range wp.workers {
			w.Stop()
		}
	})
	slog.Info("worker pool stopped gracefully")
}

// Health aggregates per-worker health into a pool-wide status.
func (wp *WorkerPool) Health() *PoolHealth {
	stats := make([]WorkerHealth, len(wp.workers))
	for i, w := range wp.workers {
		stats[i] = w.Health()
	}
	return &PoolHealth{
		IsHealthy:    len(wp.workers) > 0,
		TotalWorkers: len(wp.workers),
		WorkerStats:  stats,
	}
}
