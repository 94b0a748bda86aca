package queue

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Supervisor starts the worker pool and installs the two termination
// signal handlers named in spec.md §4.11: on SIGINT/SIGTERM, workers
// finish the prediction they are processing, then exit; the supervisor
// awaits all and returns. Grounded in
// correlator-io-correlator/internal/api/server.go's
// signal.Notify+select graceful-shutdown pattern, generalized from
// draining an HTTP server to draining a worker pool.
type Supervisor struct {
	pool *WorkerPool
}

// NewSupervisor builds a Supervisor over an already-constructed
// WorkerPool.
func NewSupervisor(pool *WorkerPool) *Supervisor {
	return &Supervisor{pool: pool}
}

// Run starts the worker pool and blocks until a termination signal is
// received or ctx is cancelled, then drains the pool before returning.
func (s *Supervisor) Run(ctx context.Context) {
	s.pool.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		slog.Info("shutdown signal received, draining workers", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("context cancelled, draining workers")
	}

	s.pool.Stop()
	slog.Info("supervisor exiting")
}
