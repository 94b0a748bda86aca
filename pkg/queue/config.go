package queue

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config collects the Worker/Supervisor tunables, reconstructing
// codeready-toolchain-tarsy's pkg/config.QueueConfig for prediction
// leasing rather than session claiming.
type Config struct {
	WorkerCount        int
	PollInterval       time.Duration
	PollIntervalJitter time.Duration
	CostSnapshotPeriod time.Duration
}

// DefaultConfig mirrors the teacher's DefaultQueueConfig literal
// defaults, adjusted for this engine's worker count (spec.md §4.11:
// "default 10").
func DefaultConfig() Config {
	return Config{
		WorkerCount:        10,
		PollInterval:       10 * time.Second,
		PollIntervalJitter: 2 * time.Second,
		CostSnapshotPeriod: 5 * time.Minute,
	}
}

// LoadConfigFromEnv loads Worker/Supervisor configuration from the
// process environment, following pkg/database/config.go's
// getEnvOrDefault shape.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WORKER_COUNT: %w", err)
		}
		cfg.WorkerCount = n
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv("POLL_INTERVAL_JITTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid POLL_INTERVAL_JITTER: %w", err)
		}
		cfg.PollIntervalJitter = d
	}
	if v := os.Getenv("COST_SNAPSHOT_PERIOD"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COST_SNAPSHOT_PERIOD: %w", err)
		}
		cfg.CostSnapshotPeriod = d
	}

	if cfg.WorkerCount < 1 {
		return Config{}, fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	return cfg, nil
}
