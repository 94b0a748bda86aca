package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/predictval/predictval/pkg/model"
)

// CostLogStore appends CostLogEntry records to a JSONL file after a
// validation's transaction commits (spec.md §3, §6). Best-effort: a write
// failure is logged, not propagated, since the validation itself already
// succeeded.
type CostLogStore struct {
	mu   sync.Mutex
	path string
}

// NewCostLogStore builds a CostLogStore for the file at path. Nothing is
// opened here; Append opens the file, creating it if absent, on each call.
func NewCostLogStore(path string) *CostLogStore {
	return &CostLogStore{path: path}
}

// Append writes one CostLogEntry as a JSON line.
func (s *CostLogStore) Append(entry model.CostLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("cost log: open failed", "path", s.path, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	data, err := json.Marshal(entry)
	if err != nil {
		slog.Warn("cost log: marshal failed", "error", err)
		return
	}
	if _, err := fmt.Fprintln(f, string(data)); err != nil {
		slog.Warn("cost log: write failed", "path", s.path, "error", err)
	}
}

// ReplayHistorical reads every well-formed line of the cost log and
// invokes fn for each, skipping and logging corrupt lines rather than
// aborting — used at startup to seed the Cost Tracker's historical
// counters.
func ReplayHistorical(path string, fn func(model.CostLogEntry)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open cost log: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry model.CostLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			slog.Warn("cost log: skipping corrupt line", "error", err)
			continue
		}
		fn(entry)
	}
	return scanner.Err()
}
