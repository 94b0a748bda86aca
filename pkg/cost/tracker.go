// Package cost implements the Cost Tracker (spec.md §4.9): a
// process-global component holding session and historical counters,
// per-worker activity state, and derived USD cost. Internal state is
// guarded by a sync.RWMutex, following
// codeready-toolchain-tarsy's queue.WorkerPool.mu /
// queue.orphanState.mu pattern.
package cost

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/predictval/predictval/pkg/model"
)

// searchCostPerCall and the LLM per-token rates implement the derived USD
// cost formulas from spec.md §4.9. The search rate is plan-specific.
const (
	searchCostPerCall  = 100.0 / 35000.0
	llmInputCostPerM   = 0.30
	llmOutputCostPerM  = 2.50
)

// counters is one counter set: session (since start-up) or historical
// (reloaded from the persisted cost log on start).
type counters struct {
	validated     int
	searchCalls   int
	inputTokens   int
	outputTokens  int
	byOutcome     map[model.Outcome]int
}

func newCounters() counters {
	return counters{byOutcome: make(map[model.Outcome]int)}
}

// WorkerActivity is one worker's last-reported state.
type WorkerActivity struct {
	Activity   string
	IsActive   bool
	LastUpdate time.Time
}

// Snapshot is the dashboard-facing, JSON-serializable view of the
// tracker's current state.
type Snapshot struct {
	StartedAt             time.Time                 `json:"started_at"`
	SessionValidated       int                       `json:"session_validated"`
	SessionSearchCalls     int                       `json:"session_search_api_calls"`
	SessionInputTokens     int                       `json:"session_input_tokens"`
	SessionOutputTokens    int                       `json:"session_output_tokens"`
	SessionByOutcome       map[model.Outcome]int      `json:"session_by_outcome"`
	HistoricalValidated    int                       `json:"historical_validated"`
	HistoricalSearchCalls  int                       `json:"historical_search_api_calls"`
	HistoricalInputTokens  int                       `json:"historical_input_tokens"`
	HistoricalOutputTokens int                       `json:"historical_output_tokens"`
	HistoricalByOutcome    map[model.Outcome]int      `json:"historical_by_outcome"`
	SearchCostUSD          float64                   `json:"search_cost_usd"`
	LLMCostUSD             float64                   `json:"llm_cost_usd"`
	TotalCostUSD           float64                   `json:"total_cost_usd"`
	Workers                map[string]WorkerActivity `json:"workers"`
}

// Tracker is the single process-wide Cost Tracker instance.
type Tracker struct {
	mu         sync.RWMutex
	startedAt  time.Time
	session    counters
	historical counters
	workers    map[string]WorkerActivity

	promValidated   *prometheus.CounterVec
	promSearchCalls prometheus.Counter
	promTokens      *prometheus.CounterVec
	promCostUSD     *prometheus.GaugeVec
}

// New builds a Tracker. Its historical counters start at zero; callers
// should call SeedHistorical (typically via store.ReplayHistorical)
// before serving traffic.
func New() *Tracker {
	t := &Tracker{
		startedAt:  time.Now().UTC(),
		session:    newCounters(),
		historical: newCounters(),
		workers:    make(map[string]WorkerActivity),
		promValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictval_validations_total",
			Help: "Total validated predictions by outcome, this process.",
		}, []string{"outcome"}),
		promSearchCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "predictval_search_api_calls_total",
			Help: "Total Search Adapter calls issued, this process.",
		}),
		promTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "predictval_llm_tokens_total",
			Help: "Total chat-completion tokens consumed, this process.",
		}, []string{"direction"}),
		promCostUSD: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "predictval_cost_usd",
			Help: "Derived USD cost, this process session.",
		}, []string{"component"}),
	}
	return t
}

// Collectors returns the Prometheus collectors to register on a registry,
// grounded in the jobloop package's prometheus.Collector counters
// (other_examples sapcc-keppel jobloop/tx_guarded.go).
func (t *Tracker) Collectors() []prometheus.Collector {
	return []prometheus.Collector{t.promValidated, t.promSearchCalls, t.promTokens, t.promCostUSD}
}

// SeedHistorical replays one CostLogEntry into the historical counter
// set, used at start-up before the first lease.
func (t *Tracker) SeedHistorical(entry model.CostLogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.historical.validated++
	t.historical.searchCalls += entry.SearchAPICalls
	t.historical.inputTokens += entry.TotalInputTokens
	t.historical.outputTokens += entry.TotalOutputTokens
	t.historical.byOutcome[entry.Outcome]++
}

// MarkWorker records a worker's current activity label.
func (t *Tracker) MarkWorker(workerID, activity string, isActive bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.workers[workerID] = WorkerActivity{Activity: activity, IsActive: isActive, LastUpdate: time.Now().UTC()}
}

// Record folds one completed validation's accounting into the session
// counters and Prometheus metrics. Called after the validation's
// transaction commits (spec.md §5).
func (t *Tracker) Record(entry model.CostLogEntry) {
	t.mu.Lock()
	t.session.validated++
	t.session.searchCalls += entry.SearchAPICalls
	t.session.inputTokens += entry.TotalInputTokens
	t.session.outputTokens += entry.TotalOutputTokens
	t.session.byOutcome[entry.Outcome]++
	sessionSearchUSD := float64(t.session.searchCalls) * searchCostPerCall
	sessionLLMUSD := float64(t.session.inputTokens)/1e6*llmInputCostPerM + float64(t.session.outputTokens)/1e6*llmOutputCostPerM
	t.mu.Unlock()

	t.promValidated.WithLabelValues(string(entry.Outcome)).Inc()
	t.promSearchCalls.Add(float64(entry.SearchAPICalls))
	t.promTokens.WithLabelValues("input").Add(float64(entry.TotalInputTokens))
	t.promTokens.WithLabelValues("output").Add(float64(entry.TotalOutputTokens))

	t.promCostUSD.WithLabelValues("search").Set(sessionSearchUSD)
	t.promCostUSD.WithLabelValues("llm").Set(sessionLLMUSD)
	t.promCostUSD.WithLabelValues("total").Set(sessionSearchUSD + sessionLLMUSD)
}

// Snapshot returns a value-type view of the tracker's current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	searchCalls := t.session.searchCalls + t.historical.searchCalls
	inputTokens := t.session.inputTokens + t.historical.inputTokens
	outputTokens := t.session.outputTokens + t.historical.outputTokens

	searchCostUSD := float64(searchCalls) * searchCostPerCall
	llmCostUSD := float64(inputTokens)/1e6*llmInputCostPerM + float64(outputTokens)/1e6*llmOutputCostPerM

	workers := make(map[string]WorkerActivity, len(t.workers))
	for k, v := range t.workers {
		workers[k] = v
	}

	return Snapshot{
		StartedAt:              t.startedAt,
		SessionValidated:       t.session.validated,
		SessionSearchCalls:     t.session.searchCalls,
		SessionInputTokens:     t.session.inputTokens,
		SessionOutputTokens:    t.session.outputTokens,
		SessionByOutcome:       copyOutcomeMap(t.session.byOutcome),
		HistoricalValidated:    t.historical.validated,
		HistoricalSearchCalls:  t.historical.searchCalls,
		HistoricalInputTokens:  t.historical.inputTokens,
		HistoricalOutputTokens: t.historical.outputTokens,
		HistoricalByOutcome:    copyOutcomeMap(t.historical.byOutcome),
		SearchCostUSD:          searchCostUSD,
		LLMCostUSD:             llmCostUSD,
		TotalCostUSD:           searchCostUSD + llmCostUSD,
		Workers:                workers,
	}
}

func copyOutcomeMap(m map[model.Outcome]int) map[model.Outcome]int {
	out := make(map[model.Outcome]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
