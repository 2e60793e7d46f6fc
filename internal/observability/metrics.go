package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Run outcome labels.
const (
	OutcomeSuccess       = "success"
	OutcomeInputError    = "input_error"
	OutcomeExternalError = "external_error"
	OutcomeCatalogError  = "catalog_error"
	OutcomeCancelled     = "cancelled"
	OutcomeInternalError = "internal_error"
)

// Metrics holds the in-process performance metrics of the planning service.
type Metrics struct {
	// Catalog metrics
	dbQueryDuration *HistogramVec

	// Planner metrics
	runDuration       *Histogram
	stageDuration     *HistogramVec
	proposalLatency   *HistogramVec
	runs              *CounterVec
	activeRuns        *AtomicGauge
	skippedCandidates *Counter
	overloadedPlans   *Counter
	unplacedTasks     *Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics() *Metrics {
	return &Metrics{
		dbQueryDuration: NewHistogramVec(),

		runDuration:       NewHistogram(),
		stageDuration:     NewHistogramVec(),
		proposalLatency:   NewHistogramVec(),
		runs:              NewCounterVec(),
		activeRuns:        NewAtomicGauge(),
		skippedCandidates: NewCounter(),
		overloadedPlans:   NewCounter(),
		unplacedTasks:     NewCounter(),
	}
}

func (m *Metrics) DBQueryDuration() *HistogramVec { return m.dbQueryDuration }
func (m *Metrics) RunDuration() *Histogram        { return m.runDuration }
func (m *Metrics) StageDuration() *HistogramVec   { return m.stageDuration }
func (m *Metrics) ProposalLatency() *HistogramVec { return m.proposalLatency }
func (m *Metrics) Runs() *CounterVec              { return m.runs }
func (m *Metrics) ActiveRuns() *AtomicGauge       { return m.activeRuns }
func (m *Metrics) SkippedCandidates() *Counter    { return m.skippedCandidates }
func (m *Metrics) OverloadedPlans() *Counter      { return m.overloadedPlans }
func (m *Metrics) UnplacedTasks() *Counter        { return m.unplacedTasks }

// Snapshot returns a snapshot of all metrics for reporting.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		DBQueryDuration:   m.dbQueryDuration.Snapshot(),
		RunDuration:       m.runDuration.Snapshot(),
		StageDuration:     m.stageDuration.Snapshot(),
		ProposalLatency:   m.proposalLatency.Snapshot(),
		Runs:              m.runs.Snapshot(),
		ActiveRuns:        m.activeRuns.Get(),
		SkippedCandidates: m.skippedCandidates.Get(),
		OverloadedPlans:   m.overloadedPlans.Get(),
		UnplacedTasks:     m.unplacedTasks.Get(),
	}
}

// MetricsSnapshot holds a point-in-time snapshot of all metrics.
type MetricsSnapshot struct {
	DBQueryDuration   map[string]HistogramSnapshot `json:"db_query_duration"`
	RunDuration       HistogramSnapshot            `json:"run_duration"`
	StageDuration     map[string]HistogramSnapshot `json:"stage_duration"`
	ProposalLatency   map[string]HistogramSnapshot `json:"proposal_latency"`
	Runs              map[string]int64             `json:"runs"`
	ActiveRuns        int64                        `json:"active_runs"`
	SkippedCandidates int64                        `json:"skipped_candidates"`
	OverloadedPlans   int64                        `json:"overloaded_plans"`
	UnplacedTasks     int64                        `json:"unplaced_tasks"`
}

// maxSamples bounds the memory a single histogram holds.
const maxSamples = 4096

// Histogram tracks the distribution of duration measurements.
// Thread-safe for concurrent observations. Only the most recent maxSamples
// observations are kept.
type Histogram struct {
	mu     sync.RWMutex
	values []float64 // Stored in microseconds for precision
	next   int
	total  int
}

// NewHistogram creates a new histogram.
func NewHistogram() *Histogram {
	return &Histogram{
		values: make([]float64, 0, 256),
	}
}

// Observe records a duration measurement.
func (h *Histogram) Observe(d time.Duration) {
	micros := float64(d.Microseconds())
	h.mu.Lock()
	if len(h.values) < maxSamples {
		h.values = append(h.values, micros)
	} else {
		h.values[h.next] = micros
		h.next = (h.next + 1) % maxSamples
	}
	h.total++
	h.mu.Unlock()
}

// Since records the time elapsed since start.
func (h *Histogram) Since(start time.Time) {
	h.Observe(time.Since(start))
}

// Snapshot returns a point-in-time snapshot with percentiles calculated.
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.values) == 0 {
		return HistogramSnapshot{}
	}

	sorted := make([]float64, len(h.values))
	copy(sorted, h.values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	return HistogramSnapshot{
		Count: h.total,
		Mean:  time.Duration(mean) * time.Microsecond,
		P50:   time.Duration(percentile(sorted, 0.50)) * time.Microsecond,
		P95:   time.Duration(percentile(sorted, 0.95)) * time.Microsecond,
		P99:   time.Duration(percentile(sorted, 0.99)) * time.Microsecond,
		Max:   time.Duration(sorted[len(sorted)-1]) * time.Microsecond,
	}
}

// HistogramSnapshot holds calculated statistics for a histogram.
type HistogramSnapshot struct {
	Count int           `json:"count"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// percentile calculates the p-th percentile from sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))

	if lower == upper {
		return sorted[lower]
	}

	// Linear interpolation
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// HistogramVec is a collection of histograms keyed by label.
type HistogramVec struct {
	mu         sync.RWMutex
	histograms map[string]*Histogram
}

// NewHistogramVec creates a new histogram vector.
func NewHistogramVec() *HistogramVec {
	return &HistogramVec{
		histograms: make(map[string]*Histogram),
	}
}

// WithLabels returns the histogram for the given label, creating it if needed.
func (hv *HistogramVec) WithLabels(labels string) *Histogram {
	hv.mu.RLock()
	h, ok := hv.histograms[labels]
	hv.mu.RUnlock()

	if ok {
		return h
	}

	hv.mu.Lock()
	defer hv.mu.Unlock()

	// Double-check after acquiring write lock
	if h, ok := hv.histograms[labels]; ok {
		return h
	}

	h = NewHistogram()
	hv.histograms[labels] = h
	return h
}

// Snapshot returns snapshots of all histograms.
func (hv *HistogramVec) Snapshot() map[string]HistogramSnapshot {
	hv.mu.RLock()
	defer hv.mu.RUnlock()

	snapshot := make(map[string]HistogramSnapshot, len(hv.histograms))
	for label, h := range hv.histograms {
		snapshot[label] = h.Snapshot()
	}
	return snapshot
}

// Counter is a monotonically increasing counter.
type Counter struct {
	value atomic.Int64
}

// NewCounter creates a new counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds the given value to the counter.
func (c *Counter) Add(delta int64) {
	c.value.Add(delta)
}

// Get returns the current value.
func (c *Counter) Get() int64 {
	return c.value.Load()
}

// CounterVec is a collection of counters keyed by label.
type CounterVec struct {
	mu       sync.RWMutex
	counters map[string]*Counter
}

// NewCounterVec creates a new counter vector.
func NewCounterVec() *CounterVec {
	return &CounterVec{
		counters: make(map[string]*Counter),
	}
}

// WithLabels returns the counter for the given label, creating it if needed.
func (cv *CounterVec) WithLabels(labels string) *Counter {
	cv.mu.RLock()
	c, ok := cv.counters[labels]
	cv.mu.RUnlock()

	if ok {
		return c
	}

	cv.mu.Lock()
	defer cv.mu.Unlock()

	if c, ok := cv.counters[labels]; ok {
		return c
	}

	c = NewCounter()
	cv.counters[labels] = c
	return c
}

// Snapshot returns the current values of all counters.
func (cv *CounterVec) Snapshot() map[string]int64 {
	cv.mu.RLock()
	defer cv.mu.RUnlock()

	snapshot := make(map[string]int64, len(cv.counters))
	for label, c := range cv.counters {
		snapshot[label] = c.Get()
	}
	return snapshot
}

// AtomicGauge is a gauge that can be set and read atomically.
type AtomicGauge struct {
	value atomic.Int64
}

// NewAtomicGauge creates a new atomic gauge.
func NewAtomicGauge() *AtomicGauge {
	return &AtomicGauge{}
}

func (g *AtomicGauge) Set(val int64) { g.value.Store(val) }
func (g *AtomicGauge) Inc()          { g.value.Add(1) }
func (g *AtomicGauge) Dec()          { g.value.Add(-1) }
func (g *AtomicGauge) Get() int64    { return g.value.Load() }

// ServeHTTP implements http.Handler for metrics exposition.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := m.Snapshot()

	format := r.URL.Query().Get("format")
	if format == "json" || r.Header.Get("Accept") == "application/json" {
		w.Header().Set("Content-Type", "application/json")
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		encoder.Encode(snapshot)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	snapshot.WriteText(w)
}

// WriteText renders the snapshot in a human-readable form.
func (s *MetricsSnapshot) WriteText(w io.Writer) {
	fmt.Fprintf(w, "# Weekplan Metrics\n\n")

	fmt.Fprintf(w, "## Planner\n\n")
	writeHistogramSummary(w, "Run Duration", s.RunDuration)
	fmt.Fprintf(w, "Active Runs: %d\n", s.ActiveRuns)
	fmt.Fprintf(w, "Skipped Candidates: %d\n", s.SkippedCandidates)
	fmt.Fprintf(w, "Overloaded Plans: %d\n", s.OverloadedPlans)
	fmt.Fprintf(w, "Unplaced Tasks: %d\n\n", s.UnplacedTasks)

	writeCounterSection(w, "Runs by outcome", s.Runs)
	writeHistogramSection(w, "Stage Duration by stage", s.StageDuration)
	writeHistogramSection(w, "Proposal Latency by outcome", s.ProposalLatency)

	fmt.Fprintf(w, "## Catalog\n\n")
	writeHistogramSection(w, "Query Duration by query", s.DBQueryDuration)
}

func writeCounterSection(w io.Writer, title string, counters map[string]int64) {
	if len(counters) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, label := range sortedKeys(counters) {
		fmt.Fprintf(w, "  %s: %d\n", label, counters[label])
	}
	fmt.Fprintf(w, "\n")
}

func writeHistogramSection(w io.Writer, title string, hists map[string]HistogramSnapshot) {
	if len(hists) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, label := range sortedKeys(hists) {
		fmt.Fprintf(w, "  %s:\n", label)
		writeHistogramSummaryIndented(w, hists[label])
	}
	fmt.Fprintf(w, "\n")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeHistogramSummary(w io.Writer, name string, h HistogramSnapshot) {
	if h.Count == 0 {
		fmt.Fprintf(w, "%s: no data\n", name)
		return
	}
	fmt.Fprintf(w, "%s (n=%d):\n", name, h.Count)
	fmt.Fprintf(w, "  Mean: %v, P50: %v, P95: %v, P99: %v, Max: %v\n",
		h.Mean, h.P50, h.P95, h.P99, h.Max)
}

func writeHistogramSummaryIndented(w io.Writer, h HistogramSnapshot) {
	if h.Count == 0 {
		fmt.Fprintf(w, "    no data\n")
		return
	}
	fmt.Fprintf(w, "    Count: %d, Mean: %v, P50: %v, P95: %v, P99: %v, Max: %v\n",
		h.Count, h.Mean, h.P50, h.P95, h.P99, h.Max)
}
