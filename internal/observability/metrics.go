package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics is the in-process registry for the engine's operational counters.
// It renders in Prometheus text format so any scraper can consume /metrics
// without pulling a client library into the engine.
type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	lifecycleOps *HistogramVec
	conflicts    *CounterVec

	scoreEvaluations   *Counter
	visibilityFiltered *Counter
	pressureReadings   *CounterVec
	pricingBands       *CounterVec
	awards             *Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("sourcing_api_requests_total", "API requests by route/method/status.",
			[]string{"route", "method", "status"}),
		apiLatency: NewHistogramVec("sourcing_api_latency_seconds", "API request latency.",
			[]string{"route"}, nil),
		lifecycleOps: NewHistogramVec("sourcing_lifecycle_operation_seconds", "Bid lifecycle operation latency by op/status.",
			[]string{"op", "status"}, nil),
		conflicts: NewCounterVec("sourcing_lifecycle_conflicts_total", "Lifecycle compare-and-set conflicts by op.",
			[]string{"op"}),
		scoreEvaluations:   NewCounter("sourcing_score_evaluations_total", "Eligibility score computations."),
		visibilityFiltered: NewCounter("sourcing_visibility_filtered_total", "Suppliers filtered out of visibility feeds."),
		pressureReadings: NewCounterVec("sourcing_pressure_readings_total", "Market pressure readings by label.",
			[]string{"label"}),
		pricingBands: NewCounterVec("sourcing_pricing_recommendations_total", "Pricing recommendations by band/basis.",
			[]string{"band", "basis"}),
		awards: NewCounter("sourcing_awards_total", "Successful bid awards."),
	}
}

func (m *Metrics) IncAPIRequest(route, method, status string) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(route, method, status)
}

func (m *Metrics) ObserveAPILatency(route string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiLatency.Observe(dur.Seconds(), route)
}

func (m *Metrics) ObserveLifecycleOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.lifecycleOps.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncLifecycleConflict(op string) {
	if m == nil {
		return
	}
	m.conflicts.Inc(op)
}

func (m *Metrics) IncScoreEvaluation() {
	if m == nil {
		return
	}
	m.scoreEvaluations.Inc()
}

func (m *Metrics) IncVisibilityFiltered() {
	if m == nil {
		return
	}
	m.visibilityFiltered.Inc()
}

func (m *Metrics) IncPressureReading(label string) {
	if m == nil {
		return
	}
	m.pressureReadings.Inc(label)
}

func (m *Metrics) IncPricingRecommendation(band, basis string) {
	if m == nil {
		return
	}
	m.pricingBands.Inc(band, basis)
}

func (m *Metrics) IncAward() {
	if m == nil {
		return
	}
	m.awards.Inc()
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.lifecycleOps, m.conflicts,
		m.scoreEvaluations, m.visibilityFiltered, m.pressureReadings,
		m.pricingBands, m.awards,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, c.values[k]); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{
			buckets: h.buckets,
			counts:  make([]uint64, len(h.buckets)+1),
		}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range hist.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(hist.counts)-1]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for k, v := range h.values {
		for i, b := range v.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), v.counts[len(v.counts)-1]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, k, v.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, n := range names {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s=%q", n, v)
	}
	b.WriteString("}")
	return b.String()
}

func withLe(labels, le string) string {
	if labels == "" {
		return fmt.Sprintf("{le=%q}", le)
	}
	return strings.TrimSuffix(labels, "}") + fmt.Sprintf(",le=%q}", le)
}
