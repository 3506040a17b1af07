// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid: every method is a no-op, so instrumentation
// stays optional in library code.
type Metrics struct {
	// Backtest metrics
	DaysEvaluated   prometheus.Counter
	TradesSimulated prometheus.Counter
	RunsTotal       prometheus.Counter
	RunDuration     prometheus.Histogram

	// LLM scorer metrics
	LLMCallsTotal    prometheus.Counter
	LLMCallFailures  *prometheus.CounterVec
	LLMCallLatency   prometheus.Histogram
	LLMTokensTotal   prometheus.Counter
	AuditRecordsSunk prometheus.Counter

	registry *prometheus.Registry
}

// New creates Metrics registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		DaysEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "backtest_days_evaluated_total",
			Help: "Total evaluation days processed across all runs.",
		}),
		TradesSimulated: factory.NewCounter(prometheus.CounterOpts{
			Name: "backtest_trades_simulated_total",
			Help: "Total trade records created.",
		}),
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Total backtest runs completed.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall-clock duration of backtest runs.",
			Buckets: prometheus.DefBuckets,
		}),
		LLMCallsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Total LLM scoring calls attempted.",
		}),
		LLMCallFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_call_failures_total",
			Help: "LLM scoring failures by error tag.",
		}, []string{"reason"}),
		LLMCallLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "llm_call_latency_seconds",
			Help:    "Latency of LLM scoring calls.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		LLMTokensTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total tokens consumed by LLM scoring calls.",
		}),
		AuditRecordsSunk: factory.NewCounter(prometheus.CounterOpts{
			Name: "llm_audit_records_total",
			Help: "Audit records written for LLM calls.",
		}),
		registry: reg,
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunTimer measures a single backtest run.
type RunTimer struct {
	metrics *Metrics
	start   time.Time
}

// StartRun begins timing a run. Safe on nil.
func (m *Metrics) StartRun() *RunTimer {
	return &RunTimer{metrics: m, start: time.Now()}
}

// Done records the run duration. Safe on nil receiver or nil metrics.
func (t *RunTimer) Done() {
	if t == nil || t.metrics == nil {
		return
	}
	t.metrics.RunDuration.Observe(time.Since(t.start).Seconds())
	t.metrics.RunsTotal.Inc()
}

// ObserveRun records per-run totals. Safe on nil.
func (m *Metrics) ObserveRun(daysEvaluated, trades int) {
	if m == nil {
		return
	}
	m.DaysEvaluated.Add(float64(daysEvaluated))
	m.TradesSimulated.Add(float64(trades))
}

// ObserveLLMCall records one LLM call attempt. Safe on nil.
func (m *Metrics) ObserveLLMCall(latency time.Duration, tokens int) {
	if m == nil {
		return
	}
	m.LLMCallsTotal.Inc()
	m.LLMCallLatency.Observe(latency.Seconds())
	m.LLMTokensTotal.Add(float64(tokens))
}

// ObserveLLMFailure records a failed LLM call by reason tag. Safe on nil.
func (m *Metrics) ObserveLLMFailure(reason string) {
	if m == nil {
		return
	}
	m.LLMCallFailures.WithLabelValues(reason).Inc()
}

// ObserveAuditRecord counts one audit record sunk. Safe on nil.
func (m *Metrics) ObserveAuditRecord() {
	if m == nil {
		return
	}
	m.AuditRecordsSunk.Inc()
}
