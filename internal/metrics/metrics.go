// Package metrics exports Prometheus metrics for detective runs and
// evidence fetches.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// Run outcomes used as the "outcome" label of detective_runs_total.
const (
	OutcomeConverged     = "converged"
	OutcomeNoConvergence = "no_convergence"
	OutcomeCanceled      = "canceled"
	OutcomeError         = "error"
)

// Metrics holds the collectors of one registry. Use a single instance per
// process; tests create their own.
type Metrics struct {
	registry *prometheus.Registry

	runs              *prometheus.CounterVec
	runDuration       prometheus.Histogram
	passes            prometheus.Histogram
	detectiveRuns     *prometheus.CounterVec
	detectiveDuration *prometheus.HistogramVec
	rejected          *prometheus.CounterVec
	changes           *prometheus.CounterVec
	fetches           *prometheus.CounterVec
	fetchDuration     prometheus.Histogram
}

// New registers the detective collectors on a fresh registry, together with
// the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "detective_runs_total",
			Help: "Engine runs by outcome",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "detective_run_duration_seconds",
			Help:    "Engine run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		passes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "detective_run_passes",
			Help:    "Passes executed per run",
			Buckets: []float64{1, 2, 3, 5, 8, 10, 20},
		}),
		detectiveRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "detective_invocations_total",
			Help: "Detective invocations by detective and result",
		}, []string{"detective", "result"}),
		detectiveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "detective_invocation_duration_seconds",
			Help:    "Detective Analyze duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"detective"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "detective_proposals_rejected_total",
			Help: "Proposals refused before merge, by detective and reason",
		}, []string{"detective", "reason"}),
		changes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "detective_attribute_changes_total",
			Help: "Merges that changed an attribute, by attribute",
		}, []string{"attribute"}),
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "detective_evidence_fetches_total",
			Help: "Evidence fetches by result (data or empty)",
		}, []string{"result"}),
		fetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "detective_evidence_fetch_duration_seconds",
			Help:    "Evidence fetch duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnEvent makes Metrics a detective.Observer.
func (m *Metrics) OnEvent(e detective.Event) {
	switch e.Type {
	case detective.EventDetectiveDone:
		result := "ok"
		if e.Error != nil {
			result = "error"
		}
		m.detectiveRuns.WithLabelValues(e.Detective, result).Inc()
		m.detectiveDuration.WithLabelValues(e.Detective).Observe(e.Elapsed.Seconds())
	case detective.EventProposalRejected:
		m.rejected.WithLabelValues(e.Detective, e.Reason).Inc()
	case detective.EventMerge:
		for _, n := range e.Changed {
			m.changes.WithLabelValues(string(n)).Inc()
		}
	case detective.EventRunDone:
		m.finishRun(OutcomeConverged, e)
	case detective.EventRunError:
		m.finishRun(outcome(e.Error), e)
	}
}

func (m *Metrics) finishRun(outcome string, e detective.Event) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(e.Elapsed.Seconds())
	m.passes.Observe(float64(e.Pass))
}

func outcome(err error) string {
	switch {
	case errors.Is(err, detective.ErrNoConvergence):
		return OutcomeNoConvergence
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

// Instrument wraps src so that every fetch is counted and timed.
func (m *Metrics) Instrument(src detective.EvidenceSource) detective.EvidenceSource {
	return detective.EvidenceFunc(func(ctx context.Context, url string) string {
		start := time.Now()
		body := src.Get(ctx, url)
		m.fetchDuration.Observe(time.Since(start).Seconds())
		if body == "" {
			m.fetches.WithLabelValues("empty").Inc()
		} else {
			m.fetches.WithLabelValues("data").Inc()
		}
		return body
	})
}
