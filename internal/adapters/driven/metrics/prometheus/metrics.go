// Package prometheus implements driven.RunMetrics on top of the Prometheus
// client library and exposes the registry over HTTP.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/glowbox/internal/core/domain"
	"github.com/custodia-labs/glowbox/internal/core/ports/driven"
)

// Ensure Metrics implements the interface.
var _ driven.RunMetrics = (*Metrics)(nil)

const namespace = "glowbox"

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
)

// Metrics records delta run and job instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	EntriesSeen    prometheus.Counter
	EntriesSkipped *prometheus.CounterVec
	JobsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	JobDuration    prometheus.Histogram
	JobsActive     prometheus.Gauge
}

// New creates metrics registered on a fresh registry that also carries
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of delta runs by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		EntriesSeen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_seen_total",
			Help:      "Total number of listing entries inspected",
		}),
		EntriesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_skipped_total",
			Help:      "Total number of listing entries skipped by reason",
		}, []string{"reason"}),
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of enhancement jobs by outcome",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time taken by a delta run",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 14),
		}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time taken to download, enhance and upload one file",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		JobsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Number of jobs currently executing",
		}),
	}

	for _, reason := range domain.SkipReasons {
		m.EntriesSkipped.WithLabelValues(string(reason))
	}
	m.JobsTotal.WithLabelValues(OutcomeSuccess)
	m.JobsTotal.WithLabelValues(OutcomeFailure)

	return m
}

// JobStarted increments the active job gauge.
func (m *Metrics) JobStarted() { m.JobsActive.Inc() }

// JobFinished records a job outcome and its duration.
func (m *Metrics) JobFinished(success bool, elapsed time.Duration) {
	m.JobsActive.Dec()
	m.JobDuration.Observe(elapsed.Seconds())
	if success {
		m.JobsTotal.WithLabelValues(OutcomeSuccess).Inc()
	} else {
		m.JobsTotal.WithLabelValues(OutcomeFailure).Inc()
	}
}

// RunFinished records the run outcome and its scan counts.
func (m *Metrics) RunFinished(summary *domain.RunSummary, err error) {
	if summary == nil {
		return
	}

	m.RunsTotal.WithLabelValues(string(summary.Trigger), outcome(err)).Inc()
	m.RunDuration.Observe(summary.Duration.Seconds())
	m.EntriesSeen.Add(float64(summary.EntriesSeen))
	for reason, n := range summary.Skipped {
		if n > 0 {
			m.EntriesSkipped.WithLabelValues(string(reason)).Add(float64(n))
		}
	}
}

// RunRejected counts a trigger that arrived while another run was executing.
func (m *Metrics) RunRejected(trigger domain.Trigger) {
	m.RunsTotal.WithLabelValues(string(trigger), OutcomeBusy).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
