// Package metrics exposes Prometheus metrics for events and jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lintgate"

// Metrics holds the collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal *prometheus.CounterVec
	JobsTotal   *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
	RunningJobs prometheus.Gauge
}

// New registers all collectors on a new registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Trigger events received, by kind and gate decision.",
		}, []string{"kind", "decision"}),
		JobsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished jobs by terminal status.",
		}, []string{"status"}),
		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock job duration by terminal status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"status"}),
		RunningJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "running_jobs",
			Help:      "Jobs currently executing.",
		}),
	}
}

// ObserveEvent counts a gated event
func (m *Metrics) ObserveEvent(kind types.EventKind, matched bool) {
	decision := "skipped"
	if matched {
		decision = "matched"
	}
	m.EventsTotal.WithLabelValues(string(kind), decision).Inc()
}

// ObserveJob records a finished job
func (m *Metrics) ObserveJob(status types.JobStatus, d time.Duration) {
	m.JobsTotal.WithLabelValues(string(status)).Inc()
	m.JobDuration.WithLabelValues(string(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
