// Package metrics provides self-instrumentation for the check engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pulsewatch"

// ProviderSet is metrics providers.
var ProviderSet = wire.NewSet(
	NewPrometheusCollector,
	wire.Bind(new(Collector), new(*PrometheusCollector)),
)

// Collector defines the interface for recording engine observations
type Collector interface {
	// RunStarted records that a batch run has started
	RunStarted()

	// RunCompleted records a finished batch run and its duration
	RunCompleted(duration time.Duration)

	// ProbeCompleted records one produced check result
	ProbeCompleted(service, serviceType, status string, seconds float64)

	// AlertSent records an alert dispatch outcome
	AlertSent(ok bool)

	// Handler returns the HTTP handler for exposing metrics
	Handler() http.Handler
}

// PrometheusCollector is a Prometheus implementation of the Collector
// interface. It registers on a private registry so tests and one-shot
// processes can build collectors independently.
type PrometheusCollector struct {
	registry *prometheus.Registry

	runsTotal     prometheus.Counter
	runDuration   prometheus.Histogram
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	alertsTotal   *prometheus.CounterVec
}

// NewPrometheusCollector creates a new PrometheusCollector
func NewPrometheusCollector() *PrometheusCollector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &PrometheusCollector{
		registry: registry,

		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of batch runs started",
		}),

		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Batch run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
		}),

		probesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probes_total",
				Help:      "Total number of produced check results",
			},
			[]string{"service", "type", "status"},
		),

		probeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Probe sequence duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"service"},
		),

		alertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_total",
				Help:      "Total number of alert dispatch attempts",
			},
			[]string{"outcome"},
		),
	}
}

// RunStarted records that a batch run has started
func (c *PrometheusCollector) RunStarted() {
	c.runsTotal.Inc()
}

// RunCompleted records a finished batch run and its duration
func (c *PrometheusCollector) RunCompleted(duration time.Duration) {
	c.runDuration.Observe(duration.Seconds())
}

// ProbeCompleted records one produced check result
func (c *PrometheusCollector) ProbeCompleted(service, serviceType, status string, seconds float64) {
	c.probesTotal.WithLabelValues(service, serviceType, status).Inc()
	c.probeDuration.WithLabelValues(service).Observe(seconds)
}

// AlertSent records an alert dispatch outcome
func (c *PrometheusCollector) AlertSent(ok bool) {
	outcome := "error"
	if ok {
		outcome = "sent"
	}
	c.alertsTotal.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler exposing the private registry
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// NopCollector discards every observation. Used by one-shot mode and tests.
type NopCollector struct{}

// RunStarted is a no-op
func (NopCollector) RunStarted() {}

// RunCompleted is a no-op
func (NopCollector) RunCompleted(duration time.Duration) {}

// ProbeCompleted is a no-op
func (NopCollector) ProbeCompleted(service, serviceType, status string, seconds float64) {}

// AlertSent is a no-op
func (NopCollector) AlertSent(ok bool) {}

// Handler returns a handler that reports metrics collection as disabled
func (NopCollector) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("metrics collection is disabled\n"))
	})
}
