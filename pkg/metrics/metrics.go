// Package metrics owns the Prometheus registry and the collectors recorded
// by the classifier service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "verdict"

// Metrics holds an isolated registry and the service collectors.
// Each instance registers its own collectors, so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	// Labels: category
	learnDocuments *prometheus.CounterVec
	categorized    prometheus.Counter
	// Labels: operation (learn, categorize, create, restore), reason
	batchFailures   *prometheus.CounterVec
	persistConflict prometheus.Counter
	// Labels: method, status
	requestDuration *prometheus.HistogramVec
}

// New creates a registry with Go runtime and process collectors plus the service metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		learnDocuments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "learn_documents_total",
				Help:      "Documents learned, by category",
			},
			[]string{"category"},
		),
		categorized: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "categorize_total",
				Help:      "Texts categorized",
			},
		),
		batchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_failures_total",
				Help:      "Classifier operations that failed, by operation and reason",
			},
			[]string{"operation", "reason"},
		),
		persistConflict: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_conflicts_total",
				Help:      "Version conflicts detected while persisting classifier state",
			},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "status"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) LearnedDocuments(category string, n int) {
	m.learnDocuments.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) Categorized(n int) {
	m.categorized.Add(float64(n))
}

func (m *Metrics) BatchFailure(operation, reason string) {
	m.batchFailures.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) PersistConflict() {
	m.persistConflict.Inc()
}

// ObserveRequest records the duration of a completed HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	m.requestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}
