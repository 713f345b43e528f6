// Package metrics exposes resolution and cache statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/runnerr0/visited/internal/history"
)

// Metrics holds the collectors registered on its own registry.
// It implements history.Observer.
type Metrics struct {
	registry      *prometheus.Registry
	cacheSize     prometheus.Gauge
	resolutions   *prometheus.CounterVec
	resolvedURLs  *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	storeFailures *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "visited_cache_entries",
			Help: "Number of URLs held in the visit cache",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visited_resolutions_total",
			Help: "Total history resolutions by mode",
		}, []string{"mode"}),
		resolvedURLs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visited_resolved_urls_total",
			Help: "Total URLs submitted for resolution by mode",
		}, []string{"mode"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visited_resolution_duration_seconds",
			Help:    "Time spent resolving one batch of URLs",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"mode"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visited_store_failures_total",
			Help: "History store calls that failed and were treated as empty",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.cacheSize,
		m.resolutions,
		m.resolvedURLs,
		m.duration,
		m.storeFailures,
	)
	return m
}

// Registry returns the registry to serve from /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResolution counts a finished resolution.
func (m *Metrics) ObserveResolution(mode history.Mode, urls int, elapsed time.Duration) {
	m.resolutions.WithLabelValues(string(mode)).Inc()
	m.resolvedURLs.WithLabelValues(string(mode)).Add(float64(urls))
	m.duration.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

// ObserveStoreFailure counts a failed history store call.
func (m *Metrics) ObserveStoreFailure(op string) {
	m.storeFailures.WithLabelValues(op).Inc()
}

// SetCacheSize sets the cache entry gauge.
func (m *Metrics) SetCacheSize(n int) {
	m.cacheSize.Set(float64(n))
}

var _ history.Observer = (*Metrics)(nil)
