package metric

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Query outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
	OutcomeCached   = "cached"
)

// Registry holds all application metrics.
//
// A nil *Registry is valid; every method is a no-op on it.
type Registry struct {
	registry *prometheus.Registry

	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	DegradedTotal *prometheus.CounterVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	ForksTotal    prometheus.Counter
}

// NewRegistry creates a registry with all netverify metrics registered.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		QueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netverify",
			Subsystem: "query",
			Name:      "executions_total",
			Help:      "Query executions by query name and outcome",
		}, []string{"query", "outcome"}),

		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "netverify",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Engine round-trip latency of query executions",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"query"}),

		DegradedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netverify",
			Name:      "degraded_total",
			Help:      "Operations that returned an empty result after an engine failure",
		}, []string{"operation"}),

		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netverify",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Result cache hits",
		}),

		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netverify",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Result cache misses",
		}),

		ForksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netverify",
			Subsystem: "snapshot",
			Name:      "forks_total",
			Help:      "Snapshots forked with deactivated nodes or interfaces",
		}),
	}

	r.registry.MustRegister(
		r.QueriesTotal,
		r.QueryDuration,
		r.DegradedTotal,
		r.CacheHits,
		r.CacheMisses,
		r.ForksTotal,
		collectors.NewGoCollector(),
	)

	return r
}

// Registerer returns the underlying registerer for additional collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveQuery records one query execution.
func (r *Registry) ObserveQuery(query, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.QueriesTotal.WithLabelValues(query, outcome).Inc()
	if outcome != OutcomeCached {
		r.QueryDuration.WithLabelValues(query).Observe(d.Seconds())
	}
}

// Degraded records a soft-degraded operation.
func (r *Registry) Degraded(operation string) {
	if r == nil {
		return
	}
	r.DegradedTotal.WithLabelValues(operation).Inc()
}

// CacheHit records a result cache hit.
func (r *Registry) CacheHit() {
	if r == nil {
		return
	}
	r.CacheHits.Inc()
}

// CacheMiss records a result cache miss.
func (r *Registry) CacheMiss() {
	if r == nil {
		return
	}
	r.CacheMisses.Inc()
}

// Forked records a snapshot fork.
func (r *Registry) Forked() {
	if r == nil {
		return
	}
	r.ForksTotal.Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is replaced atomically.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
