// Package metrics holds the Prometheus collectors for the practice service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RecordsSubmitted *prometheus.CounterVec
	CacheRequests    *prometheus.CounterVec
	Computation      *prometheus.HistogramVec
}

// New registers the collectors on reg. Tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "practice",
			Name:      "records_submitted_total",
			Help:      "Practice records submitted, by outcome.",
		}, []string{"result"}),
		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "practice",
			Name:      "aggregation_cache_requests_total",
			Help:      "Aggregation cache lookups, by outcome.",
		}, []string{"result"}),
		Computation: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "practice",
			Name:      "computation_duration_seconds",
			Help:      "Time spent recomputing aggregated views.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"view"}),
	}
}

// Submission results.
const (
	ResultCreated   = "created"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultFailed    = "failed"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

func (m *Metrics) ObserveSubmission(result string) {
	if m == nil {
		return
	}
	m.RecordsSubmitted.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// Time returns a func that records the elapsed time for view when called.
func (m *Metrics) Time(view string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Computation.WithLabelValues(view).Observe(time.Since(start).Seconds())
	}
}
