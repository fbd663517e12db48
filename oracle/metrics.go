package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the gateway's Prometheus collectors, labelled by category.
type Metrics struct {
	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	oracleCalls  *prometheus.CounterVec
	oracleErrors *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ontocrawl_cache_hits_total",
			Help: "Answers served from the on-disk cache",
		}, []string{"category"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ontocrawl_cache_misses_total",
			Help: "Questions with no cached answer",
		}, []string{"category"}),
		oracleCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ontocrawl_oracle_calls_total",
			Help: "Questions sent to the oracle",
		}, []string{"category"}),
		oracleErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ontocrawl_oracle_errors_total",
			Help: "Oracle calls that failed",
		}, []string{"category"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ontocrawl_answers_rejected_total",
			Help: "Oracle replies that failed validation and were not cached",
		}, []string{"category"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ontocrawl_oracle_duration_seconds",
			Help:    "Oracle call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		}, []string{"category"}),
	}
}
