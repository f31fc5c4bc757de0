package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	nlRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoql_nl_requests_total",
			Help: "Total number of natural language requests by outcome.",
		},
		[]string{"outcome"},
	)
	nlStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todoql_nl_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)
	nlCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoql_nl_cache_lookups_total",
			Help: "Query cache lookups by result.",
		},
		[]string{"result"},
	)
	nlFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todoql_nl_failures_total",
			Help: "Pipeline failures by error code.",
		},
		[]string{"code"},
	)
	nlPatternsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "todoql_nl_patterns_tracked",
			Help: "Current number of distinct query patterns tracked.",
		},
	)
	nlConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todoql_nl_intent_confidence",
			Help:    "Classifier confidence of processed requests.",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
	)
)

func init() {
	prometheus.MustRegister(
		nlRequestsTotal,
		nlStageDurationSeconds,
		nlCacheLookupsTotal,
		nlFailuresTotal,
		nlPatternsTracked,
		nlConfidence,
	)
}

func ObserveNLRequest(outcome string, confidence float64) {
	nlRequestsTotal.WithLabelValues(outcome).Inc()
	if confidence > 0 {
		nlConfidence.Observe(confidence)
	}
}

func ObserveStage(stage string, elapsed time.Duration) {
	nlStageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	nlCacheLookupsTotal.WithLabelValues(result).Inc()
}

func IncrementFailure(code string) {
	nlFailuresTotal.WithLabelValues(code).Inc()
}

func SetPatternsTracked(n int) {
	if n < 0 {
		n = 0
	}
	nlPatternsTracked.Set(float64(n))
}
