// README: Prometheus metrics for the match pipeline.
package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	matchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusride_match_requests_total",
		Help: "Match requests by filter mode and outcome",
	}, []string{"mode", "outcome"})

	matchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusride_match_duration_seconds",
		Help:    "End-to-end match latency including snapshot load",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"mode"})

	candidatesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusride_match_candidates_scored_total",
		Help: "Candidates that passed the filter and were scored",
	})

	candidatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campusride_match_candidates_skipped_total",
		Help: "Candidates dropped after a scoring failure",
	})

	resultsReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campusride_match_results",
		Help:    "Number of results returned per match",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
	})
)
