package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RefreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_refresh_duration_seconds",
		Help:    "Time spent recomputing a user's recommendation queue",
		Buckets: prometheus.DefBuckets,
	})
	RefreshCandidates = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_refresh_candidates",
		Help:    "Candidates produced per predictor run",
		Buckets: []float64{0, 1, 2, 5, 10},
	})
	RecommendationsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommendations_served_total",
		Help: "Recommendations presented to users",
	})
	QueueExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recommendations_exhausted_total",
		Help: "Terminal no-more-recommendations responses",
	})
	RatingsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratings_submitted_total",
		Help: "Ratings accepted through the rate endpoint",
	})
	SkipsRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratings_skipped_total",
		Help: "Skip markers written by navigation",
	})
)

// Register adds all collectors to the default registry. Call once at startup.
func Register() {
	prometheus.MustRegister(
		RefreshDuration,
		RefreshCandidates,
		RecommendationsServed,
		QueueExhausted,
		RatingsSubmitted,
		SkipsRecorded,
	)
}

// Handler exposes the default registry for the /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
