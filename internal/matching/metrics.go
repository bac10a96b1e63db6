package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmatch_swipes_total",
			Help: "Total number of swipes recorded",
		},
		[]string{"action"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectmatch_matches_total",
			Help: "Total number of matches created",
		},
	)

	unmatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "projectmatch_unmatches_total",
			Help: "Total number of matches removed by unmatch or block",
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "projectmatch_match_compatibility_score",
			Help:    "Distribution of compatibility scores stored on new matches",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	feedBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "projectmatch_feed_build_duration_seconds",
			Help:    "Time spent building a discovery feed on a cache miss",
			Buckets: prometheus.DefBuckets,
		},
	)

	notificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmatch_match_notification_failures_total",
			Help: "Like and match notifications that could not be delivered",
		},
		[]string{"kind"},
	)
)

func RecordSwipe(action Action) {
	swipesTotal.WithLabelValues(string(action)).Inc()
}

func RecordMatch() {
	matchesTotal.Inc()
}

func RecordUnmatch() {
	unmatchesTotal.Inc()
}

func RecordCompatibilityScore(score float64) {
	compatibilityScores.Observe(score)
}

func RecordFeedBuild(duration time.Duration) {
	feedBuildDuration.Observe(duration.Seconds())
}

func RecordNotificationFailure(kind string) {
	notificationFailures.WithLabelValues(kind).Inc()
}
