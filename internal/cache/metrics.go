package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultError = "error"
)

var (
	cacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmatch_cache_requests_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)

	cacheWriteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projectmatch_cache_write_errors_total",
			Help: "Failed cache writes by cache name",
		},
		[]string{"cache"},
	)
)

func recordLookup(cache, result string) {
	cacheRequests.WithLabelValues(cache, result).Inc()
}

func recordWriteError(cache string) {
	cacheWriteErrors.WithLabelValues(cache).Inc()
}
