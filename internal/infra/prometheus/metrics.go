package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Redirect outcomes, labelled by how the lookup resolved.
var (
	RedirectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shrinker_redirects_total",
		Help: "Redirect lookups by outcome (cache_hit, store_hit, not_found, error).",
	}, []string{"outcome"})

	CacheErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shrinker_cache_errors_total",
		Help: "Link cache operations that failed and degraded to the store.",
	})

	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shrinker_registrations_total",
		Help: "Link registrations by result (created, existing).",
	}, []string{"result"})

	CollisionRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shrinker_code_collision_retries_total",
		Help: "Short-code candidates discarded because the code was taken.",
	})

	ClicksPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shrinker_clicks_published_total",
		Help: "Click events handed to the queue, by result (ok, error).",
	}, []string{"result"})

	ClicksRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shrinker_clicks_recorded_total",
		Help: "Click events persisted by the worker, by result (ok, error).",
	}, []string{"result"})
)
