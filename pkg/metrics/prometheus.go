package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	Mutations      *prometheus.CounterVec
	CascadedRoutes prometheus.Counter
	StoreErrors    *prometheus.CounterVec
	GuardConflicts *prometheus.CounterVec
	RecomputeTime  prometheus.Histogram
}

// NewMetrics creates new prometheus metrics registered on reg. Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "itinerary_mutations_total",
			Help:      "The total number of applied city and route mutations",
		}, []string{"entity", "operation"}),
		CascadedRoutes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_deleted_routes_total",
			Help:      "The total number of routes removed because an endpoint city was deleted",
		}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "The total number of failed store operations",
		}, []string{"operation"}),
		GuardConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutation_conflicts_total",
			Help:      "The total number of mutations rejected because another one was in flight",
		}, []string{"entity"}),
		RecomputeTime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "total_spent_recompute_seconds",
			Help:      "Time taken to recompute the total spent from the store",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
