// Package metrics holds the prometheus instruments for the lending engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreEmissions counts full-snapshot emissions from the loan store
var StoreEmissions = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "lendcore_store_emissions_total",
		Help: "Total number of full-snapshot emissions from the loan store",
	},
)

// StoreSubscribers tracks the number of live store subscriptions
var StoreSubscribers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "lendcore_store_subscribers",
		Help: "Number of currently registered loan store subscribers",
	},
)

// SeededLoans counts synthetic loan records generated by store seeding
var SeededLoans = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "lendcore_seeded_loans_total",
		Help: "Total number of synthetic loan records generated by seeding",
	},
)

// RecomputeDuration records latency of derived-view recomputations per engine
var RecomputeDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "lendcore_recompute_duration_seconds",
		Help:    "Latency in seconds of derived-view recomputations",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"engine"},
)

func init() {
	prometheus.MustRegister(StoreEmissions, StoreSubscribers, SeededLoans, RecomputeDuration)
}
