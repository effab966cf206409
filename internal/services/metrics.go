// Package services – Prometheus instrumentation for ingestion.
//
// Label cardinality is bounded: "platform" is one of the three supported
// platforms and "kind"/"result" are small fixed sets.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// refreshRuns counts ingestion runs by outcome.
	refreshRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_runs_total",
			Help: "Total number of ingestion runs by result (completed, cached, error).",
		},
		[]string{"result"},
	)

	// postsIngested counts upserted posts by platform and kind.
	postsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_posts_total",
			Help: "Total number of posts ingested, by platform and kind (new, updated).",
		},
		[]string{"platform", "kind"},
	)

	// platformFailures counts per-platform fetch/store failures.
	platformFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestion_platform_failures_total",
			Help: "Total number of per-platform ingestion failures.",
		},
		[]string{"platform"},
	)
)

func init() {
	prometheus.MustRegister(refreshRuns, postsIngested, platformFailures)
}
