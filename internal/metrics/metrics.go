// Package metrics holds Prometheus instruments that are used across hostcat.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ListingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostcat_listing_requests_total",
			Help: "Listing requests by page and result.",
		}, []string{"page", "result"})

	ListingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hostcat_listing_duration_seconds",
			Help:    "Time spent building a listing, store query included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"page"})

	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostcat_login_attempts_total",
			Help: "Login attempts by result (success, failure, limited, csrf).",
		}, []string{"result"})

	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostcat_rate_limited_total",
			Help: "Requests rejected by a rate-limit rule group.",
		}, []string{"group"})

	IngestRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostcat_ingest_rows_total",
			Help: "Spreadsheet rows processed by committed imports, by outcome.",
		}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		ListingRequestsTotal,
		ListingDuration,
		LoginAttemptsTotal,
		RateLimitedTotal,
		IngestRowsTotal,
	)
}
