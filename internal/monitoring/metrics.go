package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_entries_total",
			Help: "Total ledger entries appended",
		},
		[]string{"kind", "source"},
	)

	CommissionsPostedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_commissions_posted_total",
			Help: "Total referral commission entries posted by level",
		},
		[]string{"level"},
	)

	ClicksRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "click_tasks_recorded_total",
			Help: "Total rewarded click-task events",
		},
	)

	PackagesOpenedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "packages_opened_total",
			Help: "Total investment packages opened",
		},
	)

	PackagesClaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "packages_claimed_total",
			Help: "Total investment packages claimed",
		},
	)

	WithdrawalsDecidedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "withdrawals_decided_total",
			Help: "Total withdrawal decisions by outcome",
		},
		[]string{"decision"},
	)

	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
