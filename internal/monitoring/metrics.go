// Package monitoring exposes Prometheus metrics for the HTTP surface and the
// referral/activation domain. Metrics are registered with promauto at init
// time and scraped from /metrics.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	LeadsActivatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_activated_total",
			Help: "Lead activation outcomes (activated, skipped, failed)",
		},
		[]string{"outcome"},
	)

	CommissionsCreditedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commissions_credited_total",
			Help: "Number of commission ledger entries created",
		},
	)

	CommissionsCreditedAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commissions_credited_amount_total",
			Help: "Total commission amount credited, in USDT",
		},
	)

	CommissionsDuplicateTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "commissions_duplicate_total",
			Help: "Commission credits suppressed by the per-source idempotence guard",
		},
	)

	BulkSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bulk_activation_sessions_active",
			Help: "Bulk activation sessions currently running",
		},
	)

	BulkSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulk_activation_sessions_total",
			Help: "Bulk activation sessions by terminal state (complete, error)",
		},
		[]string{"state"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Welcome emails by delivery status (sent, failed)",
		},
		[]string{"status"},
	)

	ReferralCodeRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "referral_code_retries_total",
			Help: "Referral code generations that collided and were re-rolled",
		},
	)
)
