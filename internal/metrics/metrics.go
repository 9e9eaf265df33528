// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutFlowsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farmlink_checkout_flows_started_total",
		Help: "Total number of checkout flows opened",
	})

	CheckoutFlowsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmlink_checkout_flows_completed_total",
		Help: "Total number of checkout flows that reached completion",
	}, []string{"payment_type", "payment_method"})

	CheckoutFlowsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "farmlink_checkout_flows_active",
		Help: "Number of checkout flows held in memory",
	})

	TransactionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmlink_transactions_created_total",
		Help: "Total number of transactions created",
	}, []string{"payment_type"})

	TransactionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmlink_transactions_completed_total",
		Help: "Total number of transactions completed",
	}, []string{"payment_method"})

	TransactionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmlink_transactions_failed_total",
		Help: "Total number of failed transactions",
	}, []string{"payment_method"})

	TransactionsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farmlink_transactions_cancelled_total",
		Help: "Total number of stale credit transactions cancelled by the reconciler",
	})

	PaymentProcessingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmlink_payment_processing_latency_seconds",
		Help:    "Latency of payment processing",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})

	VerificationReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmlink_verification_reviews_total",
		Help: "Total number of verification document reviews",
	}, []string{"status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmlink_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farmlink_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
