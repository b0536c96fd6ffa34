// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsSubmitted counts accepted payment submissions.
	PaymentsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_submitted_total",
		Help: "Number of payment submissions accepted into the ledger",
	})

	// PaymentDecisions counts terminal transitions by outcome.
	PaymentDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_decisions_total",
		Help: "Number of terminal payment transitions",
	}, []string{"decision"}) // approved, rejected, cancelled

	// PromoRedemptions counts promo slot consumption at approval time.
	PromoRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_redemptions_total",
		Help: "Number of promo code redemption attempts at finalization",
	}, []string{"result"}) // redeemed, ceiling_hit

	// RefundRequests counts refund lifecycle events.
	RefundRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "refund_requests_total",
		Help: "Number of refund requests by lifecycle event",
	}, []string{"event"}) // created, approved, rejected

	// RequestDuration tracks handler latency by route and status class.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"route", "status"})
)
