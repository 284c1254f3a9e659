// Package metrics registers the platform's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentOutcomes counts reconciled payment verdicts by terminal status.
	PaymentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pronostic_payment_outcomes_total",
		Help: "Reconciled payment verdicts by terminal status.",
	}, []string{"status"})

	// CouponsFollowed counts accepted coupon follows.
	CouponsFollowed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pronostic_coupons_followed_total",
		Help: "Coupon follows accepted.",
	})

	// WebhookRejected counts webhook deliveries with a bad signature.
	WebhookRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pronostic_webhook_rejected_total",
		Help: "Webhook deliveries rejected for a bad signature.",
	})
)
