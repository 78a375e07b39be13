package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagepass_checkout_requests_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})

	PaymentWebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagepass_payment_webhook_events_total",
		Help: "Payment provider notifications by outcome.",
	}, []string{"outcome"})

	FulfillmentRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagepass_fulfillment_runs_total",
		Help: "Fulfillment engine runs by result.",
	}, []string{"result"})

	OversellFailsafeTrips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stagepass_oversell_failsafe_trips_total",
		Help: "Paid orders cancelled by the post-issuance capacity check.",
	})

	ExpiredReservations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stagepass_expired_reservations_total",
		Help: "Pending orders released by the expiry sweeper.",
	})
)

func ObserveCheckout(result string) {
	CheckoutRequests.WithLabelValues(result).Inc()
}

func ObserveWebhook(outcome string) {
	PaymentWebhookEvents.WithLabelValues(outcome).Inc()
}

func ObserveFulfillment(result string) {
	FulfillmentRuns.WithLabelValues(result).Inc()
}
