package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SubscriptionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subpay_subscriptions_created_total",
		Help: "Number of subscription payments accepted and recorded.",
	})

	PaymentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subpay_payment_failures_total",
		Help: "Number of rejected subscription payments by reason.",
	}, []string{"reason"})

	Withdrawals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subpay_withdrawals_total",
		Help: "Number of treasury withdrawals executed by the owner.",
	})
)
