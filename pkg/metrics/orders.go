package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records fulfillment activity.
type OrderMetrics struct {
	transitions  *prometheus.CounterVec
	deliveries   prometheus.Counter
	otpFailures  prometheus.Counter
	partialEdits prometheus.Counter
	checkouts    prometheus.Counter
}

// NewOrderMetrics registers the order fulfillment metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by source and target status.",
	}, []string{"from", "to"})
	deliveries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_deliveries_total",
		Help: "Orders confirmed delivered through OTP verification.",
	})
	otpFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_otp_failures_total",
		Help: "Rejected OTP verification attempts.",
	})
	partialEdits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_partial_edits_total",
		Help: "Applied partial fulfillment quantity edits.",
	})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_checkouts_total",
		Help: "Orders created from checkout.",
	})
	reg.MustRegister(transitions, deliveries, otpFailures, partialEdits, checkouts)
	return &OrderMetrics{
		transitions:  transitions,
		deliveries:   deliveries,
		otpFailures:  otpFailures,
		partialEdits: partialEdits,
		checkouts:    checkouts,
	}
}

// IncTransition counts a completed status transition.
func (o *OrderMetrics) IncTransition(from, to string) {
	if o == nil || o.transitions == nil {
		return
	}
	o.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}

// IncDelivery counts an OTP-confirmed delivery.
func (o *OrderMetrics) IncDelivery() {
	if o == nil || o.deliveries == nil {
		return
	}
	o.deliveries.Inc()
}

// IncOTPFailure counts a rejected OTP attempt.
func (o *OrderMetrics) IncOTPFailure() {
	if o == nil || o.otpFailures == nil {
		return
	}
	o.otpFailures.Inc()
}

// IncPartialEdit counts an applied quantity edit.
func (o *OrderMetrics) IncPartialEdit() {
	if o == nil || o.partialEdits == nil {
		return
	}
	o.partialEdits.Inc()
}

// IncCheckout counts a created order.
func (o *OrderMetrics) IncCheckout() {
	if o == nil || o.checkouts == nil {
		return
	}
	o.checkouts.Inc()
}
