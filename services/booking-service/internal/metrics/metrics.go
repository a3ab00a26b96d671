package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts booking outcomes, lifecycle transitions and slot queries.
// A nil *BookingMetrics is valid and records nothing.
type BookingMetrics struct {
	bookings       *prometheus.CounterVec
	transitions    *prometheus.CounterVec
	slotQueries    *prometheus.CounterVec
	notifyFailures *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptbook",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Appointment creation attempts by outcome",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptbook",
			Subsystem: "booking",
			Name:      "status_transitions_total",
			Help:      "Committed appointment status transitions",
		}, []string{"from", "to"}),
		slotQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptbook",
			Subsystem: "booking",
			Name:      "slot_queries_total",
			Help:      "Availability queries by result",
		}, []string{"result"}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptbook",
			Subsystem: "booking",
			Name:      "notification_failures_total",
			Help:      "Swallowed post-commit notification failures",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.transitions, m.slotQueries, m.notifyFailures)
	return m
}

// ObserveBooking records a create attempt; outcome is "created", "replayed",
// "conflict", "closed", "outside_hours", "inactive", "not_found",
// "unknown_user" or "error".
func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// ObserveSlotQuery records an availability query; result is "open", "closed" or "error".
func (m *BookingMetrics) ObserveSlotQuery(result string) {
	if m == nil {
		return
	}
	m.slotQueries.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveNotifyFailure(kind string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(kind).Inc()
}
