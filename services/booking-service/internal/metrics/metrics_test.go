package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBookingMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("created")
	m.ObserveBooking("created")
	m.ObserveBooking("conflict")
	m.ObserveTransition("PENDING", "CONFIRMED")
	m.ObserveNotifyFailure("confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookings.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("PENDING", "CONFIRMED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifyFailures.WithLabelValues("confirmed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("created")
	m.ObserveTransition("PENDING", "CANCELLED")
	m.ObserveSlotQuery("open")
	m.ObserveNotifyFailure("cancelled")
}
