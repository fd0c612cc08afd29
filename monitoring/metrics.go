package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	holdOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_hold_operations_total",
			Help: "Seat hold operations by outcome",
		},
		[]string{"operation", "status"},
	)

	seatCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_commits_total",
			Help: "Multi-seat commit attempts by outcome",
		},
		[]string{"status"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "booking_sessions_active",
			Help: "Currently live booking sessions",
		},
	)

	bookingsByStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking status transitions",
		},
		[]string{"status"},
	)

	paymentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_charge_duration_seconds",
			Help:    "Duration of payment gateway charge calls",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider", "status"},
	)
)

// Monitor is the process-wide metrics sink.
type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) TrackHold(operation, status string) {
	holdOperations.WithLabelValues(operation, status).Inc()
}

func (m *Monitor) TrackCommit(status string) {
	seatCommits.WithLabelValues(status).Inc()
}

func (m *Monitor) SessionStarted() {
	activeSessions.Inc()
}

func (m *Monitor) SessionEnded() {
	activeSessions.Dec()
}

func (m *Monitor) TrackBooking(status string) {
	bookingsByStatus.WithLabelValues(status).Inc()
}

func (m *Monitor) TrackPayment(provider, status string, duration time.Duration) {
	paymentDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}
