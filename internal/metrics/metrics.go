package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservio",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservio",
			Name:      "reservation_operations_total",
			Help:      "Reservation commands by operation and outcome kind.",
		},
		[]string{"operation", "outcome"},
	)

	outboxDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reservio",
			Name:      "outbox_deliveries_total",
			Help:      "Outbox event deliveries by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationOps, outboxDeliveries)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncReservationOp counts one command outcome.
func IncReservationOp(operation, outcome string) {
	reservationOps.WithLabelValues(operation, outcome).Inc()
}

// IncOutbox counts one delivery attempt result.
func IncOutbox(result string) {
	outboxDeliveries.WithLabelValues(result).Inc()
}
