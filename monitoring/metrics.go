package monitoring

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ordersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Order creation attempts by result",
		},
		[]string{"result"},
	)

	settlementNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_notifications_total",
			Help: "Processed settlement notifications by outcome",
		},
		[]string{"outcome"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Total issued tickets",
		},
	)

	checksumFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_checksum_failures_total",
			Help: "Inbound notifications rejected for a bad CheckMacValue",
		},
	)
)

// TrackOrderCreated records an order creation attempt: ok, conflict or error.
func TrackOrderCreated(result string) {
	ordersCreated.WithLabelValues(result).Inc()
}

// TrackSettlement records a settlement notification outcome: paid, failed,
// duplicate, unmatched, locked or transient.
func TrackSettlement(outcome string) {
	settlementNotifications.WithLabelValues(outcome).Inc()
}

func TrackTicketsIssued(count int) {
	ticketsIssued.Add(float64(count))
}

func TrackChecksumFailure() {
	checksumFailures.Inc()
}

// Serve exposes /metrics on its own port, off the main router.
func Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}
