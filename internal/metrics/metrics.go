package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "menza",
			Name:      "reservation_created_total",
			Help:      "Count of reservations created by meal type.",
		},
		[]string{"meal"},
	)

	reservationCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "menza",
			Name:      "reservation_cancelled_total",
			Help:      "Count of reservations cancelled by reason.",
		},
		[]string{"reason"},
	)

	restrictionCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "menza",
			Name:      "restriction_created_total",
			Help:      "Count of restrictions created by admins.",
		},
	)

	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "menza",
			Name:      "notifications_total",
			Help:      "Count of cancellation notices by delivery status.",
		},
		[]string{"status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservationCreated, reservationCancelled, restrictionCreated, notificationsTotal)
	})
}

func IncReservationCreated(meal string) {
	reservationCreated.WithLabelValues(meal).Inc()
}

func IncReservationCancelled(reason string) {
	reservationCancelled.WithLabelValues(reason).Inc()
}

func IncRestrictionCreated() {
	restrictionCreated.Inc()
}

func IncNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}
