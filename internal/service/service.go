// Package service implements the reservation validator and the restriction
// engine on top of the narrow store capability interface.
package service

import (
	"menza/internal/models"
)

// Allowed reservation durations in minutes.
var allowedDurations = map[int]bool{30: true, 60: true}

// MealQuota is the maximum number of active reservations a student may hold
// for the same meal type on one date.
const MealQuota = 2

// Notifier receives cancellation notices. Implementations must be
// fire-and-forget: a slow or failing notifier must never block or fail the
// cancellation it describes.
type Notifier interface {
	ReservationCancelled(r models.Reservation, canteenName, reason string)
}

// EventPublisher publishes domain events for observers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
