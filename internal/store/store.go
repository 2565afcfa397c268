// Package store provides persistence for students, canteens, reservations
// and restrictions behind a narrow capability interface.
package store

import (
	"context"
	"time"

	"menza/internal/models"
)

// Store is the persistence contract the services depend on. Lookups return
// (nil, nil) when the entity does not exist; errors mean the store itself
// failed.
type Store interface {
	AddStudent(ctx context.Context, s *models.Student) (*models.Student, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetStudentByEmail(ctx context.Context, email string) (*models.Student, error)

	AddCanteen(ctx context.Context, c *models.Canteen) (*models.Canteen, error)
	GetCanteen(ctx context.Context, id string) (*models.Canteen, error)
	ListCanteens(ctx context.Context) ([]models.Canteen, error)
	UpdateCanteen(ctx context.Context, c *models.Canteen) (*models.Canteen, error)
	DeleteCanteen(ctx context.Context, id string) error

	AddReservation(ctx context.Context, r *models.Reservation) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservationsByStudent(ctx context.Context, studentID string) ([]models.Reservation, error)
	ListActiveReservationsByCanteenAndDate(ctx context.Context, canteenID string, date time.Time) ([]models.Reservation, error)
	CancelReservationByID(ctx context.Context, id string) (*models.Reservation, error)

	AddRestriction(ctx context.Context, r *models.Restriction) (*models.Restriction, error)
	ListRestrictionsByCanteen(ctx context.Context, canteenID string) ([]models.Restriction, error)
	DeleteRestriction(ctx context.Context, id string) error
}
