package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"menza/internal/models"
)

// mockStore is a testify mock over the full store contract.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) AddStudent(ctx context.Context, s *models.Student) (*models.Student, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *mockStore) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *mockStore) GetStudentByEmail(ctx context.Context, email string) (*models.Student, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *mockStore) AddCanteen(ctx context.Context, c *models.Canteen) (*models.Canteen, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Canteen), args.Error(1)
}

func (m *mockStore) GetCanteen(ctx context.Context, id string) (*models.Canteen, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Canteen), args.Error(1)
}

func (m *mockStore) ListCanteens(ctx context.Context) ([]models.Canteen, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Canteen), args.Error(1)
}

func (m *mockStore) UpdateCanteen(ctx context.Context, c *models.Canteen) (*models.Canteen, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Canteen), args.Error(1)
}

func (m *mockStore) DeleteCanteen(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStore) AddReservation(ctx context.Context, r *models.Reservation) (*models.Reservation, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockStore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockStore) ListReservationsByStudent(ctx context.Context, studentID string) ([]models.Reservation, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockStore) ListActiveReservationsByCanteenAndDate(ctx context.Context, canteenID string, date time.Time) ([]models.Reservation, error) {
	args := m.Called(ctx, canteenID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func (m *mockStore) CancelReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *mockStore) AddRestriction(ctx context.Context, r *models.Restriction) (*models.Restriction, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Restriction), args.Error(1)
}

func (m *mockStore) ListRestrictionsByCanteen(ctx context.Context, canteenID string) ([]models.Restriction, error) {
	args := m.Called(ctx, canteenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Restriction), args.Error(1)
}

func (m *mockStore) DeleteRestriction(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// recordingNotifier captures notices synchronously for assertions.
type recordingNotifier struct {
	notices []noticeRecord
}

type noticeRecord struct {
	Reservation models.Reservation
	CanteenName string
	Reason      string
}

func (n *recordingNotifier) ReservationCancelled(r models.Reservation, canteenName, reason string) {
	n.notices = append(n.notices, noticeRecord{Reservation: r, CanteenName: canteenName, Reason: reason})
}
