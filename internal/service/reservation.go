package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"menza/internal/apperr"
	"menza/internal/events"
	"menza/internal/metrics"
	"menza/internal/models"
	"menza/internal/slots"
	"menza/internal/store"
)

// ReservationService validates and creates reservations. Validation reads a
// snapshot of existing reservations and then writes; callers that need
// strict capacity under concurrent writers must serialize per canteen slot.
type ReservationService struct {
	store  store.Store
	bus    EventPublisher
	logger *zerolog.Logger
}

// NewReservationService constructs the service.
func NewReservationService(st store.Store, bus EventPublisher, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{store: st, bus: bus, logger: logger}
}

// CreateReservationInput is the payload for Create.
type CreateReservationInput struct {
	StudentID string    `json:"student_id"`
	CanteenID string    `json:"canteen_id"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Duration  int       `json:"duration"`
}

// Create admits a reservation after running the full rule set: date in the
// future, duration and grid alignment, student overlap, meal quota,
// effective working hours, and canteen capacity.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*models.Reservation, error) {
	date := models.DateOf(in.Date)
	if date.Before(models.DateOf(time.Now())) {
		return nil, apperr.InvalidInput("reservation date %s is in the past", date.Format(models.DateFormat))
	}
	if !allowedDurations[in.Duration] {
		return nil, apperr.InvalidInput("duration must be 30 or 60 minutes, got %d", in.Duration)
	}
	if _, err := models.MinuteOfDay(in.Time); err != nil {
		return nil, apperr.InvalidInput("invalid time %q", in.Time)
	}
	if !slots.AlignedToGrid(in.Time) {
		return nil, apperr.InvalidInput("time %s must start on the hour or half hour", in.Time)
	}

	student, err := s.store.GetStudent(ctx, in.StudentID)
	if err != nil {
		return nil, apperr.Store(err, "look up student")
	}
	if student == nil {
		return nil, apperr.NotFound("student %s not found", in.StudentID)
	}

	canteen, err := s.store.GetCanteen(ctx, in.CanteenID)
	if err != nil {
		return nil, apperr.Store(err, "look up canteen")
	}
	if canteen == nil {
		return nil, apperr.NotFound("canteen %s not found", in.CanteenID)
	}

	start, err := models.ClockOnDate(date, in.Time)
	if err != nil {
		return nil, apperr.InvalidInput("invalid time %q", in.Time)
	}
	end := start.Add(time.Duration(in.Duration) * time.Minute)

	if err := s.checkStudentOverlap(ctx, in.StudentID, start, end); err != nil {
		return nil, err
	}

	mealType, ok := slots.ClassifyMeal(in.Time, canteen.WorkingHours)
	if !ok {
		return nil, apperr.InvalidInput("time %s does not fall into any meal window of canteen %s", in.Time, canteen.Name)
	}

	if err := s.checkMealQuota(ctx, in.StudentID, date, mealType); err != nil {
		return nil, err
	}

	effective, err := s.effectiveHours(ctx, canteen, date)
	if err != nil {
		return nil, err
	}
	if !slots.FitsAny(start, end, effective) {
		return nil, apperr.New(apperr.KindClosed, "canteen %s is not open for %s-%s on %s",
			canteen.Name, in.Time, end.Format(models.ClockFormat), date.Format(models.DateFormat))
	}

	if err := s.checkCapacity(ctx, canteen, date, start, end); err != nil {
		return nil, err
	}

	created, err := s.store.AddReservation(ctx, &models.Reservation{
		StudentID: in.StudentID,
		CanteenID: in.CanteenID,
		Date:      date,
		Time:      in.Time,
		Duration:  in.Duration,
		Status:    models.StatusActive,
	})
	if err != nil {
		return nil, apperr.Store(err, "persist reservation")
	}

	metrics.IncReservationCreated(mealType)
	_ = s.bus.PublishJSON(events.TypeReservationCreated, created)
	s.logger.Info().
		Str("reservation_id", created.ID).
		Str("student_id", created.StudentID).
		Str("canteen_id", created.CanteenID).
		Str("meal", mealType).
		Msg("reservation created")

	return created, nil
}

// Cancel transitions a student's own active reservation to Cancelled.
func (s *ReservationService) Cancel(ctx context.Context, id, studentID string) (*models.Reservation, error) {
	reservation, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, apperr.Store(err, "look up reservation")
	}
	if reservation == nil {
		return nil, apperr.NotFound("reservation %s not found", id)
	}
	if reservation.StudentID != studentID {
		return nil, apperr.Forbidden("reservation %s belongs to another student", id)
	}
	if !reservation.IsActive() {
		return nil, apperr.New(apperr.KindAlreadyCancelled, "reservation %s is already cancelled", id)
	}

	cancelled, err := s.store.CancelReservationByID(ctx, id)
	if err != nil {
		return nil, apperr.Store(err, "cancel reservation")
	}
	if cancelled == nil {
		return nil, apperr.NotFound("reservation %s not found", id)
	}

	metrics.IncReservationCancelled("student")
	_ = s.bus.PublishJSON(events.TypeReservationCancelled, cancelled)
	s.logger.Info().Str("reservation_id", id).Str("student_id", studentID).Msg("reservation cancelled by student")

	return cancelled, nil
}

// ListByStudent returns all reservations of a student, any status.
func (s *ReservationService) ListByStudent(ctx context.Context, studentID string) ([]models.Reservation, error) {
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, apperr.Store(err, "look up student")
	}
	if student == nil {
		return nil, apperr.NotFound("student %s not found", studentID)
	}
	reservations, err := s.store.ListReservationsByStudent(ctx, studentID)
	if err != nil {
		return nil, apperr.Store(err, "list reservations")
	}
	return reservations, nil
}

// checkStudentOverlap rejects slots intersecting any of the student's other
// active reservations, regardless of canteen. Touching slots are allowed.
func (s *ReservationService) checkStudentOverlap(ctx context.Context, studentID string, start, end time.Time) error {
	existing, err := s.store.ListReservationsByStudent(ctx, studentID)
	if err != nil {
		return apperr.Store(err, "list student reservations")
	}
	for i := range existing {
		r := &existing[i]
		if !r.IsActive() {
			continue
		}
		rStart, rEnd, err := r.Interval()
		if err != nil {
			return apperr.Store(err, "decode stored reservation")
		}
		if slots.Overlaps(start, end, rStart, rEnd) {
			return apperr.Conflict("student already has an overlapping reservation at %s %s",
				r.Date.Format(models.DateFormat), r.Time)
		}
	}
	return nil
}

// checkMealQuota enforces at most MealQuota active reservations per meal
// type per date. Each existing reservation is classified against its own
// canteen's nominal hours.
func (s *ReservationService) checkMealQuota(ctx context.Context, studentID string, date time.Time, mealType string) error {
	existing, err := s.store.ListReservationsByStudent(ctx, studentID)
	if err != nil {
		return apperr.Store(err, "list student reservations")
	}

	count := 0
	for i := range existing {
		r := &existing[i]
		if !r.IsActive() || !models.DateOf(r.Date).Equal(date) {
			continue
		}
		canteen, err := s.store.GetCanteen(ctx, r.CanteenID)
		if err != nil {
			return apperr.Store(err, "look up canteen for quota check")
		}
		if canteen == nil {
			continue
		}
		if existingMeal, ok := slots.ClassifyMeal(r.Time, canteen.WorkingHours); ok && existingMeal == mealType {
			count++
		}
	}
	if count >= MealQuota {
		return apperr.New(apperr.KindQuotaExceeded, "student already holds %d %s reservations on %s",
			MealQuota, mealType, date.Format(models.DateFormat))
	}
	return nil
}

// effectiveHours returns the restriction's windows when one covers the
// date, otherwise the canteen's nominal hours.
func (s *ReservationService) effectiveHours(ctx context.Context, canteen *models.Canteen, date time.Time) ([]models.WorkingHour, error) {
	restrictions, err := s.store.ListRestrictionsByCanteen(ctx, canteen.ID)
	if err != nil {
		return nil, apperr.Store(err, "list restrictions")
	}
	for i := range restrictions {
		if restrictions[i].Covers(date) {
			return restrictions[i].WorkingHours, nil
		}
	}
	return canteen.WorkingHours, nil
}

// checkCapacity counts active reservations overlapping the requested slot.
func (s *ReservationService) checkCapacity(ctx context.Context, canteen *models.Canteen, date time.Time, start, end time.Time) error {
	active, err := s.store.ListActiveReservationsByCanteenAndDate(ctx, canteen.ID, date)
	if err != nil {
		return apperr.Store(err, "list canteen reservations")
	}

	inSlot := 0
	for i := range active {
		rStart, rEnd, err := active[i].Interval()
		if err != nil {
			return apperr.Store(err, "decode stored reservation")
		}
		if slots.Overlaps(start, end, rStart, rEnd) {
			inSlot++
		}
	}
	if inSlot >= canteen.Capacity {
		return apperr.New(apperr.KindCapacityExceeded, "canteen %s is full at %s on %s",
			canteen.Name, start.Format(models.ClockFormat), date.Format(models.DateFormat))
	}
	return nil
}
