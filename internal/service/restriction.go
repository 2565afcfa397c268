package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"menza/internal/apperr"
	"menza/internal/events"
	"menza/internal/metrics"
	"menza/internal/models"
	"menza/internal/notify"
	"menza/internal/slots"
	"menza/internal/store"
)

// RestrictionService validates and applies temporary working-hour
// restrictions, cascading cancellations over conflicting reservations.
type RestrictionService struct {
	store    store.Store
	notifier Notifier
	bus      EventPublisher
	logger   *zerolog.Logger
}

// NewRestrictionService constructs the service.
func NewRestrictionService(st store.Store, notifier Notifier, bus EventPublisher, logger *zerolog.Logger) *RestrictionService {
	return &RestrictionService{store: st, notifier: notifier, bus: bus, logger: logger}
}

// CreateRestrictionInput is the payload for Create. An empty WorkingHours
// list closes the canteen for the whole date range.
type CreateRestrictionInput struct {
	StartDate    time.Time            `json:"start_date"`
	EndDate      time.Time            `json:"end_date"`
	WorkingHours []models.WorkingHour `json:"working_hours"`
}

// Create persists a restriction and cancels every active reservation in its
// date range that no longer fits the restricted hours. Cancellations are
// notified best-effort; once the restriction is persisted, a failure on one
// cancellation does not undo the others or the restriction itself.
func (s *RestrictionService) Create(ctx context.Context, actorID, canteenID string, in CreateRestrictionInput) (*models.Restriction, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	canteen, err := s.store.GetCanteen(ctx, canteenID)
	if err != nil {
		return nil, apperr.Store(err, "look up canteen")
	}
	if canteen == nil {
		return nil, apperr.NotFound("canteen %s not found", canteenID)
	}

	startDate := models.DateOf(in.StartDate)
	endDate := models.DateOf(in.EndDate)
	if endDate.Before(startDate) {
		return nil, apperr.InvalidInput("end date %s is before start date %s",
			endDate.Format(models.DateFormat), startDate.Format(models.DateFormat))
	}

	for _, wh := range in.WorkingHours {
		if err := wh.Validate(); err != nil {
			return nil, apperr.InvalidInput("%v", err)
		}
		if !containedInNominal(wh, canteen.WorkingHours) {
			return nil, apperr.InvalidInput("restricted window %s-%s (%s) is outside the canteen's working hours",
				wh.From, wh.To, wh.Meal)
		}
	}

	existing, err := s.store.ListRestrictionsByCanteen(ctx, canteenID)
	if err != nil {
		return nil, apperr.Store(err, "list restrictions")
	}
	for i := range existing {
		if existing[i].OverlapsDates(startDate, endDate) {
			return nil, apperr.Conflict("restriction dates overlap existing restriction %s (%s to %s)",
				existing[i].ID,
				existing[i].StartDate.Format(models.DateFormat),
				existing[i].EndDate.Format(models.DateFormat))
		}
	}

	created, err := s.store.AddRestriction(ctx, &models.Restriction{
		CanteenID:    canteenID,
		StartDate:    startDate,
		EndDate:      endDate,
		WorkingHours: in.WorkingHours,
	})
	if err != nil {
		return nil, apperr.Store(err, "persist restriction")
	}

	metrics.IncRestrictionCreated()
	_ = s.bus.PublishJSON(events.TypeRestrictionCreated, created)
	s.logger.Info().
		Str("restriction_id", created.ID).
		Str("canteen_id", canteenID).
		Str("start", startDate.Format(models.DateFormat)).
		Str("end", endDate.Format(models.DateFormat)).
		Msg("restriction created")

	s.cascade(ctx, canteen, created)

	return created, nil
}

// Delete removes a restriction. Reservations the restriction cancelled stay
// cancelled.
func (s *RestrictionService) Delete(ctx context.Context, actorID, canteenID, restrictionID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	existing, err := s.store.ListRestrictionsByCanteen(ctx, canteenID)
	if err != nil {
		return apperr.Store(err, "list restrictions")
	}
	found := false
	for i := range existing {
		if existing[i].ID == restrictionID {
			found = true
			break
		}
	}
	if !found {
		return apperr.NotFound("restriction %s not found for canteen %s", restrictionID, canteenID)
	}

	if err := s.store.DeleteRestriction(ctx, restrictionID); err != nil {
		return apperr.Store(err, "delete restriction")
	}
	s.logger.Info().Str("restriction_id", restrictionID).Str("canteen_id", canteenID).Msg("restriction deleted")
	return nil
}

// ListByCanteen returns all restrictions for a canteen.
func (s *RestrictionService) ListByCanteen(ctx context.Context, canteenID string) ([]models.Restriction, error) {
	canteen, err := s.store.GetCanteen(ctx, canteenID)
	if err != nil {
		return nil, apperr.Store(err, "look up canteen")
	}
	if canteen == nil {
		return nil, apperr.NotFound("canteen %s not found", canteenID)
	}
	restrictions, err := s.store.ListRestrictionsByCanteen(ctx, canteenID)
	if err != nil {
		return nil, apperr.Store(err, "list restrictions")
	}
	return restrictions, nil
}

// cascade re-evaluates every active reservation in the restriction's date
// range and cancels the ones that no longer fit. Failures on individual
// cancellations are logged and skipped; the restriction stands regardless.
func (s *RestrictionService) cascade(ctx context.Context, canteen *models.Canteen, r *models.Restriction) {
	for day := r.StartDate; !day.After(r.EndDate); day = day.AddDate(0, 0, 1) {
		active, err := s.store.ListActiveReservationsByCanteenAndDate(ctx, canteen.ID, day)
		if err != nil {
			s.logger.Error().Err(err).
				Str("canteen_id", canteen.ID).
				Str("date", day.Format(models.DateFormat)).
				Msg("cascade: failed to list reservations")
			continue
		}
		for i := range active {
			res := &active[i]
			start, end, err := res.Interval()
			if err != nil {
				s.logger.Error().Err(err).Str("reservation_id", res.ID).Msg("cascade: bad reservation interval")
				continue
			}
			if slots.FitsAny(start, end, r.WorkingHours) {
				continue
			}

			cancelled, err := s.store.CancelReservationByID(ctx, res.ID)
			if err != nil || cancelled == nil {
				s.logger.Error().Err(err).Str("reservation_id", res.ID).Msg("cascade: failed to cancel reservation")
				continue
			}

			metrics.IncReservationCancelled(notify.ReasonRestriction)
			_ = s.bus.PublishJSON(events.TypeReservationCancelled, cancelled)
			s.notifier.ReservationCancelled(*cancelled, canteen.Name, notify.ReasonRestriction)
			s.logger.Info().
				Str("reservation_id", res.ID).
				Str("restriction_id", r.ID).
				Msg("reservation cancelled by restriction")
		}
	}
}

func (s *RestrictionService) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := s.store.GetStudent(ctx, actorID)
	if err != nil {
		return apperr.Store(err, "look up actor")
	}
	if actor == nil || !actor.IsAdmin {
		return apperr.Forbidden("administrator privileges required")
	}
	return nil
}

// containedInNominal reports whether the restricted window fits inside at
// least one nominal window. Matching is by time containment only, not meal
// label: a restriction may shrink or shift a window but never extend past
// the canteen's service hours.
func containedInNominal(wh models.WorkingHour, nominal []models.WorkingHour) bool {
	from, err := models.MinuteOfDay(wh.From)
	if err != nil {
		return false
	}
	to, err := models.MinuteOfDay(wh.To)
	if err != nil {
		return false
	}
	for _, n := range nominal {
		nFrom, err := models.MinuteOfDay(n.From)
		if err != nil {
			continue
		}
		nTo, err := models.MinuteOfDay(n.To)
		if err != nil {
			continue
		}
		if nFrom <= from && to <= nTo {
			return true
		}
	}
	return false
}
