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
	"menza/internal/store"
)

// CanteenService manages canteens. Mutations are admin-only.
type CanteenService struct {
	store    store.Store
	notifier Notifier
	bus      EventPublisher
	logger   *zerolog.Logger
}

// NewCanteenService constructs the service.
func NewCanteenService(st store.Store, notifier Notifier, bus EventPublisher, logger *zerolog.Logger) *CanteenService {
	return &CanteenService{store: st, notifier: notifier, bus: bus, logger: logger}
}

// CanteenInput is the payload for Create and Update.
type CanteenInput struct {
	Name         string               `json:"name"`
	Location     string               `json:"location"`
	Capacity     int                  `json:"capacity"`
	WorkingHours []models.WorkingHour `json:"working_hours"`
}

func (in *CanteenInput) validate() error {
	if in.Name == "" {
		return apperr.InvalidInput("canteen name is required")
	}
	if in.Capacity <= 0 {
		return apperr.InvalidInput("capacity must be positive, got %d", in.Capacity)
	}
	for _, wh := range in.WorkingHours {
		if err := wh.Validate(); err != nil {
			return apperr.InvalidInput("%v", err)
		}
	}
	return nil
}

// Create registers a new canteen.
func (s *CanteenService) Create(ctx context.Context, actorID string, in CanteenInput) (*models.Canteen, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	created, err := s.store.AddCanteen(ctx, &models.Canteen{
		Name:         in.Name,
		Location:     in.Location,
		Capacity:     in.Capacity,
		WorkingHours: in.WorkingHours,
	})
	if err != nil {
		return nil, apperr.Store(err, "persist canteen")
	}
	s.logger.Info().Str("canteen_id", created.ID).Str("name", created.Name).Msg("canteen created")
	return created, nil
}

// Get returns a canteen by id.
func (s *CanteenService) Get(ctx context.Context, id string) (*models.Canteen, error) {
	canteen, err := s.store.GetCanteen(ctx, id)
	if err != nil {
		return nil, apperr.Store(err, "look up canteen")
	}
	if canteen == nil {
		return nil, apperr.NotFound("canteen %s not found", id)
	}
	return canteen, nil
}

// List returns all canteens.
func (s *CanteenService) List(ctx context.Context) ([]models.Canteen, error) {
	canteens, err := s.store.ListCanteens(ctx)
	if err != nil {
		return nil, apperr.Store(err, "list canteens")
	}
	return canteens, nil
}

// Update replaces a canteen's attributes and working hours. Existing
// reservations are not re-validated against the new hours; only restriction
// creation re-evaluates reservations.
func (s *CanteenService) Update(ctx context.Context, actorID, id string, in CanteenInput) (*models.Canteen, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateCanteen(ctx, &models.Canteen{
		ID:           id,
		Name:         in.Name,
		Location:     in.Location,
		Capacity:     in.Capacity,
		WorkingHours: in.WorkingHours,
	})
	if err != nil {
		return nil, apperr.Store(err, "update canteen")
	}
	if updated == nil {
		return nil, apperr.NotFound("canteen %s not found", id)
	}
	s.logger.Info().Str("canteen_id", id).Msg("canteen updated")
	return updated, nil
}

// Delete removes a canteen, cancelling its active reservations for today
// first and notifying each affected student.
func (s *CanteenService) Delete(ctx context.Context, actorID, id string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	canteen, err := s.store.GetCanteen(ctx, id)
	if err != nil {
		return apperr.Store(err, "look up canteen")
	}
	if canteen == nil {
		return apperr.NotFound("canteen %s not found", id)
	}

	today := models.DateOf(time.Now())
	active, err := s.store.ListActiveReservationsByCanteenAndDate(ctx, id, today)
	if err != nil {
		return apperr.Store(err, "list reservations")
	}
	for i := range active {
		cancelled, err := s.store.CancelReservationByID(ctx, active[i].ID)
		if err != nil || cancelled == nil {
			s.logger.Error().Err(err).Str("reservation_id", active[i].ID).Msg("failed to cancel reservation on canteen delete")
			continue
		}
		metrics.IncReservationCancelled(notify.ReasonCanteenDeleted)
		_ = s.bus.PublishJSON(events.TypeReservationCancelled, cancelled)
		s.notifier.ReservationCancelled(*cancelled, canteen.Name, notify.ReasonCanteenDeleted)
	}

	if err := s.store.DeleteCanteen(ctx, id); err != nil {
		return apperr.Store(err, "delete canteen")
	}
	s.logger.Info().Str("canteen_id", id).Int("cancelled", len(active)).Msg("canteen deleted")
	return nil
}

func (s *CanteenService) requireAdmin(ctx context.Context, actorID string) error {
	actor, err := s.store.GetStudent(ctx, actorID)
	if err != nil {
		return apperr.Store(err, "look up actor")
	}
	if actor == nil || !actor.IsAdmin {
		return apperr.Forbidden("administrator privileges required")
	}
	return nil
}
