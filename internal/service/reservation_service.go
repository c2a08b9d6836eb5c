package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"reservio/internal/clock"
	"reservio/internal/database"
	"reservio/internal/domain"
	"reservio/internal/events"
	"reservio/internal/metrics"
	"reservio/internal/models"
	"reservio/internal/spec"

	"github.com/rs/zerolog"
)

// ReservationService orchestrates the reservation lifecycle: load one
// aggregate, invoke one mutation, persist, then forward drained events.
type ReservationService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	clock    clock.Clock
	logger   *zerolog.Logger
}

func NewReservationService(store domain.Store, eventBus domain.EventPublisher, clk clock.Clock, logger *zerolog.Logger) *ReservationService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ReservationService{
		store:    store,
		eventBus: eventBus,
		clock:    clk,
		logger:   logger,
	}
}

// CreateReservation validates and persists a new reservation.
func (s *ReservationService) CreateReservation(ctx context.Context, customerID string, startDate, endDate time.Time) models.Result {
	reservation, err := models.NewReservation(s.clock, customerID, startDate, endDate)
	if err != nil {
		return s.failure("create", err)
	}

	if err := s.persistNew(ctx, reservation); err != nil {
		return s.failure("create", err)
	}

	metrics.IncReservationOp("create", "success")
	return models.OKResult(reservation.ID, reservation.Status)
}

// ConfirmReservation moves a created reservation to confirmed.
func (s *ReservationService) ConfirmReservation(ctx context.Context, id string) models.Result {
	return s.mutate(ctx, "confirm", id, func(r *models.Reservation) error {
		return r.Confirm(s.clock)
	})
}

// CancelReservation cancels a reservation, recording the optional reason.
func (s *ReservationService) CancelReservation(ctx context.Context, id string, reason string) models.Result {
	return s.mutate(ctx, "cancel", id, func(r *models.Reservation) error {
		return r.Cancel(s.clock, reason)
	})
}

// mutate is the shared load → mutate → persist flow for confirm and cancel.
func (s *ReservationService) mutate(ctx context.Context, op, id string, fn func(*models.Reservation) error) models.Result {
	if strings.TrimSpace(id) == "" {
		return s.failure(op, models.NewValidationError("reservation id is required"))
	}

	uow, err := s.store.Begin(ctx)
	if err != nil {
		return s.failure(op, models.WrapUnexpected("open unit of work", err))
	}
	defer func() { _ = uow.Rollback() }()

	repo := uow.Reservations()
	reservation, err := repo.GetByID(ctx, id)
	if err != nil {
		return s.failure(op, models.WrapUnexpected("load reservation", err))
	}
	if reservation == nil {
		return s.failure(op, models.NewNotFoundError("reservation %s not found", id))
	}

	if err := fn(reservation); err != nil {
		return s.failure(op, err)
	}

	if err := repo.Update(ctx, reservation); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			return s.failure(op, models.NewInvalidStateError("reservation %s was modified concurrently", id))
		}
		return s.failure(op, models.WrapUnexpected("save reservation", err))
	}

	drained, err := s.enqueueEvents(ctx, uow, reservation)
	if err != nil {
		return s.failure(op, err)
	}

	if _, err := uow.SaveChanges(ctx); err != nil {
		return s.failure(op, models.WrapUnexpected("commit", err))
	}

	s.publish(drained)
	metrics.IncReservationOp(op, "success")
	return models.OKResult(reservation.ID, reservation.Status)
}

func (s *ReservationService) persistNew(ctx context.Context, reservation *models.Reservation) error {
	uow, err := s.store.Begin(ctx)
	if err != nil {
		return models.WrapUnexpected("open unit of work", err)
	}
	defer func() { _ = uow.Rollback() }()

	if err := uow.Reservations().Add(ctx, reservation); err != nil {
		return models.WrapUnexpected("save reservation", err)
	}

	drained, err := s.enqueueEvents(ctx, uow, reservation)
	if err != nil {
		return err
	}

	if _, err := uow.SaveChanges(ctx); err != nil {
		return models.WrapUnexpected("commit", err)
	}

	s.publish(drained)
	return nil
}

// enqueueEvents drains the aggregate's buffer into the transactional outbox.
func (s *ReservationService) enqueueEvents(ctx context.Context, uow domain.UnitOfWork, reservation *models.Reservation) ([]events.Event, error) {
	pending := reservation.DrainEvents()
	serialized := make([]events.Event, 0, len(pending))
	for _, p := range pending {
		event, err := events.NewJSONEvent(p.Type, p.Payload)
		if err != nil {
			return nil, models.WrapUnexpected("serialize event", err)
		}
		if err := uow.Outbox().Enqueue(ctx, event); err != nil {
			return nil, models.WrapUnexpected("enqueue event", err)
		}
		serialized = append(serialized, event)
	}
	return serialized, nil
}

func (s *ReservationService) publish(drained []events.Event) {
	if s.eventBus == nil {
		return
	}
	for _, event := range drained {
		if err := s.eventBus.PublishJSON(event.Type, json.RawMessage(event.Payload)); err != nil {
			if s.logger != nil {
				s.logger.Error().Err(err).Str("event_type", event.Type).Msg("publish event error")
			}
		}
	}
}

// GetReservation returns one reservation's read view.
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*models.ReservationView, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewValidationError("reservation id is required")
	}
	reservation, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, models.WrapUnexpected("load reservation", err)
	}
	if reservation == nil {
		return nil, models.NewNotFoundError("reservation %s not found", id)
	}
	view := models.NewReservationView(reservation)
	return &view, nil
}

// GetReservationsByCustomer lists a customer's reservations, newest start
// date first. An unknown customer yields an empty list, not an error.
func (s *ReservationService) GetReservationsByCustomer(ctx context.Context, customerID string) ([]models.ReservationView, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, models.NewValidationError("customer id is required")
	}
	return s.query(ctx, spec.ByCustomer(customerID))
}

// GetCustomerReservationsPage returns one page of a customer's reservations
// together with the total match count.
func (s *ReservationService) GetCustomerReservationsPage(ctx context.Context, customerID string, skip, take int) (*models.ReservationPage, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, models.NewValidationError("customer id is required")
	}

	paged := spec.ByCustomerPaged(customerID, skip, take)
	items, err := s.query(ctx, paged)
	if err != nil {
		return nil, err
	}

	total, err := s.store.Count(ctx, spec.ByCustomer(customerID))
	if err != nil {
		return nil, models.WrapUnexpected("count reservations", err)
	}

	return &models.ReservationPage{Items: items, Total: total, Skip: paged.Skip, Take: paged.Take}, nil
}

// GetConfirmedByCustomer lists a customer's confirmed reservations ordered by
// confirmation time, falling back to creation time.
func (s *ReservationService) GetConfirmedByCustomer(ctx context.Context, customerID string) ([]models.ReservationView, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, models.NewValidationError("customer id is required")
	}
	return s.query(ctx, spec.ConfirmedForCustomer(customerID))
}

// GetActiveReservations lists reservations that are not cancelled and have
// not yet ended.
func (s *ReservationService) GetActiveReservations(ctx context.Context) ([]models.ReservationView, error) {
	return s.query(ctx, spec.Active(s.clock.Now()))
}

// GetUpcomingReservations lists reservations that are not cancelled and have
// not yet started.
func (s *ReservationService) GetUpcomingReservations(ctx context.Context) ([]models.ReservationView, error) {
	return s.query(ctx, spec.Upcoming(s.clock.Now()))
}

// GetReservationsByStatus lists reservations in one lifecycle state.
func (s *ReservationService) GetReservationsByStatus(ctx context.Context, status models.Status) ([]models.ReservationView, error) {
	if !status.Valid() {
		return nil, models.NewValidationError("unknown status %q", string(status))
	}
	return s.query(ctx, spec.ByStatus(status))
}

// ReservationsForPeriod returns reservations overlapping [from, to], oldest
// created first. Used by the export report.
func (s *ReservationService) ReservationsForPeriod(ctx context.Context, from, to time.Time) ([]models.ReservationView, error) {
	if to.Before(from) {
		return nil, models.NewValidationError("period end is before period start")
	}

	all := spec.All()
	all.Order = spec.OrderCreatedAt

	matches, err := s.store.Query(ctx, all)
	if err != nil {
		return nil, models.WrapUnexpected("query reservations", err)
	}

	views := make([]models.ReservationView, 0, len(matches))
	for _, r := range matches {
		if r.EndDate.Before(from) || r.StartDate.After(to) {
			continue
		}
		views = append(views, models.NewReservationView(r))
	}
	return views, nil
}

func (s *ReservationService) query(ctx context.Context, sp spec.Specification) ([]models.ReservationView, error) {
	matches, err := s.store.Query(ctx, sp)
	if err != nil {
		return nil, models.WrapUnexpected("query reservations", err)
	}

	views := make([]models.ReservationView, 0, len(matches))
	for _, r := range matches {
		views = append(views, models.NewReservationView(r))
	}
	return views, nil
}

// failure translates a domain error into the uniform result shape. Expected
// business outcomes log at debug; everything else logs at error level and is
// surfaced without internal detail.
func (s *ReservationService) failure(op string, err error) models.Result {
	kind := models.KindOf(err)
	metrics.IncReservationOp(op, kind.String())

	if kind == models.KindUnexpected {
		if s.logger != nil {
			s.logger.Error().Err(err).Str("operation", op).Msg("reservation command failed")
		}
		return models.FailResult(kind.String(), "internal error")
	}

	if s.logger != nil {
		s.logger.Debug().Err(err).Str("operation", op).Str("kind", kind.String()).Msg("reservation command rejected")
	}
	return models.FailResult(kind.String(), err.Error())
}
