package domain

import (
	"context"
	"time"

	"reservio/internal/events"
	"reservio/internal/models"
	"reservio/internal/spec"
)

// Repository is the persistence contract for the reservation aggregate.
// GetByID and QueryFirst return nil without error when nothing matches.
type Repository interface {
	Add(ctx context.Context, r *models.Reservation) error
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	Update(ctx context.Context, r *models.Reservation) error
	Delete(ctx context.Context, r *models.Reservation) error
	Exists(ctx context.Context, id string) (bool, error)
	Query(ctx context.Context, s spec.Specification) ([]*models.Reservation, error)
	QueryFirst(ctx context.Context, s spec.Specification) (*models.Reservation, error)
	Count(ctx context.Context, s spec.Specification) (int, error)
}

// OutboxStore enqueues drained domain events for later delivery.
type OutboxStore interface {
	Enqueue(ctx context.Context, event events.Event) error
}

// UnitOfWork scopes repository and outbox writes to one transaction.
// SaveChanges commits and reports the number of rows written.
type UnitOfWork interface {
	Reservations() Repository
	Outbox() OutboxStore
	SaveChanges(ctx context.Context) (int, error)
	Rollback() error
}

// Store combines read access with the ability to open a unit of work.
type Store interface {
	Repository
	Begin(ctx context.Context) (UnitOfWork, error)
}

// EventPublisher forwards domain events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// RateLimitRepository tracks request counts per client key within a window.
type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// ReservationService is the application-facing command and query surface.
type ReservationService interface {
	CreateReservation(ctx context.Context, customerID string, startDate, endDate time.Time) models.Result
	ConfirmReservation(ctx context.Context, id string) models.Result
	CancelReservation(ctx context.Context, id string, reason string) models.Result
	GetReservation(ctx context.Context, id string) (*models.ReservationView, error)
	GetReservationsByCustomer(ctx context.Context, customerID string) ([]models.ReservationView, error)
	GetCustomerReservationsPage(ctx context.Context, customerID string, skip, take int) (*models.ReservationPage, error)
	GetConfirmedByCustomer(ctx context.Context, customerID string) ([]models.ReservationView, error)
	GetActiveReservations(ctx context.Context) ([]models.ReservationView, error)
	GetUpcomingReservations(ctx context.Context) ([]models.ReservationView, error)
	GetReservationsByStatus(ctx context.Context, status models.Status) ([]models.ReservationView, error)
	ReservationsForPeriod(ctx context.Context, from, to time.Time) ([]models.ReservationView, error)
}
