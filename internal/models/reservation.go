package models

import (
	"strings"
	"time"

	"reservio/internal/clock"
	"reservio/internal/events"

	"github.com/google/uuid"
)

// PendingEvent is a lifecycle fact buffered on the aggregate until the
// persistence boundary drains it after a successful save.
type PendingEvent struct {
	Type    string
	Payload interface{}
}

// Reservation is the aggregate root. All lifecycle transitions go through
// Confirm and Cancel; the status field is never written directly by callers.
type Reservation struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customer_id"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	Status             Status     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	ModifiedAt         time.Time  `json:"modified_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	Version            int64      `json:"version"`

	pending []PendingEvent
}

// NewReservation validates input against the current instant and returns a
// reservation in the created state with one buffered creation event.
func NewReservation(clk clock.Clock, customerID string, startDate, endDate time.Time) (*Reservation, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, NewValidationError("customer id is required")
	}
	if endDate.Before(startDate) {
		return nil, NewValidationError("end date %s is before start date %s",
			endDate.Format(time.RFC3339), startDate.Format(time.RFC3339))
	}

	now := clk.Now()
	if !endDate.After(now) {
		return nil, NewBusinessRuleError("reservation must end in the future")
	}

	r := &Reservation{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		StartDate:  startDate,
		EndDate:    endDate,
		Status:     StatusCreated,
		CreatedAt:  now,
		ModifiedAt: now,
		Version:    1,
	}

	r.record(events.EventReservationCreated, events.ReservationCreated{
		ReservationID: r.ID,
		CustomerID:    r.CustomerID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
	})

	return r, nil
}

// Confirm moves a created reservation to confirmed. Not idempotent: a second
// call fails.
func (r *Reservation) Confirm(clk clock.Clock) error {
	if !r.Status.CanBeConfirmed() {
		return NewInvalidStateError("reservation %s cannot be confirmed in status %s", r.ID, r.Status)
	}

	now := clk.Now()
	r.Status = StatusConfirmed
	r.ConfirmedAt = &now
	r.ModifiedAt = now

	r.record(events.EventReservationConfirmed, events.ReservationConfirmed{
		ReservationID: r.ID,
		ConfirmedAt:   now,
	})

	return nil
}

// Cancel moves the reservation to the terminal cancelled state. A confirmed
// reservation is locked in once its start date has passed; a created one may
// be cancelled at any time.
func (r *Reservation) Cancel(clk clock.Clock, reason string) error {
	if !r.Status.CanBeCancelled() {
		return NewInvalidStateError("reservation %s is already cancelled", r.ID)
	}

	now := clk.Now()
	if r.Status == StatusConfirmed && !now.Before(r.StartDate) {
		return NewBusinessRuleError("confirmed reservation %s cannot be cancelled after its start date", r.ID)
	}

	r.Status = StatusCancelled
	r.CancelledAt = &now
	r.ModifiedAt = now
	r.CancellationReason = reason

	r.record(events.EventReservationCancelled, events.ReservationCancelled{
		ReservationID: r.ID,
		CancelledAt:   now,
		Reason:        reason,
	})

	return nil
}

// IsActive reports whether the reservation still occupies its slot: not
// cancelled and not yet past its end date.
func (r *Reservation) IsActive(now time.Time) bool {
	return r.Status != StatusCancelled && r.EndDate.After(now)
}

func (r *Reservation) record(eventType string, payload interface{}) {
	r.pending = append(r.pending, PendingEvent{Type: eventType, Payload: payload})
}

// DrainEvents returns the buffered lifecycle events and clears the buffer.
// Called by the persistence boundary after a successful save.
func (r *Reservation) DrainEvents() []PendingEvent {
	drained := r.pending
	r.pending = nil
	return drained
}

// PendingEventCount exposes the buffer size without draining it.
func (r *Reservation) PendingEventCount() int {
	return len(r.pending)
}
