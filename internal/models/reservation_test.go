package models

import (
	"testing"
	"time"

	"reservio/internal/clock"
	"reservio/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestReservation(t *testing.T, clk clock.Clock) *Reservation {
	t.Helper()
	r, err := NewReservation(clk, "cust-1", testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))
	require.NoError(t, err)
	return r
}

func TestNewReservation(t *testing.T) {
	clk := clock.NewFixed(testNow)

	t.Run("Valid", func(t *testing.T) {
		r := newTestReservation(t, clk)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, "cust-1", r.CustomerID)
		assert.Equal(t, StatusCreated, r.Status)
		assert.Equal(t, testNow, r.CreatedAt)
		assert.Equal(t, testNow, r.ModifiedAt)
		assert.Nil(t, r.ConfirmedAt)
		assert.Nil(t, r.CancelledAt)
		assert.Equal(t, int64(1), r.Version)
		assert.Equal(t, 1, r.PendingEventCount())
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		a := newTestReservation(t, clk)
		b := newTestReservation(t, clk)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("EmptyCustomerID", func(t *testing.T) {
		_, err := NewReservation(clk, "   ", testNow.Add(time.Hour), testNow.Add(2*time.Hour))
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		_, err := NewReservation(clk, "cust-1", testNow.Add(2*time.Hour), testNow.Add(time.Hour))
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("EndInPast", func(t *testing.T) {
		_, err := NewReservation(clk, "cust-1", testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))
		require.Error(t, err)
		assert.Equal(t, KindBusinessRule, KindOf(err))
	})

	t.Run("EndExactlyNow", func(t *testing.T) {
		_, err := NewReservation(clk, "cust-1", testNow.Add(-time.Hour), testNow)
		require.Error(t, err)
		assert.Equal(t, KindBusinessRule, KindOf(err))
	})

	t.Run("ZeroLengthInFuture", func(t *testing.T) {
		at := testNow.Add(time.Hour)
		r, err := NewReservation(clk, "cust-1", at, at)
		require.NoError(t, err)
		assert.Equal(t, StatusCreated, r.Status)
	})
}

func TestReservationConfirm(t *testing.T) {
	clk := clock.NewFixed(testNow)

	t.Run("FromCreated", func(t *testing.T) {
		r := newTestReservation(t, clk)
		err := r.Confirm(clk)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, r.Status)
		require.NotNil(t, r.ConfirmedAt)
		assert.Equal(t, testNow, *r.ConfirmedAt)
		assert.Equal(t, testNow, r.ModifiedAt)
	})

	t.Run("Twice", func(t *testing.T) {
		r := newTestReservation(t, clk)
		require.NoError(t, r.Confirm(clk))
		err := r.Confirm(clk)
		require.Error(t, err)
		assert.Equal(t, KindInvalidState, KindOf(err))
	})

	t.Run("AfterCancel", func(t *testing.T) {
		r := newTestReservation(t, clk)
		require.NoError(t, r.Cancel(clk, "changed plans"))
		err := r.Confirm(clk)
		require.Error(t, err)
		assert.Equal(t, KindInvalidState, KindOf(err))
	})
}

func TestReservationCancel(t *testing.T) {
	t.Run("FromCreated", func(t *testing.T) {
		clk := clock.NewFixed(testNow)
		r := newTestReservation(t, clk)
		err := r.Cancel(clk, "changed plans")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, r.Status)
		require.NotNil(t, r.CancelledAt)
		assert.Equal(t, "changed plans", r.CancellationReason)
	})

	t.Run("CreatedAfterStartDate", func(t *testing.T) {
		// A created reservation may be cancelled even after it started.
		clk := clock.NewFixed(testNow)
		r := newTestReservation(t, clk)
		clk.Advance(30 * time.Hour)
		err := r.Cancel(clk, "")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, r.Status)
	})

	t.Run("ConfirmedBeforeStartDate", func(t *testing.T) {
		clk := clock.NewFixed(testNow)
		r := newTestReservation(t, clk)
		require.NoError(t, r.Confirm(clk))
		err := r.Cancel(clk, "weather")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, r.Status)
	})

	t.Run("ConfirmedAtStartDate", func(t *testing.T) {
		// now == start date counts as started.
		clk := clock.NewFixed(testNow)
		r := newTestReservation(t, clk)
		require.NoError(t, r.Confirm(clk))
		clk.Set(r.StartDate)
		err := r.Cancel(clk, "")
		require.Error(t, err)
		assert.Equal(t, KindBusinessRule, KindOf(err))
		assert.Equal(t, StatusConfirmed, r.Status)
	})

	t.Run("ConfirmedAfterStartDate", func(t *testing.T) {
		clk := clock.NewFixed(testNow)
		r := newTestReservation(t, clk)
		require.NoError(t, r.Confirm(clk))
		clk.Set(r.StartDate.Add(time.Minute))
		err := r.Cancel(clk, "")
		require.Error(t, err)
		assert.Equal(t, KindBusinessRule, KindOf(err))
	})

	t.Run("Twice", func(t *testing.T) {
		clk := clock.NewFixed(testNow)
		r := newTestReservation(t, clk)
		require.NoError(t, r.Cancel(clk, "first"))
		err := r.Cancel(clk, "second")
		require.Error(t, err)
		assert.Equal(t, KindInvalidState, KindOf(err))
		assert.Equal(t, "first", r.CancellationReason)
	})
}

func TestReservationIsActive(t *testing.T) {
	clk := clock.NewFixed(testNow)
	r := newTestReservation(t, clk)

	assert.True(t, r.IsActive(testNow))
	assert.True(t, r.IsActive(r.EndDate.Add(-time.Minute)))
	assert.False(t, r.IsActive(r.EndDate))

	require.NoError(t, r.Cancel(clk, ""))
	assert.False(t, r.IsActive(testNow))
}

func TestReservationEvents(t *testing.T) {
	clk := clock.NewFixed(testNow)

	t.Run("FullLifecycle", func(t *testing.T) {
		r := newTestReservation(t, clk)
		require.NoError(t, r.Confirm(clk))

		pending := r.DrainEvents()
		require.Len(t, pending, 2)
		assert.Equal(t, events.EventReservationCreated, pending[0].Type)
		assert.Equal(t, events.EventReservationConfirmed, pending[1].Type)

		created, ok := pending[0].Payload.(events.ReservationCreated)
		require.True(t, ok)
		assert.Equal(t, r.ID, created.ReservationID)
		assert.Equal(t, "cust-1", created.CustomerID)
	})

	t.Run("DrainClearsBuffer", func(t *testing.T) {
		r := newTestReservation(t, clk)
		assert.Equal(t, 1, r.PendingEventCount())
		r.DrainEvents()
		assert.Equal(t, 0, r.PendingEventCount())
		assert.Empty(t, r.DrainEvents())
	})

	t.Run("CancelPayload", func(t *testing.T) {
		r := newTestReservation(t, clk)
		r.DrainEvents()
		require.NoError(t, r.Cancel(clk, "weather"))

		pending := r.DrainEvents()
		require.Len(t, pending, 1)
		cancelled, ok := pending[0].Payload.(events.ReservationCancelled)
		require.True(t, ok)
		assert.Equal(t, "weather", cancelled.Reason)
	})

	t.Run("FailedTransitionRecordsNothing", func(t *testing.T) {
		r := newTestReservation(t, clk)
		r.DrainEvents()
		require.NoError(t, r.Cancel(clk, ""))
		r.DrainEvents()
		require.Error(t, r.Confirm(clk))
		assert.Equal(t, 0, r.PendingEventCount())
	})
}
