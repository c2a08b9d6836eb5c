package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"reservio/internal/clock"
	"reservio/internal/events"
	"reservio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWorkCommit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	clk := clock.NewFixed(dbTestNow)

	r, err := models.NewReservation(clk, "alice", dbTestNow.Add(24*time.Hour), dbTestNow.Add(48*time.Hour))
	require.NoError(t, err)

	uow, err := db.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	require.NoError(t, uow.Reservations().Add(ctx, r))

	event, err := events.NewJSONEvent(events.EventReservationCreated, events.ReservationCreated{
		ReservationID: r.ID,
		CustomerID:    r.CustomerID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
	})
	require.NoError(t, err)
	require.NoError(t, uow.Outbox().Enqueue(ctx, event))

	changes, err := uow.SaveChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changes)

	got, err := db.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	pending, err := db.PendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, events.EventReservationCreated, pending[0].EventType)

	var payload events.ReservationCreated
	require.NoError(t, json.Unmarshal(pending[0].Payload, &payload))
	assert.Equal(t, r.ID, payload.ReservationID)
}

func TestUnitOfWorkRollback(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	clk := clock.NewFixed(dbTestNow)

	r, err := models.NewReservation(clk, "alice", dbTestNow.Add(24*time.Hour), dbTestNow.Add(48*time.Hour))
	require.NoError(t, err)

	uow, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Reservations().Add(ctx, r))
	require.NoError(t, uow.Rollback())

	got, err := db.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Rollback after commit is a no-op.
	uow, err = db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Reservations().Add(ctx, r))
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback())

	got, err = db.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestUnitOfWorkConcurrencyConflict(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	clk := clock.NewFixed(dbTestNow)

	r := seedReservation(t, db, "alice", 24*time.Hour, 48*time.Hour)

	// Outside write bumps the version after the transaction loaded the row.
	stale, err := db.GetByID(ctx, r.ID)
	require.NoError(t, err)

	require.NoError(t, r.Confirm(clk))
	r.DrainEvents()
	require.NoError(t, db.Update(ctx, r))

	uow, err := db.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	require.NoError(t, stale.Cancel(clk, "stale"))
	err = uow.Reservations().Update(ctx, stale)
	assert.ErrorIs(t, err, ErrConcurrentModification)
	require.NoError(t, uow.Rollback())
}

func TestUnitOfWorkSaveTwice(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	uow, err := db.Begin(ctx)
	require.NoError(t, err)
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)
	_, err = uow.SaveChanges(ctx)
	assert.Error(t, err)
}
