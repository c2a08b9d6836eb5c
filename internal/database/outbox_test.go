package database

import (
	"context"
	"testing"
	"time"

	"reservio/internal/events"
	"reservio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enqueueOutboxEvent(t *testing.T, db *DB, eventType string, payload any) int64 {
	t.Helper()
	ctx := context.Background()

	event, err := events.NewJSONEvent(eventType, payload)
	require.NoError(t, err)

	uow, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Outbox().Enqueue(ctx, event))
	_, err = uow.SaveChanges(ctx)
	require.NoError(t, err)

	pending, err := db.PendingOutboxEvents(ctx, 100)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	return pending[len(pending)-1].ID
}

func TestPendingOutboxEvents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := enqueueOutboxEvent(t, db, events.EventReservationCreated,
		events.ReservationCreated{ReservationID: "r-1"})
	second := enqueueOutboxEvent(t, db, events.EventReservationConfirmed,
		events.ReservationConfirmed{ReservationID: "r-1"})

	pending, err := db.PendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Oldest first.
	assert.Equal(t, first, pending[0].ID)
	assert.Equal(t, second, pending[1].ID)
	assert.Equal(t, models.OutboxStatusPending, pending[0].Status)

	limited, err := db.PendingOutboxEvents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMarkOutboxPublished(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id := enqueueOutboxEvent(t, db, events.EventReservationCreated,
		events.ReservationCreated{ReservationID: "r-1"})

	require.NoError(t, db.MarkOutboxPublished(ctx, id))

	pending, err := db.PendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMarkOutboxRetry(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id := enqueueOutboxEvent(t, db, events.EventReservationCreated,
		events.ReservationCreated{ReservationID: "r-1"})

	t.Run("FutureRetryInvisible", func(t *testing.T) {
		err := db.MarkOutboxRetry(ctx, id, 1, "bus unavailable", time.Now().Add(time.Hour))
		require.NoError(t, err)

		pending, err := db.PendingOutboxEvents(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("DueRetryVisible", func(t *testing.T) {
		err := db.MarkOutboxRetry(ctx, id, 2, "bus unavailable", time.Now().Add(-time.Second))
		require.NoError(t, err)

		pending, err := db.PendingOutboxEvents(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, models.OutboxStatusRetry, pending[0].Status)
		assert.Equal(t, 2, pending[0].RetryCount)
		assert.Equal(t, "bus unavailable", pending[0].LastError)
	})
}

func TestMarkOutboxFailed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id := enqueueOutboxEvent(t, db, events.EventReservationCreated,
		events.ReservationCreated{ReservationID: "r-1"})

	require.NoError(t, db.MarkOutboxFailed(ctx, id, "gave up"))

	pending, err := db.PendingOutboxEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
