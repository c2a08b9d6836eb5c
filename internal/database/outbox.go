package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reservio/internal/events"
	"reservio/internal/models"
)

func insertOutboxEvent(ctx context.Context, q querier, event events.Event) (int64, error) {
	query := `INSERT INTO event_outbox (event_type, payload, status, retry_count, last_error, created_at)
              VALUES (?, ?, ?, 0, '', ?)`
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	result, err := q.ExecContext(ctx, query, event.Type, event.Payload, models.OutboxStatusPending, createdAt)
	if err != nil {
		return 0, fmt.Errorf("insert outbox event: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

// PendingOutboxEvents returns up to limit events that are due for delivery,
// oldest first.
func (db *DB) PendingOutboxEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	query := `SELECT id, event_type, payload, status, retry_count, last_error, created_at, published_at, next_retry_at
              FROM event_outbox
              WHERE status IN (?, ?) AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, models.OutboxStatusPending, models.OutboxStatusRetry, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("get pending outbox events: %w", err)
	}
	defer rows.Close()

	var pending []models.OutboxEvent
	for rows.Next() {
		var (
			e           models.OutboxEvent
			publishedAt sql.NullTime
			nextRetryAt sql.NullTime
		)
		err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.Status, &e.RetryCount,
			&e.LastError, &e.CreatedAt, &publishedAt, &nextRetryAt)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			e.PublishedAt = &t
		}
		if nextRetryAt.Valid {
			t := nextRetryAt.Time
			e.NextRetryAt = &t
		}
		pending = append(pending, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox events: %w", err)
	}
	return pending, nil
}

// MarkOutboxPublished records a successful delivery.
func (db *DB) MarkOutboxPublished(ctx context.Context, id int64) error {
	query := `UPDATE event_outbox SET status = ?, published_at = ?, last_error = '' WHERE id = ?`
	_, err := db.ExecContext(ctx, query, models.OutboxStatusPublished, time.Now(), id)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

// MarkOutboxRetry schedules another delivery attempt.
func (db *DB) MarkOutboxRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error {
	query := `UPDATE event_outbox SET status = ?, retry_count = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, models.OutboxStatusRetry, retryCount, lastError, nextRetryAt, id)
	if err != nil {
		return fmt.Errorf("mark outbox retry: %w", err)
	}
	return nil
}

// MarkOutboxFailed gives up on an event permanently.
func (db *DB) MarkOutboxFailed(ctx context.Context, id int64, lastError string) error {
	query := `UPDATE event_outbox SET status = ?, last_error = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, models.OutboxStatusFailed, lastError, id)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}
