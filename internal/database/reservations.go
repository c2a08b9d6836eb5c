package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"reservio/internal/models"
	"reservio/internal/spec"
)

const reservationColumns = `id, customer_id, start_date, end_date, status, created_at,
                 modified_at, confirmed_at, cancelled_at, cancellation_reason, version`

// Add inserts a new reservation row.
func (db *DB) Add(ctx context.Context, r *models.Reservation) error {
	_, err := insertReservation(ctx, db.DB, r)
	return err
}

// GetByID loads a reservation, returning nil without error when absent.
func (db *DB) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	return getReservation(ctx, db.DB, id)
}

// Update writes the aggregate back with an optimistic version check.
func (db *DB) Update(ctx context.Context, r *models.Reservation) error {
	_, err := updateReservation(ctx, db.DB, r)
	return err
}

// Delete removes the reservation row.
func (db *DB) Delete(ctx context.Context, r *models.Reservation) error {
	_, err := deleteReservation(ctx, db.DB, r.ID)
	return err
}

// Exists reports whether a reservation row is present.
func (db *DB) Exists(ctx context.Context, id string) (bool, error) {
	return existsReservation(ctx, db.DB, id)
}

// Query returns all reservations matching the specification, in its order,
// windowed by its paging.
func (db *DB) Query(ctx context.Context, s spec.Specification) ([]*models.Reservation, error) {
	return queryReservations(ctx, db.DB, s)
}

// QueryFirst returns the first match or nil.
func (db *DB) QueryFirst(ctx context.Context, s spec.Specification) (*models.Reservation, error) {
	matches, err := queryReservations(ctx, db.DB, s.WithPaging(0, 1))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

// Count returns the number of matches, ignoring ordering and paging.
func (db *DB) Count(ctx context.Context, s spec.Specification) (int, error) {
	return countReservations(ctx, db.DB, s)
}

func insertReservation(ctx context.Context, q querier, r *models.Reservation) (int64, error) {
	query := `INSERT INTO reservations (` + reservationColumns + `)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := q.ExecContext(ctx, query,
		r.ID,
		r.CustomerID,
		r.StartDate,
		r.EndDate,
		r.Status.String(),
		r.CreatedAt,
		r.ModifiedAt,
		nullableTime(r.ConfirmedAt),
		nullableTime(r.CancelledAt),
		r.CancellationReason,
		r.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func getReservation(ctx context.Context, q querier, id string) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	r, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func updateReservation(ctx context.Context, q querier, r *models.Reservation) (int64, error) {
	query := `UPDATE reservations
              SET customer_id = ?, start_date = ?, end_date = ?, status = ?,
                  modified_at = ?, confirmed_at = ?, cancelled_at = ?,
                  cancellation_reason = ?, version = version + 1
              WHERE id = ? AND version = ?`
	result, err := q.ExecContext(ctx, query,
		r.CustomerID,
		r.StartDate,
		r.EndDate,
		r.Status.String(),
		r.ModifiedAt,
		nullableTime(r.ConfirmedAt),
		nullableTime(r.CancelledAt),
		r.CancellationReason,
		r.ID,
		r.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("update reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return 0, ErrConcurrentModification
	}
	r.Version++
	return rows, nil
}

func deleteReservation(ctx context.Context, q querier, id string) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func existsReservation(ctx context.Context, q querier, id string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check reservation exists: %w", err)
	}
	return true, nil
}

func queryReservations(ctx context.Context, q querier, s spec.Specification) ([]*models.Reservation, error) {
	where, args := specCriteria(s)

	var sb strings.Builder
	sb.WriteString(`SELECT ` + reservationColumns + ` FROM reservations WHERE `)
	sb.WriteString(where)

	if order := specOrder(s); order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(order)
	}

	if s.HasPaging {
		// Negative LIMIT means unbounded in sqlite; skip still applies.
		take := int64(s.Take)
		if take <= 0 {
			take = -1
		}
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, take, s.Skip)
	}

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations (%s): %w", s.Kind, err)
	}
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return reservations, nil
}

func countReservations(ctx context.Context, q querier, s spec.Specification) (int, error) {
	where, args := specCriteria(s)
	var count int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reservations (%s): %w", s.Kind, err)
	}
	return count, nil
}

// specCriteria translates the specification's filter into a WHERE clause.
func specCriteria(s spec.Specification) (string, []any) {
	switch s.Kind {
	case spec.KindByCustomer:
		return `customer_id = ?`, []any{s.CustomerID}
	case spec.KindActive:
		return `status != ? AND end_date > ?`, []any{models.StatusCancelled.String(), s.Now}
	case spec.KindUpcoming:
		return `status != ? AND start_date > ?`, []any{models.StatusCancelled.String(), s.Now}
	case spec.KindConfirmedForCustomer:
		return `customer_id = ? AND status = ?`, []any{s.CustomerID, models.StatusConfirmed.String()}
	case spec.KindByStatus:
		return `status = ?`, []any{s.Status.String()}
	default:
		return `1 = 1`, nil
	}
}

func specOrder(s spec.Specification) string {
	var column string
	switch s.Order {
	case spec.OrderStartDate:
		column = "start_date"
	case spec.OrderCreatedAt:
		column = "created_at"
	case spec.OrderConfirmedAt:
		column = "COALESCE(confirmed_at, created_at)"
	default:
		return ""
	}
	if s.Descending {
		return column + " DESC"
	}
	return column + " ASC"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*models.Reservation, error) {
	var (
		r           models.Reservation
		status      string
		confirmedAt sql.NullTime
		cancelledAt sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.CustomerID, &r.StartDate, &r.EndDate, &status, &r.CreatedAt,
		&r.ModifiedAt, &confirmedAt, &cancelledAt, &r.CancellationReason, &r.Version,
	)
	if err != nil {
		return nil, err
	}

	r.Status = models.Status(status)
	if confirmedAt.Valid {
		t := confirmedAt.Time
		r.ConfirmedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		r.CancelledAt = &t
	}
	return &r, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
