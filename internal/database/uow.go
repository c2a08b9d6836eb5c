package database

import (
	"context"
	"database/sql"
	"fmt"

	"reservio/internal/domain"
	"reservio/internal/events"
	"reservio/internal/models"
	"reservio/internal/spec"
)

// UnitOfWork scopes reservation and outbox writes to one sqlite transaction
// and counts the rows they touch. SaveChanges commits and reports that count.
type UnitOfWork struct {
	tx      *sql.Tx
	changes int
	done    bool
}

// Begin opens a unit of work.
func (db *DB) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &UnitOfWork{tx: tx}, nil
}

// Reservations returns the transaction-scoped repository.
func (u *UnitOfWork) Reservations() domain.Repository {
	return &txRepository{uow: u}
}

// Outbox returns the transaction-scoped event queue.
func (u *UnitOfWork) Outbox() domain.OutboxStore {
	return &txOutbox{uow: u}
}

// SaveChanges commits the transaction and returns the number of rows written.
func (u *UnitOfWork) SaveChanges(ctx context.Context) (int, error) {
	if u.done {
		return 0, fmt.Errorf("unit of work already completed")
	}
	if err := u.tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	u.done = true
	return u.changes, nil
}

// Rollback discards the unit of work. Safe to defer after SaveChanges.
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}

type txRepository struct {
	uow *UnitOfWork
}

func (r *txRepository) Add(ctx context.Context, res *models.Reservation) error {
	rows, err := insertReservation(ctx, r.uow.tx, res)
	r.uow.changes += int(rows)
	return err
}

func (r *txRepository) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	return getReservation(ctx, r.uow.tx, id)
}

func (r *txRepository) Update(ctx context.Context, res *models.Reservation) error {
	rows, err := updateReservation(ctx, r.uow.tx, res)
	r.uow.changes += int(rows)
	return err
}

func (r *txRepository) Delete(ctx context.Context, res *models.Reservation) error {
	rows, err := deleteReservation(ctx, r.uow.tx, res.ID)
	r.uow.changes += int(rows)
	return err
}

func (r *txRepository) Exists(ctx context.Context, id string) (bool, error) {
	return existsReservation(ctx, r.uow.tx, id)
}

func (r *txRepository) Query(ctx context.Context, s spec.Specification) ([]*models.Reservation, error) {
	return queryReservations(ctx, r.uow.tx, s)
}

func (r *txRepository) QueryFirst(ctx context.Context, s spec.Specification) (*models.Reservation, error) {
	matches, err := queryReservations(ctx, r.uow.tx, s.WithPaging(0, 1))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *txRepository) Count(ctx context.Context, s spec.Specification) (int, error) {
	return countReservations(ctx, r.uow.tx, s)
}

type txOutbox struct {
	uow *UnitOfWork
}

func (o *txOutbox) Enqueue(ctx context.Context, event events.Event) error {
	rows, err := insertOutboxEvent(ctx, o.uow.tx, event)
	o.uow.changes += int(rows)
	return err
}
