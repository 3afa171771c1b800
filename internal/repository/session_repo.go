package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"evcharge/internal/models"
)

// SessionRepository handles persistence of charging sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, reservation_id, start_time, end_time, status, power_consumed_kwh, base_cost,
	parking_since, created_at, updated_at`

func scanSession(row interface{ Scan(...interface{}) error }) (*models.Session, error) {
	var s models.Session
	var status string
	var endTime, parkingSince sql.NullTime
	err := row.Scan(
		&s.ID,
		&s.ReservationID,
		&s.StartTime,
		&endTime,
		&status,
		&s.PowerConsumedKWh,
		&s.BaseCost,
		&parkingSince,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		s.EndTime = &t
	}
	if parkingSince.Valid {
		t := parkingSince.Time
		s.ParkingSince = &t
	}
	s.Status, err = models.ParseSessionStatus(status)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID loads one session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM charging_sessions WHERE id = $1`
	return scanSession(r.db.QueryRowContext(ctx, query, id))
}

// GetByReservation loads the session created for a reservation, if any.
func (r *SessionRepository) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM charging_sessions WHERE reservation_id = $1`
	return scanSession(r.db.QueryRowContext(ctx, query, reservationID))
}

// LockTx loads one session under FOR UPDATE for lifecycle transitions.
func (r *SessionRepository) LockTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM charging_sessions WHERE id = $1 FOR UPDATE`
	return scanSession(tx.QueryRowContext(ctx, query, id))
}

// CreateTx inserts a new session inside the caller's transaction.
func (r *SessionRepository) CreateTx(ctx context.Context, tx *sql.Tx, s *models.Session) error {
	const query = `
		INSERT INTO charging_sessions (id, reservation_id, start_time, status, power_consumed_kwh, base_cost, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return tx.QueryRowContext(ctx, query,
		s.ID,
		s.ReservationID,
		s.StartTime,
		string(s.Status),
		s.PowerConsumedKWh,
		s.BaseCost,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// UpdateProgress persists the recomputed energy and cost of a poll.
func (r *SessionRepository) UpdateProgress(ctx context.Context, id uuid.UUID, energyKWh, cost float64) error {
	const query = `
		UPDATE charging_sessions
		SET power_consumed_kwh = $2, base_cost = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, energyKWh, cost)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkParkingTx freezes energy at the target-reached instant and flips the
// session to PARKING inside the caller's transaction.
func (r *SessionRepository) MarkParkingTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, since time.Time, energyKWh, cost float64) error {
	const query = `
		UPDATE charging_sessions
		SET status = $2, parking_since = $3, power_consumed_kwh = $4, base_cost = $5, updated_at = NOW()
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, id, string(models.SessionParking), since, energyKWh, cost)
	return err
}

// FinishTx finalizes the session inside the caller's transaction.
func (r *SessionRepository) FinishTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, endTime time.Time, energyKWh, cost float64) error {
	const query = `
		UPDATE charging_sessions
		SET status = $2, end_time = $3, power_consumed_kwh = $4, base_cost = $5, updated_at = NOW()
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, query, id, string(models.SessionCompleted), endTime, energyKWh, cost)
	return err
}
