package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"evcharge/internal/models"
)

// ReservationRepository handles persistence of reservations.
type ReservationRepository struct {
	db *sql.DB
}

// NewReservationRepository returns repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, user_id, vehicle_id, charging_point_id, start_time, end_time, status,
	started_battery_pct, expected_battery_pct, created_at, updated_at`

func scanReservation(row interface{ Scan(...interface{}) error }) (*models.Reservation, error) {
	var r models.Reservation
	var status string
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.VehicleID,
		&r.ChargingPointID,
		&r.StartTime,
		&r.EndTime,
		&status,
		&r.StartedBatteryPct,
		&r.ExpectedBatteryPct,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Status, err = models.ParseReservationStatus(status)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByID loads one reservation.
func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return scanReservation(r.db.QueryRowContext(ctx, query, id))
}

// LockTx loads one reservation under FOR UPDATE, serializing sweeps and
// cancellations against the same order.
func (r *ReservationRepository) LockTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return scanReservation(tx.QueryRowContext(ctx, query, id))
}

// ActiveByPoint returns BOOKED and CHARGING reservations of a point that
// intersect the [from, to) window, ordered by start time.
func (r *ReservationRepository) ActiveByPoint(ctx context.Context, pointID string, from, to time.Time) ([]models.Reservation, error) {
	const query = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE charging_point_id = $1
		  AND status IN ('BOOKED', 'CHARGING')
		  AND end_time > $2
		  AND start_time < $3
		ORDER BY start_time
	`
	return r.queryReservations(ctx, r.db, query, pointID, from, to)
}

// ActiveByPointTx is ActiveByPoint inside the commit transaction, used for
// the authoritative overlap re-check after the point lock is held.
func (r *ReservationRepository) ActiveByPointTx(ctx context.Context, tx *sql.Tx, pointID string, from, to time.Time) ([]models.Reservation, error) {
	const query = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE charging_point_id = $1
		  AND status IN ('BOOKED', 'CHARGING')
		  AND end_time > $2
		  AND start_time < $3
		ORDER BY start_time
	`
	return r.queryReservations(ctx, tx, query, pointID, from, to)
}

// CreateTx inserts a reservation inside the commit transaction.
func (r *ReservationRepository) CreateTx(ctx context.Context, tx *sql.Tx, res *models.Reservation) error {
	const query = `
		INSERT INTO reservations (id, user_id, vehicle_id, charging_point_id, start_time, end_time, status,
			started_battery_pct, expected_battery_pct, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return tx.QueryRowContext(ctx, query,
		res.ID,
		res.UserID,
		res.VehicleID,
		res.ChargingPointID,
		res.StartTime,
		res.EndTime,
		string(res.Status),
		res.StartedBatteryPct,
		res.ExpectedBatteryPct,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// SetStatusTx flips the reservation status inside the caller's transaction.
func (r *ReservationRepository) SetStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status models.ReservationStatus) error {
	const query = `UPDATE reservations SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, id, string(status))
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

// CountActiveByUser counts the user's BOOKED and CHARGING reservations.
func (r *ReservationRepository) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	const query = `
		SELECT COUNT(*) FROM reservations
		WHERE user_id = $1 AND status IN ('BOOKED', 'CHARGING')
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// VehicleChargingTx reports whether the vehicle is mid-session on any point,
// checked inside the commit transaction before a book-now fast path.
func (r *ReservationRepository) VehicleChargingTx(ctx context.Context, tx *sql.Tx, vehicleID uuid.UUID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM reservations WHERE vehicle_id = $1 AND status = 'CHARGING'
		)
	`
	var charging bool
	if err := tx.QueryRowContext(ctx, query, vehicleID).Scan(&charging); err != nil {
		return false, err
	}
	return charging, nil
}

// ListByUser returns the user's reservations, newest first.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`
	return r.queryReservations(ctx, r.db, query, userID, limit)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *ReservationRepository) queryReservations(ctx context.Context, q querier, query string, args ...interface{}) ([]models.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}
