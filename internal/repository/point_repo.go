package repository

import (
	"context"
	"database/sql"
	"errors"

	"evcharge/internal/models"
)

// PointRepository handles persistence of charging points.
type PointRepository struct {
	db *sql.DB
}

// NewPointRepository returns repository.
func NewPointRepository(db *sql.DB) *PointRepository {
	return &PointRepository{db: db}
}

const pointColumns = `id, station_id, connector_type, power_kw, status, created_at, updated_at`

func scanPoint(row interface{ Scan(...interface{}) error }) (*models.ChargingPoint, error) {
	var p models.ChargingPoint
	var status string
	err := row.Scan(&p.ID, &p.StationID, &p.ConnectorType, &p.PowerKW, &status, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Status, err = models.ParsePointStatus(status)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID loads one charging point.
func (r *PointRepository) GetByID(ctx context.Context, id string) (*models.ChargingPoint, error) {
	const query = `SELECT ` + pointColumns + ` FROM charging_points WHERE id = $1`
	return scanPoint(r.db.QueryRowContext(ctx, query, id))
}

// ListByStation returns all points of a station.
func (r *PointRepository) ListByStation(ctx context.Context, stationID string) ([]models.ChargingPoint, error) {
	const query = `SELECT ` + pointColumns + ` FROM charging_points WHERE station_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.ChargingPoint
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		points = append(points, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// LockTx acquires the exclusive row lock on the point, blocking concurrent
// reservation commits against the same resource until the transaction ends.
func (r *PointRepository) LockTx(ctx context.Context, tx *sql.Tx, id string) (*models.ChargingPoint, error) {
	const query = `SELECT ` + pointColumns + ` FROM charging_points WHERE id = $1 FOR UPDATE`
	return scanPoint(tx.QueryRowContext(ctx, query, id))
}

// SetStatusTx flips the point status inside the caller's transaction.
func (r *PointRepository) SetStatusTx(ctx context.Context, tx *sql.Tx, id string, status models.PointStatus) error {
	const query = `UPDATE charging_points SET status = $2, updated_at = NOW() WHERE id = $1`
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
