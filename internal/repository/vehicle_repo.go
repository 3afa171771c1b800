package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"evcharge/internal/models"
)

// VehicleRepository handles vehicle lookups.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// GetByID loads one vehicle.
func (r *VehicleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	const query = `
		SELECT id, user_id, connector_type, battery_capacity_kwh, created_at, updated_at
		FROM vehicles
		WHERE id = $1
	`
	var v models.Vehicle
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&v.ID,
		&v.UserID,
		&v.ConnectorType,
		&v.BatteryCapacityKWh,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
