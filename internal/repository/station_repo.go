package repository

import (
	"context"
	"database/sql"
	"errors"

	"evcharge/internal/models"
)

// ErrNotFound indicates a missing row, regardless of entity.
var ErrNotFound = errors.New("repository: not found")

// StationRepository stores charging location metadata.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

// GetByID loads one station.
func (r *StationRepository) GetByID(ctx context.Context, id string) (*models.Station, error) {
	const query = `
		SELECT id, name, latitude, longitude, opens_at, closes_at, created_at, updated_at
		FROM stations
		WHERE id = $1
	`
	var s models.Station
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.Name,
		&s.Latitude,
		&s.Longitude,
		&s.OpensAt,
		&s.ClosesAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
