package models

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle carries the battery and connector data needed for booking.
type Vehicle struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	UserID             int64     `db:"user_id" json:"user_id"`
	ConnectorType      string    `db:"connector_type" json:"connector_type"`
	BatteryCapacityKWh float64   `db:"battery_capacity_kwh" json:"battery_capacity_kwh"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
