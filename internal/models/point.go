package models

import (
	"fmt"
	"time"
)

// PointStatus is the closed set of charging point states. A scheduled
// reservation does not change the point's status; the point stays AVAILABLE
// until its session actually starts.
type PointStatus string

const (
	PointAvailable PointStatus = "AVAILABLE"
	PointOccupied  PointStatus = "OCCUPIED"
)

// ParsePointStatus validates a stored status value.
func ParsePointStatus(s string) (PointStatus, error) {
	switch PointStatus(s) {
	case PointAvailable, PointOccupied:
		return PointStatus(s), nil
	}
	return "", fmt.Errorf("unknown point status %q", s)
}

// ChargingPoint is the physical resource being reserved and locked.
type ChargingPoint struct {
	ID            string      `db:"id" json:"id"`
	StationID     string      `db:"station_id" json:"station_id"`
	ConnectorType string      `db:"connector_type" json:"connector_type"`
	PowerKW       float64     `db:"power_kw" json:"power_kw"`
	Status        PointStatus `db:"status" json:"status"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}
