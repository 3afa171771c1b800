package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the closed set of session states.
type SessionStatus string

const (
	SessionCharging  SessionStatus = "CHARGING"
	SessionParking   SessionStatus = "PARKING"
	SessionCompleted SessionStatus = "COMPLETED"
)

// ParseSessionStatus validates a stored status value.
func ParseSessionStatus(s string) (SessionStatus, error) {
	switch SessionStatus(s) {
	case SessionCharging, SessionParking, SessionCompleted:
		return SessionStatus(s), nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// Session is the append-only record of a charging run against a reservation.
// ParkingSince is set when the vehicle has reached its target battery but
// remains connected.
type Session struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	ReservationID    uuid.UUID     `db:"reservation_id" json:"reservation_id"`
	StartTime        time.Time     `db:"start_time" json:"start_time"`
	EndTime          *time.Time    `db:"end_time" json:"end_time,omitempty"`
	Status           SessionStatus `db:"status" json:"status"`
	PowerConsumedKWh float64       `db:"power_consumed_kwh" json:"power_consumed_kwh"`
	BaseCost         float64       `db:"base_cost" json:"base_cost"`
	ParkingSince     *time.Time    `db:"parking_since" json:"parking_since,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}
