package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReservationStatus is the closed set of reservation states.
type ReservationStatus string

const (
	ReservationBooked    ReservationStatus = "BOOKED"
	ReservationCharging  ReservationStatus = "CHARGING"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCanceled  ReservationStatus = "CANCELED"
)

// ParseReservationStatus validates a stored status value.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch ReservationStatus(s) {
	case ReservationBooked, ReservationCharging, ReservationCompleted, ReservationCanceled:
		return ReservationStatus(s), nil
	}
	return "", fmt.Errorf("unknown reservation status %q", s)
}

// Active reports whether the reservation still holds its time window.
func (s ReservationStatus) Active() bool {
	return s == ReservationBooked || s == ReservationCharging
}

// Reservation holds a charging point for a user's vehicle over a time window.
type Reservation struct {
	ID                 uuid.UUID         `db:"id" json:"id"`
	UserID             int64             `db:"user_id" json:"user_id"`
	VehicleID          uuid.UUID         `db:"vehicle_id" json:"vehicle_id"`
	ChargingPointID    string            `db:"charging_point_id" json:"charging_point_id"`
	StartTime          time.Time         `db:"start_time" json:"start_time"`
	EndTime            time.Time         `db:"end_time" json:"end_time"`
	Status             ReservationStatus `db:"status" json:"status"`
	StartedBatteryPct  float64           `db:"started_battery_pct" json:"started_battery_pct"`
	ExpectedBatteryPct float64           `db:"expected_battery_pct" json:"expected_battery_pct"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time         `db:"updated_at" json:"updated_at"`
}

// Duration returns the reserved window length.
func (r *Reservation) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
