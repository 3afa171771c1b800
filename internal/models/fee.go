package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeeType is the closed set of penalty fee kinds.
type FeeType string

const (
	FeeCancel           FeeType = "CANCEL"
	FeeNoShow           FeeType = "NO_SHOW"
	FeeChargingOvertime FeeType = "CHARGING_OVERTIME"
	FeeParking          FeeType = "PARKING"
)

// ParseFeeType validates a stored fee type value.
func ParseFeeType(s string) (FeeType, error) {
	switch FeeType(s) {
	case FeeCancel, FeeNoShow, FeeChargingOvertime, FeeParking:
		return FeeType(s), nil
	}
	return "", fmt.Errorf("unknown fee type %q", s)
}

// Fee is a monetary penalty attached to a reservation or session.
// Immutable after creation except for the IsPaid flip on payment.
type Fee struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Type          FeeType    `db:"fee_type" json:"fee_type"`
	Amount        float64    `db:"amount" json:"amount"`
	IsPaid        bool       `db:"is_paid" json:"is_paid"`
	ReservationID *uuid.UUID `db:"reservation_id" json:"reservation_id,omitempty"`
	SessionID     *uuid.UUID `db:"session_id" json:"session_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
