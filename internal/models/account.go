package models

import (
	"fmt"
	"time"
)

// AccountStatus is the closed set of user account states.
type AccountStatus string

const (
	AccountActive   AccountStatus = "ACTIVE"
	AccountInactive AccountStatus = "INACTIVE"
	AccountBanned   AccountStatus = "BANNED"
)

// ParseAccountStatus validates a stored status value.
func ParseAccountStatus(s string) (AccountStatus, error) {
	switch AccountStatus(s) {
	case AccountActive, AccountInactive, AccountBanned:
		return AccountStatus(s), nil
	}
	return "", fmt.Errorf("unknown account status %q", s)
}

// Account tracks a user's violation history and standing.
type Account struct {
	ID             int64         `db:"id" json:"id"`
	Status         AccountStatus `db:"status" json:"status"`
	ViolationCount int           `db:"violation_count" json:"violation_count"`
	BanReason      *string       `db:"ban_reason" json:"ban_reason,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}
