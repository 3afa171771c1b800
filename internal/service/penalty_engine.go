package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/collab"
	"evcharge/internal/config"
	"evcharge/internal/models"
	"evcharge/internal/repository"
)

// EventKind is the closed set of penalty-triggering lifecycle events.
type EventKind int

const (
	LateCancelled EventKind = iota
	NoShowDetected
	OvertimeDetected
	OverstayDetected
)

func (k EventKind) String() string {
	switch k {
	case LateCancelled:
		return "LATE_CANCELLED"
	case NoShowDetected:
		return "NO_SHOW_DETECTED"
	case OvertimeDetected:
		return "OVERTIME_DETECTED"
	case OverstayDetected:
		return "OVERSTAY_DETECTED"
	}
	return "UNKNOWN"
}

// Event describes what happened; the engine decides what it costs.
type Event struct {
	Kind          EventKind
	UserID        int64
	ReservationID *uuid.UUID
	SessionID     *uuid.UUID

	// EstimatedCost is the reservation's estimated charge cost, the base
	// for percentage fees (late cancel, no-show).
	EstimatedCost float64

	// MinutesOver carries the overrun length for overtime and overstay.
	MinutesOver int
}

// PenaltyEngine converts lifecycle events into fees and violation bookkeeping.
// Apply always runs inside the transaction of the triggering state change, so
// a fee and its cause commit together or not at all.
type PenaltyEngine struct {
	fees     *repository.FeeRepository
	accounts *repository.AccountRepository
	ledger   collab.PaymentLedger
	notify   collab.NotificationSink
	rules    config.Rules
	logger   *zap.Logger
}

// NewPenaltyEngine builds the engine.
func NewPenaltyEngine(
	fees *repository.FeeRepository,
	accounts *repository.AccountRepository,
	ledger collab.PaymentLedger,
	notify collab.NotificationSink,
	rules config.Rules,
	logger *zap.Logger,
) *PenaltyEngine {
	return &PenaltyEngine{
		fees:     fees,
		accounts: accounts,
		ledger:   ledger,
		notify:   notify,
		rules:    rules,
		logger:   logger,
	}
}

// FeeAmount maps an event to its fee, matched exhaustively over the closed
// event set. Overstay escalates per step block and never drops below the
// configured floor.
func FeeAmount(ev Event, rules config.Rules) (models.FeeType, float64, error) {
	switch ev.Kind {
	case LateCancelled:
		return models.FeeCancel, ev.EstimatedCost * rules.LateCancelFeePct, nil
	case NoShowDetected:
		return models.FeeNoShow, ev.EstimatedCost * rules.NoShowFeePct, nil
	case OvertimeDetected:
		return models.FeeChargingOvertime, float64(ev.MinutesOver) * rules.OvertimeFeePerMin, nil
	case OverstayDetected:
		amount := overstayAmount(ev.MinutesOver, rules)
		return models.FeeParking, amount, nil
	}
	return "", 0, fmt.Errorf("penalty: unhandled event kind %d", int(ev.Kind))
}

func overstayAmount(minutes int, rules config.Rules) float64 {
	if minutes <= 0 {
		return 0
	}
	step := rules.OverstayStepMinutes
	if step <= 0 {
		step = minutes
	}
	rate := rules.OverstayFeePerMin
	var amount float64
	for remaining := minutes; remaining > 0; remaining -= step {
		block := remaining
		if block > step {
			block = step
		}
		amount += float64(block) * rate
		rate *= rules.OverstayStepFactor
	}
	return math.Max(amount, rules.OverstayMinimumFee)
}

// banOnViolation reports whether a violation count crosses the ban threshold
// for an account still in good standing. Violations while already banned or
// inactive still count toward history but never re-ban.
func banOnViolation(count, threshold int, status models.AccountStatus) bool {
	return count >= threshold && status == models.AccountActive
}

// Apply records the fee for an event and updates the user's violation
// standing, all inside the caller's transaction. Overtime and overstay
// events are idempotent per session: a second emission for a session that
// already carries the fee is a silent no-op.
func (e *PenaltyEngine) Apply(ctx context.Context, tx *sql.Tx, ev Event) (*models.Fee, error) {
	feeType, amount, err := FeeAmount(ev, e.rules)
	if err != nil {
		return nil, err
	}

	if ev.SessionID != nil && (ev.Kind == OvertimeDetected || ev.Kind == OverstayDetected) {
		exists, err := e.fees.ExistsForSessionTx(ctx, tx, *ev.SessionID, feeType)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, nil
		}
	}

	fee := &models.Fee{
		ID:            uuid.New(),
		UserID:        ev.UserID,
		Type:          feeType,
		Amount:        amount,
		ReservationID: ev.ReservationID,
		SessionID:     ev.SessionID,
	}
	if err := e.fees.CreateTx(ctx, tx, fee); err != nil {
		return nil, err
	}

	account, err := e.accounts.LockTx(ctx, tx, ev.UserID)
	if err != nil {
		return nil, err
	}
	count, err := e.accounts.IncrementViolationTx(ctx, tx, ev.UserID)
	if err != nil {
		return nil, err
	}

	if banOnViolation(count, e.rules.ViolationBanThreshold, account.Status) {
		reason := fmt.Sprintf("reached %d violations (last: %s)", count, ev.Kind)
		if err := e.accounts.SetStatusTx(ctx, tx, ev.UserID, models.AccountBanned, &reason); err != nil {
			return nil, err
		}
		e.logger.Warn("account banned",
			zap.Int64("user_id", ev.UserID),
			zap.Int("violations", count),
			zap.String("event", ev.Kind.String()),
		)
	}

	e.logger.Info("penalty applied",
		zap.Int64("user_id", ev.UserID),
		zap.String("event", ev.Kind.String()),
		zap.String("fee_type", string(feeType)),
		zap.Float64("amount", amount),
	)
	return fee, nil
}

// ReviewBan lifts a ban once the user has settled every outstanding fee.
// Safe to call for any user; non-banned accounts are untouched.
func (e *PenaltyEngine) ReviewBan(ctx context.Context, db *sql.DB, userID int64) error {
	unpaid, err := e.ledger.HasUnpaid(ctx, userID)
	if err != nil {
		return err
	}
	if unpaid {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	account, err := e.accounts.LockTx(ctx, tx, userID)
	if err != nil {
		return err
	}
	if account.Status != models.AccountBanned {
		return nil
	}
	if err := e.accounts.SetStatusTx(ctx, tx, userID, models.AccountActive, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	e.notify.Notify(ctx, userID, "account reinstated", "all outstanding fees are settled, your account is active again")
	e.logger.Info("account unbanned", zap.Int64("user_id", userID))
	return nil
}
