package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"evcharge/internal/faults"
	"evcharge/internal/models"
	"evcharge/internal/repository"
)

// FeesService exposes fee history and payment settlement. Settling the last
// outstanding fee of a banned user lifts the ban.
type FeesService struct {
	db        *sql.DB
	fees      *repository.FeeRepository
	penalties *PenaltyEngine
	logger    *zap.Logger
}

// NewFeesService builds the service.
func NewFeesService(db *sql.DB, fees *repository.FeeRepository, penalties *PenaltyEngine, logger *zap.Logger) *FeesService {
	return &FeesService{db: db, fees: fees, penalties: penalties, logger: logger}
}

// ListByUser returns the user's fee history.
func (s *FeesService) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Fee, error) {
	return s.fees.ListByUser(ctx, userID, limit)
}

// Pay flips a fee to paid and re-evaluates the payer's ban.
func (s *FeesService) Pay(ctx context.Context, feeID uuid.UUID, userID int64) (*models.Fee, error) {
	fee, err := s.fees.GetByID(ctx, feeID)
	if err == repository.ErrNotFound {
		return nil, faults.Validation("unknown fee %s", feeID)
	}
	if err != nil {
		return nil, err
	}
	if fee.UserID != userID {
		return nil, faults.Authorization("fee does not belong to caller")
	}
	if fee.IsPaid {
		return nil, faults.State("fee is already paid")
	}

	if err := s.fees.MarkPaid(ctx, feeID); err != nil {
		return nil, err
	}
	fee.IsPaid = true

	if err := s.penalties.ReviewBan(ctx, s.db, userID); err != nil {
		s.logger.Warn("ban review failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	s.logger.Info("fee paid",
		zap.String("fee_id", feeID.String()),
		zap.Int64("user_id", userID),
		zap.Float64("amount", fee.Amount),
	)
	return fee, nil
}
